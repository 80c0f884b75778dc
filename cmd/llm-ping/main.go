// llm-ping — утилита для проверки доступности ZhipuAI провайдера.
//
// Использование:
//   go run cmd/llm-ping/main.go [config.yaml] [prompt]
//
// Переменные окружения:
//   ZHIPUAI_API_KEY - API ключ ZhipuAI (если не задан в config.yaml)
//
// Конфигурация:
//   Использует config.yaml из текущей директории
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sjy/llm-universe/pkg/config"
	"github.com/sjy/llm-universe/pkg/debug"
	"github.com/sjy/llm-universe/pkg/models"
	"github.com/sjy/llm-universe/pkg/utils"
)

func main() {
	// 1. Загружаем конфигурацию
	cfgPath := "config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config from %s: %v", cfgPath, err)
	}

	if err := utils.InitLoggerAt(cfg.App.LogsDir); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer utils.Close()
	utils.EnableDebug(cfg.App.Debug)

	// 2. Создаем реестр моделей (credentials проверяются тут же)
	registry, err := models.NewRegistryFromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to create model registry: %v", err)
	}

	// 3. Выбираем модель: дефолтную или первую доступную
	modelAlias := registry.Default()
	if modelAlias == "" {
		names := registry.ListNames()
		if len(names) == 0 {
			log.Fatal("No models configured")
		}
		modelAlias = names[0]
		fmt.Printf("⚠️  No default_chat configured, using %q\n", modelAlias)
	}

	provider, modelDef, err := registry.Get(modelAlias)
	if err != nil {
		log.Fatalf("Failed to get model: %v", err)
	}

	prompt := "Ответь одним словом: pong"
	if len(os.Args) > 2 {
		prompt = os.Args[2]
	}

	fmt.Printf("🔍 Pinging LLM provider: %s (%s)\n\n", modelAlias, modelDef.ModelName)

	// 4. Опциональный debug-трейс
	var recorder *debug.Recorder
	if cfg.App.Debug {
		recorder, err = debug.NewRecorder(debug.RecorderConfig{
			LogsDir:       cfg.App.LogsDir,
			IncludeParams: true,
			MaxTextSize:   2000,
		})
		if err != nil {
			log.Fatalf("Failed to create debug recorder: %v", err)
		}
	}

	// 5. Выполняем одиночный вызов с таймаутом
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	answer, callErr := provider.Call(ctx, prompt)
	latency := time.Since(start)

	if recorder != nil {
		ex := debug.Exchange{
			Model:     modelDef.ModelName,
			Streaming: modelDef.Streaming,
			Response:  answer,
			Duration:  latency.Milliseconds(),
		}
		if callErr != nil {
			ex.Error = callErr.Error()
		}
		recorder.RecordExchange(ex)

		if path, err := recorder.Finalize(); err == nil {
			fmt.Printf("📝 Trace saved: %s\n\n", path)
		}
	}

	// 6. Выводим результат
	if callErr != nil {
		fmt.Printf("❌ Status: UNAVAILABLE\n")
		fmt.Printf("   Model: %s\n", modelDef.ModelName)
		fmt.Printf("   Latency: %dms\n", latency.Milliseconds())
		fmt.Printf("   Error: %v\n", callErr)
		os.Exit(1)
	}

	fmt.Printf("✅ Status: AVAILABLE\n")
	fmt.Printf("   Model: %s\n", modelDef.ModelName)
	fmt.Printf("   Latency: %dms\n", latency.Milliseconds())
	fmt.Printf("   Answer: %s\n", answer)
}
