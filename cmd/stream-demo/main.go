// stream-demo — CLI утилита для проверки потоковой генерации.
//
// Подписывается на события прогресса и печатает фрагменты по мере прихода.
//
// Использование:
//   go run cmd/stream-demo/main.go "Расскажи про квантовые компьютеры"
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sjy/llm-universe/pkg/config"
	"github.com/sjy/llm-universe/pkg/events"
	"github.com/sjy/llm-universe/pkg/llm"
	"github.com/sjy/llm-universe/pkg/models"
	"github.com/sjy/llm-universe/pkg/utils"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: stream-demo <prompt>")
		fmt.Println("Example: stream-demo 'Explain quantum computing'")
		os.Exit(1)
	}
	prompt := os.Args[1]

	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := utils.InitLoggerAt(cfg.App.LogsDir); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer utils.Close()
	utils.EnableDebug(cfg.App.Debug)

	registry, err := models.NewRegistryFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create model registry: %v\n", err)
		os.Exit(1)
	}

	provider, modelDef, _, err := registry.GetWithFallback("", registry.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get model: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Ctrl+C отменяет генерацию, а не убивает процесс на полуслове
	cleanup := utils.SetupGracefulShutdown(cancel)
	defer cleanup()

	// Emitter создаётся ДО запуска генерации, подписка — до первого Emit
	emitter := events.NewChanEmitter(100)
	sub := emitter.Subscribe()

	fmt.Println("=== Streaming Demo ===")
	fmt.Printf("Model: %s\n", modelDef.ModelName)
	fmt.Printf("Prompt: %s\n\n", prompt)
	fmt.Println("--- Fragments ---")

	resultChan := make(chan llm.Result, 1)
	go func() {
		text, err := provider.Stream(ctx, prompt, nil, llm.WithEmitter(emitter))
		resultChan <- llm.Result{Text: text, Err: err}
		emitter.Close()
	}()

	fragments := 0
	for event := range sub.Events() {
		switch data := event.Data.(type) {
		case events.FragmentData:
			fmt.Print(data.Chunk)
			fragments++
		case events.ErrorData:
			fmt.Printf("\n[ERROR] %v\n", data.Err)
		case events.MessageData:
			if event.Type == events.EventDone {
				fmt.Printf("\n\n--- Done ---\n")
			}
		}
	}

	result := <-resultChan
	if result.Err != nil {
		// Частичный агрегат отдаётся даже при обрыве потока
		if result.Text != "" {
			fmt.Printf("Partial result (%d chars): %s\n", len(result.Text), result.Text)
		}
		fmt.Fprintf(os.Stderr, "Stream failed: %v\n", result.Err)
		os.Exit(1)
	}

	fmt.Printf("Fragments: %d\n", fragments)
	fmt.Printf("Length: %d chars\n", len(result.Text))
}
