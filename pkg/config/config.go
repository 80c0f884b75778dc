package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig — корневая структура конфигурации.
// Она зеркалит структуру твоего config.yaml.
type AppConfig struct {
	Models ModelsConfig `yaml:"models"`
	App    AppSpecific  `yaml:"app"`
}

// ModelsConfig — настройки AI моделей.
type ModelsConfig struct {
	DefaultChat string              `yaml:"default_chat"` // Алиас модели по умолчанию (например, "glm-4")
	Definitions map[string]ModelDef `yaml:"definitions"`  // Словарь определений моделей
}

// ModelDef — параметры конкретной модели.
//
// После конструирования клиента структура не мутируется: безопасна
// для конкурентного чтения.
type ModelDef struct {
	Provider    string        `yaml:"provider"`    // "zhipu", "zhipuai", "glm"
	ModelName   string        `yaml:"model_name"`  // Реальное имя в API
	APIKey      string        `yaml:"api_key"`     // Поддерживает ${VAR}; fallback на ZHIPUAI_API_KEY
	BaseURL     string        `yaml:"base_url"`    // Кастомный endpoint (пусто = дефолт провайдера)
	Temperature float64       `yaml:"temperature"` // Температура сэмплирования (0 = дефолт 0.95)
	TopP        float64       `yaml:"top_p"`       // Nucleus sampling (0 = дефолт 0.8)
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"-"`           // Парсится из строки вида "60s", "1m"
	Streaming   bool          `yaml:"streaming"`   // Потоковый режим по умолчанию
	Incremental *bool         `yaml:"incremental"` // Инкрементальные результаты (nil = true)
	RequestID   int64         `yaml:"request_id"`  // Опциональный идентификатор запроса (0 = не задан)

	// ModelKwargs — произвольные дополнительные параметры модели,
	// попадающие в запрос вместе с дефолтами сэмплирования.
	ModelKwargs map[string]any `yaml:"model_kwargs"`
}

// Дефолты сэмплирования ZhipuAI. Совпадают с дефолтами vendor API.
const (
	DefaultTemperature = 0.95
	DefaultTopP        = 0.8
	DefaultTimeout     = 60 * time.Second
	DefaultModelName   = "glm-4"
)

// WithDefaults возвращает копию с заполненными дефолтными значениями.
func (m ModelDef) WithDefaults() ModelDef {
	result := m // Копируем текущие значения

	if result.ModelName == "" {
		result.ModelName = DefaultModelName
	}
	if result.Temperature == 0 {
		result.Temperature = DefaultTemperature
	}
	if result.TopP == 0 {
		result.TopP = DefaultTopP
	}
	if result.Timeout == 0 {
		result.Timeout = DefaultTimeout
	}

	return result
}

// yamlModelDef — сырое представление ModelDef: timeout приходит из
// YAML строкой ("60s", "1m") и парсится через time.ParseDuration.
type yamlModelDef struct {
	Provider    string         `yaml:"provider"`
	ModelName   string         `yaml:"model_name"`
	APIKey      string         `yaml:"api_key"`
	BaseURL     string         `yaml:"base_url"`
	Temperature float64        `yaml:"temperature"`
	TopP        float64        `yaml:"top_p"`
	MaxTokens   int            `yaml:"max_tokens"`
	Timeout     string         `yaml:"timeout"`
	Streaming   bool           `yaml:"streaming"`
	Incremental *bool          `yaml:"incremental"`
	RequestID   int64          `yaml:"request_id"`
	ModelKwargs map[string]any `yaml:"model_kwargs"`
}

// UnmarshalYAML декодирует ModelDef, превращая строковый timeout в Duration.
func (m *ModelDef) UnmarshalYAML(node *yaml.Node) error {
	var raw yamlModelDef
	if err := node.Decode(&raw); err != nil {
		return err
	}

	*m = ModelDef{
		Provider:    raw.Provider,
		ModelName:   raw.ModelName,
		APIKey:      raw.APIKey,
		BaseURL:     raw.BaseURL,
		Temperature: raw.Temperature,
		TopP:        raw.TopP,
		MaxTokens:   raw.MaxTokens,
		Streaming:   raw.Streaming,
		Incremental: raw.Incremental,
		RequestID:   raw.RequestID,
		ModelKwargs: raw.ModelKwargs,
	}

	if raw.Timeout != "" {
		timeout, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", raw.Timeout, err)
		}
		m.Timeout = timeout
	}

	return nil
}

// IncrementalEnabled возвращает значение флага incremental (дефолт true).
func (m ModelDef) IncrementalEnabled() bool {
	if m.Incremental == nil {
		return true
	}
	return *m.Incremental
}

// AppSpecific — общие настройки приложения.
type AppSpecific struct {
	Debug   bool   `yaml:"debug"`
	LogsDir string `yaml:"logs_dir"`
}

// Load читает YAML файл, подставляет ENV переменные и возвращает готовую структуру.
func Load(path string) (*AppConfig, error) {
	// 1. Проверяем существование файла
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	// 2. Читаем файл целиком
	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 3. Подставляем переменные окружения.
	// os.ExpandEnv заменяет ${VAR} или $VAR на значение из системы.
	contentWithEnv := os.ExpandEnv(string(rawBytes))

	// 4. Парсим YAML в структуру
	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	// 5. Валидируем критические настройки
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate проверяет обязательные поля.
func (c *AppConfig) validate() error {
	if len(c.Models.Definitions) == 0 {
		return fmt.Errorf("models.definitions must contain at least one model")
	}
	if c.Models.DefaultChat != "" {
		if _, ok := c.Models.Definitions[c.Models.DefaultChat]; !ok {
			return fmt.Errorf("default_chat model '%s' is not defined in definitions", c.Models.DefaultChat)
		}
	}
	return nil
}

// GetChatModel возвращает конфигурацию модели по умолчанию или по имени.
func (c *AppConfig) GetChatModel(name string) (ModelDef, bool) {
	if name == "" {
		name = c.Models.DefaultChat
	}
	m, ok := c.Models.Definitions[name]
	return m, ok
}
