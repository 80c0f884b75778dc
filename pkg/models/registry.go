// Package models предоставляет централизованный реестр LLM провайдеров.
//
// Реестр позволяет зарегистрировать все модели из config.yaml при старте
// и динамически переключаться между ними во время выполнения.
//
// Thread-safe via sync.RWMutex.
package models

import (
	"fmt"
	"sync"

	"github.com/sjy/llm-universe/pkg/config"
	"github.com/sjy/llm-universe/pkg/factory"
	"github.com/sjy/llm-universe/pkg/llm"
)

// Registry — потокобезопасное хранилище LLM провайдеров.
type Registry struct {
	mu          sync.RWMutex
	models      map[string]ModelEntry
	defaultChat string
}

// ModelEntry — кешированный провайдер с конфигурацией.
type ModelEntry struct {
	Provider llm.Provider
	Config   config.ModelDef
}

// NewRegistry создаёт новый пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]ModelEntry),
	}
}

// Register добавляет модель в реестр.
//
// Thread-safe. Возвращает ошибку если модель с таким именем уже зарегистрирована.
func (r *Registry) Register(name string, modelDef config.ModelDef, provider llm.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[name]; exists {
		return fmt.Errorf("model '%s' already registered", name)
	}

	r.models[name] = ModelEntry{
		Provider: provider,
		Config:   modelDef,
	}
	return nil
}

// Get извлекает провайдер по имени модели.
//
// Thread-safe. Возвращает ошибку если модель не найдена.
func (r *Registry) Get(name string) (llm.Provider, config.ModelDef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.models[name]
	if !ok {
		return nil, config.ModelDef{}, fmt.Errorf("model '%s' not found in registry", name)
	}
	return entry.Provider, entry.Config, nil
}

// GetWithFallback извлекает провайдер с fallback на дефолтную модель.
//
// Thread-safe. Приоритет:
// 1. Запрошенная модель (requested)
// 2. Дефолтная модель (defaultModel)
//
// Возвращает (provider, modelDef, actualModelName, error).
func (r *Registry) GetWithFallback(requested, defaultModel string) (llm.Provider, config.ModelDef, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.models[requested]; ok {
		return entry.Provider, entry.Config, requested, nil
	}

	if entry, ok := r.models[defaultModel]; ok {
		return entry.Provider, entry.Config, defaultModel, nil
	}

	return nil, config.ModelDef{}, "", fmt.Errorf("neither requested model '%s' nor default '%s' found in registry", requested, defaultModel)
}

// Has сообщает, зарегистрирована ли модель с таким именем.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.models[name]
	return ok
}

// Default возвращает алиас дефолтной chat-модели.
//
// Устанавливается из models.default_chat при создании реестра из
// конфигурации; пустая строка если дефолт не настроен.
func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultChat
}

// SetDefault назначает дефолтную модель.
//
// Возвращает ошибку если модель не зарегистрирована.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.models[name]; !ok {
		return fmt.Errorf("cannot set default: model '%s' not found in registry", name)
	}
	r.defaultChat = name
	return nil
}

// ListNames возвращает список всех зарегистрированных имён моделей.
//
// Thread-safe. Полезно для логирования и отладки.
func (r *Registry) ListNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	return names
}

// NewRegistryFromConfig создаёт и заполняет реестр из конфигурации.
//
// Итерируется через cfg.Models.Definitions и создаёт провайдеры для каждой
// модели. Возвращает ошибку если хоть одна модель не инициализируется —
// в том числе при отсутствующем credential (fail fast до сетевых вызовов).
func NewRegistryFromConfig(cfg *config.AppConfig) (*Registry, error) {
	registry := NewRegistry()

	for name, modelDef := range cfg.Models.Definitions {
		provider, err := factory.NewLLMProvider(modelDef)
		if err != nil {
			return nil, fmt.Errorf("failed to create provider for model '%s': %w", name, err)
		}

		if err := registry.Register(name, modelDef, provider); err != nil {
			return nil, fmt.Errorf("failed to register model '%s': %w", name, err)
		}
	}

	if cfg.Models.DefaultChat != "" {
		if err := registry.SetDefault(cfg.Models.DefaultChat); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
