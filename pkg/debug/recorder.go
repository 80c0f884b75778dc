package debug

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Recorder записывает трейс вызовов LLM и сохраняет в JSON файл.
//
// Потокобезопасен — может использоваться из разных горутин.
type Recorder struct {
	mu sync.Mutex

	// config — конфигурация рекордера
	config RecorderConfig

	// log — накапливаемый трейс
	log TraceLog

	// errors — список ошибок сессии
	errors []string
}

// RecorderConfig конфигурация для создания Recorder.
type RecorderConfig struct {
	// LogsDir — директория для сохранения трейсов
	LogsDir string

	// IncludeParams — включать собранные параметры запроса в трейс
	IncludeParams bool

	// MaxTextSize — максимальный размер текста ответа (превышение обрезается)
	// 0 означает без ограничений
	MaxTextSize int
}

// NewRecorder создает новый Recorder с заданной конфигурацией.
//
// Если LogsDir не существует, пытается создать её.
func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	if cfg.LogsDir != "" {
		if err := os.MkdirAll(cfg.LogsDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
	}

	// RunID на основе времени
	runID := fmt.Sprintf("llm_trace_%s", time.Now().Format("20060102_150405"))

	return &Recorder{
		config: cfg,
		log: TraceLog{
			RunID:     runID,
			Timestamp: time.Now(),
		},
		errors: make([]string, 0),
	}, nil
}

// RecordExchange добавляет один вызов провайдера в трейс.
//
// Применяет конфигурацию включения параметров и обрезки текста.
func (r *Recorder) RecordExchange(ex Exchange) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.config.IncludeParams {
		ex.Params = nil
	}
	if r.config.MaxTextSize > 0 && len(ex.Response) > r.config.MaxTextSize {
		ex.Response = ex.Response[:r.config.MaxTextSize] + "... (truncated)"
		ex.ResponseTruncated = true
	}

	ex.Number = len(r.log.Exchanges) + 1
	r.log.Exchanges = append(r.log.Exchanges, ex)

	if ex.Error != "" {
		r.errors = append(r.errors, fmt.Sprintf("call #%d: %s", ex.Number, ex.Error))
	}
}

// Finalize завершает запись и сохраняет трейс в файл.
//
// Возвращает путь к сохраненному файлу или ошибку.
func (r *Recorder) Finalize() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Duration = time.Since(r.log.Timestamp).Milliseconds()
	r.buildSummary()

	data, err := json.MarshalIndent(r.log, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal trace log: %w", err)
	}

	filePath := r.getFilePath()

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write trace log: %w", err)
	}

	return filePath, nil
}

// buildSummary формирует агрегированную статистику.
func (r *Recorder) buildSummary() {
	summary := Summary{
		Errors: r.errors,
	}

	for _, ex := range r.log.Exchanges {
		summary.TotalCalls++
		summary.TotalLLMDuration += ex.Duration
	}

	r.log.Summary = summary
}

// getFilePath возвращает путь к файлу для сохранения.
func (r *Recorder) getFilePath() string {
	if r.config.LogsDir != "" {
		return filepath.Join(r.config.LogsDir, r.log.RunID+".json")
	}
	return r.log.RunID + ".json"
}

// GetRunID возвращает идентификатор текущей сессии.
func (r *Recorder) GetRunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log.RunID
}
