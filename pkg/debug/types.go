// Package debug предоставляет инструменты для записи и анализа вызовов LLM.
//
// Пакет сохраняет трейсы вызовов в JSON формате для последующего
// анализа: какие параметры ушли к vendor API, что вернулось, сколько
// заняло, где были ошибки.
package debug

import "time"

// TraceLog представляет полный трейс одной сессии работы с LLM.
//
// Сохраняется в JSON файл и содержит все вызовы провайдера,
// временные метрики и ошибки.
type TraceLog struct {
	// RunID — уникальный идентификатор сессии (используется в имени файла)
	RunID string `json:"run_id"`

	// Timestamp — время начала сессии
	Timestamp time.Time `json:"timestamp"`

	// Duration — общая длительность сессии в миллисекундах
	Duration int64 `json:"duration_ms"`

	// Exchanges — список вызовов LLM в хронологическом порядке
	Exchanges []Exchange `json:"exchanges"`

	// Summary — агрегированная статистика
	Summary Summary `json:"summary"`

	// Error — ошибка если сессия завершилась неудачно
	Error string `json:"error,omitempty"`
}

// Exchange представляет один вызов провайдера: запрос и результат.
type Exchange struct {
	// Number — порядковый номер вызова (начиная с 1)
	Number int `json:"number"`

	// Model — использованная модель
	Model string `json:"model"`

	// Streaming — был ли вызов потоковым
	Streaming bool `json:"streaming"`

	// Params — собранные параметры запроса (model, prompt, сэмплирование)
	Params map[string]any `json:"params,omitempty"`

	// Response — текст ответа (агрегат для потокового вызова)
	Response string `json:"response,omitempty"`

	// ResponseTruncated — true если Response обрезан по MaxTextSize
	ResponseTruncated bool `json:"response_truncated,omitempty"`

	// Fragments — количество фрагментов потокового ответа
	Fragments int `json:"fragments,omitempty"`

	// Duration — длительность вызова в миллисекундах
	Duration int64 `json:"duration_ms"`

	// Error — ошибка вызова если была
	Error string `json:"error,omitempty"`
}

// Summary — агрегированная статистика сессии.
type Summary struct {
	// TotalCalls — общее количество вызовов
	TotalCalls int `json:"total_calls"`

	// TotalLLMDuration — суммарная длительность вызовов в миллисекундах
	TotalLLMDuration int64 `json:"total_llm_duration_ms"`

	// Errors — список ошибок за сессию
	Errors []string `json:"errors,omitempty"`
}
