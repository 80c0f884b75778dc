package zhipu

import (
	"context"
	"net/http"
	"strconv"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sjy/llm-universe/pkg/utils"
)

// Choice — один кандидат ответа vendor API с полем контента.
type Choice struct {
	Role    string
	Content string
}

// Response — структурированный payload непотокового ответа.
type Response struct {
	ID      string
	Choices []Choice
}

// FragmentStream — ленивая конечная последовательность текстовых фрагментов.
//
// Recv возвращает io.EOF после последнего фрагмента.
// Последовательность не перезапускаема.
type FragmentStream interface {
	Recv() (string, error)
	Close() error
}

// Invoker — внешний HTTP-клиент vendor API.
//
// Шов между ядром адаптера и транспортом: продакшн реализация построена
// на go-openai, тесты подставляют синтетические клиенты.
type Invoker interface {
	// Invoke выполняет одиночный запрос с собранными параметрами.
	Invoke(ctx context.Context, params map[string]any) (*Response, error)

	// InvokeStream открывает потоковый запрос с собранными параметрами.
	InvokeStream(ctx context.Context, params map[string]any) (FragmentStream, error)
}

// sdkInvoker — продакшн Invoker поверх go-openai SDK.
//
// ZhipuAI отдаёт OpenAI-совместимый endpoint, поэтому кастомный BaseURL —
// всё что нужно для переиспользования SDK.
type sdkInvoker struct {
	api *openai.Client
}

func newSDKInvoker(apiKey, baseURL string, timeout time.Duration) *sdkInvoker {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	// Таймаут конфигурации передаётся транспорту как есть,
	// никакого собственного enforcement поверх.
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &sdkInvoker{api: openai.NewClientWithConfig(cfg)}
}

func (s *sdkInvoker) Invoke(ctx context.Context, params map[string]any) (*Response, error) {
	req := buildRequest(params)
	req.Stream = false

	resp, err := s.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &Response{
		ID:      resp.ID,
		Choices: make([]Choice, len(resp.Choices)),
	}
	for i, ch := range resp.Choices {
		out.Choices[i] = Choice{
			Role:    ch.Message.Role,
			Content: ch.Message.Content,
		}
	}

	return out, nil
}

func (s *sdkInvoker) InvokeStream(ctx context.Context, params map[string]any) (FragmentStream, error) {
	req := buildRequest(params)
	req.Stream = true

	st, err := s.api.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}

	return &sdkStream{st: st}, nil
}

// sdkStream адаптирует потоковый ответ SDK к FragmentStream.
type sdkStream struct {
	st *openai.ChatCompletionStream
}

// Recv возвращает текст очередного фрагмента.
//
// Служебные чанки без choices отдаются как пустая строка —
// фильтрация пустых фрагментов происходит уровнем выше.
func (s *sdkStream) Recv() (string, error) {
	chunk, err := s.st.Recv()
	if err != nil {
		return "", err // io.EOF в конце потока
	}
	if len(chunk.Choices) == 0 {
		return "", nil
	}
	return chunk.Choices[0].Delta.Content, nil
}

func (s *sdkStream) Close() error {
	return s.st.Close()
}

// buildRequest транслирует собранный map параметров в структуру запроса SDK.
//
// Известные ключи маппятся на поля ChatCompletionRequest; prompt
// разворачивается в единственное user-сообщение. Ключи, которые SDK
// выразить не умеет, пропускаются с debug-логом — vendor всё равно
// отвергнет неизвестный параметр на своей стороне.
func buildRequest(params map[string]any) openai.ChatCompletionRequest {
	var req openai.ChatCompletionRequest

	for key, val := range params {
		switch key {
		case "model":
			req.Model, _ = val.(string)

		case "prompt":
			if text, ok := val.(string); ok {
				req.Messages = []openai.ChatCompletionMessage{
					{Role: openai.ChatMessageRoleUser, Content: text},
				}
			}

		case "temperature":
			req.Temperature = toFloat32(val)

		case "top_p":
			req.TopP = toFloat32(val)

		case "max_tokens":
			req.MaxTokens = toInt(val)

		case "stop":
			switch s := val.(type) {
			case []string:
				req.Stop = s
			case string:
				req.Stop = []string{s}
			}

		case "request_id":
			// Единственный трекинг-идентификатор, который умеет SDK — поле user.
			if id := toInt64(val); id != 0 {
				req.User = strconv.FormatInt(id, 10)
			}

		case "streaming", "incremental":
			// Режим передачи выбирается точкой входа (Invoke/InvokeStream),
			// а не значением параметра.

		default:
			utils.Debug("model parameter not supported by SDK transport", "key", key)
		}
	}

	return req
}

func toFloat32(v any) float32 {
	switch n := v.(type) {
	case float64:
		return float32(n)
	case float32:
		return n
	case int:
		return float32(n)
	}
	return 0
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
