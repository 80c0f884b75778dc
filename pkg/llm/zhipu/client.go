// Package zhipu реализует адаптер LLM провайдера для ZhipuAI (bigmodel.cn).
//
// Транспортом служит go-openai SDK, направленный на OpenAI-совместимый
// endpoint ZhipuAI. Всё приложение работает через интерфейс llm.Provider,
// этот пакет — единственное место, знающее про детали vendor API.
package zhipu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sjy/llm-universe/pkg/config"
	"github.com/sjy/llm-universe/pkg/events"
	"github.com/sjy/llm-universe/pkg/llm"
	"github.com/sjy/llm-universe/pkg/utils"
)

const (
	// EnvAPIKey — переменная окружения с ключом API.
	// Используется когда api_key не задан в конфигурации явно.
	EnvAPIKey = "ZHIPUAI_API_KEY"

	// DefaultBaseURL — OpenAI-совместимый endpoint ZhipuAI.
	DefaultBaseURL = "https://open.bigmodel.cn/api/paas/v4"
)

// asyncFragmentBuffer — буфер канала фрагментов в StreamAsync.
const asyncFragmentBuffer = 16

// Client реализует интерфейс llm.Provider для ZhipuAI.
//
// Конфигурация иммутабельна после создания — клиент безопасен
// для конкурентного использования. Никакого общего мутабельного
// состояния между вызовами нет.
type Client struct {
	invoker Invoker
	cfg     config.ModelDef
}

var _ llm.Provider = (*Client)(nil)

// NewClient создает ZhipuAI клиент на основе конфигурации модели.
//
// Credential проверяется здесь, а не при вызове: пустой api_key
// добирается из ZHIPUAI_API_KEY, и если ключа нет нигде —
// конструирование падает сразу, до какого-либо сетевого вызова.
//
// Все настройки берутся из конфигурации, никакого хардкода.
func NewClient(modelDef config.ModelDef) (*Client, error) {
	cfg := modelDef.WithDefaults()

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(EnvAPIKey)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("zhipu api key is required: set api_key in config or %s env variable", EnvAPIKey)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	return &Client{
		invoker: newSDKInvoker(cfg.APIKey, cfg.BaseURL, cfg.Timeout),
		cfg:     cfg,
	}, nil
}

// Config возвращает копию конфигурации клиента (с применёнными дефолтами).
func (c *Client) Config() config.ModelDef {
	return c.cfg
}

// Call выполняет одиночный запрос и возвращает текст ответа.
//
// При включённом в конфигурации стриминге делегирует в потоковый путь
// и возвращает конкатенацию фрагментов. Иначе берёт контент ПОСЛЕДНЕГО
// choice и очищает его от обрамляющих кавычек и пробелов.
//
// Все ошибки возвращаются, никаких panic. Ошибки транспорта
// пробрасываются вызывающему как есть — без retry и без обёртки.
func (c *Client) Call(ctx context.Context, prompt string, opts ...llm.CallOption) (string, error) {
	o := llm.NewCallOptions(opts...)

	if c.cfg.Streaming {
		return c.stream(ctx, prompt, nil, o)
	}

	startTime := time.Now()
	params := c.convertPromptParams(prompt, o.Overrides)

	utils.Debug("LLM request started",
		"model", c.cfg.ModelName,
		"prompt_length", len(prompt))

	resp, err := c.invoker.Invoke(ctx, params)
	if err != nil {
		utils.Error("LLM API request failed",
			"error", err,
			"model", c.cfg.ModelName,
			"duration_ms", time.Since(startTime).Milliseconds())
		c.emit(ctx, o, events.New(events.EventError, events.ErrorData{Err: err}))
		return "", err
	}

	text, err := extractText(resp)
	if err != nil {
		c.emit(ctx, o, events.New(events.EventError, events.ErrorData{Err: err}))
		return "", err
	}

	utils.Info("LLM response received",
		"model", c.cfg.ModelName,
		"content_length", len(text),
		"duration_ms", time.Since(startTime).Milliseconds())

	c.emit(ctx, o, events.New(events.EventMessage, events.MessageData{Content: text}))
	return text, nil
}

// Stream выполняет запрос в потоковом режиме.
//
// onFragment вызывается для каждого непустого фрагмента после добавления
// фрагмента в агрегат. Возвращает конкатенацию фрагментов в порядке их
// прихода; при ошибке посреди потока — уже накопленную часть вместе с ошибкой.
func (c *Client) Stream(ctx context.Context, prompt string, onFragment llm.FragmentFunc, opts ...llm.CallOption) (string, error) {
	return c.stream(ctx, prompt, onFragment, llm.NewCallOptions(opts...))
}

// stream — общий потоковый путь для Call и Stream.
func (c *Client) stream(ctx context.Context, prompt string, onFragment llm.FragmentFunc, o llm.CallOptions) (string, error) {
	startTime := time.Now()
	params := c.convertPromptParams(prompt, o.Overrides)

	st, err := c.invoker.InvokeStream(ctx, params)
	if err != nil {
		utils.Error("LLM stream open failed",
			"error", err,
			"model", c.cfg.ModelName)
		c.emit(ctx, o, events.New(events.EventError, events.ErrorData{Err: err}))
		return "", err
	}
	defer func() { _ = st.Close() }()

	var completion strings.Builder
	fragments := 0

	for {
		text, err := st.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			utils.Error("LLM stream interrupted",
				"error", err,
				"model", c.cfg.ModelName,
				"fragments", fragments)
			c.emit(ctx, o, events.New(events.EventError, events.ErrorData{Err: err}))
			// Частичный агрегат отдаётся вместе с ошибкой.
			return completion.String(), err
		}

		// Пустые фрагменты пропускаются: ни callback, ни события.
		if text == "" {
			continue
		}

		completion.WriteString(text)
		fragments++

		if onFragment != nil {
			onFragment(text)
		}
		c.emit(ctx, o, events.New(events.EventFragment, events.FragmentData{
			Chunk:       text,
			Accumulated: completion.String(),
		}))
	}

	utils.Info("LLM stream finished",
		"model", c.cfg.ModelName,
		"fragments", fragments,
		"content_length", completion.Len(),
		"duration_ms", time.Since(startTime).Milliseconds())

	c.emit(ctx, o, events.New(events.EventDone, events.MessageData{Content: completion.String()}))
	return completion.String(), nil
}

// CallAsync — неблокирующий вариант Call.
//
// Возвращает канал с ровно одним Result. Результат строится из свежего
// ответа API: никакого переиспользования ранее сохранённых payload.
func (c *Client) CallAsync(ctx context.Context, prompt string, opts ...llm.CallOption) <-chan llm.Result {
	ch := make(chan llm.Result, 1)

	go func() {
		defer close(ch)
		text, err := c.Call(ctx, prompt, opts...)
		ch <- llm.Result{Text: text, Err: err}
	}()

	return ch
}

// StreamAsync — неблокирующий вариант Stream.
//
// Фрагменты доставляются в канал в порядке прихода от API; терминальный
// элемент несёт Done либо Err. При отмене контекста доставка прекращается
// и канал закрывается.
func (c *Client) StreamAsync(ctx context.Context, prompt string, opts ...llm.CallOption) <-chan llm.Fragment {
	ch := make(chan llm.Fragment, asyncFragmentBuffer)
	o := llm.NewCallOptions(opts...)

	go func() {
		defer close(ch)

		params := c.convertPromptParams(prompt, o.Overrides)
		st, err := c.invoker.InvokeStream(ctx, params)
		if err != nil {
			c.emit(ctx, o, events.New(events.EventError, events.ErrorData{Err: err}))
			deliver(ctx, ch, llm.Fragment{Err: err})
			return
		}
		defer func() { _ = st.Close() }()

		var completion strings.Builder

		for {
			text, err := st.Recv()
			if errors.Is(err, io.EOF) {
				c.emit(ctx, o, events.New(events.EventDone, events.MessageData{Content: completion.String()}))
				deliver(ctx, ch, llm.Fragment{Done: true})
				return
			}
			if err != nil {
				c.emit(ctx, o, events.New(events.EventError, events.ErrorData{Err: err}))
				deliver(ctx, ch, llm.Fragment{Err: err})
				return
			}

			if text == "" {
				continue
			}

			completion.WriteString(text)
			if !deliver(ctx, ch, llm.Fragment{Text: text}) {
				return
			}
			c.emit(ctx, o, events.New(events.EventFragment, events.FragmentData{
				Chunk:       text,
				Accumulated: completion.String(),
			}))
		}
	}()

	return ch
}

// deliver отправляет фрагмент с уважением к отмене контекста.
func deliver(ctx context.Context, ch chan<- llm.Fragment, f llm.Fragment) bool {
	select {
	case ch <- f:
		return true
	case <-ctx.Done():
		return false
	}
}

// emit отправляет событие прогресса, если вызывающий подключил Emitter.
func (c *Client) emit(ctx context.Context, o llm.CallOptions, e events.Event) {
	if o.Emitter != nil {
		o.Emitter.Emit(ctx, e)
	}
}

// extractText достаёт текст из непотокового payload.
//
// Берётся контент последнего choice; пустой список choices — это
// ошибка payload, а не молчаливый пустой результат.
func extractText(resp *Response) (string, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}

	last := resp.Choices[len(resp.Choices)-1]
	return utils.StripQuoted(last.Content), nil
}
