package zhipu

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sjy/llm-universe/pkg/config"
	"github.com/sjy/llm-universe/pkg/events"
	"github.com/sjy/llm-universe/pkg/llm"
)

// fakeInvoker — синтетический внешний клиент для тестов.
type fakeInvoker struct {
	resp      *Response
	err       error
	fragments []string
	streamErr error // ошибка после выдачи всех fragments

	lastParams map[string]any
}

func (f *fakeInvoker) Invoke(_ context.Context, params map[string]any) (*Response, error) {
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeInvoker) InvokeStream(_ context.Context, params map[string]any) (FragmentStream, error) {
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	return &fakeStream{fragments: f.fragments, finalErr: f.streamErr}, nil
}

// fakeStream — ленивая последовательность фрагментов с опциональной
// ошибкой вместо EOF.
type fakeStream struct {
	fragments []string
	pos       int
	finalErr  error
	closed    bool
}

func (s *fakeStream) Recv() (string, error) {
	if s.pos >= len(s.fragments) {
		if s.finalErr != nil {
			return "", s.finalErr
		}
		return "", io.EOF
	}
	fr := s.fragments[s.pos]
	s.pos++
	return fr, nil
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

func newTestClient(def config.ModelDef, inv Invoker) *Client {
	return &Client{invoker: inv, cfg: def.WithDefaults()}
}

// TestNewClient тестирует создание клиента и валидацию credential.
func TestNewClient(t *testing.T) {
	t.Run("explicit api key", func(t *testing.T) {
		client, err := NewClient(config.ModelDef{
			APIKey:    "test-key",
			ModelName: "glm-4",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.cfg.Temperature != config.DefaultTemperature {
			t.Errorf("expected default temperature, got %v", client.cfg.Temperature)
		}
		if client.cfg.BaseURL != DefaultBaseURL {
			t.Errorf("expected default base url, got %s", client.cfg.BaseURL)
		}
	})

	t.Run("api key from environment", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "env-key")

		client, err := NewClient(config.ModelDef{ModelName: "glm-4"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.cfg.APIKey != "env-key" {
			t.Errorf("expected key from env, got %q", client.cfg.APIKey)
		}
	})

	t.Run("missing api key fails fast", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "")

		_, err := NewClient(config.ModelDef{ModelName: "glm-4"})
		if err == nil {
			t.Fatal("expected error for missing api key, got nil")
		}
		if !strings.Contains(err.Error(), EnvAPIKey) {
			t.Errorf("expected error to mention %s, got: %v", EnvAPIKey, err)
		}
	})
}

// TestCall_ExtractsLastChoice тестирует извлечение контента из payload:
// берётся последний choice, обрамляющие кавычки и пробелы обрезаются.
func TestCall_ExtractsLastChoice(t *testing.T) {
	tests := []struct {
		name    string
		choices []Choice
		want    string
	}{
		{
			name:    "single quoted choice",
			choices: []Choice{{Role: "assistant", Content: `"hi there" `}},
			want:    "hi there",
		},
		{
			name: "multiple choices takes last",
			choices: []Choice{
				{Role: "assistant", Content: "first"},
				{Role: "assistant", Content: `  "last"`},
			},
			want: "last",
		},
		{
			name:    "inner quotes survive",
			choices: []Choice{{Role: "assistant", Content: `he said "hi" to me`}},
			want:    `he said "hi" to me`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &fakeInvoker{resp: &Response{Choices: tt.choices}}
			client := newTestClient(config.ModelDef{APIKey: "k", ModelName: "glm-4"}, inv)

			got, err := client.Call(context.Background(), "prompt")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// TestCall_EmptyChoices: пустой список choices — это ошибка payload,
// а не пустой результат.
func TestCall_EmptyChoices(t *testing.T) {
	inv := &fakeInvoker{resp: &Response{}}
	client := newTestClient(config.ModelDef{APIKey: "k", ModelName: "glm-4"}, inv)

	_, err := client.Call(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error for empty choices, got nil")
	}
	if !strings.Contains(err.Error(), "empty choices") {
		t.Errorf("expected payload error, got: %v", err)
	}
}

// TestCall_TransportErrorPropagates: ошибка транспорта доходит до
// вызывающего без retry и без обёртки.
func TestCall_TransportErrorPropagates(t *testing.T) {
	transportErr := errors.New("connection refused")
	inv := &fakeInvoker{err: transportErr}
	client := newTestClient(config.ModelDef{APIKey: "k", ModelName: "glm-4"}, inv)

	_, err := client.Call(context.Background(), "prompt")
	if !errors.Is(err, transportErr) {
		t.Errorf("expected transport error as-is, got: %v", err)
	}
}

// TestCall_StreamingDelegates: при включённом в конфигурации стриминге
// Call возвращает конкатенацию фрагментов.
func TestCall_StreamingDelegates(t *testing.T) {
	inv := &fakeInvoker{fragments: []string{"He", "llo"}}
	client := newTestClient(config.ModelDef{
		APIKey:    "k",
		ModelName: "glm-4",
		Streaming: true,
	}, inv)

	got, err := client.Call(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello" {
		t.Errorf("got %q, want %q", got, "Hello")
	}
}

// TestStream_FragmentsInOrder: callback получает фрагменты в порядке
// прихода, результат — их конкатенация.
func TestStream_FragmentsInOrder(t *testing.T) {
	inv := &fakeInvoker{fragments: []string{"He", "llo"}}
	client := newTestClient(config.ModelDef{APIKey: "k", ModelName: "glm-4"}, inv)

	var seen []string
	got, err := client.Stream(context.Background(), "prompt", func(text string) {
		seen = append(seen, text)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "Hello" {
		t.Errorf("aggregated = %q, want %q", got, "Hello")
	}
	if len(seen) != 2 || seen[0] != "He" || seen[1] != "llo" {
		t.Errorf("callback fragments = %v, want [He llo]", seen)
	}
}

// TestStream_SkipsEmptyFragments: пустые фрагменты не эмитятся
// и не вызывают callback.
func TestStream_SkipsEmptyFragments(t *testing.T) {
	inv := &fakeInvoker{fragments: []string{"", "He", "", "llo", ""}}
	client := newTestClient(config.ModelDef{APIKey: "k", ModelName: "glm-4"}, inv)

	calls := 0
	got, err := client.Stream(context.Background(), "prompt", func(string) {
		calls++
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "Hello" {
		t.Errorf("aggregated = %q, want %q", got, "Hello")
	}
	if calls != 2 {
		t.Errorf("callback invoked %d times, want 2", calls)
	}
}

// TestStream_PartialAggregateOnError: ошибка посреди потока отдаёт
// уже накопленную часть вместе с ошибкой.
func TestStream_PartialAggregateOnError(t *testing.T) {
	streamErr := errors.New("stream interrupted")
	inv := &fakeInvoker{fragments: []string{"He", "llo"}, streamErr: streamErr}
	client := newTestClient(config.ModelDef{APIKey: "k", ModelName: "glm-4"}, inv)

	got, err := client.Stream(context.Background(), "prompt", nil)
	if !errors.Is(err, streamErr) {
		t.Fatalf("expected stream error, got: %v", err)
	}
	if got != "Hello" {
		t.Errorf("partial aggregate = %q, want %q", got, "Hello")
	}
}

// TestStream_EmitterReceivesProgress: подключённый Emitter получает
// событие на каждый фрагмент и терминальный done.
func TestStream_EmitterReceivesProgress(t *testing.T) {
	inv := &fakeInvoker{fragments: []string{"He", "llo"}}
	client := newTestClient(config.ModelDef{APIKey: "k", ModelName: "glm-4"}, inv)

	emitter := events.NewChanEmitter(16)
	defer emitter.Close()

	_, err := client.Stream(context.Background(), "prompt", nil, llm.WithEmitter(emitter))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub := emitter.Subscribe()
	var got []events.Event
	for i := 0; i < 3; i++ {
		got = append(got, <-sub.Events())
	}

	if got[0].Type != events.EventFragment || got[1].Type != events.EventFragment {
		t.Errorf("expected two fragment events, got %v %v", got[0].Type, got[1].Type)
	}
	if got[2].Type != events.EventDone {
		t.Errorf("expected done event, got %v", got[2].Type)
	}

	if data, ok := got[1].Data.(events.FragmentData); !ok || data.Accumulated != "Hello" {
		t.Errorf("expected accumulated 'Hello' on second fragment, got %+v", got[1].Data)
	}
}

// TestCallAsync: ровно один Result из свежего ответа, канал закрывается.
func TestCallAsync(t *testing.T) {
	inv := &fakeInvoker{resp: &Response{Choices: []Choice{{Content: "async result"}}}}
	client := newTestClient(config.ModelDef{APIKey: "k", ModelName: "glm-4"}, inv)

	ch := client.CallAsync(context.Background(), "prompt")

	res := <-ch
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Text != "async result" {
		t.Errorf("got %q, want %q", res.Text, "async result")
	}

	if _, open := <-ch; open {
		t.Error("expected channel to be closed after one result")
	}
}

// TestStreamAsync_OrderAndDone: фрагменты приходят по порядку,
// терминальный элемент несёт Done.
func TestStreamAsync_OrderAndDone(t *testing.T) {
	inv := &fakeInvoker{fragments: []string{"He", "", "llo"}}
	client := newTestClient(config.ModelDef{APIKey: "k", ModelName: "glm-4"}, inv)

	var sb strings.Builder
	var done bool
	for fr := range client.StreamAsync(context.Background(), "prompt") {
		if fr.Err != nil {
			t.Fatalf("unexpected error: %v", fr.Err)
		}
		if fr.Done {
			done = true
			continue
		}
		sb.WriteString(fr.Text)
	}

	if !done {
		t.Error("expected terminal Done fragment")
	}
	if sb.String() != "Hello" {
		t.Errorf("aggregated = %q, want %q", sb.String(), "Hello")
	}
}

// TestStreamAsync_ErrorTerminates: ошибка потока приходит терминальным
// фрагментом, канал закрывается.
func TestStreamAsync_ErrorTerminates(t *testing.T) {
	streamErr := errors.New("boom")
	inv := &fakeInvoker{fragments: []string{"He"}, streamErr: streamErr}
	client := newTestClient(config.ModelDef{APIKey: "k", ModelName: "glm-4"}, inv)

	var last llm.Fragment
	for fr := range client.StreamAsync(context.Background(), "prompt") {
		last = fr
	}

	if !errors.Is(last.Err, streamErr) {
		t.Errorf("expected terminal error fragment, got %+v", last)
	}
}

// TestRoundTrip: конкатенация потокового пути равна результату
// непотокового клиента с тем же текстом одним куском.
func TestRoundTrip(t *testing.T) {
	whole := "Hello, world"

	streaming := newTestClient(config.ModelDef{APIKey: "k", ModelName: "glm-4"},
		&fakeInvoker{fragments: []string{"Hel", "lo, ", "wor", "ld"}})
	oneShot := newTestClient(config.ModelDef{APIKey: "k", ModelName: "glm-4"},
		&fakeInvoker{resp: &Response{Choices: []Choice{{Content: whole}}}})

	streamed, err := streaming.Stream(context.Background(), "prompt", nil)
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}

	direct, err := oneShot.Call(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("call error: %v", err)
	}

	if streamed != direct {
		t.Errorf("round-trip mismatch: streamed %q, direct %q", streamed, direct)
	}
}

// TestCall_SendsMergedParams: в транспорт уходит именно собранный map
// с prompt, model и overrides вызова.
func TestCall_SendsMergedParams(t *testing.T) {
	inv := &fakeInvoker{resp: &Response{Choices: []Choice{{Content: "ok"}}}}
	client := newTestClient(config.ModelDef{APIKey: "k", ModelName: "glm-4"}, inv)

	_, err := client.Call(context.Background(), "the prompt",
		llm.WithTemperature(0.2),
		llm.WithMaxTokens(128))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inv.lastParams["prompt"] != "the prompt" {
		t.Errorf("prompt not delivered to transport: %v", inv.lastParams["prompt"])
	}
	if inv.lastParams["model"] != "glm-4" {
		t.Errorf("model not delivered to transport: %v", inv.lastParams["model"])
	}
	if inv.lastParams["temperature"] != 0.2 {
		t.Errorf("temperature override not delivered: %v", inv.lastParams["temperature"])
	}
	if inv.lastParams["max_tokens"] != 128 {
		t.Errorf("max_tokens override not delivered: %v", inv.lastParams["max_tokens"])
	}
}
