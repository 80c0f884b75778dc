package zhipu

import (
	"testing"

	"github.com/sjy/llm-universe/pkg/config"
)

// newParamsClient создаёт клиента с фиктивным транспортом для тестов merge-логики.
func newParamsClient(def config.ModelDef) *Client {
	return &Client{
		invoker: &fakeInvoker{},
		cfg:     def.WithDefaults(),
	}
}

// TestConvertPromptParams_Defaults проверяет состав дефолтных параметров.
func TestConvertPromptParams_Defaults(t *testing.T) {
	client := newParamsClient(config.ModelDef{
		APIKey:    "test-key",
		ModelName: "glm-4",
	})

	params := client.convertPromptParams("Tell me a joke.", nil)

	if params["prompt"] != "Tell me a joke." {
		t.Errorf("expected prompt in params, got %v", params["prompt"])
	}
	if params["model"] != "glm-4" {
		t.Errorf("expected model glm-4, got %v", params["model"])
	}
	if params["temperature"] != config.DefaultTemperature {
		t.Errorf("expected default temperature %v, got %v", config.DefaultTemperature, params["temperature"])
	}
	if params["top_p"] != config.DefaultTopP {
		t.Errorf("expected default top_p %v, got %v", config.DefaultTopP, params["top_p"])
	}
	if params["streaming"] != false {
		t.Errorf("expected streaming false, got %v", params["streaming"])
	}
	if _, ok := params["request_id"]; !ok {
		t.Error("expected request_id key in params")
	}
}

// TestConvertPromptParams_ModelKwargs проверяет что model_kwargs попадают в запрос.
func TestConvertPromptParams_ModelKwargs(t *testing.T) {
	client := newParamsClient(config.ModelDef{
		APIKey:    "test-key",
		ModelName: "glm-4",
		ModelKwargs: map[string]any{
			"do_sample": true,
			"seed":      42,
		},
	})

	params := client.convertPromptParams("prompt", nil)

	if params["do_sample"] != true {
		t.Errorf("expected do_sample true, got %v", params["do_sample"])
	}
	if params["seed"] != 42 {
		t.Errorf("expected seed 42, got %v", params["seed"])
	}
}

// TestConvertPromptParams_OverridePrecedence проверяет приоритет:
// дефолты < {prompt, model} < overrides вызова.
func TestConvertPromptParams_OverridePrecedence(t *testing.T) {
	client := newParamsClient(config.ModelDef{
		APIKey:      "test-key",
		ModelName:   "glm-4",
		Temperature: 0.5,
		ModelKwargs: map[string]any{
			"seed": 1,
			// model_kwargs не может перебить prompt/model
			"prompt": "from-kwargs",
		},
	})

	overrides := map[string]any{
		"temperature": 0.1,
		"seed":        7,
		"model":       "glm-4-flash",
	}

	params := client.convertPromptParams("real prompt", overrides)

	tests := []struct {
		key  string
		want any
	}{
		{"prompt", "real prompt"},       // {prompt, model} сильнее model_kwargs
		{"model", "glm-4-flash"},        // override сильнее {prompt, model}
		{"temperature", 0.1},            // override сильнее конфигурации
		{"seed", 7},                     // override сильнее model_kwargs
		{"top_p", config.DefaultTopP},   // нетронутый дефолт остаётся
	}

	for _, tt := range tests {
		if params[tt.key] != tt.want {
			t.Errorf("params[%q] = %v, want %v", tt.key, params[tt.key], tt.want)
		}
	}
}

// TestConvertPromptParams_Pure проверяет отсутствие побочных эффектов:
// повторный вызов даёт тот же результат, конфигурация не мутируется.
func TestConvertPromptParams_Pure(t *testing.T) {
	client := newParamsClient(config.ModelDef{
		APIKey:      "test-key",
		ModelName:   "glm-4",
		ModelKwargs: map[string]any{"seed": 1},
	})

	first := client.convertPromptParams("p", map[string]any{"seed": 2})
	second := client.convertPromptParams("p", nil)

	if first["seed"] != 2 {
		t.Errorf("first call: seed = %v, want 2", first["seed"])
	}
	if second["seed"] != 1 {
		t.Errorf("second call: seed = %v, want 1 (override leaked into config)", second["seed"])
	}
	if client.cfg.ModelKwargs["seed"] != 1 {
		t.Errorf("config mutated: model_kwargs seed = %v", client.cfg.ModelKwargs["seed"])
	}
}
