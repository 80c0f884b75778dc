package factory

import (
	"fmt"

	"github.com/sjy/llm-universe/pkg/config"
	"github.com/sjy/llm-universe/pkg/llm"
	"github.com/sjy/llm-universe/pkg/llm/zhipu"
)

// NewLLMProvider создает провайдера на основе конфигурации модели
func NewLLMProvider(modelDef config.ModelDef) (llm.Provider, error) {
	switch modelDef.Provider {
	case "zhipu", "zhipuai", "glm":
		return zhipu.NewClient(modelDef)

	default:
		return nil, fmt.Errorf("unknown provider type: %s", modelDef.Provider)
	}
}
