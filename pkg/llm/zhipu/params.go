package zhipu

// defaultParams возвращает дефолтные параметры запроса к ZhipuAI.
//
// Базовые параметры сэмплирования дополняются произвольными
// model_kwargs из конфигурации.
func (c *Client) defaultParams() map[string]any {
	params := map[string]any{
		"streaming":   c.cfg.Streaming,
		"top_p":       c.cfg.TopP,
		"temperature": c.cfg.Temperature,
		"request_id":  c.cfg.RequestID,
	}

	for k, v := range c.cfg.ModelKwargs {
		params[k] = v
	}

	return params
}

// convertPromptParams собирает один запрос из конфигурации, prompt и overrides.
//
// Приоритет снизу вверх:
//  1. дефолтные параметры сэмплирования ∪ model_kwargs
//  2. {prompt, model}
//  3. overrides текущего вызова
//
// Чистая функция конфигурации и аргументов, без побочных эффектов.
// Валидация credential происходит при создании клиента, не здесь.
func (c *Client) convertPromptParams(prompt string, overrides map[string]any) map[string]any {
	params := c.defaultParams()

	params["prompt"] = prompt
	params["model"] = c.cfg.ModelName

	for k, v := range overrides {
		params[k] = v
	}

	return params
}
