// Package utils предоставляет вспомогательные функции для обработки данных.
//
// Включает утилиты для очистки ответов LLM от обрамляющих кавычек,
// markdown-обёртки и других форматирующих артефактов.
package utils

import (
	"strings"
)

// StripQuoted удаляет обрамляющие кавычки и пробелы вокруг ответа.
//
// Vendor API иногда возвращает контент choice в виде цитированной строки
// с хвостовыми пробелами. Обрезаются только символы '"' и ' ' по краям,
// кавычки внутри текста не трогаются.
//
// Примеры:
//   `"hi there" ` → `hi there`
//   `  "ответ"` → `ответ`
//   `he said "hi"` → `he said "hi` (внутренние кавычки сохраняются, краевые нет)
func StripQuoted(s string) string {
	return strings.Trim(s, `" `)
}

// CleanJsonBlock удаляет markdown-обёртку вокруг JSON.
//
// LLM часто возвращает JSON обёрнутым в markdown кодовые блоки:
//   ```json
//   {"key": "value"}
//   ```
//
// Эта функция очищает такие обёртки, возвращая чистый JSON.
func CleanJsonBlock(s string) string {
	s = strings.TrimSpace(s)

	// Удаляем ```json в начале
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```Json")

	// Удаляем ``` в начале
	s = strings.TrimPrefix(s, "```")

	// Удаляем ``` в конце
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

// CleanMarkdownCode удаляет все markdown code blocks из текста.
//
// В отличие от CleanJsonBlock, эта функция работает с полным текстом,
// содержащим несколько code blocks, и удаляет их все, оставляя только
// обычный текст.
func CleanMarkdownCode(s string) string {
	lines := strings.Split(s, "\n")
	var result []string

	inCodeBlock := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inCodeBlock = !inCodeBlock
			continue
		}

		if !inCodeBlock {
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// ExtractJSON пытается извлечь JSON объект из строки.
//
// LLM часто возвращает JSON вместе с пояснительным текстом.
// Эта функция находит первый валидный JSON-объект в тексте.
//
// Возвращает пустую строку если JSON-объект не найден.
//
// ВНИМАНИЕ: Не валидирует JSON, только извлекает его по эвристикам.
// Для валидации используйте json.Unmarshal().
func ExtractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	// Пропускаем элементы массива ([{)
	if start > 0 && s[start-1] == '[' {
		return ""
	}

	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return s[start:]
}
