// Базовые типы - определяем универсальный язык общения с моделями
package llm

// Fragment — одна порция сгенерированного текста из потокового ответа.
//
// У фрагмента нет идентичности кроме текста; порядок прихода определяет
// порядок конкатенации.
type Fragment struct {
	// Text — инкрементальный кусок текста.
	Text string

	// Err — ошибка потока. Если не nil, фрагмент терминальный.
	Err error

	// Done — признак нормального завершения потока.
	Done bool
}

// Result — итог одиночного асинхронного вызова.
type Result struct {
	Text string
	Err  error
}

// FragmentFunc — callback прогресса: вызывается с текстом каждого
// непустого фрагмента.
type FragmentFunc func(text string)
