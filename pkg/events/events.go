// Package events предоставляет интерфейсы для реализации Port & Adapter паттерна.
//
// Это Port (интерфейс) для подписки на прогресс генерации LLM.
// Позволяет подключать любые UI (TUI, Web, CLI) без изменения библиотечной логики.
//
// # Port & Adapter Pattern
//
//	Port — это интерфейс (Emitter, Subscriber), определённый в библиотеке.
//	Adapter — это реализация интерфейса для конкретного UI (TUI, Web, etc).
//
// # Basic Usage
//
//	// В библиотеке (pkg/llm/zhipu):
//	client.Stream(ctx, prompt, nil, llm.WithEmitter(emitter))
//
//	// В UI:
//	sub := emitter.Subscribe()
//	for event := range sub.Events() {
//	    switch event.Type {
//	    case events.EventFragment:
//	        ui.appendChunk(event.Data)
//	    case events.EventDone:
//	        ui.showFinal(event.Data)
//	    }
//	}
//
// # Thread Safety
//
// Все реализации интерфейсов должны быть thread-safe.
package events

import (
	"context"
	"time"
)

// EventType представляет тип события генерации.
type EventType string

const (
	// EventFragment отправляется для каждого непустого фрагмента
	// потокового ответа, после передачи фрагмента в агрегат.
	EventFragment EventType = "fragment"

	// EventMessage отправляется когда готов полный (непотоковый) ответ.
	EventMessage EventType = "message"

	// EventError отправляется при ошибке транспорта или payload.
	EventError EventType = "error"

	// EventDone отправляется когда поток нормально завершён.
	EventDone EventType = "done"
)

// EventData — sealed interface для данных события.
//
// Только типы из пакета events могут реализовать этот интерфейс,
// что обеспечивает compile-time type safety.
type EventData interface {
	eventData()
}

// FragmentData содержит данные для EventFragment.
type FragmentData struct {
	// Chunk — инкрементальные данные (delta).
	Chunk string

	// Accumulated — конкатенация всех фрагментов на данный момент.
	Accumulated string
}

func (FragmentData) eventData() {}

// MessageData содержит данные для EventMessage и EventDone.
type MessageData struct {
	Content string
}

func (MessageData) eventData() {}

// ErrorData содержит данные для EventError.
type ErrorData struct {
	Err error
}

func (ErrorData) eventData() {}

// Event представляет событие прогресса генерации.
//
// Для каждого EventType существует соответствующий тип данных:
//   - EventFragment: FragmentData (порция текста + накопленный агрегат)
//   - EventMessage: MessageData (полный ответ)
//   - EventError: ErrorData (ошибка)
//   - EventDone: MessageData (финальная конкатенация)
type Event struct {
	Type      EventType
	Data      EventData
	Timestamp time.Time
}

// New создаёт событие с текущим временем.
func New(t EventType, data EventData) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now()}
}

// Emitter — это Port для отправки событий прогресса.
//
// Emitter инвертирует зависимость: библиотека (pkg/llm) зависит
// от этого интерфейса, а не от конкретного UI.
type Emitter interface {
	// Emit отправляет событие.
	//
	// Если context отменён, операция должна прерваться без блокировки.
	Emit(ctx context.Context, event Event)
}

// Subscriber позволяет читать события из канала.
type Subscriber interface {
	// Events возвращает read-only канал событий.
	//
	// Канал закрывается при вызове ChanEmitter.Close().
	Events() <-chan Event

	// Close освобождает ресурсы подписчика.
	Close()
}
