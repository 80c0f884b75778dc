package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestChanEmitter_EmitAndSubscribe: событие доходит до подписчика как есть.
func TestChanEmitter_EmitAndSubscribe(t *testing.T) {
	emitter := NewChanEmitter(4)
	defer emitter.Close()

	sub := emitter.Subscribe()
	defer sub.Close()

	emitter.Emit(context.Background(), New(EventFragment, FragmentData{
		Chunk:       "Hel",
		Accumulated: "Hel",
	}))

	select {
	case event := <-sub.Events():
		assert.Equal(t, EventFragment, event.Type)
		data, ok := event.Data.(FragmentData)
		require.True(t, ok, "data type = %T, want FragmentData", event.Data)
		assert.Equal(t, "Hel", data.Chunk)
		assert.Equal(t, "Hel", data.Accumulated)
		assert.False(t, event.Timestamp.IsZero(), "expected non-zero timestamp")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

// TestChanEmitter_Ordering: события приходят в порядке отправки.
func TestChanEmitter_Ordering(t *testing.T) {
	emitter := NewChanEmitter(8)
	sub := emitter.Subscribe()

	ctx := context.Background()
	emitter.Emit(ctx, New(EventFragment, FragmentData{Chunk: "a", Accumulated: "a"}))
	emitter.Emit(ctx, New(EventFragment, FragmentData{Chunk: "b", Accumulated: "ab"}))
	emitter.Emit(ctx, New(EventDone, MessageData{Content: "ab"}))
	emitter.Close()

	var types []EventType
	for event := range sub.Events() {
		types = append(types, event.Type)
	}

	assert.Equal(t, []EventType{EventFragment, EventFragment, EventDone}, types)
}

// TestChanEmitter_EmitAfterClose: после Close события отбрасываются без паники.
func TestChanEmitter_EmitAfterClose(t *testing.T) {
	emitter := NewChanEmitter(1)
	emitter.Close()

	// Не должно паниковать write-on-closed-channel.
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), New(EventMessage, MessageData{Content: "late"}))
	})

	// Повторный Close тоже безопасен.
	assert.NotPanics(t, emitter.Close)
}

// TestChanEmitter_CancelledContext: отсутствие читателя + отменённый
// context не блокируют вызывающего.
func TestChanEmitter_CancelledContext(t *testing.T) {
	emitter := NewChanEmitter(0) // небуферизованный, читателей нет
	defer emitter.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		emitter.Emit(ctx, New(EventError, ErrorData{Err: context.Canceled}))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on cancelled context")
	}
}
