// Package utils предоставляет вспомогательные функции для graceful shutdown.
//
// Использование:
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer utils.SetupGracefulShutdown(cancel)()
package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SetupGracefulShutdown устанавливает обработчик SIGINT/SIGTERM.
//
// При получении сигнала отменяет переданный cancel — in-flight вызов LLM
// прерывается через context. Возвращает функцию освобождения ресурсов,
// которую следует вызвать через defer.
func SetupGracefulShutdown(cancel context.CancelFunc) func() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			Info("Received signal, shutting down gracefully", "signal", sig.String())
			cancel()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
