// Package utils предоставляет простой файловый логгер для CLI и TUI утилит.
//
// Логгер создаёт .log файл с timestamp в имени. Thread-safe через sync.Mutex.
// TUI перерисовывает экран, поэтому логи уходят в файл, а не в stdout.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	logFile      *os.File
	logMutex     sync.Mutex
	initialized  bool
	debugEnabled bool
)

// InitLogger создает/открывает .log файл в текущей директории.
//
// Имя файла: llm-universe-YYYY-MM-DD-HH-MM.log
func InitLogger() error {
	return InitLoggerAt("")
}

// InitLoggerAt создает .log файл в заданной директории.
//
// dir создаётся при необходимости; пустой dir означает текущую директорию.
// Повторные вызовы после успешной инициализации — no-op.
func InitLoggerAt(dir string) error {
	logMutex.Lock()
	defer logMutex.Unlock()

	if initialized {
		return nil
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create logs directory: %w", err)
		}
	}

	timestamp := time.Now().Format("2006-01-02-15-04")
	filename := filepath.Join(dir, fmt.Sprintf("llm-universe-%s.log", timestamp))

	var err error
	logFile, err = os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	initialized = true
	// Пишем напрямую без Info чтобы избежать deadlock (мьютекс уже захвачен)
	timestampNow := time.Now().Format("2006-01-02 15:04:05")
	initLine := fmt.Sprintf("[%s] INFO: Logger initialized file=%s\n", timestampNow, filename)

	if _, err := logFile.WriteString(initLine); err != nil {
		// Fallback на stderr при ошибке
		fmt.Fprintf(os.Stderr, "%s", initLine)
		fmt.Fprintf(os.Stderr, "[LOGGER ERROR: WriteString failed: %v]\n", err)
	}

	if err := logFile.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "[LOGGER WARNING: Sync failed: %v]\n", err)
	}

	return nil
}

// Info - информационное сообщение.
func Info(msg string, keyvals ...any) {
	log("INFO", msg, keyvals...)
}

// Error - сообщение об ошибке.
func Error(msg string, keyvals ...any) {
	log("ERROR", msg, keyvals...)
}

// Debug - отладочное сообщение.
//
// Пишется только при включённом app.debug (см. EnableDebug), иначе
// каждый запрос к модели засоряет лог параметрами.
func Debug(msg string, keyvals ...any) {
	logMutex.Lock()
	enabled := debugEnabled
	logMutex.Unlock()

	if !enabled {
		return
	}
	log("DEBUG", msg, keyvals...)
}

// EnableDebug включает/выключает запись DEBUG сообщений.
func EnableDebug(enabled bool) {
	logMutex.Lock()
	defer logMutex.Unlock()
	debugEnabled = enabled
}

// Warn - предупреждение.
func Warn(msg string, keyvals ...any) {
	log("WARN", msg, keyvals...)
}

// log - внутренняя функция записи в лог.
//
// Формат: [YYYY-MM-DD HH:MM:SS] LEVEL: message key1=value1 key2=value2
// При ошибке записи в файл, fallback на stderr.
func log(level, msg string, keyvals ...any) {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile == nil {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("[%s] %s: %s", timestamp, level, msg)

	for i := 0; i < len(keyvals); i += 2 {
		if i+1 < len(keyvals) {
			line += fmt.Sprintf(" %v=%v", keyvals[i], keyvals[i+1])
		}
	}

	line += "\n"

	if _, err := logFile.WriteString(line); err != nil {
		// Fallback: если файл недоступен, пишем в stderr
		fmt.Fprintf(os.Stderr, "%s", line)
		fmt.Fprintf(os.Stderr, "[LOGGER ERROR: WriteString failed: %v]\n", err)
		return
	}

	if err := logFile.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "[LOGGER WARNING: Sync failed: %v]\n", err)
	}
}

// Close закрывает лог-файл.
//
// Вызывается через defer в main().
func Close() {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile != nil {
		if err := logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "[LOGGER WARNING: Close failed: %v]\n", err)
		}
		logFile = nil
		initialized = false
	}
}
