package tui

import (
	"fmt"
	"strings"

	"pdfshrink/internal/domain/repositories"
)

var uiLevels = map[string]int{
	"DEBUG":   0,
	"INFO":    1,
	"SUCCESS": 1,
	"WARNING": 2,
	"ERROR":   3,
}

// UILogger дублирует сообщения в файловый логгер и журнал TUI
type UILogger struct {
	next     repositories.Logger
	sink     *Manager
	minLevel int
}

// NewUILogger создает новый UI логгер. next может быть nil.
func NewUILogger(next repositories.Logger, sink *Manager, logLevel string) *UILogger {
	if next == nil {
		next = repositories.NopLogger{}
	}
	return &UILogger{
		next:     next,
		sink:     sink,
		minLevel: uiLevels[strings.ToUpper(logLevel)],
	}
}

// Debug логирует отладочное сообщение
func (l *UILogger) Debug(format string, args ...interface{}) {
	l.next.Debug(format, args...)
	l.show("DEBUG", format, args...)
}

// Info логирует информационное сообщение
func (l *UILogger) Info(format string, args ...interface{}) {
	l.next.Info(format, args...)
	l.show("INFO", format, args...)
}

// Warning логирует предупреждение
func (l *UILogger) Warning(format string, args ...interface{}) {
	l.next.Warning(format, args...)
	l.show("WARNING", format, args...)
}

// Error логирует ошибку
func (l *UILogger) Error(format string, args ...interface{}) {
	l.next.Error(format, args...)
	l.show("ERROR", format, args...)
}

// Success логирует успешное выполнение
func (l *UILogger) Success(format string, args ...interface{}) {
	l.next.Success(format, args...)
	l.show("SUCCESS", format, args...)
}

// Close закрывает вложенный логгер
func (l *UILogger) Close() error {
	return l.next.Close()
}

func (l *UILogger) show(level, format string, args ...interface{}) {
	if l.sink == nil || uiLevels[level] < l.minLevel {
		return
	}
	l.sink.AddLog(level, fmt.Sprintf(format, args...))
}
