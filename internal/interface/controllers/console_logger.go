package controllers

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"pdfshrink/internal/domain/repositories"
)

var consoleLevels = map[string]int{
	"debug":   0,
	"info":    1,
	"warning": 2,
	"error":   3,
}

// ConsoleLogger печатает цветные сообщения в терминал и дублирует их в файловый логгер
type ConsoleLogger struct {
	mu       sync.Mutex
	out      io.Writer
	next     repositories.Logger
	minLevel int

	debug   *color.Color
	info    *color.Color
	warning *color.Color
	err     *color.Color
	success *color.Color
}

// NewConsoleLogger создает консольный логгер. next может быть nil.
func NewConsoleLogger(out io.Writer, logLevel string, next repositories.Logger) *ConsoleLogger {
	if out == nil {
		out = os.Stderr
	}
	if next == nil {
		next = repositories.NopLogger{}
	}
	return &ConsoleLogger{
		out:      out,
		next:     next,
		minLevel: consoleLevels[strings.ToLower(logLevel)],
		debug:    color.New(color.Faint),
		info:     color.New(color.FgCyan),
		warning:  color.New(color.FgYellow, color.Bold),
		err:      color.New(color.FgRed, color.Bold),
		success:  color.New(color.FgGreen),
	}
}

// Debug логирует отладочное сообщение
func (l *ConsoleLogger) Debug(format string, args ...interface{}) {
	l.next.Debug(format, args...)
	l.print("debug", l.debug, "·", format, args...)
}

// Info логирует информационное сообщение
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	l.next.Info(format, args...)
	l.print("info", l.info, "›", format, args...)
}

// Warning логирует предупреждение
func (l *ConsoleLogger) Warning(format string, args ...interface{}) {
	l.next.Warning(format, args...)
	l.print("warning", l.warning, "!", format, args...)
}

// Error логирует ошибку
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.next.Error(format, args...)
	l.print("error", l.err, "✗", format, args...)
}

// Success логирует успешное выполнение
func (l *ConsoleLogger) Success(format string, args ...interface{}) {
	l.next.Success(format, args...)
	l.print("info", l.success, "✓", format, args...)
}

// Close закрывает вложенный логгер
func (l *ConsoleLogger) Close() error {
	return l.next.Close()
}

func (l *ConsoleLogger) print(level string, c *color.Color, marker, format string, args ...interface{}) {
	if consoleLevels[level] < l.minLevel {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "%s %s\n", c.Sprint(marker), fmt.Sprintf(format, args...))
}
