package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	levelDebug = iota
	levelInfo
	levelWarning
	levelError
)

var levelNames = map[string]int{
	"debug":   levelDebug,
	"info":    levelInfo,
	"warning": levelWarning,
	"error":   levelError,
}

// FileLogger пишет журнал обработки в файл
type FileLogger struct {
	mu       sync.Mutex
	file     *os.File
	logger   *log.Logger
	minLevel int
}

// NewFileLogger создает новый файловый логгер. При logToFile=false возвращает nil.
// Если файл больше maxSizeMB, он очищается перед записью.
func NewFileLogger(filename, logLevel string, maxSizeMB int, logToFile bool) (*FileLogger, error) {
	if !logToFile {
		return nil, nil
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("не удалось создать каталог лога %s: %w", dir, err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if oversized(filename, maxSizeMB) {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(filename, flags, 0666)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть лог %s: %w", filename, err)
	}

	minLevel, ok := levelNames[strings.ToLower(logLevel)]
	if !ok {
		minLevel = levelInfo
	}

	return &FileLogger{
		file:     file,
		logger:   log.New(file, "", log.LstdFlags),
		minLevel: minLevel,
	}, nil
}

func oversized(filename string, maxSizeMB int) bool {
	if maxSizeMB <= 0 {
		return false
	}
	info, err := os.Stat(filename)
	return err == nil && info.Size() > int64(maxSizeMB)*1024*1024
}

// Debug логирует отладочное сообщение
func (l *FileLogger) Debug(format string, args ...interface{}) {
	l.write(levelDebug, "DEBUG", format, args...)
}

// Info логирует информационное сообщение
func (l *FileLogger) Info(format string, args ...interface{}) {
	l.write(levelInfo, "INFO", format, args...)
}

// Warning логирует предупреждение
func (l *FileLogger) Warning(format string, args ...interface{}) {
	l.write(levelWarning, "WARNING", format, args...)
}

// Error логирует ошибку
func (l *FileLogger) Error(format string, args ...interface{}) {
	l.write(levelError, "ERROR", format, args...)
}

// Success логирует успешное выполнение на уровне info
func (l *FileLogger) Success(format string, args ...interface{}) {
	l.write(levelInfo, "SUCCESS", format, args...)
}

// Close закрывает файл; повторный вызов ничего не делает
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.logger = nil
	return err
}

func (l *FileLogger) write(level int, tag, format string, args ...interface{}) {
	if level < l.minLevel {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logger == nil {
		return
	}
	l.logger.Printf("[%s] %s", tag, fmt.Sprintf(format, args...))
}
