package entities

import (
	"math"
	"time"
)

// ProgressState состояние прогресса одного запуска сжатия.
// Используется только для отображения и не влияет на ход обработки.
type ProgressState struct {
	CurrentFile int
	TotalFiles  int
	CurrentPage int
	TotalPages  int
	Percent     int
}

// IsZero проверяет, что состояние сброшено
func (p ProgressState) IsZero() bool {
	return p == ProgressState{}
}

// ExactPercent процент по числу обработанных страниц среди всех страниц пакета
func ExactPercent(pagesDone, pagesTotal int) int {
	if pagesTotal <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(pagesDone) / float64(pagesTotal)))
}

// LegacyPercent исходная формула, предполагающая одинаковое число страниц во всех файлах:
// round(100 * ((currentFile-1)*totalPages + currentPage) / (totalFiles*totalPages))
func LegacyPercent(currentFile, totalFiles, currentPage, totalPages int) int {
	if totalFiles <= 0 || totalPages <= 0 {
		return 0
	}
	done := float64((currentFile-1)*totalPages + currentPage)
	return int(math.Round(100 * done / float64(totalFiles*totalPages)))
}

// ProcessingPhase фаза обработки директории
type ProcessingPhase int

const (
	PhaseInitializing ProcessingPhase = iota
	PhaseScanning
	PhaseCompressing
	PhaseCompleted
	PhaseFailed
)

// String возвращает название фазы
func (phase ProcessingPhase) String() string {
	switch phase {
	case PhaseInitializing:
		return "Инициализация"
	case PhaseScanning:
		return "Сканирование файлов"
	case PhaseCompressing:
		return "Сжатие файлов"
	case PhaseCompleted:
		return "Завершено"
	case PhaseFailed:
		return "Ошибка"
	default:
		return "Неизвестно"
	}
}

// FileResult результат сжатия одного файла в режиме директории
type FileResult struct {
	Path       string
	OutputPath string
	Stats      CompressionStats
	Err        error
}

// DirectoryStatus статус обработки директории
type DirectoryStatus struct {
	Phase ProcessingPhase

	CurrentFile string
	Page        ProgressState

	TotalFiles      int
	ProcessedFiles  int
	SuccessfulFiles int
	FailedFiles     int

	TotalOriginalSize   int64
	TotalCompressedSize int64
	TotalSavedSpace     int64

	LastResult *FileResult

	StartTime   time.Time
	ElapsedTime time.Duration

	IsComplete bool
	Error      error
	Message    string
}

// NewDirectoryStatus создает новый статус обработки директории
func NewDirectoryStatus(totalFiles int) *DirectoryStatus {
	return &DirectoryStatus{
		Phase:      PhaseInitializing,
		TotalFiles: totalFiles,
		StartTime:  time.Now(),
	}
}

// Progress общий процент выполнения по файлам с учетом текущего файла
func (ds *DirectoryStatus) Progress() float64 {
	if ds.IsComplete && ds.Phase == PhaseCompleted {
		return 100
	}
	if ds.TotalFiles == 0 {
		return 0
	}
	current := float64(ds.Page.Percent) / 100
	if ds.ProcessedFiles >= ds.TotalFiles {
		current = 0
	}
	return (float64(ds.ProcessedFiles) + current) / float64(ds.TotalFiles) * 100
}

// AverageCompression средний процент сжатия успешно обработанных файлов
func (ds *DirectoryStatus) AverageCompression() float64 {
	if ds.TotalOriginalSize == 0 {
		return 0
	}
	return float64(ds.TotalSavedSpace) / float64(ds.TotalOriginalSize) * 100
}

// AddResult добавляет результат обработки файла
func (ds *DirectoryStatus) AddResult(result *FileResult) {
	ds.ProcessedFiles++
	ds.LastResult = result
	ds.Page = ProgressState{}

	if result.Err == nil {
		ds.SuccessfulFiles++
		ds.TotalOriginalSize += result.Stats.OriginalSize
		ds.TotalCompressedSize += result.Stats.CompressedSize
		ds.TotalSavedSpace += result.Stats.SavedBytes
	} else {
		ds.FailedFiles++
	}

	ds.ElapsedTime = time.Since(ds.StartTime)
}

// SetPhase устанавливает фазу обработки
func (ds *DirectoryStatus) SetPhase(phase ProcessingPhase, message string) {
	ds.Phase = phase
	ds.Message = message
}

// Complete завершает обработку
func (ds *DirectoryStatus) Complete() {
	ds.IsComplete = true
	ds.Phase = PhaseCompleted
	ds.Page = ProgressState{}
	ds.ElapsedTime = time.Since(ds.StartTime)
}

// Fail отмечает обработку как неудачную
func (ds *DirectoryStatus) Fail(err error) {
	ds.IsComplete = true
	ds.Phase = PhaseFailed
	ds.Error = err
	ds.ElapsedTime = time.Since(ds.StartTime)
}

// FormatElapsedTime форматирует время выполнения
func (ds *DirectoryStatus) FormatElapsedTime() string {
	if ds.ElapsedTime < time.Second {
		return "< 1 сек"
	}
	return ds.ElapsedTime.Round(time.Second).String()
}
