package entities

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// pdfMagic сигнатура заголовка PDF
var pdfMagic = []byte("%PDF-")

// SourceFile входной файл, полностью загруженный в память
type SourceFile struct {
	Name string
	Size int64
	Data []byte
}

// NewSourceFile создает входной файл из содержимого
func NewSourceFile(name string, data []byte) SourceFile {
	return SourceFile{Name: name, Size: int64(len(data)), Data: data}
}

// LooksLikePDF проверяет наличие сигнатуры %PDF- в первом килобайте файла
func (f SourceFile) LooksLikePDF() bool {
	head := f.Data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, pdfMagic)
}

// ProcessedPage сжатая страница, готовая к сборке
type ProcessedPage struct {
	Width  int    // Ширина в пикселях
	Height int    // Высота в пикселях
	Data   []byte // JPEG данные
}

// EncodedImage результат кодирования растрового изображения
type EncodedImage struct {
	Data   []byte
	Width  int
	Height int
}

// CompressionStats статистика сжатия
type CompressionStats struct {
	OriginalSize     int64
	CompressedSize   int64
	SavedBytes       int64
	CompressionRatio string // Процент сэкономленного места с одним знаком после запятой
}

// CalculateStats вычисляет статистику по исходному и итоговому размеру
func CalculateStats(originalSize, compressedSize int64) CompressionStats {
	saved := originalSize - compressedSize
	if saved < 0 {
		saved = 0
	}

	ratio := 0.0
	if originalSize > 0 {
		ratio = float64(saved) / float64(originalSize) * 100
	}

	return CompressionStats{
		OriginalSize:     originalSize,
		CompressedSize:   compressedSize,
		SavedBytes:       saved,
		CompressionRatio: strconv.FormatFloat(math.Round(ratio*10)/10, 'f', 1, 64),
	}
}

// IsEffective проверяет, было ли сжатие эффективным
func (s CompressionStats) IsEffective() bool {
	return s.SavedBytes > 0
}

// CompressionOutput результат сжатия: итоговый PDF и статистика
type CompressionOutput struct {
	Data     []byte
	Filename string
	Pages    int
	Stats    CompressionStats
}

// TotalSize суммарный размер входных файлов
func TotalSize(files []SourceFile) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}

// ParseOrder разбирает перестановку вида "2,1,3" для n файлов.
// Пустая строка означает исходный порядок. Номера начинаются с 1.
func ParseOrder(list string, n int) ([]int, error) {
	order := make([]int, 0, n)
	if strings.TrimSpace(list) == "" {
		for i := 0; i < n; i++ {
			order = append(order, i)
		}
		return order, nil
	}

	seen := make(map[int]bool, n)
	for _, part := range strings.Split(list, ",") {
		num, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: %q не является номером", ErrInvalidOrder, part)
		}
		if num < 1 || num > n {
			return nil, fmt.Errorf("%w: номер %d вне диапазона 1-%d", ErrInvalidOrder, num, n)
		}
		if seen[num] {
			return nil, fmt.Errorf("%w: номер %d повторяется", ErrInvalidOrder, num)
		}
		seen[num] = true
		order = append(order, num-1)
	}

	if len(order) != n {
		return nil, fmt.Errorf("%w: указано %d номеров для %d файлов", ErrInvalidOrder, len(order), n)
	}
	return order, nil
}

// Reorder возвращает файлы в порядке, заданном ParseOrder
func Reorder(files []SourceFile, list string) ([]SourceFile, error) {
	order, err := ParseOrder(list, len(files))
	if err != nil {
		return nil, err
	}
	result := make([]SourceFile, len(order))
	for i, idx := range order {
		result[i] = files[idx]
	}
	return result, nil
}
