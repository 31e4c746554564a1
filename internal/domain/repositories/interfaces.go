package repositories

import (
	"context"
	"image"
	"io"

	"pdfshrink/internal/domain/entities"
)

// DocumentEngine открывает PDF документы для растеризации
type DocumentEngine interface {
	// Open разбирает PDF из памяти. Невалидный PDF возвращает ошибку разбора.
	Open(ctx context.Context, data []byte) (Document, error)
	// Ready сообщает, готов ли движок к работе
	Ready() error
	Close() error
}

// Document разобранный PDF документ
type Document interface {
	PageCount() int
	// Page возвращает страницу по номеру, начиная с 1
	Page(ctx context.Context, number int) (Page, error)
	Close() error
}

// Page страница документа
type Page interface {
	// Size размер страницы в пунктах при масштабе 1
	Size() (width, height float64)
	// Render рисует страницу в dst, растягивая ее на весь прямоугольник dst.
	// Возврат из Render означает завершение рендеринга.
	Render(ctx context.Context, dst *image.RGBA) error
}

// PDFWriter постраничная запись нового PDF документа.
// Единицы измерения совпадают с пикселями растеризации.
type PDFWriter interface {
	AddPage(width, height float64) error
	DrawImage(data []byte, x, y, width, height float64) error
	// Finish завершает документ и записывает его в out.
	// Канал получает результат только после того, как все байты записаны.
	Finish(out io.Writer) <-chan error
}

// PDFWriterFactory создает новые документы
type PDFWriterFactory interface {
	NewDocument() (PDFWriter, error)
}

// PDFOptimizer дополнительная оптимизация готового PDF
type PDFOptimizer interface {
	Optimize(data []byte) ([]byte, error)
}

// DownloadSink получатель готовых файлов
type DownloadSink interface {
	Save(data []byte, filename string) (string, error)
}

// FileRepository интерфейс для работы с файловой системой
type FileRepository interface {
	ReadSourceFile(path string) (entities.SourceFile, error)
	FileExists(path string) bool
	CreateDirectory(path string) error
	ListPDFFiles(directory string) ([]string, error)
	ListImageFiles(directory string) ([]string, error)
}

// ConfigRepository интерфейс для получения параметров сжатия
type ConfigRepository interface {
	GetCompressionSettings(level int, grayscale bool) (entities.CompressionSettings, error)
	ValidateSettings(settings entities.CompressionSettings) error
}
