package entities

import (
	"errors"
	"fmt"
)

// Доменные ошибки
var (
	ErrInvalidCompressionLevel = errors.New("уровень сжатия должен быть от 0 до 100")
	ErrInvalidImageQuality     = errors.New("качество изображения должно быть в диапазоне (0, 1]")
	ErrInvalidJPEGQuality      = errors.New("качество JPEG должно быть от 0 до 100")
	ErrInvalidScale            = errors.New("масштаб должен быть в диапазоне (0, 1]")
	ErrInvalidImageDimension   = errors.New("размер изображения не может быть отрицательным")
	ErrInvalidColorSpace       = errors.New("неизвестное цветовое пространство")
	ErrInvalidChunkSize        = errors.New("размер пакета страниц должен быть больше нуля")
	ErrInvalidSizeLimit        = errors.New("ограничения размера должны быть больше нуля")
	ErrUnknownEngine           = errors.New("неизвестный движок рендеринга")
	ErrUnknownWriter           = errors.New("неизвестный модуль записи PDF")
	ErrUnknownProgressMode     = errors.New("неизвестный режим расчета прогресса")
	ErrEmptyInput              = errors.New("не выбрано ни одного файла")
	ErrTotalSizeExceeded       = errors.New("общий размер файлов превышает допустимый")
	ErrFileSizeExceeded        = errors.New("размер файла превышает допустимый")
	ErrNotPDF                  = errors.New("файл не является PDF документом")
	ErrNoPages                 = errors.New("документ не содержит страниц")
	ErrComponentsNotReady      = errors.New("компоненты обработки не готовы")
	ErrFileNotFound            = errors.New("файл не найден")
	ErrInvalidFileFormat       = errors.New("неверный формат файла")
	ErrDirectoryNotFound       = errors.New("директория не найдена")
	ErrNoFilesFound            = errors.New("PDF файлы не найдены")
	ErrInvalidOrder            = errors.New("неверный порядок файлов")
)

// ErrorKind категория ошибки конвейера сжатия
type ErrorKind int

const (
	// KindValidation ошибки проверки входных данных (размер, пустой список, тип файла)
	KindValidation ErrorKind = iota
	// KindUnsupportedInput файл не удалось разобрать как PDF
	KindUnsupportedInput
	// KindRender ошибка растеризации страницы
	KindRender
	// KindEncode ошибка кодирования изображения страницы
	KindEncode
	// KindAssembly ошибка сборки выходного PDF
	KindAssembly
	// KindCancelled обработка отменена пользователем
	KindCancelled
)

// String возвращает название категории ошибки
func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "Ошибка проверки"
	case KindUnsupportedInput:
		return "Неподдерживаемый файл"
	case KindRender:
		return "Ошибка рендеринга"
	case KindEncode:
		return "Ошибка кодирования"
	case KindAssembly:
		return "Ошибка сборки PDF"
	case KindCancelled:
		return "Операция отменена"
	default:
		return "Неизвестная ошибка"
	}
}

// CompressionError ошибка конвейера с привязкой к файлу и странице.
// FileIndex и Page нумеруются с 1, ноль означает "неизвестно".
type CompressionError struct {
	Kind      ErrorKind
	FileName  string
	FileIndex int
	Page      int
	Err       error
}

func (e *CompressionError) Error() string {
	msg := e.Kind.String()
	switch {
	case e.FileName != "" && e.Page > 0:
		msg = fmt.Sprintf("%s: файл %q (#%d), страница %d", msg, e.FileName, e.FileIndex, e.Page)
	case e.FileName != "":
		msg = fmt.Sprintf("%s: файл %q (#%d)", msg, e.FileName, e.FileIndex)
	case e.Page > 0:
		msg = fmt.Sprintf("%s: страница %d", msg, e.Page)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *CompressionError) Unwrap() error {
	return e.Err
}

// NewValidationError создает ошибку проверки входных данных
func NewValidationError(err error) *CompressionError {
	return &CompressionError{Kind: KindValidation, Err: err}
}

// NewFileError создает ошибку, относящуюся к конкретному файлу
func NewFileError(kind ErrorKind, fileName string, fileIndex int, err error) *CompressionError {
	return &CompressionError{Kind: kind, FileName: fileName, FileIndex: fileIndex, Err: err}
}

// NewPageError создает ошибку, относящуюся к конкретной странице
func NewPageError(kind ErrorKind, page int, err error) *CompressionError {
	return &CompressionError{Kind: kind, Page: page, Err: err}
}

// AttributeFile дополняет ошибку конвейера данными о файле.
// Ошибки другого типа оборачиваются с указанной категорией.
func AttributeFile(err error, kind ErrorKind, fileName string, fileIndex int) error {
	if err == nil {
		return nil
	}
	var ce *CompressionError
	if errors.As(err, &ce) {
		attributed := *ce
		attributed.FileName = fileName
		attributed.FileIndex = fileIndex
		return &attributed
	}
	return NewFileError(kind, fileName, fileIndex, err)
}

// AttributePage дополняет ошибку конвейера номером страницы
func AttributePage(err error, kind ErrorKind, page int) error {
	if err == nil {
		return nil
	}
	var ce *CompressionError
	if errors.As(err, &ce) {
		attributed := *ce
		attributed.Page = page
		return &attributed
	}
	return NewPageError(kind, page, err)
}

// IsKind проверяет категорию ошибки конвейера
func IsKind(err error, kind ErrorKind) bool {
	var ce *CompressionError
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}
