package compressors

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
)

// ImageCompressor интерфейс для сжатия изображений
type ImageCompressor interface {
	Compress(data []byte, options ImageOptions) (*ImageResult, error)
}

// ImageOptions параметры сжатия изображения
type ImageOptions struct {
	Quality      int  // Качество JPEG 1-100
	MaxDimension uint // Максимальная сторона в пикселях, 0 - без ограничения
}

// ImageResult результат сжатия изображения
type ImageResult struct {
	Data []byte
	// KeptOriginal true, если сжатие не дало выигрыша и возвращены исходные байты
	KeptOriginal bool
	Width        int
	Height       int
}

// MinSavingsPercent минимальный выигрыш, при котором используется сжатая версия
const MinSavingsPercent = 5

// DefaultImageCompressor реализация компрессора изображений
type DefaultImageCompressor struct{}

// NewImageCompressor создает новый компрессор изображений
func NewImageCompressor() ImageCompressor {
	return &DefaultImageCompressor{}
}

// Compress перекодирует JPEG или PNG в JPEG с указанным качеством.
// Если результат меньше исходного менее чем на 5%, возвращается оригинал.
func (c *DefaultImageCompressor) Compress(data []byte, options ImageOptions) (*ImageResult, error) {
	if options.Quality < 1 || options.Quality > 100 {
		return nil, fmt.Errorf("качество JPEG должно быть от 1 до 100, получено %d", options.Quality)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("не удалось декодировать изображение: %w", err)
	}
	if format != "jpeg" && format != "png" {
		return nil, fmt.Errorf("неподдерживаемый формат изображения: %s", format)
	}

	bounds := img.Bounds()
	resized := false
	if limit := options.MaxDimension; limit > 0 && (uint(bounds.Dx()) > limit || uint(bounds.Dy()) > limit) {
		img = resize.Thumbnail(limit, limit, img, resize.Lanczos3)
		resized = true
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: options.Quality}); err != nil {
		return nil, fmt.Errorf("не удалось закодировать JPEG: %w", err)
	}

	result := &ImageResult{
		Data:   buf.Bytes(),
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}

	// Оригинал больше ограничения по размеру, поэтому после уменьшения он не возвращается
	if !resized && int64(buf.Len())*100 >= int64(len(data))*(100-MinSavingsPercent) {
		result.Data = data
		result.KeptOriginal = true
		result.Width, result.Height = bounds.Dx(), bounds.Dy()
	}

	return result, nil
}

// flatten накладывает изображение на белый фон, JPEG не хранит прозрачность
func flatten(img image.Image) image.Image {
	if _, ok := img.(*image.YCbCr); ok {
		return img
	}
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for i := range dst.Pix {
		dst.Pix[i] = 0xff
	}
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	return dst
}

// IsImageFile проверяет, является ли файл изображением поддерживаемого формата
func IsImageFile(filename string) bool {
	return GetImageFormat(filename) != ""
}

// GetImageFormat возвращает формат изображения по расширению файла
func GetImageFormat(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".png":
		return "png"
	default:
		return ""
	}
}

// GetSupportedImageExtensions возвращает список поддерживаемых расширений изображений
func GetSupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png"}
}
