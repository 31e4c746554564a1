package usecases

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"pdfshrink/internal/domain/entities"
)

// ImageEncoder кодирует растр страницы в JPEG или PNG
type ImageEncoder interface {
	Encode(img image.Image, quality float64) (entities.EncodedImage, error)
	EncodePNG(img image.Image) (entities.EncodedImage, error)
}

// PageEncoder кодирует растровые страницы в JPEG
type PageEncoder struct{}

// NewPageEncoder создает кодировщик страниц
func NewPageEncoder() *PageEncoder {
	return &PageEncoder{}
}

// JPEGQuality переводит качество (0, 1] в шкалу JPEG 1-100
func JPEGQuality(quality float64) int {
	q := int(math.Round(quality * 100))
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	return q
}

// Encode кодирует изображение в JPEG с качеством quality. Входное изображение не изменяется.
func (e *PageEncoder) Encode(img image.Image, quality float64) (entities.EncodedImage, error) {
	if quality <= 0 || quality > 1 {
		return entities.EncodedImage{}, entities.NewPageError(entities.KindEncode, 0, entities.ErrInvalidImageQuality)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality(quality)}); err != nil {
		return entities.EncodedImage{}, entities.NewPageError(entities.KindEncode, 0, fmt.Errorf("не удалось закодировать JPEG: %w", err))
	}

	bounds := img.Bounds()
	return entities.EncodedImage{
		Data:   buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// EncodePNG кодирует изображение в PNG без потерь
func (e *PageEncoder) EncodePNG(img image.Image) (entities.EncodedImage, error) {
	var buf bytes.Buffer
	encoder := &png.Encoder{CompressionLevel: png.BestCompression}
	if err := encoder.Encode(&buf, img); err != nil {
		return entities.EncodedImage{}, entities.NewPageError(entities.KindEncode, 0, fmt.Errorf("не удалось закодировать PNG: %w", err))
	}

	bounds := img.Bounds()
	return entities.EncodedImage{
		Data:   buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
