package usecases

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	exif "github.com/dsoprea/go-exif/v3"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
	"pdfshrink/internal/infrastructure/compressors"
)

// ImagesPDFName имя файла, собранного из изображений
const ImagesPDFName = "converted-images.pdf"

// PageSize размер страницы документа из изображений
type PageSize string

const (
	PageSizeFit    PageSize = "fit"
	PageSizeA4     PageSize = "a4"
	PageSizeLetter PageSize = "letter"
)

// Dimensions размер страницы в пунктах для книжной ориентации
func (s PageSize) Dimensions() (float64, float64, bool) {
	switch s {
	case PageSizeA4:
		return 595.28, 841.89, true
	case PageSizeLetter:
		return 612, 792, true
	default:
		return 0, 0, false
	}
}

// ImagesToPDFOptions параметры сборки PDF из изображений
type ImagesToPDFOptions struct {
	PageSize  PageSize
	Landscape bool
	Margin    float64 // Поле в пунктах, не используется для PageSizeFit
	// CompressQuality перекодирует изображения в JPEG с качеством 1-100, 0 - без сжатия
	CompressQuality int
	// MaxDimension уменьшает изображения до заданной стороны, требует CompressQuality
	MaxDimension uint
}

// Validate проверяет параметры
func (o ImagesToPDFOptions) Validate() error {
	switch o.PageSize {
	case PageSizeFit, PageSizeA4, PageSizeLetter:
	default:
		return fmt.Errorf("неизвестный размер страницы: %q", o.PageSize)
	}
	if o.Margin < 0 {
		return fmt.Errorf("поле не может быть отрицательным: %.1f", o.Margin)
	}
	if o.CompressQuality < 0 || o.CompressQuality > 100 {
		return fmt.Errorf("качество JPEG должно быть от 1 до 100, получено %d", o.CompressQuality)
	}
	if o.MaxDimension > 0 && o.CompressQuality == 0 {
		return fmt.Errorf("уменьшение до %d px требует качества JPEG", o.MaxDimension)
	}
	return nil
}

// Placement положение изображения на странице
type Placement struct {
	PageWidth, PageHeight float64
	X, Y, Width, Height   float64
}

// PlaceImage вычисляет страницу и положение изображения iw x ih.
// Для PageSizeFit страница равна изображению, иначе изображение масштабируется
// коэффициентом min((pw-m)/iw, (ph-m)/ih) и центрируется.
func PlaceImage(iw, ih float64, options ImagesToPDFOptions) Placement {
	pw, ph, fixed := options.PageSize.Dimensions()
	if !fixed {
		return Placement{PageWidth: iw, PageHeight: ih, Width: iw, Height: ih}
	}
	if options.Landscape {
		pw, ph = ph, pw
	}

	scale := (pw - options.Margin) / iw
	if s := (ph - options.Margin) / ih; s < scale {
		scale = s
	}

	w, h := iw*scale, ih*scale
	return Placement{
		PageWidth:  pw,
		PageHeight: ph,
		X:          (pw - w) / 2,
		Y:          (ph - h) / 2,
		Width:      w,
		Height:     h,
	}
}

// ImagesToPDFUseCase собирает PDF из изображений JPEG и PNG, по одному на страницу
type ImagesToPDFUseCase struct {
	writers    repositories.PDFWriterFactory
	encoder    *PageEncoder
	compressor compressors.ImageCompressor
	sink       repositories.DownloadSink
	logger     repositories.Logger
}

// NewImagesToPDFUseCase создает сценарий сборки PDF из изображений
func NewImagesToPDFUseCase(
	writers repositories.PDFWriterFactory,
	compressor compressors.ImageCompressor,
	sink repositories.DownloadSink,
	logger repositories.Logger,
) *ImagesToPDFUseCase {
	if logger == nil {
		logger = repositories.NopLogger{}
	}
	return &ImagesToPDFUseCase{
		writers:    writers,
		encoder:    NewPageEncoder(),
		compressor: compressor,
		sink:       sink,
		logger:     logger,
	}
}

// Execute собирает изображения в порядке передачи и сохраняет converted-images.pdf
func (uc *ImagesToPDFUseCase) Execute(ctx context.Context, images []entities.SourceFile, options ImagesToPDFOptions) (*entities.CompressionOutput, error) {
	if len(images) == 0 {
		return nil, entities.NewValidationError(entities.ErrEmptyInput)
	}
	if err := options.Validate(); err != nil {
		return nil, entities.NewValidationError(err)
	}
	if uc.writers == nil {
		return nil, entities.NewValidationError(entities.ErrComponentsNotReady)
	}

	writer, err := uc.writers.NewDocument()
	if err != nil {
		return nil, &entities.CompressionError{Kind: entities.KindAssembly, Err: err}
	}

	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, entities.NewFileError(entities.KindCancelled, img.Name, i+1, err)
		}

		data, width, height, err := uc.prepare(img, options)
		if err != nil {
			return nil, entities.AttributeFile(err, entities.KindUnsupportedInput, img.Name, i+1)
		}

		p := PlaceImage(float64(width), float64(height), options)
		if err := writer.AddPage(p.PageWidth, p.PageHeight); err != nil {
			return nil, entities.NewFileError(entities.KindAssembly, img.Name, i+1, err)
		}
		if err := writer.DrawImage(data, p.X, p.Y, p.Width, p.Height); err != nil {
			return nil, entities.NewFileError(entities.KindAssembly, img.Name, i+1, err)
		}

		uc.logger.Debug("Изображение %s: %dx%d, страница %.0fx%.0f", img.Name, width, height, p.PageWidth, p.PageHeight)
	}

	var buf bytes.Buffer
	pending := &PendingPDF{pages: len(images), buf: &buf, done: writer.Finish(&buf)}
	data, err := pending.Wait(ctx)
	if err != nil {
		return nil, err
	}

	output := &entities.CompressionOutput{
		Data:     data,
		Filename: ImagesPDFName,
		Pages:    len(images),
		Stats:    entities.CalculateStats(entities.TotalSize(images), int64(len(data))),
	}
	uc.logger.Success("PDF из %d изображений собран (%s)", len(images), formatMB(int64(len(data))))

	if uc.sink != nil {
		path, err := uc.sink.Save(output.Data, output.Filename)
		if err != nil {
			uc.logger.Warning("Не удалось сохранить %s: %v", output.Filename, err)
		} else {
			uc.logger.Info("Результат сохранен: %s", path)
		}
	}

	return output, nil
}

// prepare применяет EXIF ориентацию и сжатие, возвращает данные для встраивания и их размер
func (uc *ImagesToPDFUseCase) prepare(img entities.SourceFile, options ImagesToPDFOptions) ([]byte, int, int, error) {
	config, format, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", entities.ErrInvalidFileFormat, err)
	}
	if format != "jpeg" && format != "png" {
		return nil, 0, 0, fmt.Errorf("%w: %s", entities.ErrInvalidFileFormat, format)
	}

	data, width, height := img.Data, config.Width, config.Height

	if format == "jpeg" {
		if rotation := RotationForOrientation(ReadOrientation(img.Data)); rotation != 0 {
			decoded, _, err := image.Decode(bytes.NewReader(img.Data))
			if err != nil {
				return nil, 0, 0, fmt.Errorf("%w: %v", entities.ErrInvalidFileFormat, err)
			}
			rotated := Rotate(decoded, rotation)
			encoded, err := uc.encoder.Encode(rotated, 0.95)
			if err != nil {
				return nil, 0, 0, err
			}
			data, width, height = encoded.Data, encoded.Width, encoded.Height
			uc.logger.Debug("Изображение %s повернуто на %d°", img.Name, rotation)
		}
	}

	if options.CompressQuality > 0 && uc.compressor != nil {
		result, err := uc.compressor.Compress(data, compressors.ImageOptions{
			Quality:      options.CompressQuality,
			MaxDimension: options.MaxDimension,
		})
		if err != nil {
			return nil, 0, 0, err
		}
		data, width, height = result.Data, result.Width, result.Height
	}

	return data, width, height, nil
}

// ReadOrientation читает тег EXIF Orientation. Отсутствие EXIF дает 1.
func ReadOrientation(data []byte) int {
	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(bytes.NewReader(data), nil, true)
	if err != nil {
		return 1
	}

	for _, tag := range tags {
		if tag.TagName != "Orientation" {
			continue
		}
		switch v := tag.Value.(type) {
		case []uint16:
			if len(v) > 0 {
				return int(v[0])
			}
		case uint16:
			return int(v)
		}
	}
	return 1
}

// RotationForOrientation угол поворота по часовой стрелке для EXIF ориентации
func RotationForOrientation(orientation int) int {
	switch orientation {
	case 3:
		return 180
	case 6:
		return 90
	case 8:
		return 270
	default:
		return 0
	}
}

// Rotate поворачивает изображение по часовой стрелке на 90, 180 или 270 градусов
func Rotate(src image.Image, degrees int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	var dst *image.RGBA
	if degrees == 90 || degrees == 270 {
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.At(b.Min.X+x, b.Min.Y+y)
			switch degrees {
			case 90:
				dst.Set(h-1-y, x, c)
			case 180:
				dst.Set(w-1-x, h-1-y, c)
			case 270:
				dst.Set(y, w-1-x, c)
			default:
				dst.Set(x, y, c)
			}
		}
	}
	return dst
}
