package usecases

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

// Surface переиспользуемая поверхность рисования.
// Принадлежит одному запуску и используется страницами строго последовательно.
type Surface struct {
	img *image.RGBA
}

// NewSurface создает пустую поверхность
func NewSurface() *Surface {
	return &Surface{}
}

// Prepare подгоняет поверхность под размер viewport и очищает ее белым цветом.
// Буфер пересоздается только при изменении размеров.
func (s *Surface) Prepare(width, height int) *image.RGBA {
	if s.img == nil || s.img.Rect.Dx() != width || s.img.Rect.Dy() != height {
		s.img = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	draw.Draw(s.img, s.img.Rect, image.NewUniform(color.White), image.Point{}, draw.Src)
	return s.img
}

// Image текущий буфер поверхности
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// ViewportSize размер растра в пикселях для страницы в пунктах при заданном масштабе
func ViewportSize(width, height, scale float64) (int, int) {
	w := int(math.Floor(width * scale))
	h := int(math.Floor(height * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// Grayscale возвращает новое изображение, где каналы RGB каждого пикселя
// заменены их средним арифметическим. Альфа-канал не меняется, src не изменяется.
func Grayscale(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	for i := 0; i+3 < len(dst.Pix); i += 4 {
		sum := int(dst.Pix[i]) + int(dst.Pix[i+1]) + int(dst.Pix[i+2])
		avg := uint8((sum + 1) / 3) // округление до ближайшего
		dst.Pix[i] = avg
		dst.Pix[i+1] = avg
		dst.Pix[i+2] = avg
	}
	return dst
}

// PageRasterizer растеризует страницы документа на поверхность
type PageRasterizer struct {
	logger repositories.Logger
}

// NewPageRasterizer создает растеризатор страниц
func NewPageRasterizer(logger repositories.Logger) *PageRasterizer {
	if logger == nil {
		logger = repositories.NopLogger{}
	}
	return &PageRasterizer{logger: logger}
}

// Render растеризует страницу pageNumber (с 1) в масштабе scale.
// Возвращаемый буфер принадлежит поверхности и действителен до следующего вызова.
func (r *PageRasterizer) Render(ctx context.Context, doc repositories.Document, pageNumber int, scale float64, surface *Surface) (*image.RGBA, error) {
	page, err := doc.Page(ctx, pageNumber)
	if err != nil {
		return nil, entities.NewPageError(entities.KindRender, pageNumber, fmt.Errorf("не удалось получить страницу: %w", err))
	}

	pw, ph := page.Size()
	if pw <= 0 || ph <= 0 {
		return nil, entities.NewPageError(entities.KindRender, pageNumber, fmt.Errorf("некорректный размер страницы %.1fx%.1f", pw, ph))
	}

	width, height := ViewportSize(pw, ph, scale)
	dst := surface.Prepare(width, height)

	r.logger.Debug("Рендеринг страницы %d: %dx%d px", pageNumber, width, height)
	if err := page.Render(ctx, dst); err != nil {
		return nil, entities.NewPageError(entities.KindRender, pageNumber, err)
	}

	return dst, nil
}

// RenderWithSettings растеризует страницу и применяет цветовое пространство настроек
func (r *PageRasterizer) RenderWithSettings(ctx context.Context, doc repositories.Document, pageNumber int, settings entities.CompressionSettings, surface *Surface) (*image.RGBA, error) {
	bitmap, err := r.Render(ctx, doc, pageNumber, settings.Scale, surface)
	if err != nil {
		return nil, err
	}
	if settings.ColorSpace == entities.ColorSpaceGray {
		return Grayscale(bitmap), nil
	}
	return bitmap, nil
}
