package engines

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"sync"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

const instanceTimeout = 30 * time.Second

// PdfiumEngine движок рендеринга на PDFium (WebAssembly, без cgo).
// Инициализация выполняется лениво при первом обращении.
type PdfiumEngine struct {
	logger repositories.Logger

	once     sync.Once
	initErr  error
	pool     pdfium.Pool
	instance pdfium.Pdfium
	mu       sync.Mutex
}

// NewPdfiumEngine создает движок PDFium
func NewPdfiumEngine(logger repositories.Logger) *PdfiumEngine {
	if logger == nil {
		logger = repositories.NopLogger{}
	}
	return &PdfiumEngine{logger: logger}
}

func (e *PdfiumEngine) init() error {
	e.once.Do(func() {
		e.logger.Debug("Инициализация PDFium (WebAssembly)")
		pool, err := webassembly.Init(webassembly.Config{
			MinIdle:  1,
			MaxIdle:  1,
			MaxTotal: 1,
		})
		if err != nil {
			e.initErr = fmt.Errorf("не удалось инициализировать PDFium: %w", err)
			return
		}

		instance, err := pool.GetInstance(instanceTimeout)
		if err != nil {
			pool.Close()
			e.initErr = fmt.Errorf("не удалось получить экземпляр PDFium: %w", err)
			return
		}

		e.pool = pool
		e.instance = instance
	})
	return e.initErr
}

// Ready инициализирует PDFium и сообщает о готовности
func (e *PdfiumEngine) Ready() error {
	return e.init()
}

// Open разбирает PDF из памяти
func (e *PdfiumEngine) Open(ctx context.Context, data []byte) (repositories.Document, error) {
	if err := e.init(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.instance.OpenDocument(&requests.OpenDocument{File: &data})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidFileFormat, err)
	}

	count, err := e.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{Document: doc.Document})
	if err != nil {
		e.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})
		return nil, fmt.Errorf("не удалось получить число страниц: %w", err)
	}

	return &pdfiumDocument{engine: e, ref: doc.Document, pages: count.PageCount}, nil
}

// Close освобождает экземпляр и пул PDFium
func (e *PdfiumEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.instance != nil {
		if err := e.instance.Close(); err != nil {
			e.logger.Warning("Ошибка закрытия экземпляра PDFium: %v", err)
		}
		e.instance = nil
	}
	if e.pool != nil {
		if err := e.pool.Close(); err != nil {
			return fmt.Errorf("ошибка закрытия пула PDFium: %w", err)
		}
		e.pool = nil
	}
	return nil
}

type pdfiumDocument struct {
	engine *PdfiumEngine
	ref    references.FPDF_DOCUMENT
	pages  int
	closed bool
}

func (d *pdfiumDocument) PageCount() int {
	return d.pages
}

func (d *pdfiumDocument) Page(ctx context.Context, number int) (repositories.Page, error) {
	if number < 1 || number > d.pages {
		return nil, fmt.Errorf("страница %d вне диапазона 1..%d", number, d.pages)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page := requests.Page{
		ByIndex: &requests.PageByIndex{Document: d.ref, Index: number - 1},
	}

	d.engine.mu.Lock()
	size, err := d.engine.instance.GetPageSize(&requests.GetPageSize{Page: page})
	d.engine.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("не удалось получить размер страницы: %w", err)
	}

	return &pdfiumPage{doc: d, page: page, width: size.Width, height: size.Height}, nil
}

func (d *pdfiumDocument) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	d.engine.mu.Lock()
	defer d.engine.mu.Unlock()
	if d.engine.instance == nil {
		return nil
	}
	_, err := d.engine.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: d.ref})
	return err
}

type pdfiumPage struct {
	doc    *pdfiumDocument
	page   requests.Page
	width  float64
	height float64
}

func (p *pdfiumPage) Size() (float64, float64) {
	return p.width, p.height
}

// Render рендерит страницу в размер dst и переносит результат поверх белого фона
func (p *pdfiumPage) Render(ctx context.Context, dst *image.RGBA) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bounds := dst.Bounds()
	engine := p.doc.engine

	engine.mu.Lock()
	defer engine.mu.Unlock()

	rendered, err := engine.instance.RenderPageInPixels(&requests.RenderPageInPixels{
		Page:   p.page,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	})
	if err != nil {
		return fmt.Errorf("PDFium: %w", err)
	}
	defer rendered.Cleanup()

	draw.Draw(dst, bounds, rendered.Result.Image, rendered.Result.Image.Bounds().Min, draw.Over)
	return nil
}
