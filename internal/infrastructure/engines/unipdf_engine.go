package engines

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"os"
	"sync"

	"github.com/nfnt/resize"
	"github.com/unidoc/unipdf/v3/common"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/model"
	"github.com/unidoc/unipdf/v3/render"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

// LicenseEnvVar переменная окружения с ключом UniPDF
const LicenseEnvVar = "UNIDOC_LICENSE_API_KEY"

var licenseOnce sync.Once
var licenseErr error

// SetupUniPDFLicense устанавливает лицензионный ключ UniPDF один раз на процесс.
// Пустой ключ берется из переменной UNIDOC_LICENSE_API_KEY.
func SetupUniPDFLicense(key string) error {
	licenseOnce.Do(func() {
		if key == "" {
			key = os.Getenv(LicenseEnvVar)
		}
		if key == "" {
			licenseErr = fmt.Errorf("UniPDF требует лицензионный ключ: укажите compression.unipdf_license_key или %s", LicenseEnvVar)
			return
		}
		common.SetLogger(common.NewConsoleLogger(common.LogLevelError))
		if err := license.SetMeteredKey(key); err != nil {
			licenseErr = fmt.Errorf("не удалось установить лицензию UniPDF: %w", err)
		}
	})
	return licenseErr
}

// UniPDFEngine движок рендеринга на UniPDF
type UniPDFEngine struct {
	licenseKey string
	logger     repositories.Logger
}

// NewUniPDFEngine создает движок UniPDF
func NewUniPDFEngine(licenseKey string, logger repositories.Logger) *UniPDFEngine {
	if logger == nil {
		logger = repositories.NopLogger{}
	}
	return &UniPDFEngine{licenseKey: licenseKey, logger: logger}
}

// Ready проверяет лицензию UniPDF
func (e *UniPDFEngine) Ready() error {
	return SetupUniPDFLicense(e.licenseKey)
}

// Open разбирает PDF из памяти
func (e *UniPDFEngine) Open(ctx context.Context, data []byte) (repositories.Document, error) {
	if err := e.Ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidFileFormat, err)
	}

	count, err := reader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("не удалось получить число страниц: %w", err)
	}

	e.logger.Debug("UniPDF: документ открыт, %d страниц(ы)", count)
	return &unipdfDocument{reader: reader, pages: count}, nil
}

func (e *UniPDFEngine) Close() error {
	return nil
}

type unipdfDocument struct {
	reader *model.PdfReader
	pages  int
}

func (d *unipdfDocument) PageCount() int {
	return d.pages
}

func (d *unipdfDocument) Page(ctx context.Context, number int) (repositories.Page, error) {
	if number < 1 || number > d.pages {
		return nil, fmt.Errorf("страница %d вне диапазона 1..%d", number, d.pages)
	}

	page, err := d.reader.GetPage(number)
	if err != nil {
		return nil, err
	}

	box, err := page.GetMediaBox()
	if err != nil {
		return nil, fmt.Errorf("не удалось получить MediaBox: %w", err)
	}

	width, height := box.Width(), box.Height()
	if rotate := page.Rotate; rotate != nil && (*rotate/90)%2 != 0 {
		width, height = height, width
	}

	return &unipdfPage{page: page, width: width, height: height}, nil
}

func (d *unipdfDocument) Close() error {
	return nil
}

type unipdfPage struct {
	page   *model.PdfPage
	width  float64
	height float64
}

func (p *unipdfPage) Size() (float64, float64) {
	return p.width, p.height
}

// Render рендерит страницу и масштабирует результат до размера dst
func (p *unipdfPage) Render(ctx context.Context, dst *image.RGBA) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	device := render.NewImageDevice()
	img, err := device.Render(p.page)
	if err != nil {
		return fmt.Errorf("UniPDF: %w", err)
	}

	bounds := dst.Bounds()
	if img.Bounds().Dx() != bounds.Dx() || img.Bounds().Dy() != bounds.Dy() {
		img = resize.Resize(uint(bounds.Dx()), uint(bounds.Dy()), img, resize.Bilinear)
	}

	draw.Draw(dst, bounds, img, img.Bounds().Min, draw.Over)
	return nil
}
