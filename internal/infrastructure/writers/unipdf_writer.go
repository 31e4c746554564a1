package writers

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"image/jpeg"
	"io"

	"github.com/unidoc/unipdf/v3/contentstream"
	"github.com/unidoc/unipdf/v3/core"
	"github.com/unidoc/unipdf/v3/model"
	"github.com/unidoc/unipdf/v3/model/optimize"

	"pdfshrink/internal/domain/repositories"
	"pdfshrink/internal/infrastructure/engines"
)

var errNoPage = errors.New("UniPDF: изображение добавляется до первой страницы")

// UniPDFFactory создает документы через модель unipdf
type UniPDFFactory struct {
	licenseKey string
}

// NewUniPDFFactory создает фабрику документов UniPDF
func NewUniPDFFactory(licenseKey string) *UniPDFFactory {
	return &UniPDFFactory{licenseKey: licenseKey}
}

// NewDocument создает пустой документ
func (f *UniPDFFactory) NewDocument() (repositories.PDFWriter, error) {
	if err := engines.SetupUniPDFLicense(f.licenseKey); err != nil {
		return nil, err
	}
	return newUniPDFWriter(), nil
}

func newUniPDFWriter() *UniPDFWriter {
	return &UniPDFWriter{
		optimizer: optimize.New(optimize.Options{
			CombineDuplicateDirectObjects:   true,
			CombineIdenticalIndirectObjects: true,
			CombineDuplicateStreams:         true,
			CompressStreams:                 true,
		}),
	}
}

type uniPDFPage struct {
	page    *model.PdfPage
	height  float64
	content *contentstream.ContentCreator
	images  int
}

// UniPDFWriter постраничная запись PDF через unipdf.
// JPEG встраивается как есть с фильтром DCTDecode.
type UniPDFWriter struct {
	pages     []*uniPDFPage
	optimizer model.Optimizer
}

// AddPage добавляет страницу заданного размера
func (w *UniPDFWriter) AddPage(width, height float64) error {
	page := model.NewPdfPage()
	page.MediaBox = &model.PdfRectangle{Llx: 0, Lly: 0, Urx: width, Ury: height}
	w.pages = append(w.pages, &uniPDFPage{
		page:    page,
		height:  height,
		content: contentstream.NewContentCreator(),
	})
	return nil
}

// DrawImage размещает изображение на текущей странице.
// Координаты отсчитываются от левого верхнего угла.
func (w *UniPDFWriter) DrawImage(data []byte, x, y, width, height float64) error {
	if len(w.pages) == 0 {
		return errNoPage
	}
	current := w.pages[len(w.pages)-1]

	ximg, err := imageXObject(data)
	if err != nil {
		return fmt.Errorf("UniPDF: %w", err)
	}

	current.images++
	name := core.PdfObjectName(fmt.Sprintf("Im%d", current.images))
	if err := current.page.AddImageResource(name, ximg); err != nil {
		return fmt.Errorf("UniPDF: %w", err)
	}

	// В PDF ось Y направлена вверх
	current.content.
		Add_q().
		Add_cm(width, 0, 0, height, x, current.height-y-height).
		Add_Do(name).
		Add_Q()
	return nil
}

// Finish записывает документ в out в отдельной горутине
func (w *UniPDFWriter) Finish(out io.Writer) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- w.write(out)
		close(done)
	}()
	return done
}

func (w *UniPDFWriter) write(out io.Writer) error {
	writer := model.NewPdfWriter()
	writer.SetOptimizer(w.optimizer)
	for _, p := range w.pages {
		if err := p.page.SetContentStreams([]string{p.content.String()}, core.NewFlateEncoder()); err != nil {
			return fmt.Errorf("UniPDF: %w", err)
		}
		if err := writer.AddPage(p.page); err != nil {
			return fmt.Errorf("UniPDF: %w", err)
		}
	}
	return writer.Write(out)
}

// imageXObject строит XObject изображения. Байты JPEG попадают в поток
// без декодирования, PNG переводится в растр и сжимается без потерь.
func imageXObject(data []byte) (*model.XObjectImage, error) {
	if imageType(data) == "PNG" {
		img, err := model.ImageHandling.Read(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return model.NewXObjectImageFromImage(img, nil, core.NewFlateEncoder())
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	width, height, bpc := int64(cfg.Width), int64(cfg.Height), int64(8)
	ximg := model.NewXObjectImage()
	ximg.Width = &width
	ximg.Height = &height
	ximg.BitsPerComponent = &bpc
	ximg.Filter = core.NewDCTEncoder()
	ximg.Stream = data

	switch cfg.ColorModel {
	case color.GrayModel:
		ximg.ColorSpace = model.NewPdfColorspaceDeviceGray()
	case color.CMYKModel:
		ximg.ColorSpace = model.NewPdfColorspaceDeviceCMYK()
	default:
		ximg.ColorSpace = model.NewPdfColorspaceDeviceRGB()
	}
	return ximg, nil
}
