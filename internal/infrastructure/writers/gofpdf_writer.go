package writers

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"pdfshrink/internal/domain/repositories"
)

// GofpdfFactory создает документы gofpdf
type GofpdfFactory struct{}

// NewGofpdfFactory создает фабрику документов gofpdf
func NewGofpdfFactory() *GofpdfFactory {
	return &GofpdfFactory{}
}

// NewDocument создает пустой документ. Единица измерения - пункт.
func (f *GofpdfFactory) NewDocument() (repositories.PDFWriter, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: 595.28, Ht: 841.89},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(true)
	return &GofpdfWriter{pdf: pdf}, nil
}

// GofpdfWriter постраничная запись PDF через gofpdf
type GofpdfWriter struct {
	pdf    *gofpdf.Fpdf
	images int
}

// AddPage добавляет страницу заданного размера
func (w *GofpdfWriter) AddPage(width, height float64) error {
	// "L" меняет ширину и высоту местами, размер задается явно
	w.pdf.AddPageFormat("P", gofpdf.SizeType{Wd: width, Ht: height})
	return w.pdf.Error()
}

// DrawImage размещает JPEG или PNG на текущей странице
func (w *GofpdfWriter) DrawImage(data []byte, x, y, width, height float64) error {
	w.images++
	name := fmt.Sprintf("page-image-%d", w.images)
	options := gofpdf.ImageOptions{ImageType: imageType(data), ReadDpi: false}

	w.pdf.RegisterImageOptionsReader(name, options, bytes.NewReader(data))
	if err := w.pdf.Error(); err != nil {
		return err
	}
	w.pdf.ImageOptions(name, x, y, width, height, false, options, 0, "")
	return w.pdf.Error()
}

// Finish записывает документ в out в отдельной горутине
func (w *GofpdfWriter) Finish(out io.Writer) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- w.pdf.Output(out)
		close(done)
	}()
	return done
}

func imageType(data []byte) string {
	if bytes.HasPrefix(data, []byte("\x89PNG")) {
		return "PNG"
	}
	return "JPG"
}
