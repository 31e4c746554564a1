package writers

import (
	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

// New создает фабрику документов по настройкам сжатия
func New(config entities.AppCompressionConfig) (repositories.PDFWriterFactory, error) {
	switch config.Writer {
	case entities.WriterGofpdf, "":
		return NewGofpdfFactory(), nil
	case entities.WriterUniPDF:
		return NewUniPDFFactory(config.UniPDFLicenseKey), nil
	default:
		return nil, entities.ErrUnknownWriter
	}
}
