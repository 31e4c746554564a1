package engines

import (
	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

// New создает движок рендеринга по настройкам сжатия
func New(config entities.AppCompressionConfig, logger repositories.Logger) (repositories.DocumentEngine, error) {
	var engine repositories.DocumentEngine
	switch config.Engine {
	case entities.EnginePdfium, "":
		engine = NewPdfiumEngine(logger)
	case entities.EngineUniPDF:
		engine = NewUniPDFEngine(config.UniPDFLicenseKey, logger)
	default:
		return nil, entities.ErrUnknownEngine
	}

	if config.Preflight {
		engine = NewPreflightEngine(engine, logger)
	}
	return engine, nil
}
