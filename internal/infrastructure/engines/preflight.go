package engines

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

func init() {
	api.DisableConfigDir()
}

// PreflightEngine проверяет структуру PDF через pdfcpu перед передачей движку рендеринга
type PreflightEngine struct {
	next   repositories.DocumentEngine
	conf   *model.Configuration
	logger repositories.Logger
}

// NewPreflightEngine оборачивает движок проверкой pdfcpu
func NewPreflightEngine(next repositories.DocumentEngine, logger repositories.Logger) *PreflightEngine {
	if logger == nil {
		logger = repositories.NopLogger{}
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PreflightEngine{next: next, conf: conf, logger: logger}
}

func (e *PreflightEngine) Ready() error {
	return e.next.Ready()
}

func (e *PreflightEngine) Close() error {
	return e.next.Close()
}

// Open отклоняет файлы, которые pdfcpu не может разобрать, до рендеринга
func (e *PreflightEngine) Open(ctx context.Context, data []byte) (repositories.Document, error) {
	if err := api.Validate(bytes.NewReader(data), e.conf); err != nil {
		return nil, &entities.CompressionError{
			Kind: entities.KindUnsupportedInput,
			Err:  fmt.Errorf("%w: %v", entities.ErrInvalidFileFormat, err),
		}
	}

	count, err := api.PageCount(bytes.NewReader(data), e.conf)
	if err == nil {
		e.logger.Debug("pdfcpu: документ корректен, %d страниц(ы)", count)
	}

	return e.next.Open(ctx, data)
}
