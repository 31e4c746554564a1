package usecases

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

// AssemblePDFUseCase собирает сжатые страницы в новый PDF, по одной странице на изображение
type AssemblePDFUseCase struct {
	writers repositories.PDFWriterFactory
	logger  repositories.Logger
}

// NewAssemblePDFUseCase создает сценарий сборки PDF
func NewAssemblePDFUseCase(writers repositories.PDFWriterFactory, logger repositories.Logger) *AssemblePDFUseCase {
	if logger == nil {
		logger = repositories.NopLogger{}
	}
	return &AssemblePDFUseCase{writers: writers, logger: logger}
}

// PendingPDF результат сборки, доступный только после сигнала завершения записи
type PendingPDF struct {
	pages int
	buf   *bytes.Buffer
	done  <-chan error

	once sync.Once
	data []byte
	err  error
}

// Pages количество страниц в собираемом документе
func (p *PendingPDF) Pages() int {
	return p.pages
}

// Wait ждет сигнала завершения записи и возвращает байты документа.
// Повторные вызовы возвращают тот же результат.
func (p *PendingPDF) Wait(ctx context.Context) ([]byte, error) {
	p.once.Do(func() {
		select {
		case err := <-p.done:
			if err != nil {
				p.err = &entities.CompressionError{Kind: entities.KindAssembly, Err: err}
				return
			}
			p.data = p.buf.Bytes()
		case <-ctx.Done():
			p.err = &entities.CompressionError{Kind: entities.KindCancelled, Err: ctx.Err()}
		}
	})
	return p.data, p.err
}

// Execute записывает страницы в порядке следования. Каждая страница получает размер
// изображения, изображение рисуется от начала координат на всю страницу.
func (uc *AssemblePDFUseCase) Execute(ctx context.Context, pages []entities.ProcessedPage) (*PendingPDF, error) {
	if len(pages) == 0 {
		return nil, entities.NewValidationError(entities.ErrNoPages)
	}
	if uc.writers == nil {
		return nil, &entities.CompressionError{Kind: entities.KindAssembly, Err: entities.ErrComponentsNotReady}
	}

	uc.logger.Info("Сборка PDF из %d страниц(ы)", len(pages))

	writer, err := uc.writers.NewDocument()
	if err != nil {
		return nil, &entities.CompressionError{Kind: entities.KindAssembly, Err: fmt.Errorf("не удалось создать документ: %w", err)}
	}

	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, entities.NewPageError(entities.KindCancelled, i+1, err)
		}

		w, h := float64(page.Width), float64(page.Height)
		if err := writer.AddPage(w, h); err != nil {
			return nil, entities.NewPageError(entities.KindAssembly, i+1, fmt.Errorf("не удалось добавить страницу: %w", err))
		}
		if err := writer.DrawImage(page.Data, 0, 0, w, h); err != nil {
			return nil, entities.NewPageError(entities.KindAssembly, i+1, fmt.Errorf("не удалось разместить изображение: %w", err))
		}
	}

	buf := &bytes.Buffer{}
	return &PendingPDF{
		pages: len(pages),
		buf:   buf,
		done:  writer.Finish(buf),
	}, nil
}
