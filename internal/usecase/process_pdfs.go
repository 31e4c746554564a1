package usecases

import (
	"context"
	"fmt"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

// ProcessPDFsUseCase растеризует и сжимает страницы пакета PDF файлов.
// Страницы обрабатываются строго последовательно пакетами по chunkSize штук.
type ProcessPDFsUseCase struct {
	engine       repositories.DocumentEngine
	rasterizer   *PageRasterizer
	encoder      ImageEncoder
	logger       repositories.Logger
	limits       entities.SizeLimits
	chunkSize    int
	progressMode entities.ProgressMode
}

// NewProcessPDFsUseCase создает новый сценарий обработки пакета PDF
func NewProcessPDFsUseCase(
	engine repositories.DocumentEngine,
	rasterizer *PageRasterizer,
	encoder ImageEncoder,
	logger repositories.Logger,
) *ProcessPDFsUseCase {
	if logger == nil {
		logger = repositories.NopLogger{}
	}
	return &ProcessPDFsUseCase{
		engine:       engine,
		rasterizer:   rasterizer,
		encoder:      encoder,
		logger:       logger,
		limits:       entities.DefaultSizeLimits(),
		chunkSize:    entities.DefaultChunkSize,
		progressMode: entities.ProgressExact,
	}
}

// SetLimits устанавливает ограничения размера входных данных
func (uc *ProcessPDFsUseCase) SetLimits(limits entities.SizeLimits) {
	uc.limits = limits
}

// SetChunkSize устанавливает размер пакета страниц
func (uc *ProcessPDFsUseCase) SetChunkSize(size int) {
	if size > 0 {
		uc.chunkSize = size
	}
}

// SetProgressMode устанавливает способ расчета процента
func (uc *ProcessPDFsUseCase) SetProgressMode(mode entities.ProgressMode) {
	uc.progressMode = mode
}

// Ready проверяет готовность движка рендеринга
func (uc *ProcessPDFsUseCase) Ready() error {
	if uc.engine == nil || uc.rasterizer == nil || uc.encoder == nil {
		return entities.ErrComponentsNotReady
	}
	return uc.engine.Ready()
}

// ValidateFiles проверяет список файлов до начала обработки
func (uc *ProcessPDFsUseCase) ValidateFiles(files []entities.SourceFile) error {
	return validatePDFs(files, uc.limits)
}

func validatePDFs(files []entities.SourceFile, limits entities.SizeLimits) error {
	if len(files) == 0 {
		return entities.NewValidationError(entities.ErrEmptyInput)
	}

	for i, f := range files {
		if f.Size > limits.MaxFileSize {
			return entities.NewFileError(entities.KindValidation, f.Name, i+1,
				fmt.Errorf("%w: %s больше %s", entities.ErrFileSizeExceeded, formatMB(f.Size), formatMB(limits.MaxFileSize)))
		}
	}

	if total := entities.TotalSize(files); total > limits.MaxTotalSize {
		return entities.NewValidationError(
			fmt.Errorf("%w: %s больше %s", entities.ErrTotalSizeExceeded, formatMB(total), formatMB(limits.MaxTotalSize)))
	}

	for i, f := range files {
		if !f.LooksLikePDF() {
			return entities.NewFileError(entities.KindValidation, f.Name, i+1, entities.ErrNotPDF)
		}
	}

	return nil
}

// openedFile открытый документ пакета
type openedFile struct {
	source entities.SourceFile
	index  int
	doc    repositories.Document
}

// Execute обрабатывает файлы в порядке передачи и возвращает сжатые страницы
// в порядке файл-страница. Любая ошибка прерывает весь пакет без частичного результата.
func (uc *ProcessPDFsUseCase) Execute(
	ctx context.Context,
	files []entities.SourceFile,
	settings entities.CompressionSettings,
	onProgress func(entities.ProgressState),
) ([]entities.ProcessedPage, error) {
	if onProgress == nil {
		onProgress = func(entities.ProgressState) {}
	}

	if err := uc.ValidateFiles(files); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, entities.NewValidationError(err)
	}

	opened, err := uc.openAll(ctx, files)
	defer closeAll(opened, uc.logger)
	if err != nil {
		return nil, err
	}

	totalPages := 0
	for _, f := range opened {
		totalPages += f.doc.PageCount()
	}

	uc.logger.Info("Пакет: %d файл(ов), %d страниц(ы), качество %d, масштаб %.2f, цвет %s",
		len(files), totalPages, JPEGQuality(settings.ImageQuality), settings.Scale, settings.ColorSpace)

	pages := make([]entities.ProcessedPage, 0, totalPages)
	surface := NewSurface()
	state := entities.ProgressState{TotalFiles: len(files)}
	pagesDone := 0

	for _, f := range opened {
		pageCount := f.doc.PageCount()

		state.CurrentFile = f.index
		state.CurrentPage = 0
		state.TotalPages = pageCount
		onProgress(state)

		uc.logger.Info("Файл [%d/%d] %s: %d страниц(ы)", f.index, len(files), f.source.Name, pageCount)

		for start := 1; start <= pageCount; start += uc.chunkSize {
			end := start + uc.chunkSize - 1
			if end > pageCount {
				end = pageCount
			}

			for pageNum := start; pageNum <= end; pageNum++ {
				if err := ctx.Err(); err != nil {
					return nil, cancelled(f, pageNum, err)
				}

				page, err := uc.processPage(ctx, f.doc, pageNum, settings, surface)
				if err != nil {
					return nil, entities.AttributeFile(err, entities.KindRender, f.source.Name, f.index)
				}
				pages = append(pages, page)
				pagesDone++

				state.CurrentPage = pageNum
				state.Percent = uc.percent(state, pagesDone, totalPages)
				onProgress(state)
			}

			uc.logger.Debug("Пакет страниц %d-%d файла %s обработан", start, end, f.source.Name)
		}
	}

	return pages, nil
}

// openAll открывает все документы до начала рендеринга
func (uc *ProcessPDFsUseCase) openAll(ctx context.Context, files []entities.SourceFile) ([]openedFile, error) {
	opened := make([]openedFile, 0, len(files))
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return opened, entities.NewFileError(entities.KindCancelled, f.Name, i+1, err)
		}

		uc.logger.Debug("Открытие документа %s (%s)", f.Name, formatMB(f.Size))
		doc, err := uc.engine.Open(ctx, f.Data)
		if err != nil {
			return opened, entities.AttributeFile(err, entities.KindUnsupportedInput, f.Name, i+1)
		}
		opened = append(opened, openedFile{source: f, index: i + 1, doc: doc})

		if doc.PageCount() <= 0 {
			return opened, entities.NewFileError(entities.KindValidation, f.Name, i+1, entities.ErrNoPages)
		}
	}
	return opened, nil
}

// processPage растеризует и кодирует одну страницу
func (uc *ProcessPDFsUseCase) processPage(
	ctx context.Context,
	doc repositories.Document,
	pageNum int,
	settings entities.CompressionSettings,
	surface *Surface,
) (entities.ProcessedPage, error) {
	bitmap, err := uc.rasterizer.RenderWithSettings(ctx, doc, pageNum, settings, surface)
	if err != nil {
		return entities.ProcessedPage{}, err
	}

	encoded, err := uc.encoder.Encode(bitmap, settings.ImageQuality)
	if err != nil {
		return entities.ProcessedPage{}, entities.AttributePage(err, entities.KindEncode, pageNum)
	}

	uc.logger.Debug("Страница %d: %dx%d px, %d байт", pageNum, encoded.Width, encoded.Height, len(encoded.Data))
	return entities.ProcessedPage{
		Width:  encoded.Width,
		Height: encoded.Height,
		Data:   encoded.Data,
	}, nil
}

func (uc *ProcessPDFsUseCase) percent(state entities.ProgressState, pagesDone, totalPages int) int {
	if uc.progressMode == entities.ProgressLegacy {
		return entities.LegacyPercent(state.CurrentFile, state.TotalFiles, state.CurrentPage, state.TotalPages)
	}
	return entities.ExactPercent(pagesDone, totalPages)
}

func cancelled(f openedFile, pageNum int, err error) error {
	return &entities.CompressionError{
		Kind:      entities.KindCancelled,
		FileName:  f.source.Name,
		FileIndex: f.index,
		Page:      pageNum,
		Err:       err,
	}
}

func closeAll(opened []openedFile, logger repositories.Logger) {
	for _, f := range opened {
		if err := f.doc.Close(); err != nil {
			logger.Warning("Не удалось закрыть документ %s: %v", f.source.Name, err)
		}
	}
}

func formatMB(size int64) string {
	return fmt.Sprintf("%.2f MB", float64(size)/1024/1024)
}
