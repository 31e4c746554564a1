package usecases

import (
	"context"
	"fmt"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

// CompressPDFUseCase сценарий сжатия пакета PDF файлов в один PDF
type CompressPDFUseCase struct {
	processor *ProcessPDFsUseCase
	assembler *AssemblePDFUseCase
	optimizer repositories.PDFOptimizer
	sink      repositories.DownloadSink
	logger    repositories.Logger

	tracker          *ProgressTracker
	progressReporter func(entities.ProgressState)
	grayscale        bool
	outputPrefix     string
}

// NewCompressPDFUseCase создает новый сценарий сжатия PDF
func NewCompressPDFUseCase(
	processor *ProcessPDFsUseCase,
	assembler *AssemblePDFUseCase,
	sink repositories.DownloadSink,
	logger repositories.Logger,
) *CompressPDFUseCase {
	if logger == nil {
		logger = repositories.NopLogger{}
	}
	return &CompressPDFUseCase{
		processor:    processor,
		assembler:    assembler,
		sink:         sink,
		logger:       logger,
		tracker:      NewProgressTracker(),
		outputPrefix: entities.DefaultPrefix,
	}
}

// SetProgressReporter устанавливает функцию для отчета о прогрессе
func (uc *CompressPDFUseCase) SetProgressReporter(reporter func(entities.ProgressState)) {
	uc.progressReporter = reporter
}

// SetOptimizer включает дополнительную оптимизацию готового PDF
func (uc *CompressPDFUseCase) SetOptimizer(optimizer repositories.PDFOptimizer) {
	uc.optimizer = optimizer
}

// SetGrayscale включает перевод страниц в оттенки серого
func (uc *CompressPDFUseCase) SetGrayscale(grayscale bool) {
	uc.grayscale = grayscale
}

// SetOutputPrefix устанавливает префикс имени выходного файла
func (uc *CompressPDFUseCase) SetOutputPrefix(prefix string) {
	uc.outputPrefix = prefix
}

// Progress возвращает текущее состояние прогресса
func (uc *CompressPDFUseCase) Progress() entities.ProgressState {
	return uc.tracker.Snapshot()
}

// OutputName имя выходного файла для пакета
func (uc *CompressPDFUseCase) OutputName(files []entities.SourceFile) string {
	if len(files) == 0 {
		return uc.outputPrefix + "output.pdf"
	}
	return uc.outputPrefix + files[0].Name
}

// Execute сжимает файлы с уровнем level (0-100) и сохраняет результат через DownloadSink.
// При ошибке статистика не возвращается, прогресс сбрасывается в любом случае.
func (uc *CompressPDFUseCase) Execute(ctx context.Context, files []entities.SourceFile, level int) (*entities.CompressionOutput, error) {
	return uc.ExecuteTo(ctx, files, level, uc.sink)
}

// ExecuteTo как Execute, но сохраняет результат через указанный sink
func (uc *CompressPDFUseCase) ExecuteTo(ctx context.Context, files []entities.SourceFile, level int, sink repositories.DownloadSink) (*entities.CompressionOutput, error) {
	defer uc.tracker.Reset()

	if len(files) == 0 {
		return nil, entities.NewValidationError(entities.ErrEmptyInput)
	}
	if uc.processor == nil || uc.assembler == nil {
		return nil, entities.NewValidationError(entities.ErrComponentsNotReady)
	}
	if err := uc.processor.Ready(); err != nil {
		return nil, entities.NewValidationError(fmt.Errorf("%w: %v", entities.ErrComponentsNotReady, err))
	}
	if level < entities.MinCompressionLevel || level > entities.MaxCompressionLevel {
		return nil, entities.NewValidationError(entities.ErrInvalidCompressionLevel)
	}

	settings := entities.SettingsFor(level)
	if uc.grayscale {
		settings = settings.WithGrayscale()
	}

	uc.tracker.Reset()
	uc.logger.Info("Сжатие %d файл(ов), уровень %d%% (%s)", len(files), level, entities.LevelName(level))

	pages, err := uc.processor.Execute(ctx, files, settings, uc.reportProgress)
	if err != nil {
		uc.logger.Error("Ошибка обработки страниц: %v", err)
		return nil, err
	}

	pending, err := uc.assembler.Execute(ctx, pages)
	if err != nil {
		uc.logger.Error("Ошибка сборки PDF: %v", err)
		return nil, err
	}

	data, err := pending.Wait(ctx)
	if err != nil {
		uc.logger.Error("Ошибка сборки PDF: %v", err)
		return nil, err
	}

	data = uc.optimize(data)

	output := &entities.CompressionOutput{
		Data:     data,
		Filename: uc.OutputName(files),
		Pages:    pending.Pages(),
		Stats:    entities.CalculateStats(entities.TotalSize(files), int64(len(data))),
	}

	uc.logger.Success("Сжатие завершено: %s → %s (сэкономлено %s%%)",
		formatMB(output.Stats.OriginalSize), formatMB(output.Stats.CompressedSize), output.Stats.CompressionRatio)

	uc.download(sink, output)
	return output, nil
}

// reportProgress сохраняет и отправляет обновление прогресса
func (uc *CompressPDFUseCase) reportProgress(state entities.ProgressState) {
	uc.tracker.Update(state)
	if uc.progressReporter != nil {
		uc.progressReporter(state)
	}
}

// optimize применяет оптимизатор, если он уменьшает размер. Ошибки не фатальны.
func (uc *CompressPDFUseCase) optimize(data []byte) []byte {
	if uc.optimizer == nil {
		return data
	}
	optimized, err := uc.optimizer.Optimize(data)
	if err != nil {
		uc.logger.Warning("Оптимизация PDF пропущена: %v", err)
		return data
	}
	if len(optimized) >= len(data) {
		uc.logger.Debug("Оптимизация не уменьшила размер (%d → %d байт)", len(data), len(optimized))
		return data
	}
	return optimized
}

// download передает результат получателю. Ошибка сохранения не отменяет результат.
func (uc *CompressPDFUseCase) download(sink repositories.DownloadSink, output *entities.CompressionOutput) {
	if sink == nil {
		return
	}
	path, err := sink.Save(output.Data, output.Filename)
	if err != nil {
		uc.logger.Warning("Не удалось сохранить %s: %v", output.Filename, err)
		return
	}
	uc.logger.Info("Результат сохранен: %s", path)
}
