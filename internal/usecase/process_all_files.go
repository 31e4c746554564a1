package usecases

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

// SinkFactory создает получателя файлов для директории
type SinkFactory func(dir string) repositories.DownloadSink

// ProcessAllFilesUseCase сценарий обработки всех PDF и изображений директории.
// Каждый PDF сжимается отдельным запуском, ошибка одного файла не прерывает остальные.
type ProcessAllFilesUseCase struct {
	pdfProcessor     *CompressPDFUseCase
	imageProcessor   *CompressImageUseCase
	fileRepo         repositories.FileRepository
	sinks            SinkFactory
	logger           repositories.Logger
	progressReporter func(entities.DirectoryStatus)
}

// NewProcessAllFilesUseCase создает новый сценарий обработки директории
func NewProcessAllFilesUseCase(
	pdfProcessor *CompressPDFUseCase,
	imageProcessor *CompressImageUseCase,
	fileRepo repositories.FileRepository,
	sinks SinkFactory,
	logger repositories.Logger,
) *ProcessAllFilesUseCase {
	if logger == nil {
		logger = repositories.NopLogger{}
	}
	return &ProcessAllFilesUseCase{
		pdfProcessor:   pdfProcessor,
		imageProcessor: imageProcessor,
		fileRepo:       fileRepo,
		sinks:          sinks,
		logger:         logger,
	}
}

// SetProgressReporter устанавливает функцию для отчета о прогрессе
func (uc *ProcessAllFilesUseCase) SetProgressReporter(reporter func(entities.DirectoryStatus)) {
	uc.progressReporter = reporter
}

// reportProgress отправляет обновление прогресса
func (uc *ProcessAllFilesUseCase) reportProgress(status *entities.DirectoryStatus) {
	if uc.progressReporter != nil {
		uc.progressReporter(*status)
	}
}

// Execute обрабатывает директорию input.source_directory согласно конфигурации
func (uc *ProcessAllFilesUseCase) Execute(ctx context.Context, config *entities.Config) (*entities.DirectoryStatus, error) {
	status := entities.NewDirectoryStatus(0)
	status.SetPhase(entities.PhaseInitializing, "Инициализация обработки...")
	uc.reportProgress(status)

	source := config.Input.SourceDirectory
	target := config.Input.TargetDirectory

	uc.logger.Info("╔════════════════════════════════════════════════════════════")
	uc.logger.Info("║ Начало обработки директории")
	uc.logger.Info("╠════════════════════════════════════════════════════════════")
	uc.logger.Info("║ Исходная директория: %s", source)
	uc.logger.Info("║ Целевая директория: %s", target)
	uc.logger.Info("║ Уровень сжатия: %d%% (%s)", config.Compression.Level, entities.LevelName(config.Compression.Level))
	uc.logger.Info("║ Движок: %s, запись: %s", config.Compression.Engine, config.Compression.Writer)
	uc.logger.Info("╚════════════════════════════════════════════════════════════")

	if err := uc.prepare(config); err != nil {
		status.Fail(err)
		uc.reportProgress(status)
		return status, err
	}

	status.SetPhase(entities.PhaseScanning, "Сканирование файлов...")
	uc.reportProgress(status)

	pdfs, images, err := uc.scan(config)
	if err != nil {
		status.Fail(err)
		uc.reportProgress(status)
		return status, err
	}

	status.TotalFiles = len(pdfs) + len(images)
	if status.TotalFiles == 0 {
		uc.logger.Warning("Файлы для обработки не найдены в директории: %s", source)
		status.Fail(entities.ErrNoFilesFound)
		uc.reportProgress(status)
		return status, entities.ErrNoFilesFound
	}
	uc.logger.Success("Найдено файлов для обработки: %d (PDF: %d, изображений: %d)", status.TotalFiles, len(pdfs), len(images))

	status.SetPhase(entities.PhaseCompressing, "Сжатие файлов...")
	uc.reportProgress(status)

	uc.pdfProcessor.SetProgressReporter(func(page entities.ProgressState) {
		status.Page = page
		uc.reportProgress(status)
	})
	defer uc.pdfProcessor.SetProgressReporter(nil)

	for _, path := range pdfs {
		if err := ctx.Err(); err != nil {
			return uc.cancel(status, err)
		}
		uc.processFile(ctx, status, path, config, uc.compressPDF)
	}
	for _, path := range images {
		if err := ctx.Err(); err != nil {
			return uc.cancel(status, err)
		}
		uc.processFile(ctx, status, path, config, uc.compressImage)
	}

	status.Complete()
	uc.reportProgress(status)

	uc.logger.Info("╔════════════════════════════════════════════════════════════")
	uc.logger.Info("║ Обработка завершена за %s", status.FormatElapsedTime())
	uc.logger.Info("║ Успешно: %d, с ошибками: %d из %d", status.SuccessfulFiles, status.FailedFiles, status.TotalFiles)
	uc.logger.Info("║ Сэкономлено: %s (%.1f%%)", formatMB(status.TotalSavedSpace), status.AverageCompression())
	uc.logger.Info("╚════════════════════════════════════════════════════════════")

	return status, nil
}

func (uc *ProcessAllFilesUseCase) prepare(config *entities.Config) error {
	if uc.pdfProcessor == nil || uc.fileRepo == nil || uc.sinks == nil {
		return entities.ErrComponentsNotReady
	}
	if !uc.fileRepo.FileExists(config.Input.SourceDirectory) {
		return fmt.Errorf("%w: %s", entities.ErrDirectoryNotFound, config.Input.SourceDirectory)
	}
	if err := uc.fileRepo.CreateDirectory(config.Input.TargetDirectory); err != nil {
		return fmt.Errorf("ошибка создания целевой директории: %w", err)
	}
	return nil
}

func (uc *ProcessAllFilesUseCase) scan(config *entities.Config) ([]string, []string, error) {
	pdfs, err := uc.fileRepo.ListPDFFiles(config.Input.SourceDirectory)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка получения списка файлов: %w", err)
	}

	var images []string
	if config.Compression.ImageQuality > 0 && uc.imageProcessor != nil {
		images, err = uc.fileRepo.ListImageFiles(config.Input.SourceDirectory)
		if err != nil {
			return nil, nil, fmt.Errorf("ошибка получения списка изображений: %w", err)
		}
	}

	// Результаты предыдущих запусков не обрабатываются повторно
	return uc.skipTarget(pdfs, config), uc.skipTarget(images, config), nil
}

func (uc *ProcessAllFilesUseCase) skipTarget(paths []string, config *entities.Config) []string {
	target, err := filepath.Abs(config.Input.TargetDirectory)
	if err != nil {
		return paths
	}
	if source, _ := filepath.Abs(config.Input.SourceDirectory); source == target {
		return paths
	}

	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil && isWithin(target, abs) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

type fileCompressor func(ctx context.Context, file entities.SourceFile, config *entities.Config) (*entities.CompressionOutput, error)

// processFile сжимает один файл и добавляет результат в статус
func (uc *ProcessAllFilesUseCase) processFile(
	ctx context.Context,
	status *entities.DirectoryStatus,
	path string,
	config *entities.Config,
	compress fileCompressor,
) {
	status.CurrentFile = path
	status.Page = entities.ProgressState{}
	uc.reportProgress(status)

	result := &entities.FileResult{Path: path}
	defer func() {
		status.AddResult(result)
		uc.reportProgress(status)
		uc.logResult(status, result)
	}()

	file, err := uc.fileRepo.ReadSourceFile(path)
	if err != nil {
		result.Err = err
		return
	}

	output, err := compress(ctx, file, config)
	if err != nil {
		result.Err = err
		return
	}

	saved, err := uc.sinks(uc.targetDir(path, config)).Save(output.Data, output.Filename)
	if err != nil {
		result.Err = fmt.Errorf("ошибка сохранения: %w", err)
		return
	}

	result.OutputPath = saved
	result.Stats = output.Stats
}

// targetDir директория результата с сохранением относительного пути
func (uc *ProcessAllFilesUseCase) targetDir(path string, config *entities.Config) string {
	dir := filepath.Dir(path)
	rel, err := filepath.Rel(config.Input.SourceDirectory, dir)
	if err != nil || !isWithin(config.Input.SourceDirectory, dir) {
		return config.Input.TargetDirectory
	}
	return filepath.Join(config.Input.TargetDirectory, rel)
}

// compressPDF сжимает PDF без сохранения, результат сохраняет processFile
func (uc *ProcessAllFilesUseCase) compressPDF(ctx context.Context, file entities.SourceFile, config *entities.Config) (*entities.CompressionOutput, error) {
	return uc.pdfProcessor.ExecuteTo(ctx, []entities.SourceFile{file}, config.Compression.Level, nil)
}

func (uc *ProcessAllFilesUseCase) compressImage(ctx context.Context, file entities.SourceFile, config *entities.Config) (*entities.CompressionOutput, error) {
	return uc.imageProcessor.Compress(ctx, file, config.Compression.ImageQuality)
}

func (uc *ProcessAllFilesUseCase) cancel(status *entities.DirectoryStatus, err error) (*entities.DirectoryStatus, error) {
	cancelErr := &entities.CompressionError{Kind: entities.KindCancelled, Err: err}
	status.Fail(cancelErr)
	uc.reportProgress(status)
	uc.logger.Warning("Обработка директории отменена после %d из %d файлов", status.ProcessedFiles, status.TotalFiles)
	return status, cancelErr
}

func (uc *ProcessAllFilesUseCase) logResult(status *entities.DirectoryStatus, result *entities.FileResult) {
	name := filepath.Base(result.Path)
	if result.Err != nil {
		uc.logger.Error("[%d/%d] ✗ %s", status.ProcessedFiles, status.TotalFiles, name)
		uc.logger.Error("    └─ Ошибка: %v", result.Err)
		return
	}

	uc.logger.Success("[%d/%d] ✓ %s", status.ProcessedFiles, status.TotalFiles, name)
	uc.logger.Info("    └─ Размер: %s → %s", formatMB(result.Stats.OriginalSize), formatMB(result.Stats.CompressedSize))
	uc.logger.Info("    └─ Сжатие: %s%% | Сэкономлено: %s", result.Stats.CompressionRatio, formatMB(result.Stats.SavedBytes))
}

// IsCancelled проверяет, что ошибка вызвана отменой
func IsCancelled(err error) bool {
	return entities.IsKind(err, entities.KindCancelled) || errors.Is(err, context.Canceled)
}
