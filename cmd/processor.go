package main

import (
	"context"
	"sync"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
	"pdfshrink/internal/infrastructure/compressors"
	"pdfshrink/internal/infrastructure/engines"
	infraRepos "pdfshrink/internal/infrastructure/repositories"
	"pdfshrink/internal/infrastructure/writers"
	"pdfshrink/internal/interface/controllers"
	"pdfshrink/internal/presentation/tui"
	usecases "pdfshrink/internal/usecase"
)

// pipeline набор сценариев, собранный из одной конфигурации
type pipeline struct {
	engine     repositories.DocumentEngine
	directory  *usecases.ProcessAllFilesUseCase
	controller *controllers.CLIController
}

// buildPipeline собирает движок, модуль записи и все сценарии по конфигурации
func buildPipeline(config *entities.Config, logger repositories.Logger) (*pipeline, error) {
	engine, err := engines.New(config.Compression, logger)
	if err != nil {
		return nil, err
	}
	writerFactory, err := writers.New(config.Compression)
	if err != nil {
		engine.Close()
		return nil, err
	}

	fileRepo := infraRepos.NewFileSystemRepository()
	settingsRepo := infraRepos.NewConfigRepository()
	sink := infraRepos.NewDirectorySink(config.Input.TargetDirectory)
	imageCompressor := compressors.NewImageCompressor()

	processor := usecases.NewProcessPDFsUseCase(engine, usecases.NewPageRasterizer(logger), usecases.NewPageEncoder(), logger)
	processor.SetLimits(config.Processing.Limits())
	processor.SetChunkSize(config.Processing.ChunkSize)
	processor.SetProgressMode(entities.ProgressMode(config.Processing.ProgressMode))

	compressPDF := usecases.NewCompressPDFUseCase(processor, usecases.NewAssemblePDFUseCase(writerFactory, logger), sink, logger)
	compressPDF.SetOutputPrefix(config.Input.OutputPrefix)
	compressPDF.SetGrayscale(config.Compression.Grayscale)
	if config.Compression.OptimizeOutput {
		compressPDF.SetOptimizer(writers.NewPDFCPUOptimizer())
	}

	compressImage := usecases.NewCompressImageUseCase(imageCompressor, sink, logger)
	compressImage.SetOutputPrefix(config.Input.OutputPrefix)
	compressImage.SetMaxDimension(uint(config.Compression.MaxImageDimension))

	directory := usecases.NewProcessAllFilesUseCase(compressPDF, compressImage, fileRepo,
		func(dir string) repositories.DownloadSink { return infraRepos.NewDirectorySink(dir) }, logger)

	controller := controllers.NewCLIController(
		compressPDF,
		usecases.NewExportImagesUseCase(processor, sink, logger),
		usecases.NewImagesToPDFUseCase(writerFactory, imageCompressor, sink, logger),
		compressImage,
		directory,
		fileRepo,
		settingsRepo,
		logger,
	)
	controller.SetShowProgress(config.Output.ProgressBar)

	return &pipeline{
		engine:     engine,
		directory:  directory,
		controller: controller,
	}, nil
}

// ApplicationProcessor обрабатывает команды приложения
type ApplicationProcessor struct {
	config     *entities.Config
	logger     repositories.Logger
	tuiManager *tui.Manager

	mu        sync.Mutex
	pipeline  *pipeline
	runCancel context.CancelFunc
	stopped   bool

	// Graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewApplicationProcessor создает новый процессор приложения
func NewApplicationProcessor(ctx context.Context, config *entities.Config, logger repositories.Logger) (*ApplicationProcessor, error) {
	if logger == nil {
		logger = repositories.NopLogger{}
	}
	p, err := buildPipeline(config, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	return &ApplicationProcessor{
		config:   config,
		logger:   logger,
		pipeline: p,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Controller возвращает контроллер неинтерактивных команд
func (p *ApplicationProcessor) Controller() *controllers.CLIController {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pipeline.controller
}

// AttachTUI направляет статус обработки директории в TUI
func (p *ApplicationProcessor) AttachTUI(manager *tui.Manager) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tuiManager = manager
	p.pipeline.directory.SetProgressReporter(manager.SendStatusUpdate)
}

// reconfigure пересобирает сценарии, если конфигурация изменилась
func (p *ApplicationProcessor) reconfigure(config *entities.Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if *config == *p.config {
		return nil
	}

	next, err := buildPipeline(config, p.logger)
	if err != nil {
		return err
	}
	if err := p.pipeline.engine.Close(); err != nil {
		p.logger.Warning("Ошибка закрытия движка: %v", err)
	}
	if p.tuiManager != nil {
		next.directory.SetProgressReporter(p.tuiManager.SendStatusUpdate)
	}

	p.pipeline = next
	p.config = config
	return nil
}

// StartProcessing запускает в фоне сжатие всех поддерживаемых файлов исходной директории.
// После Shutdown вызов ничего не делает.
func (p *ApplicationProcessor) StartProcessing(config *entities.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.processDirectory(config)
	}()
}

func (p *ApplicationProcessor) processDirectory(config *entities.Config) {
	if config == nil {
		config = p.config
	}
	if err := p.reconfigure(config); err != nil {
		p.logger.Error("Ошибка конфигурации: %v", err)
		p.reportFailure(err)
		return
	}

	ctx, cancel := context.WithCancel(p.ctx)
	p.mu.Lock()
	p.runCancel = cancel
	directory := p.pipeline.directory
	p.mu.Unlock()
	defer func() {
		cancel()
		p.mu.Lock()
		p.runCancel = nil
		p.mu.Unlock()
	}()

	p.logger.Info("Запуск обработки файлов. Поддерживаемые типы: %v", supportedFileTypes(config))

	status, err := directory.Execute(ctx, config)
	switch {
	case usecases.IsCancelled(err):
		p.logger.Warning("Обработка отменена")
	case err != nil:
		p.logger.Error("Ошибка обработки: %v", err)
	case status.FailedFiles > 0:
		p.logger.Warning("Обработка завершена, файлов с ошибками: %d", status.FailedFiles)
	default:
		p.logger.Success("Обработка файлов завершена успешно")
	}
}

// reportFailure показывает в TUI ошибку, возникшую до начала обработки
func (p *ApplicationProcessor) reportFailure(err error) {
	p.mu.Lock()
	manager := p.tuiManager
	p.mu.Unlock()
	if manager == nil {
		return
	}
	status := entities.NewDirectoryStatus(0)
	status.Fail(err)
	manager.SendStatusUpdate(*status)
}

// CancelProcessing отменяет текущую обработку директории
func (p *ApplicationProcessor) CancelProcessing() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.runCancel != nil {
		p.runCancel()
	}
}

// Shutdown отменяет текущую обработку и ждет ее завершения
func (p *ApplicationProcessor) Shutdown() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.pipeline.engine.Close(); err != nil {
		p.logger.Warning("Ошибка закрытия движка: %v", err)
	}
}

func supportedFileTypes(config *entities.Config) []string {
	types := []string{".pdf"}
	if config.Compression.ImageQuality > 0 {
		types = append(types, compressors.GetSupportedImageExtensions()...)
	}
	return types
}
