package controllers

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/schollz/progressbar/v3"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
	usecases "pdfshrink/internal/usecase"
)

// CompressOptions параметры команды compress
type CompressOptions struct {
	Level     int
	Grayscale bool
	// Order перестановка файлов вида "2,1,3", пустая строка - порядок аргументов
	Order string
}

// CLIController неинтерактивный режим: одна команда, прогресс-бар и итоговая таблица
type CLIController struct {
	compressPDF   *usecases.CompressPDFUseCase
	exportImages  *usecases.ExportImagesUseCase
	imagesToPDF   *usecases.ImagesToPDFUseCase
	compressImage *usecases.CompressImageUseCase
	directory     *usecases.ProcessAllFilesUseCase

	files    repositories.FileRepository
	settings repositories.ConfigRepository
	logger   repositories.Logger

	out          io.Writer
	showProgress bool
}

// NewCLIController создает новый CLI контроллер
func NewCLIController(
	compressPDF *usecases.CompressPDFUseCase,
	exportImages *usecases.ExportImagesUseCase,
	imagesToPDF *usecases.ImagesToPDFUseCase,
	compressImage *usecases.CompressImageUseCase,
	directory *usecases.ProcessAllFilesUseCase,
	files repositories.FileRepository,
	settings repositories.ConfigRepository,
	logger repositories.Logger,
) *CLIController {
	if logger == nil {
		logger = repositories.NopLogger{}
	}
	return &CLIController{
		compressPDF:   compressPDF,
		exportImages:  exportImages,
		imagesToPDF:   imagesToPDF,
		compressImage: compressImage,
		directory:     directory,
		files:         files,
		settings:      settings,
		logger:        logger,
		out:           os.Stdout,
		showProgress:  true,
	}
}

// SetOutput задает вывод итоговых таблиц
func (c *CLIController) SetOutput(out io.Writer) {
	c.out = out
}

// SetShowProgress включает или выключает прогресс-бар
func (c *CLIController) SetShowProgress(show bool) {
	c.showProgress = show
}

// CompressFiles сжимает PDF файлы в один документ
func (c *CLIController) CompressFiles(ctx context.Context, paths []string, options CompressOptions) (*entities.CompressionOutput, error) {
	files, err := c.readFiles(paths)
	if err != nil {
		return nil, c.fail(err)
	}
	if files, err = entities.Reorder(files, options.Order); err != nil {
		return nil, c.fail(err)
	}

	settings, err := c.settings.GetCompressionSettings(options.Level, options.Grayscale)
	if err != nil {
		return nil, c.fail(err)
	}
	if err := c.settings.ValidateSettings(settings); err != nil {
		return nil, c.fail(entities.NewValidationError(err))
	}
	c.logger.Info("Уровень %d%% (%s): качество JPEG %d, масштаб %.2f, цвет %s",
		options.Level, entities.LevelName(options.Level), usecases.JPEGQuality(settings.ImageQuality), settings.Scale, settings.ColorSpace)

	bar := c.newBar("Сжатие")
	c.compressPDF.SetGrayscale(options.Grayscale)
	c.compressPDF.SetProgressReporter(func(s entities.ProgressState) {
		bar.update(s.Percent, fmt.Sprintf("файл %d/%d, стр. %d/%d", s.CurrentFile, s.TotalFiles, s.CurrentPage, s.TotalPages))
	})
	defer c.compressPDF.SetProgressReporter(nil)

	output, err := c.compressPDF.Execute(ctx, files, options.Level)
	bar.finish()
	if err != nil {
		return nil, c.fail(err)
	}

	fmt.Fprintln(c.out, RenderSummary("Результат сжатия", StatsRows(output)))
	return output, nil
}

// ExportImages сохраняет страницы PDF как изображения
func (c *CLIController) ExportImages(ctx context.Context, path string, format usecases.ImageFormat) ([]usecases.ExportedImage, error) {
	files, err := c.readFiles([]string{path})
	if err != nil {
		return nil, c.fail(err)
	}

	bar := c.newBar("Экспорт")
	c.exportImages.SetProgressReporter(func(s entities.ProgressState) {
		bar.update(s.Percent, fmt.Sprintf("стр. %d/%d", s.CurrentPage, s.TotalPages))
	})
	defer c.exportImages.SetProgressReporter(nil)

	images, err := c.exportImages.Execute(ctx, files[0], format)
	bar.finish()
	if err != nil {
		return images, c.fail(err)
	}

	var total int64
	for _, img := range images {
		total += img.Size
	}
	rows := []SummaryRow{
		{Label: "Файл", Value: files[0].Name},
		{Label: "Изображений", Value: fmt.Sprintf("%d", len(images))},
		{Label: "Формат", Value: string(format)},
		{Label: "Общий размер", Value: formatSize(total)},
	}
	if len(images) > 0 {
		rows = append(rows, SummaryRow{Label: "Каталог", Value: filepath.Dir(images[0].Path)})
	}
	fmt.Fprintln(c.out, RenderSummary("Экспорт страниц", rows))
	return images, nil
}

// ImagesToPDF собирает PDF из изображений
func (c *CLIController) ImagesToPDF(ctx context.Context, paths []string, options usecases.ImagesToPDFOptions) (*entities.CompressionOutput, error) {
	images, err := c.readFiles(paths)
	if err != nil {
		return nil, c.fail(err)
	}

	output, err := c.imagesToPDF.Execute(ctx, images, options)
	if err != nil {
		return nil, c.fail(err)
	}

	fmt.Fprintln(c.out, RenderSummary("PDF из изображений", StatsRows(output)))
	return output, nil
}

// CompressImage сжимает одно изображение
func (c *CLIController) CompressImage(ctx context.Context, path string, quality int) (*entities.CompressionOutput, error) {
	files, err := c.readFiles([]string{path})
	if err != nil {
		return nil, c.fail(err)
	}

	output, err := c.compressImage.Execute(ctx, files[0], quality)
	if err != nil {
		return nil, c.fail(err)
	}

	fmt.Fprintln(c.out, RenderSummary("Сжатие изображения", StatsRows(output)))
	return output, nil
}

// CompressDirectory сжимает все файлы директории из конфигурации
func (c *CLIController) CompressDirectory(ctx context.Context, config *entities.Config) (*entities.DirectoryStatus, error) {
	bar := c.newBar("Директория")
	c.directory.SetProgressReporter(func(s entities.DirectoryStatus) {
		bar.update(int(s.Progress()), filepath.Base(s.CurrentFile))
	})
	defer c.directory.SetProgressReporter(nil)

	status, err := c.directory.Execute(ctx, config)
	bar.finish()
	if status != nil && status.TotalFiles > 0 {
		fmt.Fprintln(c.out, RenderSummary("Обработка директории", DirectoryRows(status)))
	}
	if err != nil {
		return status, c.fail(err)
	}
	return status, nil
}

func (c *CLIController) readFiles(paths []string) ([]entities.SourceFile, error) {
	if len(paths) == 0 {
		return nil, entities.NewValidationError(entities.ErrEmptyInput)
	}
	files := make([]entities.SourceFile, 0, len(paths))
	for i, path := range paths {
		file, err := c.files.ReadSourceFile(path)
		if err != nil {
			return nil, entities.NewFileError(entities.KindValidation, filepath.Base(path), i+1, err)
		}
		files = append(files, file)
	}
	return files, nil
}

func (c *CLIController) fail(err error) error {
	if usecases.IsCancelled(err) {
		c.logger.Warning("Операция отменена")
	} else {
		c.logger.Error("%v", err)
	}
	return err
}

// consoleBar прогресс-бар, не допускающий движения назад
type consoleBar struct {
	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	last int
}

func (c *CLIController) newBar(title string) *consoleBar {
	if !c.showProgress {
		return &consoleBar{}
	}
	return &consoleBar{bar: progressbar.NewOptions(100,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(title),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerPadding: "░",
			BarStart:      title + " │",
			BarEnd:        "│",
		}),
	)}
}

func (b *consoleBar) update(percent int, description string) {
	if b.bar == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if percent > 100 {
		percent = 100
	}
	if percent >= b.last {
		b.last = percent
		_ = b.bar.Set(percent)
	}
	b.bar.Describe(description)
}

func (b *consoleBar) finish() {
	if b.bar == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.bar.Finish()
}
