package usecases

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

// Параметры экспорта страниц в изображения
const (
	ExportScale       = 2.0
	ExportJPEGQuality = 0.8
)

// ImageFormat формат экспортируемых изображений
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
)

// Extension расширение файла для формата
func (f ImageFormat) Extension() string {
	if f == FormatPNG {
		return "png"
	}
	return "jpg"
}

// ExportedImage изображение одной страницы
type ExportedImage struct {
	Page     int
	Filename string
	Path     string
	Width    int
	Height   int
	Size     int64
}

// ExportImagesUseCase сохраняет каждую страницу PDF как отдельное изображение
type ExportImagesUseCase struct {
	processor  *ProcessPDFsUseCase
	rasterizer *PageRasterizer
	encoder    ImageEncoder
	sink       repositories.DownloadSink
	logger     repositories.Logger
	limits     entities.SizeLimits

	progressReporter func(entities.ProgressState)
}

// NewExportImagesUseCase создает сценарий экспорта страниц
func NewExportImagesUseCase(
	processor *ProcessPDFsUseCase,
	sink repositories.DownloadSink,
	logger repositories.Logger,
) *ExportImagesUseCase {
	if logger == nil {
		logger = repositories.NopLogger{}
	}
	uc := &ExportImagesUseCase{processor: processor, sink: sink, logger: logger, limits: entities.ExportSizeLimits()}
	if processor != nil {
		uc.rasterizer = processor.rasterizer
		uc.encoder = processor.encoder
	}
	return uc
}

// SetLimits устанавливает ограничения размера; по умолчанию файл до 50 МБ
func (uc *ExportImagesUseCase) SetLimits(limits entities.SizeLimits) {
	uc.limits = limits
}

// SetProgressReporter устанавливает функцию для отчета о прогрессе
func (uc *ExportImagesUseCase) SetProgressReporter(reporter func(entities.ProgressState)) {
	uc.progressReporter = reporter
}

// PageFilename имя файла страницы: <имя без расширения>_page<N>.<ext>
func PageFilename(source string, page int, format ImageFormat) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return fmt.Sprintf("%s_page%d.%s", base, page, format.Extension())
}

// Execute рендерит все страницы файла в масштабе 2.0 на белом фоне и сохраняет их
func (uc *ExportImagesUseCase) Execute(ctx context.Context, file entities.SourceFile, format ImageFormat) ([]ExportedImage, error) {
	if uc.processor == nil || uc.sink == nil {
		return nil, entities.NewValidationError(entities.ErrComponentsNotReady)
	}
	if format != FormatJPEG && format != FormatPNG {
		return nil, entities.NewValidationError(fmt.Errorf("%w: %s", entities.ErrInvalidFileFormat, format))
	}
	if err := uc.processor.Ready(); err != nil {
		return nil, entities.NewValidationError(fmt.Errorf("%w: %v", entities.ErrComponentsNotReady, err))
	}
	if err := validatePDFs([]entities.SourceFile{file}, uc.limits); err != nil {
		return nil, err
	}

	doc, err := uc.processor.engine.Open(ctx, file.Data)
	if err != nil {
		return nil, entities.AttributeFile(err, entities.KindUnsupportedInput, file.Name, 1)
	}
	defer doc.Close()

	pageCount := doc.PageCount()
	if pageCount <= 0 {
		return nil, entities.NewFileError(entities.KindValidation, file.Name, 1, entities.ErrNoPages)
	}

	uc.logger.Info("Экспорт %s: %d страниц(ы) в %s", file.Name, pageCount, format)

	surface := NewSurface()
	exported := make([]ExportedImage, 0, pageCount)
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		if err := ctx.Err(); err != nil {
			return exported, &entities.CompressionError{Kind: entities.KindCancelled, FileName: file.Name, FileIndex: 1, Page: pageNum, Err: err}
		}

		page, err := uc.exportPage(ctx, doc, pageNum, format, surface)
		if err != nil {
			return exported, entities.AttributeFile(err, entities.KindRender, file.Name, 1)
		}

		page.Filename = PageFilename(file.Name, pageNum, format)
		path, err := uc.sink.Save(page.data, page.Filename)
		if err != nil {
			return exported, entities.NewFileError(entities.KindAssembly, file.Name, 1, fmt.Errorf("не удалось сохранить %s: %w", page.Filename, err))
		}
		page.Path = path
		exported = append(exported, page.ExportedImage)

		if uc.progressReporter != nil {
			uc.progressReporter(entities.ProgressState{
				CurrentFile: 1,
				TotalFiles:  1,
				CurrentPage: pageNum,
				TotalPages:  pageCount,
				Percent:     entities.ExactPercent(pageNum, pageCount),
			})
		}
	}

	uc.logger.Success("Экспортировано %d изображений из %s", len(exported), file.Name)
	return exported, nil
}

type exportedPage struct {
	ExportedImage
	data []byte
}

func (uc *ExportImagesUseCase) exportPage(
	ctx context.Context,
	doc repositories.Document,
	pageNum int,
	format ImageFormat,
	surface *Surface,
) (exportedPage, error) {
	bitmap, err := uc.rasterizer.Render(ctx, doc, pageNum, ExportScale, surface)
	if err != nil {
		return exportedPage{}, err
	}

	var encoded entities.EncodedImage
	if format == FormatPNG {
		encoded, err = uc.encoder.EncodePNG(bitmap)
	} else {
		encoded, err = uc.encoder.Encode(bitmap, ExportJPEGQuality)
	}
	if err != nil {
		return exportedPage{}, entities.AttributePage(err, entities.KindEncode, pageNum)
	}

	return exportedPage{
		ExportedImage: ExportedImage{
			Page:   pageNum,
			Width:  encoded.Width,
			Height: encoded.Height,
			Size:   int64(len(encoded.Data)),
		},
		data: encoded.Data,
	}, nil
}
