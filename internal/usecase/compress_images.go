package usecases

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
	"pdfshrink/internal/infrastructure/compressors"
)

// CompressImageUseCase обрабатывает сжатие изображений
type CompressImageUseCase struct {
	compressor compressors.ImageCompressor
	sink       repositories.DownloadSink
	logger     repositories.Logger
	prefix     string

	maxDimension uint
	maxSize      int64
}

// NewCompressImageUseCase создает новый UseCase для сжатия изображений
func NewCompressImageUseCase(compressor compressors.ImageCompressor, sink repositories.DownloadSink, logger repositories.Logger) *CompressImageUseCase {
	if logger == nil {
		logger = repositories.NopLogger{}
	}
	return &CompressImageUseCase{
		compressor: compressor,
		sink:       sink,
		logger:     logger,
		prefix:     entities.DefaultPrefix,
		maxSize:    entities.ImageMaxFileSize,
	}
}

// SetOutputPrefix устанавливает префикс имени выходного файла
func (uc *CompressImageUseCase) SetOutputPrefix(prefix string) {
	uc.prefix = prefix
}

// SetMaxDimension ограничивает наибольшую сторону результата, 0 - без ограничения
func (uc *CompressImageUseCase) SetMaxDimension(limit uint) {
	uc.maxDimension = limit
}

// ImageOutputName имя результата: префикс + имя, расширение .jpg при перекодировании
func (uc *CompressImageUseCase) ImageOutputName(name string, keptOriginal bool) string {
	base := filepath.Base(name)
	if !keptOriginal && compressors.GetImageFormat(base) != "jpeg" {
		base = strings.TrimSuffix(base, filepath.Ext(base)) + ".jpg"
	}
	return uc.prefix + base
}

// Execute сжимает изображение и сохраняет результат через DownloadSink
func (uc *CompressImageUseCase) Execute(ctx context.Context, file entities.SourceFile, quality int) (*entities.CompressionOutput, error) {
	output, err := uc.Compress(ctx, file, quality)
	if err != nil {
		return nil, err
	}

	if uc.sink != nil {
		path, err := uc.sink.Save(output.Data, output.Filename)
		if err != nil {
			uc.logger.Warning("Не удалось сохранить %s: %v", output.Filename, err)
		} else {
			uc.logger.Success("Изображение успешно сжато: %s", path)
		}
	}
	return output, nil
}

// Compress сжимает одно изображение до 10 МБ с качеством JPEG 1-100.
// Если выигрыш меньше 5%, возвращаются исходные байты.
func (uc *CompressImageUseCase) Compress(ctx context.Context, file entities.SourceFile, quality int) (*entities.CompressionOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, entities.NewFileError(entities.KindCancelled, file.Name, 1, err)
	}
	if uc.compressor == nil {
		return nil, entities.NewValidationError(entities.ErrComponentsNotReady)
	}
	if !compressors.IsImageFile(file.Name) {
		return nil, entities.NewFileError(entities.KindValidation, file.Name, 1,
			fmt.Errorf("%w: неподдерживаемый формат изображения", entities.ErrInvalidFileFormat))
	}
	if file.Size > uc.maxSize {
		return nil, entities.NewFileError(entities.KindValidation, file.Name, 1,
			fmt.Errorf("%w: %s больше %s", entities.ErrFileSizeExceeded, formatMB(file.Size), formatMB(uc.maxSize)))
	}

	uc.logger.Info("Сжатие изображения: %s", file.Name)
	result, err := uc.compressor.Compress(file.Data, compressors.ImageOptions{
		Quality:      quality,
		MaxDimension: uc.maxDimension,
	})
	if err != nil {
		uc.logger.Error("Ошибка сжатия изображения %s: %v", file.Name, err)
		return nil, entities.NewFileError(entities.KindEncode, file.Name, 1, err)
	}

	if result.KeptOriginal {
		uc.logger.Info("Сжатие неэффективно, сохранен оригинал: %s", file.Name)
	}

	return &entities.CompressionOutput{
		Data:     result.Data,
		Filename: uc.ImageOutputName(file.Name, result.KeptOriginal),
		Pages:    1,
		Stats:    entities.CalculateStats(file.Size, int64(len(result.Data))),
	}, nil
}
