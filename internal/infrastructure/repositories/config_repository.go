package repositories

import (
	"pdfshrink/internal/domain/entities"
)

// ConfigRepository реализация репозитория параметров сжатия
type ConfigRepository struct{}

// NewConfigRepository создает новый репозиторий параметров сжатия
func NewConfigRepository() *ConfigRepository {
	return &ConfigRepository{}
}

// GetCompressionSettings получает параметры кодирования по уровню
func (r *ConfigRepository) GetCompressionSettings(level int, grayscale bool) (entities.CompressionSettings, error) {
	if level < entities.MinCompressionLevel || level > entities.MaxCompressionLevel {
		return entities.CompressionSettings{}, entities.ErrInvalidCompressionLevel
	}
	settings := entities.SettingsFor(level)
	if grayscale {
		settings = settings.WithGrayscale()
	}
	return settings, nil
}

// ValidateSettings валидирует параметры кодирования
func (r *ConfigRepository) ValidateSettings(settings entities.CompressionSettings) error {
	return settings.Validate()
}
