package entities

// ColorSpace цветовое пространство растеризованной страницы
type ColorSpace string

const (
	ColorSpaceRGB  ColorSpace = "RGB"
	ColorSpaceGray ColorSpace = "GRAY"
)

// Границы уровня сжатия
const (
	MinCompressionLevel = 0
	MaxCompressionLevel = 100
)

// CompressionSettings параметры кодирования страниц, выводимые из уровня сжатия
type CompressionSettings struct {
	ImageQuality float64    // Качество JPEG в диапазоне (0, 1]
	Scale        float64    // Масштаб растеризации в диапазоне (0, 1]
	ColorSpace   ColorSpace // RGB или GRAY
}

// SettingsFor возвращает параметры сжатия для уровня 0-100.
// Нижняя граница диапазона включается: 30, 60 и 80 относятся к следующей ступени.
// Уровень вне диапазона приводится к ближайшей границе.
func SettingsFor(level int) CompressionSettings {
	switch level = ClampLevel(level); {
	case level < 30: // Слабое сжатие
		return CompressionSettings{ImageQuality: 0.8, Scale: 0.9, ColorSpace: ColorSpaceRGB}
	case level < 60: // Среднее сжатие
		return CompressionSettings{ImageQuality: 0.7, Scale: 0.85, ColorSpace: ColorSpaceRGB}
	case level < 80: // Высокое сжатие
		return CompressionSettings{ImageQuality: 0.6, Scale: 0.8, ColorSpace: ColorSpaceRGB}
	default: // Максимальное сжатие
		return CompressionSettings{ImageQuality: 0.5, Scale: 0.75, ColorSpace: ColorSpaceRGB}
	}
}

// ClampLevel приводит уровень к диапазону 0-100
func ClampLevel(level int) int {
	if level < MinCompressionLevel {
		return MinCompressionLevel
	}
	if level > MaxCompressionLevel {
		return MaxCompressionLevel
	}
	return level
}

// WithGrayscale возвращает копию настроек с серым цветовым пространством
func (s CompressionSettings) WithGrayscale() CompressionSettings {
	s.ColorSpace = ColorSpaceGray
	return s
}

// Validate проверяет инварианты 0 < quality <= 1 и 0 < scale <= 1
func (s CompressionSettings) Validate() error {
	if s.ImageQuality <= 0 || s.ImageQuality > 1 {
		return ErrInvalidImageQuality
	}
	if s.Scale <= 0 || s.Scale > 1 {
		return ErrInvalidScale
	}
	if s.ColorSpace != ColorSpaceRGB && s.ColorSpace != ColorSpaceGray {
		return ErrInvalidColorSpace
	}
	return nil
}

// LevelName возвращает название ступени сжатия для отображения
func LevelName(level int) string {
	switch {
	case level < 30:
		return "Слабое сжатие"
	case level < 60:
		return "Среднее сжатие"
	case level < 80:
		return "Высокое сжатие"
	default:
		return "Максимальное сжатие"
	}
}
