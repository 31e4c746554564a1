package entities

// Config представляет конфигурацию приложения
type Config struct {
	Input       InputConfig          `yaml:"input"`
	Compression AppCompressionConfig `yaml:"compression"`
	Processing  ProcessingConfig     `yaml:"processing"`
	Output      OutputConfig         `yaml:"output"`
}

// InputConfig настройки входных и выходных директорий
type InputConfig struct {
	SourceDirectory string `yaml:"source_directory"`
	TargetDirectory string `yaml:"target_directory"`
	OutputPrefix    string `yaml:"output_prefix"`
}

// AppCompressionConfig настройки сжатия приложения
type AppCompressionConfig struct {
	Level             int    `yaml:"level"`     // Уровень сжатия 0-100
	Grayscale         bool   `yaml:"grayscale"` // Переводить страницы в оттенки серого
	Engine            string `yaml:"engine"`    // pdfium | unipdf
	Writer            string `yaml:"writer"`    // gofpdf | unipdf
	OptimizeOutput    bool   `yaml:"optimize_output"`
	Preflight         bool   `yaml:"preflight"`
	AutoStart         bool   `yaml:"auto_start"`
	ImageQuality      int    `yaml:"image_quality"`       // JPEG 1-100 для изображений в режиме директории, 0 - пропускать
	MaxImageDimension int    `yaml:"max_image_dimension"` // Наибольшая сторона сжатого изображения, 0 - без ограничения

	UniPDFLicenseKey string `yaml:"unipdf_license_key"`
}

// ProcessingConfig настройки обработки
type ProcessingConfig struct {
	ChunkSize      int    `yaml:"chunk_size"`
	MaxFileSizeMB  int    `yaml:"max_file_size_mb"`
	MaxTotalSizeMB int    `yaml:"max_total_size_mb"`
	ProgressMode   string `yaml:"progress_mode"` // exact | legacy
}

// OutputConfig настройки вывода
type OutputConfig struct {
	LogLevel     string `yaml:"log_level"`
	ProgressBar  bool   `yaml:"progress_bar"`
	LogToFile    bool   `yaml:"log_to_file"`
	LogFileName  string `yaml:"log_file_name"`
	LogMaxSizeMB int    `yaml:"log_max_size_mb"`
}

// Движки рендеринга и модули записи
const (
	EnginePdfium  = "pdfium"
	EngineUniPDF  = "unipdf"
	WriterGofpdf  = "gofpdf"
	WriterUniPDF  = "unipdf"
	DefaultPrefix = "compressed_"
)

// Значения по умолчанию для ограничений конвейера
const (
	DefaultChunkSize      = 5
	DefaultMaxFileSizeMB  = 25
	DefaultMaxTotalSizeMB = 50
	ExportMaxFileSizeMB   = 50
	ImageMaxFileSizeMB    = 10
	bytesPerMB            = 1024 * 1024
)

// ProgressMode способ расчета процента выполнения
type ProgressMode string

const (
	// ProgressExact процент по числу обработанных страниц всех файлов
	ProgressExact ProgressMode = "exact"
	// ProgressLegacy формула, предполагающая одинаковое число страниц в файлах
	ProgressLegacy ProgressMode = "legacy"
)

// UIScreen типы экранов UI
type UIScreen int

const (
	UIScreenMenu UIScreen = iota
	UIScreenConfig
	UIScreenProcessing
)

// NewDefaultConfig создает конфигурацию по умолчанию
func NewDefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			SourceDirectory: "./pdfs",
			TargetDirectory: "./compressed",
			OutputPrefix:    DefaultPrefix,
		},
		Compression: AppCompressionConfig{
			Level:     30,
			Engine:    EnginePdfium,
			Writer:    WriterGofpdf,
			Preflight: true,
		},
		Processing: ProcessingConfig{
			ChunkSize:      DefaultChunkSize,
			MaxFileSizeMB:  DefaultMaxFileSizeMB,
			MaxTotalSizeMB: DefaultMaxTotalSizeMB,
			ProgressMode:   string(ProgressExact),
		},
		Output: OutputConfig{
			LogLevel:     "info",
			ProgressBar:  true,
			LogToFile:    true,
			LogFileName:  "pdfshrink.log",
			LogMaxSizeMB: 10,
		},
	}
}

// Validate проверяет корректность конфигурации приложения
func (c *Config) Validate() error {
	if err := c.Compression.Validate(); err != nil {
		return err
	}
	return c.Processing.Validate()
}

// Validate проверяет настройки сжатия
func (c *AppCompressionConfig) Validate() error {
	if c.Level < MinCompressionLevel || c.Level > MaxCompressionLevel {
		return ErrInvalidCompressionLevel
	}

	if c.ImageQuality < 0 || c.ImageQuality > 100 {
		return ErrInvalidJPEGQuality
	}
	if c.MaxImageDimension < 0 {
		return ErrInvalidImageDimension
	}

	switch c.Engine {
	case EnginePdfium, EngineUniPDF:
	default:
		return ErrUnknownEngine
	}

	switch c.Writer {
	case WriterGofpdf, WriterUniPDF:
	default:
		return ErrUnknownWriter
	}

	return nil
}

// Settings возвращает параметры кодирования для текущего уровня
func (c *AppCompressionConfig) Settings() CompressionSettings {
	settings := SettingsFor(c.Level)
	if c.Grayscale {
		settings = settings.WithGrayscale()
	}
	return settings
}

// Validate проверяет настройки обработки
func (c *ProcessingConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return ErrInvalidChunkSize
	}
	if c.MaxFileSizeMB <= 0 || c.MaxTotalSizeMB <= 0 {
		return ErrInvalidSizeLimit
	}

	switch ProgressMode(c.ProgressMode) {
	case ProgressExact, ProgressLegacy:
	default:
		return ErrUnknownProgressMode
	}

	return nil
}

// Limits возвращает ограничения размера в байтах
func (c *ProcessingConfig) Limits() SizeLimits {
	return SizeLimits{
		MaxFileSize:  int64(c.MaxFileSizeMB) * bytesPerMB,
		MaxTotalSize: int64(c.MaxTotalSizeMB) * bytesPerMB,
	}
}

// SizeLimits жесткие ограничения размера входных данных
type SizeLimits struct {
	MaxFileSize  int64
	MaxTotalSize int64
}

// DefaultSizeLimits ограничения по умолчанию: 25 МБ на файл, 50 МБ на пакет
func DefaultSizeLimits() SizeLimits {
	return SizeLimits{
		MaxFileSize:  DefaultMaxFileSizeMB * bytesPerMB,
		MaxTotalSize: DefaultMaxTotalSizeMB * bytesPerMB,
	}
}

// ExportSizeLimits ограничения экспорта страниц: один файл до 50 МБ
func ExportSizeLimits() SizeLimits {
	return SizeLimits{
		MaxFileSize:  ExportMaxFileSizeMB * bytesPerMB,
		MaxTotalSize: ExportMaxFileSizeMB * bytesPerMB,
	}
}

// ImageMaxFileSize наибольший размер изображения для сжатия в байтах
const ImageMaxFileSize = ImageMaxFileSizeMB * bytesPerMB
