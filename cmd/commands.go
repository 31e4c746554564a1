package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/infrastructure/config"
	"pdfshrink/internal/interface/controllers"
	usecases "pdfshrink/internal/usecase"
)

// pipelineFlags общие флаги неинтерактивных команд
type pipelineFlags struct {
	output     string
	prefix     string
	engine     string
	writer     string
	optimize   bool
	noProgress bool
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "каталог результата (по умолчанию input.target_directory)")
	cmd.Flags().StringVar(&f.prefix, "prefix", "", "префикс имени результата")
	cmd.Flags().StringVar(&f.engine, "engine", "", "движок рендеринга: pdfium | unipdf")
	cmd.Flags().StringVar(&f.writer, "writer", "", "запись PDF: gofpdf | unipdf")
	cmd.Flags().BoolVar(&f.optimize, "optimize", false, "дополнительная оптимизация результата через pdfcpu")
	cmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "не показывать прогресс-бар")
}

func (f *pipelineFlags) apply(cmd *cobra.Command, c *entities.Config) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		c.Input.TargetDirectory = f.output
	}
	if flags.Changed("prefix") {
		c.Input.OutputPrefix = f.prefix
	}
	if flags.Changed("engine") {
		c.Compression.Engine = f.engine
	}
	if flags.Changed("writer") {
		c.Compression.Writer = f.writer
	}
	if flags.Changed("optimize") {
		c.Compression.OptimizeOutput = f.optimize
	}
	if f.noProgress {
		c.Output.ProgressBar = false
	}
}

// session окружение одной неинтерактивной команды
type session struct {
	config     *entities.Config
	processor  *ApplicationProcessor
	controller *controllers.CLIController
	close      func()
}

// openSession загружает конфигурацию, применяет флаги и собирает сценарии
func openSession(cmd *cobra.Command, flags *pipelineFlags, override func(*entities.Config)) (*session, error) {
	appConfig, err := config.NewRepository().Load(configPath)
	if err != nil {
		return nil, err
	}
	flags.apply(cmd, appConfig)
	if override != nil {
		override(appConfig)
	}
	if err := appConfig.Validate(); err != nil {
		return nil, err
	}

	fileLogger := openFileLogger(appConfig.Output)
	logger := controllers.NewConsoleLogger(os.Stderr, appConfig.Output.LogLevel, fileLogger)

	// Дальше ошибки печатает логгер
	cmd.SilenceErrors = true

	processor, err := NewApplicationProcessor(cmd.Context(), appConfig, logger)
	if err != nil {
		logger.Error("%v", err)
		logger.Close()
		return nil, err
	}

	return &session{
		config:     appConfig,
		processor:  processor,
		controller: processor.Controller(),
		close: func() {
			processor.Shutdown()
			logger.Close()
		},
	}, nil
}

var (
	compressFlags     pipelineFlags
	compressLevel     int
	compressGrayscale bool
	compressOrder     string
)

var compressCmd = &cobra.Command{
	Use:   "compress [flags] <file.pdf>...",
	Short: "Сжать один или несколько PDF в один документ",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, &compressFlags, func(c *entities.Config) {
			if cmd.Flags().Changed("level") {
				c.Compression.Level = compressLevel
			}
			if cmd.Flags().Changed("grayscale") {
				c.Compression.Grayscale = compressGrayscale
			}
		})
		if err != nil {
			return err
		}
		defer s.close()

		_, err = s.controller.CompressFiles(cmd.Context(), args, controllers.CompressOptions{
			Level:     s.config.Compression.Level,
			Grayscale: s.config.Compression.Grayscale,
			Order:     compressOrder,
		})
		return err
	},
}

var (
	dirFlags        pipelineFlags
	dirLevel        int
	dirGrayscale    bool
	dirImageQuality int
)

var compressDirCmd = &cobra.Command{
	Use:   "compress-dir [flags] [source]",
	Short: "Сжать все PDF (и изображения) директории по отдельности",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, &dirFlags, func(c *entities.Config) {
			if len(args) == 1 {
				c.Input.SourceDirectory = args[0]
			}
			if cmd.Flags().Changed("level") {
				c.Compression.Level = dirLevel
			}
			if cmd.Flags().Changed("grayscale") {
				c.Compression.Grayscale = dirGrayscale
			}
			if cmd.Flags().Changed("image-quality") {
				c.Compression.ImageQuality = dirImageQuality
			}
		})
		if err != nil {
			return err
		}
		defer s.close()

		_, err = s.controller.CompressDirectory(cmd.Context(), s.config)
		return err
	},
}

var (
	exportFlags  pipelineFlags
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export [flags] <file.pdf>",
	Short: "Сохранить страницы PDF как изображения",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := usecases.ImageFormat(exportFormat)
		if format != usecases.FormatJPEG && format != usecases.FormatPNG {
			return fmt.Errorf("неизвестный формат %q: ожидается jpeg или png", exportFormat)
		}

		s, err := openSession(cmd, &exportFlags, nil)
		if err != nil {
			return err
		}
		defer s.close()

		_, err = s.controller.ExportImages(cmd.Context(), args[0], format)
		return err
	},
}

var (
	imagesFlags     pipelineFlags
	imagesPageSize  string
	imagesLandscape bool
	imagesMargin    float64
	imagesQuality   int
	imagesMaxSide   uint
)

var imagesToPDFCmd = &cobra.Command{
	Use:   "images-to-pdf [flags] <image>...",
	Short: "Собрать PDF из изображений JPEG и PNG",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		options := usecases.ImagesToPDFOptions{
			PageSize:        usecases.PageSize(imagesPageSize),
			Landscape:       imagesLandscape,
			Margin:          imagesMargin,
			CompressQuality: imagesQuality,
			MaxDimension:    imagesMaxSide,
		}
		if err := options.Validate(); err != nil {
			return err
		}

		s, err := openSession(cmd, &imagesFlags, nil)
		if err != nil {
			return err
		}
		defer s.close()

		_, err = s.controller.ImagesToPDF(cmd.Context(), args, options)
		return err
	},
}

var (
	imageFlags   pipelineFlags
	imageQuality int
	imageMaxSide int
)

var compressImageCmd = &cobra.Command{
	Use:   "compress-image [flags] <image>",
	Short: "Сжать изображение JPEG или PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, &imageFlags, func(c *entities.Config) {
			if cmd.Flags().Changed("max-dimension") {
				c.Compression.MaxImageDimension = imageMaxSide
			}
		})
		if err != nil {
			return err
		}
		defer s.close()

		_, err = s.controller.CompressImage(cmd.Context(), args[0], imageQuality)
		return err
	},
}

func init() {
	compressFlags.register(compressCmd)
	compressCmd.Flags().IntVarP(&compressLevel, "level", "l", 30, "уровень сжатия 0-100")
	compressCmd.Flags().BoolVarP(&compressGrayscale, "grayscale", "g", false, "перевести страницы в оттенки серого")
	compressCmd.Flags().StringVar(&compressOrder, "order", "", "порядок файлов, например 2,1,3")

	dirFlags.register(compressDirCmd)
	compressDirCmd.Flags().IntVarP(&dirLevel, "level", "l", 30, "уровень сжатия 0-100")
	compressDirCmd.Flags().BoolVarP(&dirGrayscale, "grayscale", "g", false, "перевести страницы в оттенки серого")
	compressDirCmd.Flags().IntVar(&dirImageQuality, "image-quality", 0, "качество JPEG для изображений, 0 - пропускать изображения")

	exportFlags.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", string(usecases.FormatJPEG), "формат страниц: jpeg | png")

	imagesFlags.register(imagesToPDFCmd)
	imagesToPDFCmd.Flags().StringVar(&imagesPageSize, "page-size", string(usecases.PageSizeFit), "размер страницы: fit | a4 | letter")
	imagesToPDFCmd.Flags().BoolVar(&imagesLandscape, "landscape", false, "альбомная ориентация для a4 и letter")
	imagesToPDFCmd.Flags().Float64Var(&imagesMargin, "margin", 0, "поле в пунктах для a4 и letter")
	imagesToPDFCmd.Flags().IntVarP(&imagesQuality, "quality", "q", 0, "перекодировать изображения в JPEG с качеством 1-100")
	imagesToPDFCmd.Flags().UintVar(&imagesMaxSide, "max-dimension", 0, "уменьшить изображения до стороны в пикселях, требует --quality")

	imageFlags.register(compressImageCmd)
	compressImageCmd.Flags().IntVarP(&imageQuality, "quality", "q", 75, "качество JPEG 1-100")
	compressImageCmd.Flags().IntVar(&imageMaxSide, "max-dimension", 0, "наибольшая сторона результата в пикселях, 0 - без ограничения")

	rootCmd.AddCommand(compressCmd, compressDirCmd, exportCmd, imagesToPDFCmd, compressImageCmd)
}
