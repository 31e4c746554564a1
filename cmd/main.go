package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
	"pdfshrink/internal/infrastructure/config"
	"pdfshrink/internal/infrastructure/logging"
	"pdfshrink/internal/presentation/tui"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "pdfshrink",
	Short: "pdfshrink - сжатие PDF через растеризацию страниц",
	Long: "pdfshrink сжимает PDF, перерисовывая каждую страницу в JPEG и собирая новый документ.\n" +
		"Без подкоманды запускается интерактивный режим.",
	SilenceUsage: true,
	RunE:         runTUI,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Интерактивный режим обработки директории",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "путь к config.yaml")
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.AddCommand(tuiCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// openFileLogger открывает файловый логгер; при ошибке или выключенном логе возвращает NopLogger
func openFileLogger(output entities.OutputConfig) repositories.Logger {
	fileLogger, err := logging.NewFileLogger(
		output.LogFileName,
		output.LogLevel,
		output.LogMaxSizeMB,
		output.LogToFile,
	)
	if err != nil {
		log.Printf("Предупреждение: не удалось инициализировать логгер: %v", err)
	}
	if fileLogger == nil {
		return repositories.NopLogger{}
	}
	return fileLogger
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Загрузка конфигурации
	configRepo := config.NewRepository()
	appConfig, err := configRepo.Load(configPath)
	if err != nil {
		return err
	}

	// Инициализация базового логгера (в файл)
	fileLogger := openFileLogger(appConfig.Output)
	defer fileLogger.Close()

	// Инициализация TUI
	tuiManager := tui.NewManager(configRepo, configPath)
	tuiManager.Initialize()
	defer tuiManager.Cleanup()

	// Оборачиваем логгер адаптером, чтобы видеть логи в TUI
	logger := tui.NewUILogger(fileLogger, tuiManager, appConfig.Output.LogLevel)

	processor, err := NewApplicationProcessor(cmd.Context(), appConfig, logger)
	if err != nil {
		return err
	}
	defer processor.Shutdown()

	processor.AttachTUI(tuiManager)

	// Привязываем запуск и отмену обработки к TUI
	tuiManager.SetOnStartProcessing(func() {
		// Получаем актуальную конфигурацию из TUI
		processor.StartProcessing(tuiManager.GetConfig())
	})
	tuiManager.SetOnCancel(processor.CancelProcessing)

	// Автозапуск, если включен в конфигурации
	if appConfig.Compression.AutoStart {
		tuiManager.StartProcessing()
	}

	return tuiManager.Run()
}
