package tui

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
)

// UI Configuration constants
const (
	MaxLogBufferSize   = 1000
	LogFlushInterval   = 50 * time.Millisecond
	ProgressBarWidth   = 40
	MaxFileNameLength  = 60
	MaxFileNameDisplay = 57
	ProgressViewHeight = 14
)

// Индексы элементов формы конфигурации
const (
	formSource = iota
	formTarget
	formPrefix
	formLevel
	formGrayscale
	formEngine
	formWriter
	formLicense
	formOptimize
	formImageQuality
	formAutoStart
)

var (
	engineOptions = []string{entities.EnginePdfium, entities.EngineUniPDF}
	writerOptions = []string{entities.WriterGofpdf, entities.WriterUniPDF}
)

// Manager управляет TUI интерфейсом
type Manager struct {
	app           *tview.Application
	pages         *tview.Pages
	currentScreen entities.UIScreen

	// UI компоненты
	mainMenu     *tview.List
	configForm   *tview.Form
	progressView *tview.TextView
	logView      *tview.TextView

	// Callbacks
	onStartProcessing func()
	onCancel          func()

	// Состояние
	configRepo   repositories.AppConfigRepository
	configPath   string
	config       *entities.Config
	logBuffer    []string
	statusMutex  sync.RWMutex
	isProcessing bool

	// Батчинг логов через канал
	logChan  chan string
	logDone  chan struct{}
	logMutex sync.Mutex
}

// NewManager создает новый менеджер TUI
func NewManager(configRepo repositories.AppConfigRepository, configPath string) *Manager {
	m := &Manager{
		app:        tview.NewApplication(),
		pages:      tview.NewPages(),
		configRepo: configRepo,
		configPath: configPath,
		config:     entities.NewDefaultConfig(),
		logBuffer:  make([]string, 0, MaxLogBufferSize),
		logChan:    make(chan string, 100),
		logDone:    make(chan struct{}),
	}
	go m.logProcessor()
	return m
}

// Initialize инициализирует TUI
func (m *Manager) Initialize() {
	m.loadConfig()
	m.createUI()
	m.setupKeyBindings()
}

// Run запускает TUI
func (m *Manager) Run() error {
	return m.app.SetRoot(m.pages, true).EnableMouse(true).Run()
}

// SetOnStartProcessing устанавливает callback для начала обработки
func (m *Manager) SetOnStartProcessing(callback func()) {
	m.onStartProcessing = callback
}

// SetOnCancel устанавливает callback отмены текущей обработки
func (m *Manager) SetOnCancel(callback func()) {
	m.onCancel = callback
}

// SendStatusUpdate отправляет обновление статуса
func (m *Manager) SendStatusUpdate(status entities.DirectoryStatus) {
	m.updateProgress(status)
}

// StartProcessing переключает на экран обработки и вызывает callback запуска
func (m *Manager) StartProcessing() {
	m.startProcessing()
}

// GetConfig возвращает копию текущей конфигурации
func (m *Manager) GetConfig() *entities.Config {
	m.statusMutex.RLock()
	defer m.statusMutex.RUnlock()
	c := *m.config
	return &c
}

// loadConfig загружает конфигурацию; при ошибке остается текущая
func (m *Manager) loadConfig() {
	config, err := m.configRepo.Load(m.configPath)
	if err != nil {
		m.AddLog("WARNING", fmt.Sprintf("Конфигурация не загружена: %v", err))
		return
	}
	m.config = config
}

// saveConfig проверяет и сохраняет конфигурацию
func (m *Manager) saveConfig() error {
	if err := m.config.Validate(); err != nil {
		return err
	}
	return m.configRepo.Save(m.configPath, m.config)
}

// createUI создает пользовательский интерфейс
func (m *Manager) createUI() {
	m.createMainMenu()
	m.createConfigScreen()
	m.createProcessingScreen()

	m.pages.AddPage("menu", m.mainMenu, true, true)
	m.pages.AddPage("config", m.configForm, true, false)
	m.pages.AddPage("processing", m.createProcessingLayout(), true, false)

	m.currentScreen = entities.UIScreenMenu
}

// createMainMenu создает главное меню
func (m *Manager) createMainMenu() {
	m.mainMenu = tview.NewList().
		AddItem("🚀 Сжать директорию", "Сжать все PDF (и изображения) исходной директории", '1', func() {
			m.startProcessing()
		}).
		AddItem("⚙️ Конфигурация", "Уровень сжатия, движок, директории", '2', func() {
			m.switchToScreen(entities.UIScreenConfig)
		}).
		AddItem("❌ Выход", "Закрыть приложение", 'q', func() {
			m.quit()
		})

	m.mainMenu.SetBorder(true).
		SetTitle("🔥 pdfshrink - Главное меню").
		SetTitleAlign(tview.AlignCenter)

	m.mainMenu.SetSelectedBackgroundColor(tcell.ColorDarkBlue).
		SetSelectedTextColor(tcell.ColorWhite).
		SetMainTextColor(tcell.ColorWhite).
		SetSecondaryTextColor(tcell.ColorGray)
}

// createConfigScreen создает экран конфигурации
func (m *Manager) createConfigScreen() {
	c := m.config
	m.configForm = tview.NewForm().
		AddInputField("Исходная директория", c.Input.SourceDirectory, 60, nil, func(text string) {
			m.config.Input.SourceDirectory = text
		}).
		AddInputField("Целевая директория", c.Input.TargetDirectory, 60, nil, func(text string) {
			m.config.Input.TargetDirectory = text
		}).
		AddInputField("Префикс результата", c.Input.OutputPrefix, 20, nil, func(text string) {
			m.config.Input.OutputPrefix = text
		}).
		AddInputField("Уровень сжатия (0-100)", strconv.Itoa(c.Compression.Level), 10, tview.InputFieldInteger, func(text string) {
			if level, err := strconv.Atoi(text); err == nil {
				m.config.Compression.Level = level
			}
		}).
		AddCheckbox("Оттенки серого", c.Compression.Grayscale, func(checked bool) {
			m.config.Compression.Grayscale = checked
		}).
		AddDropDown("Движок рендеринга", engineOptions, optionIndex(engineOptions, c.Compression.Engine), func(option string, _ int) {
			m.config.Compression.Engine = option
			m.updateLicenseFieldVisibility()
		}).
		AddDropDown("Запись PDF", writerOptions, optionIndex(writerOptions, c.Compression.Writer), func(option string, _ int) {
			m.config.Compression.Writer = option
			m.updateLicenseFieldVisibility()
		}).
		AddInputField("Лицензия UniPDF", c.Compression.UniPDFLicenseKey, 60, nil, func(text string) {
			m.config.Compression.UniPDFLicenseKey = text
		}).
		AddCheckbox("Оптимизация pdfcpu", c.Compression.OptimizeOutput, func(checked bool) {
			m.config.Compression.OptimizeOutput = checked
		}).
		AddInputField("Качество изображений (0 - не сжимать)", strconv.Itoa(c.Compression.ImageQuality), 10, tview.InputFieldInteger, func(text string) {
			if quality, err := strconv.Atoi(text); err == nil {
				m.config.Compression.ImageQuality = quality
			}
		}).
		AddCheckbox("Автостарт", c.Compression.AutoStart, func(checked bool) {
			m.config.Compression.AutoStart = checked
		}).
		AddButton("Сохранить", func() {
			if err := m.saveConfig(); err != nil {
				m.configForm.SetTitle(fmt.Sprintf("❌ %v", err))
				return
			}
			m.switchToScreen(entities.UIScreenMenu)
			m.mainMenu.SetCurrentItem(1)
		})

	m.updateLicenseFieldVisibility()

	m.configForm.SetBorder(true).
		SetTitle(configTitle).
		SetTitleAlign(tview.AlignCenter)

	// ESC - выход без сохранения
	m.configForm.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			m.loadConfig()
			m.switchToScreen(entities.UIScreenMenu)
			return nil
		}
		return event
	})
}

const configTitle = "🔥 pdfshrink - Конфигурация (ESC - выйти без сохранения)"

func optionIndex(options []string, value string) int {
	for i, o := range options {
		if o == value {
			return i
		}
	}
	return 0
}

// createProcessingScreen создает экран обработки
func (m *Manager) createProcessingScreen() {
	m.progressView = tview.NewTextView().
		SetDynamicColors(true).
		SetRegions(true).
		SetScrollable(true)

	m.progressView.SetBorder(true).
		SetTitle("📊 Прогресс обработки").
		SetTitleAlign(tview.AlignCenter)

	m.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetMaxLines(MaxLogBufferSize)

	m.logView.SetBorder(true).
		SetTitle("📋 Журнал событий").
		SetTitleAlign(tview.AlignCenter)
}

// createProcessingLayout создает layout для экрана обработки
func (m *Manager) createProcessingLayout() *tview.Flex {
	return tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(m.logView, 0, 1, false).
		AddItem(m.progressView, ProgressViewHeight, 0, false)
}

// setupKeyBindings настраивает горячие клавиши
func (m *Manager) setupKeyBindings() {
	m.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			m.switchToScreen(entities.UIScreenMenu)
			return nil
		case tcell.KeyF2:
			if !m.processing() {
				m.switchToScreen(entities.UIScreenConfig)
			}
			return nil
		case tcell.KeyF3:
			m.switchToScreen(entities.UIScreenProcessing)
			return nil
		case tcell.KeyEscape:
			switch m.currentScreen {
			case entities.UIScreenConfig:
				// Обрабатывается формой
				return event
			case entities.UIScreenProcessing:
				if m.processing() {
					m.cancelProcessing()
					return nil
				}
				m.switchToScreen(entities.UIScreenMenu)
				return nil
			}
		}

		if m.currentScreen == entities.UIScreenMenu {
			switch event.Rune() {
			case '1':
				m.startProcessing()
				return nil
			case '2':
				m.switchToScreen(entities.UIScreenConfig)
				return nil
			case 'q', 'Q':
				m.quit()
				return nil
			}
		}

		return event
	})
}

// switchToScreen переключает на указанный экран
func (m *Manager) switchToScreen(screen entities.UIScreen) {
	m.currentScreen = screen

	switch screen {
	case entities.UIScreenMenu:
		m.pages.SwitchToPage("menu")
	case entities.UIScreenConfig:
		m.loadConfig()
		m.refreshConfigForm()
		m.pages.SwitchToPage("config")
	case entities.UIScreenProcessing:
		m.pages.SwitchToPage("processing")
	}
}

func (m *Manager) processing() bool {
	m.statusMutex.RLock()
	defer m.statusMutex.RUnlock()
	return m.isProcessing
}

func (m *Manager) setProcessing(value bool) {
	m.statusMutex.Lock()
	m.isProcessing = value
	m.statusMutex.Unlock()
}

// startProcessing начинает обработку, повторный запуск во время работы игнорируется
func (m *Manager) startProcessing() {
	if m.processing() {
		m.switchToScreen(entities.UIScreenProcessing)
		return
	}
	if err := m.saveConfig(); err != nil {
		m.AddLog("ERROR", fmt.Sprintf("Некорректная конфигурация: %v", err))
		m.switchToScreen(entities.UIScreenProcessing)
		return
	}

	m.setProcessing(true)
	m.switchToScreen(entities.UIScreenProcessing)

	// Callback только запускает обработку и не блокирует цикл событий
	if m.onStartProcessing != nil {
		m.onStartProcessing()
	}
}

func (m *Manager) cancelProcessing() {
	m.AddLog("WARNING", "Отмена обработки...")
	if m.onCancel != nil {
		m.onCancel()
	}
}

func (m *Manager) quit() {
	if m.processing() && m.onCancel != nil {
		m.onCancel()
	}
	m.Cleanup()
	m.app.Stop()
}

// updateProgress обновляет прогресс
func (m *Manager) updateProgress(status entities.DirectoryStatus) {
	if m.progressView == nil {
		return
	}

	text := renderStatus(status)
	if status.IsComplete {
		m.setProcessing(false)
	}

	m.app.QueueUpdateDraw(func() {
		m.progressView.SetText(text)
	})
}

// renderStatus формирует текст панели прогресса
func renderStatus(status entities.DirectoryStatus) string {
	phaseText := status.Phase.String()
	if status.Message != "" && !status.IsComplete {
		phaseText = status.Message
	}

	displayFile := truncateFileName(filepath.Base(status.CurrentFile), MaxFileNameLength, MaxFileNameDisplay)

	var b strings.Builder
	fmt.Fprintf(&b, "[yellow]⚙️  Фаза:[white] %s\n", phaseText)
	fmt.Fprintf(&b, "[yellow]📁 Файл:[white] %s", displayFile)
	if p := status.Page; p.TotalPages > 0 {
		fmt.Fprintf(&b, " [gray](стр. %d/%d)[white]", p.CurrentPage, p.TotalPages)
	}

	fmt.Fprintf(&b, "\n\n[cyan]📊 Всего:[white]    %s [cyan]%.1f%%[white]\n",
		createProgressBar(status.Progress(), ProgressBarWidth), status.Progress())
	fmt.Fprintf(&b, "[cyan]📄 Страницы:[white] %s [cyan]%d%%[white]\n\n",
		createProgressBar(float64(status.Page.Percent), ProgressBarWidth), status.Page.Percent)

	fmt.Fprintf(&b, "[green]📈 Файлы:[white] всего [cyan]%d[white], обработано [cyan]%d[white], успешно [green]%d[white]",
		status.TotalFiles, status.ProcessedFiles, status.SuccessfulFiles)
	if status.FailedFiles > 0 {
		fmt.Fprintf(&b, ", ошибок [red]%d[white]", status.FailedFiles)
	}

	if status.TotalOriginalSize > 0 {
		fmt.Fprintf(&b, "\n[green]💾 Сжатие:[white] %.2f MB → %.2f MB, сэкономлено [green]%.2f MB (%.1f%%)[white]",
			float64(status.TotalOriginalSize)/1024/1024,
			float64(status.TotalCompressedSize)/1024/1024,
			float64(status.TotalSavedSpace)/1024/1024,
			status.AverageCompression())
	}

	fmt.Fprintf(&b, "\n[yellow]⏱️  Время:[white] %s\n\n", status.FormatElapsedTime())

	switch {
	case status.IsComplete && status.Error != nil:
		fmt.Fprintf(&b, "[red]❌ Обработка завершена с ошибкой: %v[white]\n", status.Error)
		b.WriteString("[yellow]ESC/F1[white] - Главное меню")
	case status.IsComplete:
		b.WriteString("[green]✅ Обработка успешно завершена![white]\n")
		b.WriteString("[yellow]ESC/F1[white] - Главное меню")
	default:
		b.WriteString("[yellow]ESC[white] - Отменить  [yellow]F1[white] - Главное меню")
	}

	return b.String()
}

// truncateFileName корректно усекает имя файла с учетом UTF-8
func truncateFileName(fileName string, maxLength, truncateAt int) string {
	runes := []rune(fileName)
	if len(runes) <= maxLength {
		return fileName
	}
	return string(runes[:truncateAt]) + "..."
}

// createProgressBar создает цветной прогресс-бар
func createProgressBar(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	} else if progress > 100 {
		progress = 100
	}

	filled := int(math.Round(progress * float64(width) / 100))

	const filledChar = "█"
	const emptyChar = "░"

	var color string
	switch {
	case progress < 25:
		color = "red"
	case progress < 50:
		color = "yellow"
	case progress < 75:
		color = "blue"
	default:
		color = "green"
	}

	return fmt.Sprintf("[%s]%s[gray]%s[white]", color, strings.Repeat(filledChar, filled), strings.Repeat(emptyChar, width-filled))
}

// AddLog добавляет запись в лог через канал (неблокирующе)
func (m *Manager) AddLog(level, message string) {
	var color string
	switch strings.ToLower(level) {
	case "error":
		color = "red"
	case "warning":
		color = "yellow"
	case "success":
		color = "green"
	case "debug":
		color = "gray"
	default:
		color = "white"
	}

	logLine := fmt.Sprintf("[%s]%s:[white] %s", color, strings.ToUpper(level), tview.Escape(message))

	select {
	case m.logChan <- logLine:
	default:
		// Канал переполнен, запись пропускается
	}
}

// logProcessor обрабатывает логи в отдельной горутине с батчингом
func (m *Manager) logProcessor() {
	ticker := time.NewTicker(LogFlushInterval)
	defer ticker.Stop()

	batch := make([]string, 0, 50)

	for {
		select {
		case logLine := <-m.logChan:
			batch = append(batch, logLine)
			if len(batch) >= 20 {
				m.flushLogBatch(batch)
				batch = make([]string, 0, 50)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				m.flushLogBatch(batch)
				batch = make([]string, 0, 50)
			}

		case <-m.logDone:
			if len(batch) > 0 {
				m.flushLogBatch(batch)
			}
			return
		}
	}
}

// flushLogBatch сбрасывает батч логов в UI
func (m *Manager) flushLogBatch(batch []string) {
	m.statusMutex.Lock()
	m.logBuffer = append(m.logBuffer, batch...)
	if len(m.logBuffer) > MaxLogBufferSize {
		m.logBuffer = m.logBuffer[len(m.logBuffer)-MaxLogBufferSize:]
	}
	logText := strings.Join(m.logBuffer, "\n")
	m.statusMutex.Unlock()

	if m.logView != nil {
		m.app.QueueUpdateDraw(func() {
			m.logView.SetText(logText)
			m.logView.ScrollToEnd()
		})
	}
}

// Cleanup освобождает ресурсы менеджера (идемпотентный)
func (m *Manager) Cleanup() {
	m.logMutex.Lock()
	defer m.logMutex.Unlock()

	select {
	case <-m.logDone:
		return
	default:
		close(m.logDone)
	}
}

// updateLicenseFieldVisibility выделяет поле лицензии, если выбран модуль unipdf
func (m *Manager) updateLicenseFieldVisibility() {
	if m.configForm == nil || m.configForm.GetFormItemCount() <= formLicense {
		return
	}

	field, ok := m.configForm.GetFormItem(formLicense).(*tview.InputField)
	if !ok {
		return
	}

	if m.config.Compression.Engine == entities.EngineUniPDF || m.config.Compression.Writer == entities.WriterUniPDF {
		field.SetLabel("🔑 Лицензия UniPDF (обязательно)")
		field.SetFieldBackgroundColor(tcell.ColorDarkBlue)
	} else {
		field.SetLabel("Лицензия UniPDF (не требуется)")
		field.SetFieldBackgroundColor(tcell.ColorDarkGray)
	}
}

// refreshConfigForm синхронизирует значения формы с текущими данными конфигурации
func (m *Manager) refreshConfigForm() {
	if m.configForm == nil {
		return
	}
	c := *m.config

	setText := func(index int, text string) {
		if field, ok := m.configForm.GetFormItem(index).(*tview.InputField); ok {
			field.SetText(text)
		}
	}
	setChecked := func(index int, checked bool) {
		if box, ok := m.configForm.GetFormItem(index).(*tview.Checkbox); ok {
			box.SetChecked(checked)
		}
	}
	setOption := func(index int, options []string, value string) {
		if dd, ok := m.configForm.GetFormItem(index).(*tview.DropDown); ok {
			dd.SetCurrentOption(optionIndex(options, value))
		}
	}

	setText(formSource, c.Input.SourceDirectory)
	setText(formTarget, c.Input.TargetDirectory)
	setText(formPrefix, c.Input.OutputPrefix)
	setText(formLevel, strconv.Itoa(c.Compression.Level))
	setChecked(formGrayscale, c.Compression.Grayscale)
	setOption(formEngine, engineOptions, c.Compression.Engine)
	setOption(formWriter, writerOptions, c.Compression.Writer)
	setText(formLicense, c.Compression.UniPDFLicenseKey)
	setChecked(formOptimize, c.Compression.OptimizeOutput)
	setText(formImageQuality, strconv.Itoa(c.Compression.ImageQuality))
	setChecked(formAutoStart, c.Compression.AutoStart)

	m.configForm.SetTitle(configTitle)
	m.updateLicenseFieldVisibility()
}
