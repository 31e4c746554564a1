package controllers

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"pdfshrink/internal/domain/entities"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#88C0D0")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7A8291"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A3BE8C")).Bold(true)
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#BF616A")).Bold(true)
)

// SummaryRow строка итоговой таблицы
type SummaryRow struct {
	Label string
	Value string
}

// RenderSummary рисует таблицу "метка | значение" с заголовком
func RenderSummary(title string, rows []SummaryRow) string {
	labelWidth, valueWidth := 0, 0
	for _, row := range rows {
		if w := runewidth.StringWidth(row.Label); w > labelWidth {
			labelWidth = w
		}
		if w := lipgloss.Width(row.Value); w > valueWidth {
			valueWidth = w
		}
	}

	hline := strings.Repeat("─", labelWidth+valueWidth+3)
	lines := []string{titleStyle.Render(title), hline}
	for _, row := range rows {
		label := runewidth.FillRight(row.Label, labelWidth)
		lines = append(lines, fmt.Sprintf("%s │ %s", labelStyle.Render(label), valueStyle.Render(row.Value)))
	}
	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// StatsRows строки статистики сжатия одного результата
func StatsRows(output *entities.CompressionOutput) []SummaryRow {
	return []SummaryRow{
		{Label: "Файл", Value: output.Filename},
		{Label: "Страниц", Value: fmt.Sprintf("%d", output.Pages)},
		{Label: "Исходный размер", Value: formatSize(output.Stats.OriginalSize)},
		{Label: "Сжатый размер", Value: formatSize(output.Stats.CompressedSize)},
		{Label: "Сэкономлено", Value: fmt.Sprintf("%s (%s%%)", formatSize(output.Stats.SavedBytes), output.Stats.CompressionRatio)},
	}
}

// DirectoryRows строки итогов обработки директории
func DirectoryRows(status *entities.DirectoryStatus) []SummaryRow {
	failed := fmt.Sprintf("%d", status.FailedFiles)
	if status.FailedFiles > 0 {
		failed = badStyle.Render(failed)
	}
	return []SummaryRow{
		{Label: "Всего файлов", Value: fmt.Sprintf("%d", status.TotalFiles)},
		{Label: "Успешно", Value: goodStyle.Render(fmt.Sprintf("%d", status.SuccessfulFiles))},
		{Label: "С ошибками", Value: failed},
		{Label: "Исходный размер", Value: formatSize(status.TotalOriginalSize)},
		{Label: "Сжатый размер", Value: formatSize(status.TotalCompressedSize)},
		{Label: "Сэкономлено", Value: fmt.Sprintf("%s (%.1f%%)", formatSize(status.TotalSavedSpace), status.AverageCompression())},
		{Label: "Время", Value: status.FormatElapsedTime()},
	}
}

func formatSize(size int64) string {
	switch {
	case size >= 1024*1024:
		return fmt.Sprintf("%.2f MB", float64(size)/1024/1024)
	case size >= 1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%d B", size)
	}
}
