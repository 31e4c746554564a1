package controllers_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/infrastructure/compressors"
	"pdfshrink/internal/infrastructure/repositories"
	"pdfshrink/internal/interface/controllers"
	usecases "pdfshrink/internal/usecase"
)

func init() {
	color.NoColor = true
}

func TestRenderSummary(t *testing.T) {
	out := controllers.RenderSummary("Итог", []controllers.SummaryRow{
		{Label: "Файл", Value: "report.pdf"},
		{Label: "Сэкономлено", Value: "1.00 MB (60.0%)"},
	})

	lines := strings.Split(out, "\n")
	if len(lines) != 5 {
		t.Fatalf("lines = %d, want 5:\n%s", len(lines), out)
	}
	for _, want := range []string{"Итог", "report.pdf", "60.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestStatsRows(t *testing.T) {
	rows := controllers.StatsRows(&entities.CompressionOutput{
		Filename: "compressed_a.pdf",
		Pages:    3,
		Stats:    entities.CalculateStats(2*1024*1024, 1024*1024),
	})
	got := map[string]string{}
	for _, r := range rows {
		got[r.Label] = r.Value
	}
	if got["Страниц"] != "3" || got["Исходный размер"] != "2.00 MB" || got["Сэкономлено"] != "1.00 MB (50.0%)" {
		t.Errorf("rows = %v", got)
	}
}

func TestConsoleLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := controllers.NewConsoleLogger(&buf, "warning", nil)

	logger.Debug("debug %d", 1)
	logger.Info("info %d", 2)
	logger.Success("done")
	logger.Warning("careful %s", "now")
	logger.Error("failed: %v", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") || strings.Contains(out, "done") {
		t.Errorf("messages below level printed:\n%s", out)
	}
	if !strings.Contains(out, "! careful now") || !strings.Contains(out, "✗ failed: boom") {
		t.Errorf("output = %q", out)
	}
}

func newController(dir string) *controllers.CLIController {
	images := usecases.NewCompressImageUseCase(compressors.NewImageCompressor(), repositories.NewDirectorySink(dir), nil)
	c := controllers.NewCLIController(nil, nil, nil, images, nil,
		repositories.NewFileSystemRepository(), repositories.NewConfigRepository(), nil)
	c.SetShowProgress(false)
	return c
}

func TestCompressImageCommand(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	var data bytes.Buffer
	if err := png.Encode(&data, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "noise.png")
	if err := os.WriteFile(path, data.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	c := newController(dir)
	c.SetOutput(&out)

	output, err := c.CompressImage(context.Background(), path, 40)
	if err != nil {
		t.Fatalf("CompressImage: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, output.Filename)); err != nil {
		t.Errorf("output not saved: %v", err)
	}
	if !strings.Contains(out.String(), "compressed_noise.jpg") {
		t.Errorf("summary = %s", out.String())
	}
}

func TestCompressFilesRejectsInput(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.pdf", "b.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	paths := []string{filepath.Join(dir, "a.pdf"), filepath.Join(dir, "b.pdf")}
	c := newController(dir)

	tests := []struct {
		name    string
		paths   []string
		options controllers.CompressOptions
		want    error
	}{
		{"no files", nil, controllers.CompressOptions{Level: 30}, entities.ErrEmptyInput},
		{"missing file", []string{filepath.Join(dir, "missing.pdf")}, controllers.CompressOptions{Level: 30}, entities.ErrFileNotFound},
		{"bad order", paths, controllers.CompressOptions{Level: 30, Order: "1,1"}, entities.ErrInvalidOrder},
		{"bad level", paths, controllers.CompressOptions{Level: 150}, entities.ErrInvalidCompressionLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.CompressFiles(context.Background(), tt.paths, tt.options); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

// fixedSettings отдает заранее заданные параметры для любого уровня
type fixedSettings struct {
	*repositories.ConfigRepository
	settings entities.CompressionSettings
}

func (f fixedSettings) GetCompressionSettings(int, bool) (entities.CompressionSettings, error) {
	return f.settings, nil
}

func TestCompressFilesValidatesSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0644); err != nil {
		t.Fatal(err)
	}

	settings := fixedSettings{
		ConfigRepository: repositories.NewConfigRepository(),
		settings:         entities.CompressionSettings{ImageQuality: 0, Scale: 0.8, ColorSpace: entities.ColorSpaceRGB},
	}
	c := controllers.NewCLIController(nil, nil, nil, nil, nil,
		repositories.NewFileSystemRepository(), settings, nil)
	c.SetShowProgress(false)

	_, err := c.CompressFiles(context.Background(), []string{path}, controllers.CompressOptions{Level: 30})
	if !errors.Is(err, entities.ErrInvalidImageQuality) {
		t.Fatalf("error = %v, want ErrInvalidImageQuality", err)
	}
	if !entities.IsKind(err, entities.KindValidation) {
		t.Errorf("error kind = %v, want validation", err)
	}
}
