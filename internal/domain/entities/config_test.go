package entities_test

import (
	"errors"
	"fmt"
	"testing"

	"pdfshrink/internal/domain/entities"
)

func TestSettingsFor(t *testing.T) {
	tests := []struct {
		level           int
		expectedQuality float64
		expectedScale   float64
	}{
		{-5, 0.8, 0.9}, // Приводится к 0
		{0, 0.8, 0.9},
		{15, 0.8, 0.9},
		{29, 0.8, 0.9},
		{30, 0.7, 0.85}, // Граница относится к следующей ступени
		{59, 0.7, 0.85},
		{60, 0.6, 0.8},
		{79, 0.6, 0.8},
		{80, 0.5, 0.75},
		{100, 0.5, 0.75},
		{150, 0.5, 0.75}, // Приводится к 100
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("Level %d", tt.level), func(t *testing.T) {
			settings := entities.SettingsFor(tt.level)

			if settings.ImageQuality != tt.expectedQuality {
				t.Errorf("Expected ImageQuality %v, got %v", tt.expectedQuality, settings.ImageQuality)
			}
			if settings.Scale != tt.expectedScale {
				t.Errorf("Expected Scale %v, got %v", tt.expectedScale, settings.Scale)
			}
			if settings.ColorSpace != entities.ColorSpaceRGB {
				t.Errorf("Expected RGB, got %s", settings.ColorSpace)
			}
			if err := settings.Validate(); err != nil {
				t.Errorf("Settings for level %d are invalid: %v", tt.level, err)
			}
		})
	}
}

func TestSettingsFor_Pure(t *testing.T) {
	for level := 0; level <= 100; level++ {
		first := entities.SettingsFor(level)
		second := entities.SettingsFor(level)
		if first != second {
			t.Fatalf("SettingsFor(%d) is not deterministic: %+v vs %+v", level, first, second)
		}
	}
}

func TestCompressionSettings_Validate(t *testing.T) {
	tests := []struct {
		name     string
		settings entities.CompressionSettings
		wantErr  error
	}{
		{"Valid", entities.CompressionSettings{ImageQuality: 1, Scale: 1, ColorSpace: entities.ColorSpaceGray}, nil},
		{"Zero quality", entities.CompressionSettings{ImageQuality: 0, Scale: 0.5, ColorSpace: entities.ColorSpaceRGB}, entities.ErrInvalidImageQuality},
		{"Quality above one", entities.CompressionSettings{ImageQuality: 1.1, Scale: 0.5, ColorSpace: entities.ColorSpaceRGB}, entities.ErrInvalidImageQuality},
		{"Zero scale", entities.CompressionSettings{ImageQuality: 0.5, Scale: 0, ColorSpace: entities.ColorSpaceRGB}, entities.ErrInvalidScale},
		{"Unknown color space", entities.CompressionSettings{ImageQuality: 0.5, Scale: 0.5, ColorSpace: "CMYK"}, entities.ErrInvalidColorSpace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClampLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    int
		expected int
	}{
		{"Normal level", 50, 50},
		{"Too low level", -5, 0},
		{"Too high level", 150, 100},
		{"Minimum level", 0, 0},
		{"Maximum level", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entities.ClampLevel(tt.level); got != tt.expected {
				t.Errorf("Expected level %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestAppCompressionConfig_Settings(t *testing.T) {
	cfg := entities.AppCompressionConfig{Level: 85, Grayscale: true}
	settings := cfg.Settings()

	if settings.ColorSpace != entities.ColorSpaceGray {
		t.Errorf("Expected GRAY, got %s", settings.ColorSpace)
	}
	if settings.ImageQuality != 0.5 || settings.Scale != 0.75 {
		t.Errorf("Unexpected settings for level 85: %+v", settings)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *entities.Config)
		wantErr error
	}{
		{"Default config", func(c *entities.Config) {}, nil},
		{"Level too high", func(c *entities.Config) { c.Compression.Level = 101 }, entities.ErrInvalidCompressionLevel},
		{"Level negative", func(c *entities.Config) { c.Compression.Level = -1 }, entities.ErrInvalidCompressionLevel},
		{"Negative image dimension", func(c *entities.Config) { c.Compression.MaxImageDimension = -1 }, entities.ErrInvalidImageDimension},
		{"Unknown engine", func(c *entities.Config) { c.Compression.Engine = "ghostscript" }, entities.ErrUnknownEngine},
		{"Unknown writer", func(c *entities.Config) { c.Compression.Writer = "pdfkit" }, entities.ErrUnknownWriter},
		{"Zero chunk size", func(c *entities.Config) { c.Processing.ChunkSize = 0 }, entities.ErrInvalidChunkSize},
		{"Zero size limit", func(c *entities.Config) { c.Processing.MaxTotalSizeMB = 0 }, entities.ErrInvalidSizeLimit},
		{"Unknown progress mode", func(c *entities.Config) { c.Processing.ProgressMode = "fuzzy" }, entities.ErrUnknownProgressMode},
		{"Legacy progress mode", func(c *entities.Config) { c.Processing.ProgressMode = "legacy" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := entities.NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestProcessingConfig_Limits(t *testing.T) {
	cfg := entities.NewDefaultConfig()
	limits := cfg.Processing.Limits()

	if limits != entities.DefaultSizeLimits() {
		t.Errorf("Expected default limits, got %+v", limits)
	}
	if limits.MaxFileSize != 25*1024*1024 {
		t.Errorf("Expected 25 MB per file, got %d", limits.MaxFileSize)
	}
	if limits.MaxTotalSize != 50*1024*1024 {
		t.Errorf("Expected 50 MB total, got %d", limits.MaxTotalSize)
	}
}
