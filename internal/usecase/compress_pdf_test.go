package usecases_test

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"testing"

	"pdfshrink/internal/domain/entities"
	usecases "pdfshrink/internal/usecase"
)

func TestCompressComputesStats(t *testing.T) {
	p := newPipeline()
	f1 := p.engine.addPDF("report.pdf", letterPage(red), letterPage(red))
	f2 := p.engine.addPDF("appendix.pdf", letterPage(blue))
	f1.Size, f2.Size = 600000, 400000
	p.writer.outputSize = 400000

	var last entities.ProgressState
	p.compress.SetProgressReporter(func(s entities.ProgressState) { last = s })

	output, err := p.compress.Execute(context.Background(), []entities.SourceFile{f1, f2}, 70)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	want := entities.CompressionStats{OriginalSize: 1000000, CompressedSize: 400000, SavedBytes: 600000, CompressionRatio: "60.0"}
	if output.Stats != want {
		t.Errorf("stats = %+v, want %+v", output.Stats, want)
	}
	if output.Pages != 3 || len(p.writer.pages) != 3 {
		t.Errorf("pages = %d, written %d", output.Pages, len(p.writer.pages))
	}
	if output.Filename != "compressed_report.pdf" {
		t.Errorf("filename = %q", output.Filename)
	}
	if saved := p.sink.saved["compressed_report.pdf"]; len(saved) != 400000 {
		t.Errorf("sink received %d bytes", len(saved))
	}

	if last.Percent != 100 {
		t.Errorf("last reported percent = %d", last.Percent)
	}
	if !p.compress.Progress().IsZero() {
		t.Errorf("progress not reset: %+v", p.compress.Progress())
	}
}

func TestCompressGrowingOutputReportsZeroSavings(t *testing.T) {
	p := newPipeline()
	file := p.engine.addPDF("tiny.pdf", letterPage(red))
	file.Size = 1000
	p.writer.outputSize = 5000

	output, err := p.compress.Execute(context.Background(), []entities.SourceFile{file}, 0)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if output.Stats.SavedBytes != 0 || output.Stats.CompressionRatio != "0.0" || output.Stats.IsEffective() {
		t.Errorf("stats = %+v", output.Stats)
	}
}

func TestCompressSinkFailureIsNotFatal(t *testing.T) {
	p := newPipeline()
	p.sink.err = errWrite
	file := p.engine.addPDF("doc.pdf", letterPage(red))

	output, err := p.compress.Execute(context.Background(), []entities.SourceFile{file}, 30)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if output == nil || len(output.Data) == 0 {
		t.Error("output lost after save failure")
	}
}

func TestCompressPageFailureAbortsBatch(t *testing.T) {
	p := newPipeline()
	good := p.engine.addPDF("good.pdf", letterPage(red))
	bad := p.engine.addPDF("bad.pdf", letterPage(red), fakePage{width: 10, height: 10, fail: true})

	output, err := p.compress.Execute(context.Background(), []entities.SourceFile{good, bad}, 50)
	if output != nil {
		t.Errorf("partial output returned")
	}

	var ce *entities.CompressionError
	if !errors.As(err, &ce) || ce.Kind != entities.KindRender || ce.FileName != "bad.pdf" || ce.Page != 2 {
		t.Fatalf("error = %v", err)
	}
	if p.factory.calls != 0 {
		t.Error("assembly started after page failure")
	}
	if len(p.sink.saved) != 0 {
		t.Error("sink called after failure")
	}
	if !p.compress.Progress().IsZero() {
		t.Error("progress not reset after failure")
	}
}

func TestCompressEncodeFailureAbortsBatch(t *testing.T) {
	p := newPipeline()
	encoder := &failingEncoder{failAt: 3}
	processor := usecases.NewProcessPDFsUseCase(p.engine, usecases.NewPageRasterizer(nil), encoder, nil)
	compress := usecases.NewCompressPDFUseCase(processor, usecases.NewAssemblePDFUseCase(p.factory, nil), p.sink, nil)

	first := p.engine.addPDF("first.pdf", letterPage(red))
	second := p.engine.addPDF("second.pdf", letterPage(blue), letterPage(blue), letterPage(blue))

	output, err := compress.Execute(context.Background(), []entities.SourceFile{first, second}, 50)
	if output != nil {
		t.Errorf("partial output returned")
	}
	if !errors.Is(err, errEncode) {
		t.Fatalf("error = %v, want wrapped encoder error", err)
	}

	var ce *entities.CompressionError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want CompressionError", err)
	}
	if ce.Kind != entities.KindEncode || ce.FileName != "second.pdf" || ce.FileIndex != 2 || ce.Page != 2 {
		t.Errorf("error = %+v, want encode failure at second.pdf #2 page 2", ce)
	}
	if encoder.calls != 3 {
		t.Errorf("encoder called %d times, want 3", encoder.calls)
	}
	if p.factory.calls != 0 {
		t.Error("assembly started after encode failure")
	}
	if len(p.sink.saved) != 0 {
		t.Error("sink called after failure")
	}
	if p.engine.opened != p.engine.closed {
		t.Errorf("opened %d documents, closed %d", p.engine.opened, p.engine.closed)
	}
}

func TestCompressOptimizer(t *testing.T) {
	tests := []struct {
		name      string
		optimizer *fakeOptimizer
		wantSize  int
	}{
		{"smaller result is used", &fakeOptimizer{result: bytes.Repeat([]byte{'o'}, 60)}, 60},
		{"larger result is ignored", &fakeOptimizer{result: bytes.Repeat([]byte{'o'}, 160)}, 100},
		{"error keeps original", &fakeOptimizer{err: errors.New("invalid xref")}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline()
			p.compress.SetOptimizer(tt.optimizer)
			file := p.engine.addPDF("doc.pdf", letterPage(red))

			output, err := p.compress.Execute(context.Background(), []entities.SourceFile{file}, 30)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if len(output.Data) != tt.wantSize {
				t.Errorf("output = %d bytes, want %d", len(output.Data), tt.wantSize)
			}
		})
	}
}

func TestCompressValidation(t *testing.T) {
	p := newPipeline()
	file := p.engine.addPDF("doc.pdf", letterPage(red))

	tests := []struct {
		name  string
		files []entities.SourceFile
		level int
		want  error
	}{
		{"no files", nil, 30, entities.ErrEmptyInput},
		{"level below range", []entities.SourceFile{file}, -1, entities.ErrInvalidCompressionLevel},
		{"level above range", []entities.SourceFile{file}, 101, entities.ErrInvalidCompressionLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.compress.Execute(context.Background(), tt.files, tt.level)
			if !errors.Is(err, tt.want) || !entities.IsKind(err, entities.KindValidation) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	p.engine.notReady = errors.New("wasm runtime failed")
	if _, err := p.compress.Execute(context.Background(), []entities.SourceFile{file}, 30); !errors.Is(err, entities.ErrComponentsNotReady) {
		t.Errorf("not ready error = %v", err)
	}
	if p.engine.opened != 0 {
		t.Error("engine used after validation failure")
	}
}

func TestCompressGrayscaleAndPrefix(t *testing.T) {
	p := newPipeline()
	p.compress.SetGrayscale(true)
	p.compress.SetOutputPrefix("small-")
	file := p.engine.addPDF("scan.pdf", letterPage(red))

	output, err := p.compress.ExecuteTo(context.Background(), []entities.SourceFile{file}, 90, nil)
	if err != nil {
		t.Fatalf("ExecuteTo: %v", err)
	}
	if output.Filename != "small-scan.pdf" {
		t.Errorf("filename = %q", output.Filename)
	}
	if len(p.sink.saved) != 0 {
		t.Error("default sink used despite explicit nil sink")
	}

	// Уровень 90: масштаб 0.75
	if got := p.writer.pages[0]; got != [2]float64{459, 594} {
		t.Errorf("page size = %v", got)
	}

	img, err := jpeg.Decode(bytes.NewReader(p.writer.images[0].data))
	if err != nil {
		t.Fatalf("page is not JPEG: %v", err)
	}
	r, g, b, _ := img.At(10, 10).RGBA()
	if diff(r>>8, g>>8) > 2 || diff(g>>8, b>>8) > 2 {
		t.Errorf("page is not gray: %d %d %d", r>>8, g>>8, b>>8)
	}
}

func diff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
