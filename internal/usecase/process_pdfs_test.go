package usecases_test

import (
	"context"
	"errors"
	"image/color"
	"reflect"
	"testing"

	"pdfshrink/internal/domain/entities"
)

var (
	red  = color.RGBA{200, 30, 30, 255}
	blue = color.RGBA{30, 30, 200, 255}
)

func TestProcessKeepsFileAndPageOrder(t *testing.T) {
	engine := newFakeEngine()
	f1 := engine.addPDF("f1.pdf", letterPage(red), letterPage(red), fakePage{width: 300, height: 200, fill: red})
	f2 := engine.addPDF("f2.pdf", letterPage(blue), letterPage(blue))

	var states []entities.ProgressState
	pages, err := newProcessor(engine, nil).Execute(context.Background(),
		[]entities.SourceFile{f1, f2}, entities.SettingsFor(0),
		func(s entities.ProgressState) { states = append(states, s) })
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(pages) != 5 {
		t.Fatalf("pages = %d, want 5", len(pages))
	}
	want := []string{"f1.pdf:1", "f1.pdf:2", "f1.pdf:3", "f2.pdf:1", "f2.pdf:2"}
	if got := engine.renderLog(); !reflect.DeepEqual(got, want) {
		t.Errorf("render order = %v, want %v", got, want)
	}

	// 300x200 при масштабе 0.9
	if pages[2].Width != 270 || pages[2].Height != 180 {
		t.Errorf("page 3 = %dx%d, want 270x180", pages[2].Width, pages[2].Height)
	}
	if pages[0].Width != 550 || pages[0].Height != 712 {
		t.Errorf("page 1 = %dx%d, want 550x712", pages[0].Width, pages[0].Height)
	}

	last := 0
	for _, s := range states {
		if s.Percent < last {
			t.Fatalf("progress went backwards: %v", states)
		}
		last = s.Percent
	}
	if last != 100 {
		t.Errorf("final percent = %d, want 100", last)
	}
	if final := states[len(states)-1]; final.CurrentFile != 2 || final.CurrentPage != 2 || final.TotalFiles != 2 {
		t.Errorf("final state = %+v", final)
	}
	if engine.closed != 2 {
		t.Errorf("closed documents = %d, want 2", engine.closed)
	}
}

func TestProcessValidation(t *testing.T) {
	const mb = 1024 * 1024

	engine := newFakeEngine()
	valid := engine.addPDF("ok.pdf", letterPage(red))
	sized := func(name string, size int64) entities.SourceFile {
		return entities.SourceFile{Name: name, Size: size, Data: []byte("%PDF-1.7")}
	}

	tests := []struct {
		name  string
		files []entities.SourceFile
		want  error
		index int
	}{
		{"empty input", nil, entities.ErrEmptyInput, 0},
		{"file over 25 MB", []entities.SourceFile{valid, sized("big.pdf", 26*mb)}, entities.ErrFileSizeExceeded, 2},
		{"batch over 50 MB", []entities.SourceFile{sized("a.pdf", 17*mb), sized("b.pdf", 17*mb), sized("c.pdf", 17*mb)}, entities.ErrTotalSizeExceeded, 0},
		{"not a pdf", []entities.SourceFile{valid, entities.NewSourceFile("notes.txt", []byte("hello"))}, entities.ErrNotPDF, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newProcessor(engine, nil).Execute(context.Background(), tt.files, entities.SettingsFor(0), nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			var ce *entities.CompressionError
			if !errors.As(err, &ce) || ce.Kind != entities.KindValidation || ce.FileIndex != tt.index {
				t.Errorf("error = %+v, want validation error for file %d", ce, tt.index)
			}
		})
	}

	if engine.opened != 0 {
		t.Errorf("engine opened %d documents during validation failures", engine.opened)
	}
}

func TestProcessFileErrors(t *testing.T) {
	engine := newFakeEngine()
	good := engine.addPDF("good.pdf", letterPage(red))
	empty := engine.addPDF("empty.pdf")
	broken := entities.NewSourceFile("broken.pdf", []byte("%PDF-1.4 garbage"))
	badPage := engine.addPDF("bad.pdf", letterPage(red), fakePage{width: 100, height: 100, fail: true}, letterPage(red))

	tests := []struct {
		name  string
		files []entities.SourceFile
		kind  entities.ErrorKind
		file  string
		index int
		page  int
	}{
		{"no pages", []entities.SourceFile{good, empty}, entities.KindValidation, "empty.pdf", 2, 0},
		{"cannot open", []entities.SourceFile{broken}, entities.KindUnsupportedInput, "broken.pdf", 1, 0},
		{"render failure", []entities.SourceFile{good, badPage}, entities.KindRender, "bad.pdf", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := newProcessor(engine, nil).Execute(context.Background(), tt.files, entities.SettingsFor(50), nil)
			if pages != nil {
				t.Errorf("partial result returned: %d pages", len(pages))
			}
			var ce *entities.CompressionError
			if !errors.As(err, &ce) {
				t.Fatalf("error = %v, want CompressionError", err)
			}
			if ce.Kind != tt.kind || ce.FileName != tt.file || ce.FileIndex != tt.index || ce.Page != tt.page {
				t.Errorf("error = %+v, want kind %v file %s #%d page %d", ce, tt.kind, tt.file, tt.index, tt.page)
			}
		})
	}

	if engine.opened != engine.closed {
		t.Errorf("opened %d documents, closed %d", engine.opened, engine.closed)
	}
}

func TestProcessChunksPages(t *testing.T) {
	engine := newFakeEngine()
	pages := make([]fakePage, 12)
	for i := range pages {
		pages[i] = fakePage{width: 20, height: 20, fill: red}
	}
	file := engine.addPDF("long.pdf", pages...)

	logger := &recordingLogger{}
	result, err := newProcessor(engine, logger).Execute(context.Background(), []entities.SourceFile{file}, entities.SettingsFor(0), nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result) != 12 {
		t.Errorf("pages = %d, want 12", len(result))
	}
	if n := logger.countDebug("Пакет страниц"); n != 3 {
		t.Errorf("chunks = %d, want 3", n)
	}
}

func TestProcessCustomChunkSize(t *testing.T) {
	engine := newFakeEngine()
	file := engine.addPDF("doc.pdf", letterPage(red), letterPage(red), letterPage(red))

	logger := &recordingLogger{}
	processor := newProcessor(engine, logger)
	processor.SetChunkSize(1)
	processor.SetChunkSize(0)

	if _, err := processor.Execute(context.Background(), []entities.SourceFile{file}, entities.SettingsFor(0), nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if n := logger.countDebug("Пакет страниц"); n != 3 {
		t.Errorf("chunks = %d, want 3", n)
	}
}

func TestProcessCancellation(t *testing.T) {
	engine := newFakeEngine()
	file := engine.addPDF("doc.pdf", letterPage(red), letterPage(red), letterPage(red))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := newProcessor(engine, nil).Execute(ctx, []entities.SourceFile{file}, entities.SettingsFor(0),
		func(s entities.ProgressState) {
			if s.CurrentPage == 1 {
				cancel()
			}
		})

	var ce *entities.CompressionError
	if !errors.As(err, &ce) || ce.Kind != entities.KindCancelled {
		t.Fatalf("error = %v, want cancellation", err)
	}
	if ce.Page != 2 || !errors.Is(err, context.Canceled) {
		t.Errorf("error = %+v, want cancellation at page 2", ce)
	}
	if got := len(engine.renderLog()); got != 1 {
		t.Errorf("rendered %d pages after cancel, want 1", got)
	}
	if engine.closed != 1 {
		t.Errorf("document not closed after cancel")
	}
}

func TestProcessLegacyPercent(t *testing.T) {
	engine := newFakeEngine()
	f1 := engine.addPDF("one.pdf", letterPage(red))
	f2 := engine.addPDF("three.pdf", letterPage(red), letterPage(red), letterPage(red))

	processor := newProcessor(engine, nil)
	processor.SetProgressMode(entities.ProgressLegacy)

	var percents []int
	_, err := processor.Execute(context.Background(), []entities.SourceFile{f1, f2}, entities.SettingsFor(0),
		func(s entities.ProgressState) {
			if s.CurrentPage > 0 {
				percents = append(percents, s.Percent)
			}
		})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// Формула исходит из числа страниц текущего файла
	want := []int{50, 67, 83, 100}
	if !reflect.DeepEqual(percents, want) {
		t.Errorf("legacy percents = %v, want %v", percents, want)
	}
}

func TestProcessNotReady(t *testing.T) {
	engine := newFakeEngine()
	engine.notReady = errors.New("wasm runtime failed")

	if err := newProcessor(engine, nil).Ready(); !errors.Is(err, engine.notReady) {
		t.Errorf("Ready() = %v", err)
	}
	if err := newProcessor(nil, nil).Ready(); !errors.Is(err, entities.ErrComponentsNotReady) {
		t.Errorf("Ready() without engine = %v", err)
	}
}
