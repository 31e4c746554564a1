package usecases_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"strings"
	"sync"

	"pdfshrink/internal/domain/entities"
	"pdfshrink/internal/domain/repositories"
	usecases "pdfshrink/internal/usecase"
)

var (
	errOpen   = errors.New("broken xref table")
	errRender = errors.New("render failed")
	errWrite  = errors.New("disk full")
	errEncode = errors.New("encoder out of memory")
)

// fakePage описание страницы тестового документа
type fakePage struct {
	width, height float64
	fill          color.RGBA
	fail          bool
}

// fakeEngine документы выбираются по содержимому файла
type fakeEngine struct {
	mu       sync.Mutex
	docs     map[string][]fakePage
	notReady error
	opened   int
	closed   int
	renders  []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{docs: map[string][]fakePage{}}
}

// addPDF регистрирует документ и возвращает входной файл для него
func (e *fakeEngine) addPDF(name string, pages ...fakePage) entities.SourceFile {
	data := []byte("%PDF-1.7 " + name)
	e.docs[string(data)] = pages
	return entities.NewSourceFile(name, data)
}

func (e *fakeEngine) Ready() error { return e.notReady }
func (e *fakeEngine) Close() error { return nil }

func (e *fakeEngine) Open(_ context.Context, data []byte) (repositories.Document, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pages, ok := e.docs[string(data)]
	if !ok {
		return nil, errOpen
	}
	e.opened++
	name := strings.TrimPrefix(string(data), "%PDF-1.7 ")
	return &fakeDocument{engine: e, name: name, pages: pages}, nil
}

func (e *fakeEngine) renderLog() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.renders...)
}

type fakeDocument struct {
	engine *fakeEngine
	name   string
	pages  []fakePage
}

func (d *fakeDocument) PageCount() int { return len(d.pages) }

func (d *fakeDocument) Page(_ context.Context, number int) (repositories.Page, error) {
	if number < 1 || number > len(d.pages) {
		return nil, fmt.Errorf("page %d out of range", number)
	}
	return &fakeDocPage{doc: d, number: number, desc: d.pages[number-1]}, nil
}

func (d *fakeDocument) Close() error {
	d.engine.mu.Lock()
	d.engine.closed++
	d.engine.mu.Unlock()
	return nil
}

type fakeDocPage struct {
	doc    *fakeDocument
	number int
	desc   fakePage
}

func (p *fakeDocPage) Size() (float64, float64) { return p.desc.width, p.desc.height }

func (p *fakeDocPage) Render(_ context.Context, dst *image.RGBA) error {
	if p.desc.fail {
		return errRender
	}
	p.doc.engine.mu.Lock()
	p.doc.engine.renders = append(p.doc.engine.renders, fmt.Sprintf("%s:%d", p.doc.name, p.number))
	p.doc.engine.mu.Unlock()
	draw.Draw(dst, dst.Bounds(), image.NewUniform(p.desc.fill), image.Point{}, draw.Src)
	return nil
}

// letterPage страница US Letter залитая цветом
func letterPage(fill color.RGBA) fakePage {
	return fakePage{width: 612, height: 792, fill: fill}
}

type drawnImage struct {
	data                []byte
	x, y, width, height float64
}

// fakeWriter записывает вызовы; Finish ждет release, если он задан
type fakeWriter struct {
	mu         sync.Mutex
	pages      [][2]float64
	images     []drawnImage
	outputSize int
	release    chan struct{}
	finishErr  error
	addErr     error
}

func (w *fakeWriter) AddPage(width, height float64) error {
	if w.addErr != nil {
		return w.addErr
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pages = append(w.pages, [2]float64{width, height})
	return nil
}

func (w *fakeWriter) DrawImage(data []byte, x, y, width, height float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.images = append(w.images, drawnImage{data: data, x: x, y: y, width: width, height: height})
	return nil
}

func (w *fakeWriter) Finish(out io.Writer) <-chan error {
	done := make(chan error, 1)
	go func() {
		if w.release != nil {
			<-w.release
		}
		if w.finishErr != nil {
			done <- w.finishErr
			return
		}
		size := w.outputSize
		if size == 0 {
			size = 100
		}
		out.Write(bytes.Repeat([]byte{'P'}, size))
		done <- nil
	}()
	return done
}

type fakeWriterFactory struct {
	writer *fakeWriter
	calls  int
}

func (f *fakeWriterFactory) NewDocument() (repositories.PDFWriter, error) {
	f.calls++
	return f.writer, nil
}

type fakeSink struct {
	mu    sync.Mutex
	saved map[string][]byte
	err   error
}

func newFakeSink() *fakeSink {
	return &fakeSink{saved: map[string][]byte{}}
}

func (s *fakeSink) Save(data []byte, filename string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[filename] = data
	return "/downloads/" + filename, nil
}

type fakeOptimizer struct {
	result []byte
	err    error
}

func (o *fakeOptimizer) Optimize([]byte) ([]byte, error) {
	return o.result, o.err
}

// failingEncoder кодирует страницы и падает на вызове номер failAt
type failingEncoder struct {
	usecases.PageEncoder
	failAt int
	calls  int
}

func (e *failingEncoder) Encode(img image.Image, quality float64) (entities.EncodedImage, error) {
	e.calls++
	if e.calls == e.failAt {
		return entities.EncodedImage{}, errEncode
	}
	return e.PageEncoder.Encode(img, quality)
}

// recordingLogger сохраняет сообщения для проверок
type recordingLogger struct {
	repositories.NopLogger
	mu       sync.Mutex
	debug    []string
	warnings []string
}

func (l *recordingLogger) Debug(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debug = append(l.debug, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Warning(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) countDebug(prefix string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range l.debug {
		if strings.HasPrefix(m, prefix) {
			n++
		}
	}
	return n
}

// newProcessor собирает BatchProcessor на фейковом движке
func newProcessor(engine repositories.DocumentEngine, logger repositories.Logger) *usecases.ProcessPDFsUseCase {
	return usecases.NewProcessPDFsUseCase(engine, usecases.NewPageRasterizer(logger), usecases.NewPageEncoder(), logger)
}

// pipeline полный конвейер сжатия на фейках
type pipeline struct {
	engine    *fakeEngine
	writer    *fakeWriter
	factory   *fakeWriterFactory
	sink      *fakeSink
	processor *usecases.ProcessPDFsUseCase
	compress  *usecases.CompressPDFUseCase
}

func newPipeline() *pipeline {
	p := &pipeline{
		engine: newFakeEngine(),
		writer: &fakeWriter{},
		sink:   newFakeSink(),
	}
	p.factory = &fakeWriterFactory{writer: p.writer}
	p.processor = newProcessor(p.engine, nil)
	p.compress = usecases.NewCompressPDFUseCase(
		p.processor,
		usecases.NewAssemblePDFUseCase(p.factory, nil),
		p.sink,
		nil,
	)
	return p
}
