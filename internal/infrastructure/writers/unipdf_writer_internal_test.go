package writers

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/unidoc/unipdf/v3/core"
)

func grayJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(i % 251)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 35}); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestImageXObjectKeepsJPEGBytes(t *testing.T) {
	data := grayJPEG(t, 64, 32)

	ximg, err := imageXObject(data)
	if err != nil {
		t.Fatalf("imageXObject: %v", err)
	}
	if *ximg.Width != 64 || *ximg.Height != 32 {
		t.Errorf("size = %dx%d, want 64x32", *ximg.Width, *ximg.Height)
	}

	stream, ok := ximg.ToPdfObject().(*core.PdfObjectStream)
	if !ok {
		t.Fatalf("XObject is %T, want stream", ximg.ToPdfObject())
	}
	if !bytes.Equal(stream.Stream, data) {
		t.Errorf("stream differs from source JPEG: %d bytes, want %d", len(stream.Stream), len(data))
	}
	if filter := stream.PdfObjectDictionary.Get("Filter"); filter == nil || filter.String() != "DCTDecode" {
		t.Errorf("Filter = %v, want DCTDecode", filter)
	}
	if cs := stream.PdfObjectDictionary.Get("ColorSpace"); cs == nil || cs.String() != "DeviceGray" {
		t.Errorf("ColorSpace = %v, want DeviceGray", cs)
	}
}

func TestImageXObjectPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}

	ximg, err := imageXObject(buf.Bytes())
	if err != nil {
		t.Fatalf("imageXObject: %v", err)
	}
	if *ximg.Width != 8 || *ximg.Height != 4 {
		t.Errorf("size = %dx%d, want 8x4", *ximg.Width, *ximg.Height)
	}
	if _, ok := ximg.Filter.(*core.FlateEncoder); !ok {
		t.Errorf("filter = %T, want flate", ximg.Filter)
	}
}

func TestUniPDFWriterDrawImage(t *testing.T) {
	w := newUniPDFWriter()
	data := grayJPEG(t, 20, 10)

	if err := w.DrawImage(data, 0, 0, 20, 10); !errors.Is(err, errNoPage) {
		t.Fatalf("draw before page: err = %v, want errNoPage", err)
	}

	if err := w.AddPage(200, 100); err != nil {
		t.Fatalf("AddPage: %v", err)
	}
	if err := w.DrawImage(data, 10, 20, 40, 30); err != nil {
		t.Fatalf("DrawImage: %v", err)
	}

	page := w.pages[0]
	if page.images != 1 {
		t.Fatalf("images = %d, want 1", page.images)
	}
	// y = 100 - 20 - 30
	ops := page.content.String()
	for _, want := range []string{"40 0 0 30 10 50 cm", "/Im1 Do"} {
		if !strings.Contains(ops, want) {
			t.Errorf("content %q missing %q", ops, want)
		}
	}
}

func TestImageXObjectRejectsGarbage(t *testing.T) {
	if _, err := imageXObject([]byte("not an image")); err == nil {
		t.Error("expected error for invalid image data")
	}
}
