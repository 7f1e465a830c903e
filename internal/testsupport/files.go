package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
)

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, fsys afero.Fs, path string, data []byte) {
	t.Helper()

	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadFile returns the contents of path or fails the test.
func ReadFile(t testing.TB, fsys afero.Fs, path string) []byte {
	t.Helper()

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}

func testImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 0x80, A: 0xff})
		}
	}
	return img
}

// PNG encodes a width x height test image.
func PNG(t testing.TB, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(width, height)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// JPEG encodes a width x height test image.
func JPEG(t testing.TB, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(width, height), &jpeg.Options{Quality: 75}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// Box is an annotation fixture: x, y, width, height and category id.
type Box struct {
	BBox       [4]float64
	CategoryID int
}

// AnnotationJSON renders raw per-image annotation JSON in the labelling tool's
// shape. original fills images[0].pvc_filename when non-empty.
func AnnotationJSON(t testing.TB, original string, boxes ...Box) []byte {
	t.Helper()

	type rawAnnotation struct {
		ID         int        `json:"id"`
		BBox       [4]float64 `json:"bbox"`
		CategoryID int        `json:"category_id"`
	}
	type rawImage struct {
		ID          int    `json:"id"`
		PVCFilename string `json:"pvc_filename,omitempty"`
	}
	doc := struct {
		Annotations []rawAnnotation `json:"annotations"`
		Images      []rawImage      `json:"images"`
	}{
		Annotations: make([]rawAnnotation, 0, len(boxes)),
		Images:      []rawImage{{ID: 1, PVCFilename: original}},
	}
	for i, box := range boxes {
		doc.Annotations = append(doc.Annotations, rawAnnotation{ID: i + 1, BBox: box.BBox, CategoryID: box.CategoryID})
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal annotation: %v", err)
	}
	return data
}
