// Package boxcsv reads and writes the per-image box files kept under csv/.
//
// Files are written in one canonical shape:
//
//	#item,x,y,width,height,label
//	0,12.5,40,88,61,1
//
// Reading is permissive: column names are matched case-insensitively against
// a few synonyms and rows whose coordinates do not parse are skipped.
package boxcsv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"cocoprep/internal/fileutil"
)

// Header is the first line of every canonical file.
const Header = "#item,x,y,width,height,label"

// Box is an axis-aligned rectangle in pixels with a top-left origin.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Area returns Width*Height.
func (b Box) Area() float64 { return b.Width * b.Height }

// Slice returns the box as [x, y, width, height].
func (b Box) Slice() []float64 { return []float64{b.X, b.Y, b.Width, b.Height} }

// Row is one canonical line.
type Row struct {
	Item  int
	Box   Box
	Label int
}

// FormatFloat renders v with the fewest digits that parse back to v.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Encode renders rows in the canonical format.
func Encode(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(Header)
	buf.WriteByte('\n')
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Item),
			FormatFloat(row.Box.X),
			FormatFloat(row.Box.Y),
			FormatFloat(row.Box.Width),
			FormatFloat(row.Box.Height),
			strconv.Itoa(row.Label),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes rows to path, replacing any previous file. Zero rows
// produce a header-only file.
func WriteFile(fsys afero.Fs, path string, rows []Row) error {
	data, err := Encode(rows)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := fileutil.WriteFileAtomic(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Column synonyms, checked in order.
var (
	xKeys      = []string{"x", "xc", "x_center"}
	yKeys      = []string{"y", "yc", "y_center"}
	widthKeys  = []string{"w", "width", "dx"}
	heightKeys = []string{"h", "height", "dy"}
)

// Result holds the boxes read from one file.
type Result struct {
	Boxes []Box
	// Skipped counts data rows that produced no box.
	Skipped int
}

// Read parses boxes from r. The first record is the header.
func Read(r io.Reader) (Result, error) {
	var result Result
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return result, nil
		}
		return result, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		columns[strings.ToLower(name)] = i
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Skipped++
				continue
			}
			return result, fmt.Errorf("read row: %w", err)
		}
		x, okX := lookup(columns, record, xKeys)
		y, okY := lookup(columns, record, yKeys)
		w, okW := lookup(columns, record, widthKeys)
		h, okH := lookup(columns, record, heightKeys)
		if !okX || !okY || !okW || !okH {
			result.Skipped++
			continue
		}
		result.Boxes = append(result.Boxes, Box{X: x, Y: y, Width: w, Height: h})
	}
	return result, nil
}

// ReadFile parses the box file at path. A missing file has no boxes.
func ReadFile(fsys afero.Fs, path string) (Result, error) {
	file, err := fsys.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	result, err := Read(file)
	if err != nil {
		return result, fmt.Errorf("parse %s: %w", path, err)
	}
	return result, nil
}

// lookup returns the first synonym column holding a finite number.
func lookup(columns map[string]int, record []string, keys []string) (float64, bool) {
	for _, key := range keys {
		idx, ok := columns[key]
		if !ok || idx >= len(record) {
			continue
		}
		raw := strings.TrimSpace(record[idx])
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		return v, true
	}
	return 0, false
}
