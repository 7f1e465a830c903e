package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ErrMalformedAnnotation reports raw annotation JSON that cannot be used.
var ErrMalformedAnnotation = errors.New("malformed annotation")

// ImageNames is the filename metadata of a raw annotation JSON.
type ImageNames struct {
	Images           []RawImage `json:"images"`
	PVCFilename      string     `json:"pvc_filename"`
	OriginalFilename string     `json:"original_filename"`
}

// RawAnnotation is the per-image JSON exported by the labelling tool. Unknown
// fields are ignored.
type RawAnnotation struct {
	ImageNames
	Annotations []RawBox `json:"annotations"`
}

// RawBox is one entry of the annotations list.
type RawBox struct {
	BBox       []float64       `json:"bbox"`
	CategoryID json.RawMessage `json:"category_id"`
}

// Label maps the box's category to the binary object label: 0 when the
// category is absent or zero, 1 for anything else.
func (b RawBox) Label() int {
	raw := strings.TrimSpace(string(b.CategoryID))
	switch raw {
	case "", "false":
		return 0
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil && v == 0 {
		return 0
	}
	return 1
}

// RawImage carries the original filename metadata.
type RawImage struct {
	PVCFilename      string `json:"pvc_filename"`
	OriginalFilename string `json:"original_filename"`
}

// ParseAnnotation decodes raw annotation JSON and checks every bbox holds four
// finite numbers.
func ParseAnnotation(data []byte) (*RawAnnotation, error) {
	var raw RawAnnotation
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedAnnotation, err)
	}
	for i, box := range raw.Annotations {
		if len(box.BBox) < 4 {
			return nil, fmt.Errorf("%w: annotation %d has %d bbox values", ErrMalformedAnnotation, i, len(box.BBox))
		}
		for _, v := range box.BBox[:4] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: annotation %d has a non-finite bbox", ErrMalformedAnnotation, i)
			}
		}
	}
	return &raw, nil
}

// ParseImageNames decodes only the filename metadata. Annotation boxes are
// not looked at, so a file with broken boxes still names its image.
func ParseImageNames(data []byte) (*ImageNames, error) {
	var names ImageNames
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedAnnotation, err)
	}
	return &names, nil
}

// OriginalName returns the filename the image had before renaming. The first
// images entry wins; pvc_filename is preferred over original_filename.
func (r *ImageNames) OriginalName() string {
	if r == nil {
		return ""
	}
	if len(r.Images) > 0 {
		if name := strings.TrimSpace(r.Images[0].PVCFilename); name != "" {
			return name
		}
		if name := strings.TrimSpace(r.Images[0].OriginalFilename); name != "" {
			return name
		}
	}
	if name := strings.TrimSpace(r.PVCFilename); name != "" {
		return name
	}
	return strings.TrimSpace(r.OriginalFilename)
}
