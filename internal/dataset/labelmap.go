package dataset

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"

	"cocoprep/internal/fileutil"
)

// BackgroundLabel names object 0 in every labelmap.
const BackgroundLabel = "background"

// LabelEntry is one object of labelmap.json.
type LabelEntry struct {
	ObjectID         int    `json:"object_id"`
	LabelID          int    `json:"label_id"`
	KeyboardShortcut string `json:"keyboard_shortcut"`
	ObjectName       string `json:"object_name"`
}

// Labelmap returns the background/object pair for a category.
func Labelmap(category string) []LabelEntry {
	return []LabelEntry{
		{ObjectID: 0, LabelID: 0, KeyboardShortcut: "0", ObjectName: BackgroundLabel},
		{ObjectID: 1, LabelID: 1, KeyboardShortcut: "1", ObjectName: Singular(category)},
	}
}

// WriteLabelmap writes labelmap.json for the layout's category.
func WriteLabelmap(fsys afero.Fs, layout Layout) error {
	data, err := json.MarshalIndent(Labelmap(layout.Name), "", "  ")
	if err != nil {
		return fmt.Errorf("encode labelmap: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(fsys, layout.LabelmapPath(), data, 0o644); err != nil {
		return fmt.Errorf("write labelmap: %w", err)
	}
	return nil
}

// ReadLabelmap loads labelmap.json.
func ReadLabelmap(fsys afero.Fs, layout Layout) ([]LabelEntry, error) {
	data, err := afero.ReadFile(fsys, layout.LabelmapPath())
	if err != nil {
		return nil, fmt.Errorf("read labelmap: %w", err)
	}
	var entries []LabelEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode labelmap: %w", err)
	}
	return entries, nil
}
