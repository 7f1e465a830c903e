package coco

import (
	"fmt"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"

	"cocoprep/internal/fileutil"
)

// CategoryFileName returns <category>_instances_<split>.json.
func CategoryFileName(category, split string) string {
	return fmt.Sprintf("%s_instances_%s.json", category, split)
}

// CombinedFileName returns combined_instances_<split>.json.
func CombinedFileName(split string) string {
	return fmt.Sprintf("combined_instances_%s.json", split)
}

// Encode renders doc as two-space indented JSON.
func Encode(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// WriteDocument writes doc to path, creating the parent directory.
func WriteDocument(fsys afero.Fs, path string, doc Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := fileutil.WriteFileAtomic(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadDocument loads an export.
func ReadDocument(fsys afero.Fs, path string) (Document, error) {
	var doc Document
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return doc, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}
