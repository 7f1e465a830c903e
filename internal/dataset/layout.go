package dataset

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Directory and file names of the canonical layout.
const (
	ImagesDirName = "images"
	CSVDirName    = "csv"
	JSONDirName   = "json"
	SetsDirName   = "sets"
	LabelmapName  = "labelmap.json"
)

// Layout locates one category inside the dataset root.
type Layout struct {
	Root string
	Name string
}

// NewLayout returns the layout of category name under root.
func NewLayout(root, name string) Layout {
	return Layout{Root: root, Name: name}
}

// Dir returns the category root directory.
func (l Layout) Dir() string { return filepath.Join(l.Root, l.Name) }

func (l Layout) ImagesDir() string { return filepath.Join(l.Dir(), ImagesDirName) }

func (l Layout) CSVDir() string { return filepath.Join(l.Dir(), CSVDirName) }

func (l Layout) JSONDir() string { return filepath.Join(l.Dir(), JSONDirName) }

func (l Layout) SetsDir() string { return filepath.Join(l.Dir(), SetsDirName) }

func (l Layout) LabelmapPath() string { return filepath.Join(l.Dir(), LabelmapName) }

// SplitPath returns sets/<split>.txt.
func (l Layout) SplitPath(split string) string {
	return filepath.Join(l.SetsDir(), split+".txt")
}

// CSVPath returns csv/<stem>.csv.
func (l Layout) CSVPath(stem string) string {
	return filepath.Join(l.CSVDir(), stem+".csv")
}

// JSONPath returns json/<stem>.json.
func (l Layout) JSONPath(stem string) string {
	return filepath.Join(l.JSONDir(), stem+".json")
}

// Singular returns the category's display label.
func (l Layout) Singular() string { return Singular(l.Name) }

// Exists reports whether the category root is present.
func (l Layout) Exists(fsys afero.Fs) (bool, error) {
	return afero.DirExists(fsys, l.Dir())
}

// Ensure creates images/, json/ and csv/.
func (l Layout) Ensure(fsys afero.Fs) error {
	for _, dir := range []string{l.ImagesDir(), l.JSONDir(), l.CSVDir()} {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}
