package dataset

import (
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// DefaultImageExtensions lists the extensions recognised when no explicit set
// is configured.
var DefaultImageExtensions = []string{".jpg", ".jpeg", ".png"}

// LookupExtensions is the priority order used to find the image file backing
// a stem. The first three entries keep the historical lookup order.
var LookupExtensions = []string{".jpg", ".JPG", ".png", ".PNG", ".jpeg", ".JPEG", ".webp"}

// ExtensionSet builds a case-insensitive extension matcher.
func ExtensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}

// HasImageExtension reports whether name carries one of exts, ignoring case.
func HasImageExtension(name string, exts map[string]struct{}) bool {
	_, ok := exts[strings.ToLower(Ext(name))]
	return ok
}

// ListImageFiles returns the names of regular files in dir whose extension is
// in exts, sorted by name. A missing directory yields an empty list.
func ListImageFiles(fsys afero.Fs, dir string, exts []string) ([]string, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	set := ExtensionSet(exts)
	var names []string
	for _, entry := range entries {
		if !entry.Mode().IsRegular() {
			continue
		}
		if HasImageExtension(entry.Name(), set) {
			names = append(names, entry.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// ListImageStems returns the distinct stems of the image files in dir.
func ListImageStems(fsys afero.Fs, dir string, exts []string) ([]string, error) {
	names, err := ListImageFiles(fsys, dir, exts)
	if err != nil {
		return nil, err
	}
	stems := make([]string, 0, len(names))
	for _, name := range names {
		stems = append(stems, Stem(name))
	}
	slices.Sort(stems)
	return slices.Compact(stems), nil
}

// FindImage returns the path of the image for stem in dir, or "" when none
// exists. Exact LookupExtensions suffixes are tried in order first; after that
// any file named stem with a lookup extension in another case (".Jpg") matches,
// taking the first by name.
func FindImage(fsys afero.Fs, dir, stem string) (string, error) {
	for _, ext := range LookupExtensions {
		candidate := filepath.Join(dir, stem+ext)
		info, err := fsys.Stat(candidate)
		if err == nil {
			if info.Mode().IsRegular() {
				return candidate, nil
			}
			continue
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
	}
	names, err := ListImageFiles(fsys, dir, LookupExtensions)
	if err != nil {
		return "", err
	}
	for _, name := range names {
		if Stem(name) == stem {
			return filepath.Join(dir, name), nil
		}
	}
	return "", nil
}

// ProbeSize decodes only the image header and returns width and height.
func ProbeSize(fsys afero.Fs, path string) (int, int, error) {
	file, err := fsys.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()
	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("decode image header %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}
