package dataset

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"cocoprep/internal/fileutil"
)

// Standard split names.
const (
	SplitTrain = "train"
	SplitVal   = "val"
	SplitTest  = "test"
	SplitAll   = "all"
)

// ReadSplitList reads one entry per line, trimming whitespace and dropping
// blank lines. A missing file returns (nil, false, nil).
func ReadSplitList(fsys afero.Fs, path string) ([]string, bool, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read split list %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, true, nil
}

// WriteSplitList writes entries one per line, overwriting path.
func WriteSplitList(fsys afero.Fs, path string, entries []string) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create sets directory: %w", err)
	}
	var buf bytes.Buffer
	for _, entry := range entries {
		buf.WriteString(entry)
		buf.WriteByte('\n')
	}
	if err := fileutil.WriteFileAtomic(fsys, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write split list %s: %w", path, err)
	}
	return nil
}
