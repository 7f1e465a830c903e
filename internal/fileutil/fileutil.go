// Package fileutil provides copy and write helpers over an afero filesystem.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// CopyFile streams src to dst with default permissions (0o644) and carries the
// source modification time over to dst.
func CopyFile(fsys afero.Fs, src, dst string) error {
	return CopyFileMode(fsys, src, dst, 0o644)
}

// CopyFileMode streams src to dst, setting the given file mode on dst. dst is
// closed before its modification time is set, since closing a written file
// stamps the current time on some filesystems.
func CopyFileMode(fsys afero.Fs, src, dst string, mode os.FileMode) error {
	if err := copyContents(fsys, src, dst, mode); err != nil {
		return err
	}
	return preserveModTime(fsys, src, dst)
}

func copyContents(fsys afero.Fs, src, dst string, mode os.FileMode) error {
	in, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fsys.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// CopyFileVerified copies src to dst and then re-reads dst, comparing size
// and SHA-256 with the source. A mismatching dst is removed.
func CopyFileVerified(fsys afero.Fs, src, dst string) error {
	want, wantSize, err := digest(fsys, src)
	if err != nil {
		return fmt.Errorf("hash source: %w", err)
	}
	if err := CopyFile(fsys, src, dst); err != nil {
		return err
	}
	got, gotSize, err := digest(fsys, dst)
	if err != nil {
		return fmt.Errorf("hash copy: %w", err)
	}
	switch {
	case gotSize != wantSize:
		_ = fsys.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", wantSize, gotSize)
	case !bytes.Equal(got, want):
		_ = fsys.Remove(dst)
		return fmt.Errorf("copy hash mismatch for %s", dst)
	}
	return nil
}

func digest(fsys afero.Fs, path string) ([]byte, int64, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return nil, 0, err
	}
	return h.Sum(nil), n, nil
}

// WriteFileAtomic writes data to a temporary sibling and renames it over path,
// so readers never observe a half-written file.
func WriteFileAtomic(fsys afero.Fs, path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := afero.TempFile(fsys, dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = fsys.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = fsys.Remove(tmpName)
		return err
	}
	if err := fsys.Chmod(tmpName, mode); err != nil {
		_ = fsys.Remove(tmpName)
		return err
	}
	if err := fsys.Rename(tmpName, path); err != nil {
		_ = fsys.Remove(tmpName)
		return err
	}
	return nil
}

// Exists reports whether path exists as a regular file.
func Exists(fsys afero.Fs, path string) (bool, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func preserveModTime(fsys afero.Fs, src, dst string) error {
	info, err := fsys.Stat(src)
	if err != nil {
		return err
	}
	return fsys.Chtimes(dst, info.ModTime(), info.ModTime())
}
