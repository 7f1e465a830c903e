package preflight

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cocoprep/internal/config"
	"cocoprep/internal/services"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDirectoryCreatable(t *testing.T) {
	base := t.TempDir()
	if r := CheckDirectoryCreatable("out", filepath.Join(base, "a", "b")); !r.Passed {
		t.Fatalf("expected creatable, got %s", r.Detail)
	}
	f := filepath.Join(base, "file")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckDirectoryCreatable("out", filepath.Join(f, "sub")); r.Passed {
		t.Fatal("expected failure below a regular file")
	}
}

func TestRunAllConvert(t *testing.T) {
	cfg := config.Default()
	if err := cfg.SetRoot(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	results := RunAll(&cfg, JobConvert)
	if len(results) != 3 {
		t.Fatalf("expected root, export and state checks, got %+v", results)
	}
	if err := Failures(JobConvert, results); err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
}

func TestRunAllReorganizeMissingSourcesAreOptional(t *testing.T) {
	cfg := config.Default()
	if err := cfg.SetRoot(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	results := RunAll(&cfg, JobReorganize)
	optional := 0
	for _, r := range results {
		if r.Optional {
			optional++
			if r.Passed {
				t.Fatalf("missing source reported as passed: %+v", r)
			}
		}
	}
	if optional != len(cfg.Sources)+1 {
		t.Fatalf("expected %d optional checks, got %d", len(cfg.Sources)+1, optional)
	}
	if err := Failures(JobReorganize, results); err != nil {
		t.Fatalf("optional failures must not fail the job: %v", err)
	}
}

func TestFailuresMarksConfiguration(t *testing.T) {
	cfg := config.Default()
	if err := cfg.SetRoot(filepath.Join(t.TempDir(), "missing")); err != nil {
		t.Fatal(err)
	}
	err := Failures(JobFixSplits, RunAll(&cfg, JobFixSplits))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
