package ttsutils_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/marathi-tts/internal/tts/ttsutils"
)

// writeTestFile creates a file with the given size inside dir.
func writeTestFile(t *testing.T, dir, name string, size int) {
	t.Helper()

	err := os.MkdirAll(dir, 0o750)
	if err != nil {
		t.Fatalf("Failed to create test directory %q: %v", dir, err)
	}

	err = os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0o600)
	if err != nil {
		t.Fatalf("Failed to create test file in %q: %v", dir, err)
	}
}

// TestEnsureDir verifies that a directory is created only when it doesn't exist.
func TestEnsureDir(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	testPath := filepath.Join(tempDir, "new", "dir")

	created, err := ttsutils.EnsureDir(testPath)
	if err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}

	if !created {
		t.Error("Expected EnsureDir to report creation of a new directory")
	}

	_, err = os.Stat(testPath)
	if os.IsNotExist(err) {
		t.Errorf("Directory %q was not created", testPath)
	}

	created, err = ttsutils.EnsureDir(testPath)
	if err != nil {
		t.Errorf("EnsureDir failed on existing directory: %v", err)
	}

	if created {
		t.Error("Expected EnsureDir to leave an existing directory alone")
	}
}

func TestEnsureDir_PreservesContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestFile(t, dir, "keep.wav", 10)

	_, err := ttsutils.EnsureDir(dir)
	if err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}

	_, err = os.Stat(filepath.Join(dir, "keep.wav"))
	if err != nil {
		t.Errorf("Existing file was removed: %v", err)
	}
}

func TestEnsureDir_FileInTheWay(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestFile(t, dir, "occupied", 1)

	_, err := ttsutils.EnsureDir(filepath.Join(dir, "occupied"))
	if !errors.Is(err, ttsutils.ErrNotADir) {
		t.Errorf("Expected ErrNotADir, got %v", err)
	}
}

func TestListWAVFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestFile(t, dir, "b.wav", 20)
	writeTestFile(t, dir, "a.wav", 10)
	writeTestFile(t, dir, "notes.txt", 5)
	writeTestFile(t, dir, "upper.WAV", 5)
	writeTestFile(t, filepath.Join(dir, "nested.wav"), "inner.wav", 5)

	files, err := ttsutils.ListWAVFiles(dir)
	if err != nil {
		t.Fatalf("ListWAVFiles failed: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("Expected 2 WAV files, got %d: %+v", len(files), files)
	}

	if files[0].Name != "a.wav" || files[1].Name != "b.wav" {
		t.Errorf("Expected sorted names, got %q and %q", files[0].Name, files[1].Name)
	}

	if files[0].Size != 10 {
		t.Errorf("Expected size 10, got %d", files[0].Size)
	}
}

func TestListWAVFiles_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := ttsutils.ListWAVFiles(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("Expected an error for a missing directory")
	}
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "tortoise"), "do_tts.py", 1)

	path, err := ttsutils.ResolvePath("do_tts.py", filepath.Join(dir, "tortoise"))
	if err != nil {
		t.Fatalf("Expected to find script, got error: %v", err)
	}

	if path != filepath.Join(dir, "tortoise", "do_tts.py") {
		t.Errorf("Unexpected resolved path %q", path)
	}
}

func TestResolvePath_NotFound(t *testing.T) {
	t.Parallel()

	_, err := ttsutils.ResolvePath("non_existent_script.py", t.TempDir())
	if !errors.Is(err, ttsutils.ErrPathNotFound) {
		t.Errorf("Expected ErrPathNotFound, but got %v", err)
	}
}

// TestFormatDuration verifies duration formatting logic.
func TestFormatDuration(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		expected string
		seconds  float64
	}{
		{name: "less than a minute", seconds: 30.5, expected: "30.5s"},
		{name: "exactly a minute", seconds: 60, expected: "1m 0.0s"},
		{name: "less than an hour", seconds: 90.5, expected: "1m 30.5s"},
		{name: "exactly an hour", seconds: 3600, expected: "1h 0m"},
		{name: "more than an hour", seconds: 3670, expected: "1h 1m"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			result := ttsutils.FormatDuration(testCase.seconds)
			if result != testCase.expected {
				t.Errorf("Expected %q, got %q", testCase.expected, result)
			}
		})
	}
}

// TestFormatFileSize verifies file size formatting logic.
func TestFormatFileSize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		expected string
		bytes    int64
	}{
		{name: "bytes", bytes: 500, expected: "500 B"},
		{name: "kilobytes", bytes: 2048, expected: "2.0 KB"},
		{name: "megabytes", bytes: 1572864, expected: "1.50 MB"},
		{name: "gigabytes", bytes: 2147483648, expected: "2.0 GB"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			result := ttsutils.FormatFileSize(testCase.bytes)
			if result != testCase.expected {
				t.Errorf("Expected %q, got %q", testCase.expected, result)
			}
		})
	}
}

func TestIsWAVFile(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		filename string
		isValid  bool
	}{
		{"sample.wav", true},
		{"sample.WAV", false},
		{"sample.wav.bak", false},
		{"sample.mp3", false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.filename, func(t *testing.T) {
			t.Parallel()

			if result := ttsutils.IsWAVFile(testCase.filename); result != testCase.isValid {
				t.Errorf("IsWAVFile(%q) = %v; want %v", testCase.filename, result, testCase.isValid)
			}
		})
	}
}

// TestSanitizeFilename verifies that invalid characters are removed.
func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"no changes", "mom_marathi", "mom_marathi"},
		{"replaces invalid chars", "in<va>l:id\"/\\|?*name", "in_va_l_id_______name"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			result := ttsutils.SanitizeFilename(testCase.input)
			if result != testCase.expected {
				t.Errorf("Expected sanitized filename %q, got %q", testCase.expected, result)
			}
		})
	}
}
