// Package ttsutils provides file and path utility functions for the marathi-tts tools.
//
// It covers directory creation, WAV discovery in voice and output folders, and
// formatting of sizes and durations for console output.
package ttsutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Common path constants.
const (
	defaultDirPermissions  = 0o750
	invalidCharReplacement = "_"
	extWAV                 = ".wav"
)

// Data size constants.
const (
	byteUnit = 1
	kilobyte = byteUnit * 1024
	megabyte = kilobyte * 1024
	gigabyte = megabyte * 1024
)

// Time and size formatting constants.
const (
	secondsInMinute = 60
	secondsInHour   = 3600
	formatSeconds   = "%.1fs"
	formatMinutes   = "%dm %.1fs"
	formatHours     = "%dh %dm"
	formatGB        = "%.1f GB"
	formatMB        = "%.2f MB"
	formatKB        = "%.1f KB"
	formatBytes     = "%d B"
)

// Error message and format string constants.
const (
	errFmtFailedToCreateDir           = "failed to create directory %s: %w"
	errFmtCouldNotResolveAbsolutePath = "could not resolve absolute path for %q: %w"
	errFmtErrorCheckingPath           = "error checking path %q: %w"
	errFmtFailedToReadDir             = "failed to read directory %s: %w"
	errFmtPathNotFound                = "%w: %s"
	errFmtNotADirectory               = "%w: %s"
)

// Static errors.
var (
	ErrPathNotFound = errors.New("path not found")
	ErrNotADir      = errors.New("not a directory")
)

// WAVFile describes a WAV file found on disk.
type WAVFile struct {
	Name string
	Path string
	Size int64
}

// EnsureDir creates the directory at path if it does not exist. It reports
// whether the directory was created; an existing directory is never modified.
func EnsureDir(path string) (bool, error) {
	info, statErr := os.Stat(path)
	if statErr == nil {
		if !info.IsDir() {
			return false, fmt.Errorf(errFmtNotADirectory, ErrNotADir, path)
		}

		return false, nil
	}

	if !os.IsNotExist(statErr) {
		return false, fmt.Errorf(errFmtErrorCheckingPath, path, statErr)
	}

	mkdirErr := os.MkdirAll(path, defaultDirPermissions)
	if mkdirErr != nil {
		return false, fmt.Errorf(errFmtFailedToCreateDir, path, mkdirErr)
	}

	return true, nil
}

// IsWAVFile reports whether filename carries the ".wav" suffix.
func IsWAVFile(filename string) bool {
	return strings.HasSuffix(filename, extWAV)
}

// ListWAVFiles returns the regular ".wav" files directly inside dir, sorted by name.
func ListWAVFiles(dir string) ([]WAVFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf(errFmtFailedToReadDir, dir, err)
	}

	files := make([]WAVFile, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !IsWAVFile(entry.Name()) {
			continue
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			return nil, fmt.Errorf(errFmtErrorCheckingPath, entry.Name(), infoErr)
		}

		files = append(files, WAVFile{
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
			Size: info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	return files, nil
}

// resolveSinglePath checks if a file exists at a given path.
// If it exists, it returns the absolute path and found=true.
// If it doesn't exist, it returns found=false and no error.
func resolveSinglePath(path string) (resolvedPath string, found bool, err error) {
	_, statErr := os.Stat(path)
	if statErr == nil {
		absPath, errAbs := filepath.Abs(path)
		if errAbs != nil {
			return "", false, fmt.Errorf(errFmtCouldNotResolveAbsolutePath, path, errAbs)
		}

		return absPath, true, nil
	} else if !os.IsNotExist(statErr) {
		return "", false, fmt.Errorf(errFmtErrorCheckingPath, path, statErr)
	}

	return "", false, nil
}

// ResolvePath returns the absolute path of name, looking first at name itself
// and then inside each of searchDirs in order.
func ResolvePath(name string, searchDirs ...string) (string, error) {
	candidatePaths := []string{name}
	for _, dir := range searchDirs {
		candidatePaths = append(candidatePaths, filepath.Join(dir, name))
	}

	for _, path := range candidatePaths {
		resolvedPath, found, err := resolveSinglePath(path)
		if err != nil {
			return "", err
		} else if found {
			return resolvedPath, nil
		}
	}

	return "", fmt.Errorf(errFmtPathNotFound, ErrPathNotFound, name)
}

// FormatDuration formats a duration in a human-readable string (e.g., "1h 15m", "5m
// 30.5s", "45.2s").
func FormatDuration(seconds float64) string {
	if seconds < secondsInMinute {
		return fmt.Sprintf(formatSeconds, seconds)
	}

	if seconds < secondsInHour {
		minutes := int(seconds / secondsInMinute)
		remainingSeconds := seconds - float64(minutes*secondsInMinute)

		return fmt.Sprintf(formatMinutes, minutes, remainingSeconds)
	}

	hours := int(seconds / secondsInHour)
	remainingSeconds := seconds - float64(hours*secondsInHour)
	remainingMinutes := int(remainingSeconds / secondsInMinute)

	return fmt.Sprintf(formatHours, hours, remainingMinutes)
}

// FormatFileSize formats a file size in a human-readable string (e.g., "1.2 GB",
// "0.50 MB").
func FormatFileSize(bytes int64) string {
	switch {
	case bytes >= gigabyte:
		return fmt.Sprintf(formatGB, float64(bytes)/gigabyte)
	case bytes >= megabyte:
		return fmt.Sprintf(formatMB, float64(bytes)/megabyte)
	case bytes >= kilobyte:
		return fmt.Sprintf(formatKB, float64(bytes)/kilobyte)
	default:
		return fmt.Sprintf(formatBytes, bytes)
	}
}

// SanitizeFilename replaces characters that are invalid in most filesystems.
func SanitizeFilename(filename string) string {
	replacer := strings.NewReplacer(
		"<", invalidCharReplacement,
		">", invalidCharReplacement,
		":", invalidCharReplacement,
		"\"", invalidCharReplacement,
		"/", invalidCharReplacement,
		"\\", invalidCharReplacement,
		"|", invalidCharReplacement,
		"?", invalidCharReplacement,
		"*", invalidCharReplacement,
	)

	return replacer.Replace(filename)
}
