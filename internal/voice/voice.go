// Package voice locates and loads voice sample sets: directories of reference
// WAV recordings named after the voice, as consumed by the Tortoise engine.
package voice

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/book-expert/marathi-tts/internal/core"
	"github.com/book-expert/marathi-tts/internal/tts/ttsutils"
)

const latentsExt = ".pth"

// Static errors.
var (
	ErrNameEmpty        = errors.New("voice name cannot be empty")
	ErrInvalidName      = errors.New("voice name must be a single path element")
	ErrMissingDirectory = errors.New("voice directory not found")
	ErrNoSamples        = errors.New("no WAV files found in voice directory")
)

// SampleSet describes a voice sample set found on disk.
type SampleSet struct {
	Name    string
	Dir     string
	Samples []ttsutils.WAVFile
	// LatentsPath points at cached conditioning latents, if the engine left any.
	LatentsPath string
}

// TotalSize returns the combined size of all samples in bytes.
func (s *SampleSet) TotalSize() int64 {
	var total int64
	for _, sample := range s.Samples {
		total += sample.Size
	}

	return total
}

// Library resolves voice names below a root directory.
type Library struct {
	root string
}

// NewLibrary creates a library rooted at dir (e.g. "tortoise/voices").
func NewLibrary(dir string) *Library {
	return &Library{root: dir}
}

// Root returns the directory holding all voices.
func (l *Library) Root() string {
	return l.root
}

// Path returns the directory of the named voice.
func (l *Library) Path(name string) string {
	return filepath.Join(l.root, name)
}

// Inspect checks the voice directory and lists its samples without reading them.
// It fails with ErrMissingDirectory or ErrNoSamples.
func (l *Library) Inspect(name string) (*SampleSet, error) {
	nameErr := validateName(name)
	if nameErr != nil {
		return nil, nameErr
	}

	dir := l.Path(name)

	info, statErr := os.Stat(dir)
	if statErr != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrMissingDirectory, dir)
	}

	samples, err := ttsutils.ListWAVFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list voice samples: %w", err)
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSamples, dir)
	}

	latents, err := findLatents(dir)
	if err != nil {
		return nil, err
	}

	return &SampleSet{
		Name:        name,
		Dir:         dir,
		Samples:     samples,
		LatentsPath: latents,
	}, nil
}

// Load inspects the voice and reads every sample and the cached latents.
func (l *Library) Load(name string) ([]core.VoiceSample, []byte, error) {
	set, err := l.Inspect(name)
	if err != nil {
		return nil, nil, err
	}

	samples := make([]core.VoiceSample, 0, len(set.Samples))

	for _, file := range set.Samples {
		// #nosec G304 -- files listed from the configured voice directory
		data, readErr := os.ReadFile(file.Path)
		if readErr != nil {
			return nil, nil, fmt.Errorf("failed to read voice sample %s: %w", file.Path, readErr)
		}

		samples = append(samples, core.VoiceSample{Name: file.Name, Data: data})
	}

	var latents []byte

	if set.LatentsPath != "" {
		// #nosec G304 -- file listed from the configured voice directory
		latents, err = os.ReadFile(set.LatentsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read conditioning latents %s: %w", set.LatentsPath, err)
		}
	}

	return samples, latents, nil
}

func validateName(name string) error {
	if name == "" {
		return ErrNameEmpty
	}

	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return nil
}

func findLatents(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read voice directory %s: %w", dir, err)
	}

	var names []string

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), latentsExt) {
			names = append(names, entry.Name())
		}
	}

	if len(names) == 0 {
		return "", nil
	}

	sort.Strings(names)

	return filepath.Join(dir, names[0]), nil
}
