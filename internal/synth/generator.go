// Package synth turns Marathi text into WAV files through a core.Synthesizer.
//
// A Generator owns the single-text, batch and demonstration flows. It checks
// inputs, loads the voice sample set, calls the engine once per text and lays
// the returned candidates out on disk at core.SampleRate. Progress lines are
// written to the configured io.Writer; diagnostics go to the logger.
package synth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/book-expert/logger"
	"github.com/book-expert/marathi-tts/internal/config"
	"github.com/book-expert/marathi-tts/internal/core"
	"github.com/book-expert/marathi-tts/internal/tts/audio"
	"github.com/book-expert/marathi-tts/internal/tts/text"
	"github.com/book-expert/marathi-tts/internal/tts/ttsutils"
	"github.com/book-expert/marathi-tts/internal/voice"
)

// Output file names.
const (
	singleOutputName    = "output.wav"
	candidateOutputName = "output_%d.wav"
)

// Progress lines.
const (
	msgLoadingEngine  = "Loading Tortoise TTS engine..."
	msgFmtLoadVoice   = "Loading voice samples for: %s\n"
	msgFmtGenerating  = "Generating speech with preset: %s\n"
	msgFmtText        = "Text: %s\n"
	msgFmtSaved       = "Saved: %s\n"
	msgGenerationDone = "✓ Speech generation complete!"
)

// Log formats.
const (
	logFmtOutputDirCreated = "Created output directory %s"
	logFmtSynthesizing     = "Synthesizing %d rune(s) with voice %s, preset %s, %d candidate(s)"
	logFmtCandidates       = "Engine returned %d candidate(s)"
	logFmtWritten          = "Wrote %s (%d Hz, %d channel(s), %s)"
)

// Static errors.
var (
	ErrEmptyText    = errors.New("text is empty after normalization")
	ErrOutputDir    = errors.New("output directory cannot be empty")
	ErrNoCandidates = errors.New("engine returned no audio")
)

// Request describes one generation.
type Request struct {
	Text       string
	Voice      string
	Preset     string
	OutputDir  string
	Candidates int
}

// Result lists the files written by one generation.
type Result struct {
	Files []string
	// Primary is the last file written.
	Primary string
}

// Generator drives the engine and writes its output.
type Generator struct {
	engine       core.Synthesizer
	voices       *voice.Library
	preprocessor *text.Preprocessor
	out          io.Writer
	log          *logger.Logger
}

// loadedVoice is a voice sample set read into memory.
type loadedVoice struct {
	name    string
	samples []core.VoiceSample
	latents []byte
}

// NewGenerator creates a Generator. Progress lines go to out.
func NewGenerator(engine core.Synthesizer, voices *voice.Library, out io.Writer, log *logger.Logger) *Generator {
	return &Generator{
		engine:       engine,
		voices:       voices,
		preprocessor: text.NewPreprocessor(),
		out:          out,
		log:          log,
	}
}

// Generate synthesizes req.Text and writes output.wav, or output_<i>.wav for
// each of several candidates, into req.OutputDir. Candidates defaults to
// config.DefaultCandidates.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	normalized, err := g.prepare(req.Text, req.Preset, req.OutputDir)
	if err != nil {
		return nil, err
	}

	candidates := req.Candidates
	if candidates < 1 {
		candidates = config.DefaultCandidates
	}

	createErr := g.ensureOutputDir(req.OutputDir)
	if createErr != nil {
		return nil, createErr
	}

	g.println(msgLoadingEngine)

	loaded, err := g.loadVoice(req.Voice)
	if err != nil {
		return nil, err
	}

	clips, err := g.synthesize(ctx, loaded, normalized, req.Preset, candidates)
	if err != nil {
		return nil, err
	}

	result := &Result{Files: make([]string, 0, len(clips))}

	for index, clip := range clips {
		name := singleOutputName
		if len(clips) > 1 {
			name = fmt.Sprintf(candidateOutputName, index)
		}

		path := filepath.Join(req.OutputDir, name)

		writeErr := g.writeClip(path, clip)
		if writeErr != nil {
			return result, writeErr
		}

		result.Files = append(result.Files, path)
		result.Primary = path
	}

	g.println(msgGenerationDone)

	return result, nil
}

// prepare validates the inputs shared by every flow and returns the
// normalized text.
func (g *Generator) prepare(rawText, preset, outputDir string) (string, error) {
	encodingErr := g.preprocessor.Validate(rawText)
	if encodingErr != nil {
		return "", encodingErr
	}

	normalized := g.preprocessor.PreprocessText(rawText)
	if normalized == "" {
		return "", ErrEmptyText
	}

	presetErr := config.ValidatePreset(preset)
	if presetErr != nil {
		return "", presetErr
	}

	if outputDir == "" {
		return "", ErrOutputDir
	}

	return normalized, nil
}

func (g *Generator) ensureOutputDir(dir string) error {
	created, err := ttsutils.EnsureDir(dir)
	if err != nil {
		return fmt.Errorf("failed to prepare output directory: %w", err)
	}

	if created {
		g.log.Info(logFmtOutputDirCreated, dir)
	}

	return nil
}

func (g *Generator) loadVoice(name string) (*loadedVoice, error) {
	g.printf(msgFmtLoadVoice, name)

	samples, latents, err := g.voices.Load(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load voice %q: %w", name, err)
	}

	return &loadedVoice{name: name, samples: samples, latents: latents}, nil
}

// synthesize makes exactly one engine call and decodes every candidate.
func (g *Generator) synthesize(
	ctx context.Context,
	loaded *loadedVoice,
	normalized, preset string,
	candidates int,
) ([]*audio.Clip, error) {
	g.printf(msgFmtGenerating, preset)
	g.printf(msgFmtText, normalized)

	g.log.Info(logFmtSynthesizing, len([]rune(normalized)), loaded.name, preset, candidates)

	generated, err := g.engine.Synthesize(ctx, core.SynthesisRequest{
		Text:       normalized,
		Voice:      loaded.name,
		Samples:    loaded.samples,
		Latents:    loaded.latents,
		Preset:     preset,
		Candidates: candidates,
	})
	if err != nil {
		return nil, fmt.Errorf("speech generation failed: %w", err)
	}

	if len(generated) == 0 {
		return nil, ErrNoCandidates
	}

	g.log.Info(logFmtCandidates, len(generated))

	clips := make([]*audio.Clip, 0, len(generated))

	for index, candidate := range generated {
		clip, decodeErr := audio.Decode(candidate.WAV)
		if decodeErr != nil {
			return nil, fmt.Errorf("candidate %d: %w", index, decodeErr)
		}

		clips = append(clips, clip)
	}

	return clips, nil
}

func (g *Generator) writeClip(path string, clip *audio.Clip) error {
	err := audio.WriteFile(path, clip)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	g.printf(msgFmtSaved, path)
	g.log.Info(logFmtWritten, path, audio.TARGET_SAMPLE_RATE, clip.Channels,
		ttsutils.FormatDuration(clip.Duration().Seconds()))

	return nil
}

func (g *Generator) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(g.out, format, args...)
}

func (g *Generator) println(line string) {
	_, _ = fmt.Fprintln(g.out, line)
}
