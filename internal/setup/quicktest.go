package setup

import (
	"context"
	"errors"
	"fmt"

	"github.com/book-expert/marathi-tts/internal/config"
	"github.com/book-expert/marathi-tts/internal/core"
	"github.com/book-expert/marathi-tts/internal/tts"
	"github.com/book-expert/marathi-tts/internal/tts/audio"
)

const quickTestCandidates = 1

var errNoEngine = errors.New("no engine configured")

func (v *Verifier) quickTest(ctx context.Context) ([]string, error) {
	var details []string

	if v.deps.Engine == nil {
		return details, errNoEngine
	}

	healthErr := tts.CheckHealth(ctx, v.deps.Engine)
	if healthErr != nil {
		return details, healthErr
	}

	details = append(details, "Tortoise engine is reachable")

	voiceName := v.cfg.Voices.Default
	v.printLine(fmt.Sprintf("Attempting to load %s voice...", voiceName))

	samples, latents, err := v.voices.Load(voiceName)
	if err != nil {
		return details, fmt.Errorf("error loading voice: %w", err)
	}

	details = append(details, fmt.Sprintf("Successfully loaded %d voice samples", len(samples)))

	candidates, err := v.deps.Engine.Synthesize(ctx, core.SynthesisRequest{
		Text:       v.preprocessor.PreprocessText(v.cfg.Setup.QuickTestText),
		Voice:      voiceName,
		Samples:    samples,
		Latents:    latents,
		Preset:     config.PresetUltraFast,
		Candidates: quickTestCandidates,
	})
	if err != nil {
		return details, fmt.Errorf("trial synthesis failed: %w", err)
	}

	if len(candidates) == 0 {
		return details, tts.ErrNoCandidates
	}

	clip, err := audio.Decode(candidates[0].WAV)
	if err != nil {
		return details, fmt.Errorf("trial synthesis returned unreadable audio: %w", err)
	}

	details = append(details, fmt.Sprintf("Trial synthesis produced %s of audio at %d Hz",
		clip.Duration(), clip.SampleRate))

	return details, nil
}
