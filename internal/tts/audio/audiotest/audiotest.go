// Package audiotest builds WAV fixtures for tests.
package audiotest

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/book-expert/marathi-tts/internal/tts/audio"
)

// Tone returns a mono sine tone of the given length at sampleRate.
func Tone(seconds float64, sampleRate int) *audio.Clip {
	frames := int(seconds * float64(sampleRate))
	samples := make([]int, frames)

	for i := range samples {
		samples[i] = int(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}

	return audio.NewClip(samples, sampleRate, 1)
}

// WAV encodes a tone as WAV bytes. The file is written at the module's
// target sample rate, so sampleRate only affects the tone length.
func WAV(tb testing.TB, seconds float64, sampleRate int) []byte {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "fixture.wav")

	err := audio.WriteFile(path, Tone(seconds, sampleRate))
	if err != nil {
		tb.Fatalf("Failed to write WAV fixture: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("Failed to read WAV fixture: %v", err)
	}

	return data
}

// NativeWAV encodes a tone at sampleRate without resampling, as an engine
// running at another rate would deliver it.
func NativeWAV(tb testing.TB, seconds float64, sampleRate int) []byte {
	tb.Helper()

	clip := Tone(seconds, sampleRate)
	path := filepath.Join(tb.TempDir(), "native.wav")

	file, err := os.Create(path)
	if err != nil {
		tb.Fatalf("Failed to create WAV fixture: %v", err)
	}

	encoder := wav.NewEncoder(file, sampleRate, 16, 1, 1)

	err = encoder.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           clip.Samples,
		SourceBitDepth: 16,
	})
	if err != nil {
		tb.Fatalf("Failed to encode WAV fixture: %v", err)
	}

	err = encoder.Close()
	if err != nil {
		tb.Fatalf("Failed to finalize WAV fixture: %v", err)
	}

	err = file.Close()
	if err != nil {
		tb.Fatalf("Failed to close WAV fixture: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		tb.Fatalf("Failed to read WAV fixture: %v", err)
	}

	return data
}
