// Package audio decodes engine output, resamples it and writes the 24 kHz WAV
// files produced by the marathi-tts tools.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/book-expert/marathi-tts/internal/core"
)

// Output format of every file written by this package.
const (
	TARGET_SAMPLE_RATE = core.SampleRate
	TARGET_BIT_DEPTH   = 16
)

// Constants for quality validation limits.
const (
	MAX_SAMPLE_RATE = 192000
	MAX_CHANNELS    = 8
)

// WAV audio format codes.
const (
	WAV_FORMAT_PCM   = 1
	WAV_FORMAT_FLOAT = 3
)

const (
	filePermissions = 0o600
	int16Max        = math.MaxInt16
	int16Min        = math.MinInt16
)

// Constants for error messages and formats.
const (
	ERR_FMT_SAMPLE_RATE_RANGE = "%w: sample rate must be between 1 and %d Hz, got %d"
	ERR_FMT_CHANNELS_RANGE    = "%w: channels must be between 1 and %d, got %d"
	ERR_FMT_BIT_DEPTH_VALUES  = "%w: bit depth must be 8, 16, 24, or 32, got %d"
)

// Common errors for the audio package.
var (
	ErrInvalidWAV     = errors.New("invalid WAV data")
	ErrEmptyAudio     = errors.New("audio contains no samples")
	ErrInvalidQuality = errors.New("invalid audio format")
)

// Clip is decoded PCM audio with interleaved channels, normalized to 16-bit.
type Clip struct {
	Samples    []int
	SampleRate int
	Channels   int
}

// Info describes a WAV file written to disk.
type Info struct {
	Path       string
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int
	Duration   time.Duration
	FileSize   int64
}

// NewClip builds a clip from interleaved 16-bit samples.
func NewClip(samples []int, sampleRate, channels int) *Clip {
	return &Clip{Samples: samples, SampleRate: sampleRate, Channels: channels}
}

// Frames returns the number of sample frames in the clip.
func (c *Clip) Frames() int {
	if c.Channels == 0 {
		return 0
	}

	return len(c.Samples) / c.Channels
}

// Duration returns the playback length of the clip.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}

	return time.Duration(c.Frames()) * time.Second / time.Duration(c.SampleRate)
}

// Validate checks that the clip format is within reasonable bounds.
func (c *Clip) Validate() error {
	rateErr := validateSampleRate(c.SampleRate)
	if rateErr != nil {
		return rateErr
	}

	channelsErr := validateChannels(c.Channels)
	if channelsErr != nil {
		return channelsErr
	}

	if c.Frames() == 0 {
		return ErrEmptyAudio
	}

	return nil
}

// Decode parses WAV bytes produced by the engine into a 16-bit clip.
// Integer PCM of 8/16/24/32 bits and 32-bit IEEE float are accepted.
func Decode(data []byte) (*Clip, error) {
	probe := wav.NewDecoder(bytes.NewReader(data))
	if !probe.IsValidFile() {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidWAV, len(data))
	}

	bitDepth := int(probe.BitDepth)

	depthErr := validateBitDepth(bitDepth)
	if depthErr != nil {
		return nil, depthErr
	}

	isFloat := probe.WavAudioFormat == WAV_FORMAT_FLOAT

	decoder := wav.NewDecoder(bytes.NewReader(data))

	buffer, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
	}

	samples := make([]int, len(buffer.Data))
	for i, value := range buffer.Data {
		samples[i] = toInt16(value, bitDepth, isFloat)
	}

	clip := NewClip(samples, buffer.Format.SampleRate, buffer.Format.NumChannels)

	validateErr := clip.Validate()
	if validateErr != nil {
		return nil, validateErr
	}

	return clip, nil
}

// Resample converts the clip to rate using linear interpolation per channel.
// A clip already at rate is returned unchanged.
func Resample(clip *Clip, rate int) *Clip {
	if clip.SampleRate == rate || clip.Frames() == 0 {
		return clip
	}

	inFrames := clip.Frames()
	ratio := float64(clip.SampleRate) / float64(rate)

	outFrames := int(float64(inFrames) / ratio)
	if outFrames < 1 {
		outFrames = 1
	}

	out := make([]int, outFrames*clip.Channels)

	for frame := range outFrames {
		pos := float64(frame) * ratio
		before := int(pos)

		if before >= inFrames {
			before = inFrames - 1
		}

		after := before + 1
		if after >= inFrames {
			after = inFrames - 1
		}

		frac := pos - float64(before)

		for channel := range clip.Channels {
			a := float64(clip.Samples[before*clip.Channels+channel])
			b := float64(clip.Samples[after*clip.Channels+channel])
			out[frame*clip.Channels+channel] = int(math.Round((1-frac)*a + frac*b))
		}
	}

	return NewClip(out, rate, clip.Channels)
}

// WriteFile encodes the clip as a 16-bit PCM WAV at TARGET_SAMPLE_RATE,
// resampling when needed.
func WriteFile(path string, clip *Clip) (err error) {
	validateErr := clip.Validate()
	if validateErr != nil {
		return validateErr
	}

	clip = Resample(clip, TARGET_SAMPLE_RATE)

	// #nosec G304 -- path is built by the generator from configured directories
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to create audio file %s: %w", path, err)
	}

	defer func() {
		closeErr := file.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close audio file %s: %w", path, closeErr)
		}
	}()

	encoder := wav.NewEncoder(file, clip.SampleRate, TARGET_BIT_DEPTH, clip.Channels, WAV_FORMAT_PCM)

	buffer := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: clip.Channels,
			SampleRate:  clip.SampleRate,
		},
		Data:           clip.Samples,
		SourceBitDepth: TARGET_BIT_DEPTH,
	}

	writeErr := encoder.Write(buffer)
	if writeErr != nil {
		return fmt.Errorf("failed to encode audio file %s: %w", path, writeErr)
	}

	encodeCloseErr := encoder.Close()
	if encodeCloseErr != nil {
		return fmt.Errorf("failed to finalize audio file %s: %w", path, encodeCloseErr)
	}

	return nil
}

// Inspect reads back a WAV file and reports its format and duration.
func Inspect(path string) (*Info, error) {
	// #nosec G304 -- inspecting files written by this module
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file %s: %w", path, err)
	}

	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}

	clip, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return &Info{
		Path:       path,
		SampleRate: clip.SampleRate,
		Channels:   clip.Channels,
		BitDepth:   int(decoder.BitDepth),
		Frames:     clip.Frames(),
		Duration:   clip.Duration(),
		FileSize:   int64(len(data)),
	}, nil
}

// toInt16 scales a decoded sample of the given source depth to 16-bit.
func toInt16(value, bitDepth int, isFloat bool) int {
	if isFloat && bitDepth == 32 {
		sample := float64(math.Float32frombits(uint32(int32(value))))

		return clampInt16(int(math.Round(sample * int16Max)))
	}

	switch bitDepth {
	case 8:
		return (value - 128) << 8
	case 24:
		return value >> 8
	case 32:
		return value >> 16
	default:
		return value
	}
}

func clampInt16(value int) int {
	if value > int16Max {
		return int16Max
	}

	if value < int16Min {
		return int16Min
	}

	return value
}

//
// Validation Helpers
//

func validateSampleRate(sampleRate int) error {
	if sampleRate <= 0 || sampleRate > MAX_SAMPLE_RATE {
		return fmt.Errorf(ERR_FMT_SAMPLE_RATE_RANGE, ErrInvalidQuality, MAX_SAMPLE_RATE, sampleRate)
	}

	return nil
}

func validateBitDepth(bitDepth int) error {
	switch bitDepth {
	case 8, 16, 24, 32:
		return nil
	default:
		return fmt.Errorf(ERR_FMT_BIT_DEPTH_VALUES, ErrInvalidQuality, bitDepth)
	}
}

func validateChannels(channels int) error {
	if channels <= 0 || channels > MAX_CHANNELS {
		return fmt.Errorf(ERR_FMT_CHANNELS_RANGE, ErrInvalidQuality, MAX_CHANNELS, channels)
	}

	return nil
}
