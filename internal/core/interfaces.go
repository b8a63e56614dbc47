// Package core defines the core types and interfaces shared by the marathi-tts tools.
package core

import "context"

// SampleRate is the fixed rate of every WAV file written by this module.
const SampleRate = 24000

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// EngineOptions are the construction flags of the external engine.
type EngineOptions struct {
	KVCache      bool
	Half         bool
	UseDeepSpeed bool
}

// VoiceSample is one reference recording of a voice sample set.
type VoiceSample struct {
	Name string
	Data []byte
}

// SynthesisRequest holds everything passed to a single engine invocation.
type SynthesisRequest struct {
	Text  string
	Voice string
	// Samples and Latents are only read by engines that do not resolve
	// the voice on their own side.
	Samples    []VoiceSample
	Latents    []byte
	Preset     string
	Candidates int
}

// Candidate is one audio clip returned by the engine, encoded as WAV.
type Candidate struct {
	WAV []byte
}

// Synthesizer defines the interface of an external text-to-speech engine.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) ([]Candidate, error)
	HealthCheck(ctx context.Context) error
}

// AudioStore is an ObjectStore that can also stream files from disk.
type AudioStore interface {
	ObjectStore
	UploadFile(ctx context.Context, key, path string) error
}
