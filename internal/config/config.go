// Package config provides the configuration structure for the marathi-tts tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/pelletier/go-toml/v2"
)

// Engine modes.
const (
	EngineModeHTTP    = "http"
	EngineModeCommand = "command"
)

// Quality presets understood by the Tortoise engine.
const (
	PresetUltraFast   = "ultra_fast"
	PresetFast        = "fast"
	PresetStandard    = "standard"
	PresetHighQuality = "high_quality"
)

// Defaults applied when a value is missing from the TOML document.
const (
	DefaultEngineURL       = "http://127.0.0.1:8000"
	DefaultPython          = "python"
	DefaultScript          = "tortoise/do_tts.py"
	DefaultTimeoutSeconds  = 600
	DefaultKVCache         = true
	DefaultHalf            = true
	DefaultUseDeepSpeed    = false
	DefaultVoicesDir       = "tortoise/voices"
	DefaultVoice           = "mom_marathi"
	DefaultOutputDir       = "marathi_output"
	DefaultCandidates      = 3
	DefaultMinVRAMGB       = 4.0
	DefaultQuickTestText   = "नमस्कार"
	DefaultDemoText        = "नमस्कार, मी तुमची आई आहे. आज मी तुम्हाला एक गोष्ट सांगणार आहे."
	DefaultGenerateSubject = "tts.generate"
	DefaultAudioBucket     = "MARATHI_AUDIO"
)

// Static errors.
var (
	ErrUnknownPreset     = errors.New("unknown preset")
	ErrUnknownEngineMode = errors.New("unknown engine mode")
	ErrVoiceEmpty        = errors.New("voice name cannot be empty")
	ErrCandidatesRange   = errors.New("candidates must be at least 1")
)

// Presets lists every preset in increasing order of quality.
func Presets() []string {
	return []string{PresetUltraFast, PresetFast, PresetStandard, PresetHighQuality}
}

// IsValidPreset reports whether name is one of the known presets.
func IsValidPreset(name string) bool {
	return slices.Contains(Presets(), name)
}

// ValidatePreset returns ErrUnknownPreset for names outside Presets.
func ValidatePreset(name string) error {
	if !IsValidPreset(name) {
		return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}

	return nil
}

// EngineConfig holds the settings used to reach the external TTS engine.
type EngineConfig struct {
	Mode           string   `toml:"mode"`
	URL            string   `toml:"url"`
	Python         string   `toml:"python"`
	Script         string   `toml:"script"`
	ExtraArgs      []string `toml:"extra_args"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	KVCache        bool     `toml:"kv_cache"`
	Half           bool     `toml:"half"`
	UseDeepSpeed   bool     `toml:"use_deepspeed"`
}

// VoicesConfig locates the voice sample sets.
type VoicesConfig struct {
	Dir     string `toml:"dir"`
	Default string `toml:"default"`
}

// OutputConfig holds generation output settings.
type OutputConfig struct {
	Dir        string `toml:"dir"`
	Candidates int    `toml:"candidates"`
}

// DemoConfig describes the demonstration run executed with no arguments.
type DemoConfig struct {
	Text    string   `toml:"text"`
	Voice   string   `toml:"voice"`
	Presets []string `toml:"presets"`
}

// SetupConfig holds the parameters of the setup verification.
type SetupConfig struct {
	Python           string   `toml:"python"`
	RequiredPackages []string `toml:"required_packages"`
	MinVRAMGB        float64  `toml:"min_vram_gb"`
	QuickTestText    string   `toml:"quick_test_text"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                    string `toml:"url"`
	GenerateSubject        string `toml:"generate_subject"`
	AudioObjectStoreBucket string `toml:"audio_object_store_bucket"`
}

// Config is the root configuration structure.
type Config struct {
	Engine EngineConfig `toml:"engine"`
	Voices VoicesConfig `toml:"voices"`
	Output OutputConfig `toml:"output"`
	Demo   DemoConfig   `toml:"demo"`
	Setup  SetupConfig  `toml:"setup"`
	Paths  PathsConfig  `toml:"paths"`
	NATS   NATSConfig   `toml:"nats"`
}

// newConfig returns the value documents are decoded into. Boolean engine
// flags that default to true are set here, since a decoder leaves fields the
// document does not mention untouched.
func newConfig() Config {
	return Config{
		Engine: EngineConfig{
			KVCache:      DefaultKVCache,
			Half:         DefaultHalf,
			UseDeepSpeed: DefaultUseDeepSpeed,
		},
	}
}

// Load loads the configuration through the central configurator.
func Load(log *logger.Logger) (*Config, error) {
	cfg := newConfig()

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, validateErr
	}

	return &cfg, nil
}

// LoadFile decodes a local TOML file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes a TOML document, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := newConfig()

	err := toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode TOML: %w", err)
	}

	cfg.ApplyDefaults()

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, validateErr
	}

	return &cfg, nil
}

// Default returns a configuration holding only default values.
func Default() *Config {
	cfg := newConfig()

	cfg.ApplyDefaults()

	return &cfg
}

// ApplyDefaults fills every empty field with its default.
func (c *Config) ApplyDefaults() {
	c.applyEngineDefaults()

	if c.Voices.Dir == "" {
		c.Voices.Dir = DefaultVoicesDir
	}

	if c.Voices.Default == "" {
		c.Voices.Default = DefaultVoice
	}

	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
	}

	if c.Output.Candidates == 0 {
		c.Output.Candidates = DefaultCandidates
	}

	if c.Demo.Text == "" {
		c.Demo.Text = DefaultDemoText
	}

	if c.Demo.Voice == "" {
		c.Demo.Voice = c.Voices.Default
	}

	if len(c.Demo.Presets) == 0 {
		c.Demo.Presets = []string{PresetFast, PresetStandard}
	}

	c.applySetupDefaults()

	if c.Paths.BaseLogsDir == "" {
		c.Paths.BaseLogsDir = os.TempDir()
	}

	if c.NATS.GenerateSubject == "" {
		c.NATS.GenerateSubject = DefaultGenerateSubject
	}

	if c.NATS.AudioObjectStoreBucket == "" {
		c.NATS.AudioObjectStoreBucket = DefaultAudioBucket
	}
}

func (c *Config) applyEngineDefaults() {
	if c.Engine.Mode == "" {
		c.Engine.Mode = EngineModeHTTP
	}

	if c.Engine.URL == "" {
		c.Engine.URL = DefaultEngineURL
	}

	if c.Engine.Python == "" {
		c.Engine.Python = DefaultPython
	}

	if c.Engine.Script == "" {
		c.Engine.Script = DefaultScript
	}

	if c.Engine.TimeoutSeconds == 0 {
		c.Engine.TimeoutSeconds = DefaultTimeoutSeconds
	}
}

func (c *Config) applySetupDefaults() {
	if c.Setup.Python == "" {
		c.Setup.Python = c.Engine.Python
	}

	if len(c.Setup.RequiredPackages) == 0 {
		c.Setup.RequiredPackages = []string{"torch", "torchaudio", "transformers", "tortoise"}
	}

	if c.Setup.MinVRAMGB == 0 {
		c.Setup.MinVRAMGB = DefaultMinVRAMGB
	}

	if c.Setup.QuickTestText == "" {
		c.Setup.QuickTestText = DefaultQuickTestText
	}
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Engine.Mode {
	case EngineModeHTTP, EngineModeCommand:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEngineMode, c.Engine.Mode)
	}

	if c.Voices.Default == "" {
		return ErrVoiceEmpty
	}

	if c.Output.Candidates < 1 {
		return fmt.Errorf("%w: got %d", ErrCandidatesRange, c.Output.Candidates)
	}

	for _, preset := range c.Demo.Presets {
		presetErr := ValidatePreset(preset)
		if presetErr != nil {
			return fmt.Errorf("demo presets: %w", presetErr)
		}
	}

	return nil
}
