package setup_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/logger"
	"github.com/book-expert/marathi-tts/internal/config"
	"github.com/book-expert/marathi-tts/internal/core"
	"github.com/book-expert/marathi-tts/internal/setup"
	"github.com/book-expert/marathi-tts/internal/tts/audio/audiotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errMockImport = errors.New("ModuleNotFoundError")
	errMockEngine = errors.New("mock engine error")
)

type mockProber struct {
	missing map[string]bool
	probed  []string
}

func (m *mockProber) Probe(_ context.Context, _, pkg string) error {
	m.probed = append(m.probed, pkg)

	if m.missing[pkg] {
		return errMockImport
	}

	return nil
}

type mockGPUs struct {
	gpus []setup.GPU
	err  error
}

func (m *mockGPUs) Detect(context.Context) ([]setup.GPU, error) {
	return m.gpus, m.err
}

type mockEngine struct {
	healthErr error
	synthErr  error
	wav       []byte
	requests  []core.SynthesisRequest
}

func (m *mockEngine) Synthesize(_ context.Context, req core.SynthesisRequest) ([]core.Candidate, error) {
	m.requests = append(m.requests, req)

	if m.synthErr != nil {
		return nil, m.synthErr
	}

	return []core.Candidate{{WAV: m.wav}}, nil
}

func (m *mockEngine) HealthCheck(context.Context) error {
	return m.healthErr
}

type fixture struct {
	cfg    *config.Config
	prober *mockProber
	gpus   *mockGPUs
	engine *mockEngine
	out    *bytes.Buffer
}

// newFixture builds a machine on which every check passes.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.Default()
	cfg.Voices.Dir = t.TempDir()

	sampleDir := filepath.Join(cfg.Voices.Dir, cfg.Voices.Default)
	require.NoError(t, os.MkdirAll(sampleDir, 0o750))
	require.NoError(t, os.WriteFile(
		filepath.Join(sampleDir, "sample_1.wav"), audiotest.WAV(t, 0.05, core.SampleRate), 0o600))

	return &fixture{
		cfg:    cfg,
		prober: &mockProber{missing: map[string]bool{}},
		gpus: &mockGPUs{gpus: []setup.GPU{
			{Name: "NVIDIA GeForce RTX 3060", MemoryBytes: 12 * 1024 * 1024 * 1024, CUDA: true},
		}},
		engine: &mockEngine{wav: audiotest.WAV(t, 0.1, core.SampleRate)},
		out:    &bytes.Buffer{},
	}
}

func (f *fixture) run(t *testing.T) *setup.Report {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	t.Cleanup(func() { _ = log.Close() })

	verifier := setup.NewVerifier(f.cfg, setup.Dependencies{
		Engine: f.engine,
		Prober: f.prober,
		GPUs:   f.gpus,
	}, f.out, log)

	return verifier.Run(context.Background())
}

func requireResult(t *testing.T, report *setup.Report, name string) setup.CheckResult {
	t.Helper()

	result, ok := report.Result(name)
	require.True(t, ok, "missing result %s", name)

	return result
}

func TestVerifier_AllPassed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	report := f.run(t)

	require.Len(t, report.Results, 4)
	assert.True(t, report.Passed())
	assert.Equal(t, 0, report.ExitCode())

	names := make([]string, 0, len(report.Results))
	for _, result := range report.Results {
		names = append(names, result.Name)
		assert.True(t, result.Passed, result.Name)
	}

	assert.Equal(t, []string{"Voice Files", "Dependencies", "GPU", "Quick Test"}, names)
	assert.Equal(t, []string{"torch", "torchaudio", "transformers", "tortoise"}, f.prober.probed)

	require.Len(t, f.engine.requests, 1)
	assert.Equal(t, config.PresetUltraFast, f.engine.requests[0].Preset)
	assert.Equal(t, 1, f.engine.requests[0].Candidates)

	output := f.out.String()
	assert.Contains(t, output, "Found 1 voice samples")
	assert.Contains(t, output, "sample_1.wav")
	assert.Contains(t, output, "Voice Files     : ✅ PASSED")
	assert.Contains(t, output, "ALL CHECKS PASSED")
}

func TestVerifier_VoiceDirectoryMissing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.cfg.Voices.Default = "nobody"

	report := f.run(t)

	result := requireResult(t, report, setup.CheckVoiceFiles)
	assert.False(t, result.Passed)
	require.ErrorIs(t, result.Kind, setup.ErrMissingDirectory)
	require.ErrorIs(t, result.Err, setup.ErrMissingDirectory)
	assert.False(t, report.Passed())
	assert.Equal(t, 1, report.ExitCode())
	assert.Contains(t, f.out.String(), "SOME CHECKS FAILED")
}

func TestVerifier_VoiceDirectoryWithoutWAV(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	sampleDir := filepath.Join(f.cfg.Voices.Dir, f.cfg.Voices.Default)
	require.NoError(t, os.Remove(filepath.Join(sampleDir, "sample_1.wav")))
	require.NoError(t, os.WriteFile(filepath.Join(sampleDir, "sample_1.WAV.txt"), []byte("x"), 0o600))

	report := f.run(t)

	result := requireResult(t, report, setup.CheckVoiceFiles)
	require.ErrorIs(t, result.Kind, setup.ErrMissingFiles)
	assert.Equal(t, 1, report.ExitCode())
}

func TestVerifier_DependenciesMissing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.prober.missing["torchaudio"] = true
	f.prober.missing["tortoise"] = true

	report := f.run(t)

	result := requireResult(t, report, setup.CheckDependencies)
	assert.False(t, result.Passed)
	require.ErrorIs(t, result.Kind, setup.ErrMissingDependency)
	assert.Contains(t, result.Err.Error(), "torchaudio")
	assert.Contains(t, result.Err.Error(), "tortoise")
	assert.Len(t, f.prober.probed, 4, "every package is probed")
	assert.Equal(t, 1, report.ExitCode())
	assert.Contains(t, f.out.String(), "❌ torchaudio is NOT installed")
}

func TestVerifier_GPUIsAdvisory(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.gpus.gpus = []setup.GPU{{Name: "Intel UHD Graphics 620"}}
	f.gpus.err = errors.New("nvidia-smi not found")

	report := f.run(t)

	result := requireResult(t, report, setup.CheckGPU)
	assert.False(t, result.Passed)
	assert.False(t, result.Required)
	require.ErrorIs(t, result.Kind, setup.ErrNoGPU)
	assert.Contains(t, result.Details, "Graphics card: Intel UHD Graphics 620")

	assert.True(t, report.Passed())
	assert.Equal(t, 0, report.ExitCode())
	assert.Contains(t, f.out.String(), "GPU             : ❌ FAILED")
}

func TestVerifier_LowVRAMWarning(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.gpus.gpus = []setup.GPU{{Name: "GeForce GTX 1050", MemoryBytes: 2 * 1024 * 1024 * 1024, CUDA: true}}

	report := f.run(t)

	result := requireResult(t, report, setup.CheckGPU)
	assert.True(t, result.Passed)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "ultra_fast")
	assert.Contains(t, result.Details, "  Memory: 2.00 GB")
}

func TestVerifier_QuickTestFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*fixture)
	}{
		{name: "engine unhealthy", mutate: func(f *fixture) { f.engine.healthErr = errMockEngine }},
		{name: "synthesis fails", mutate: func(f *fixture) { f.engine.synthErr = errMockEngine }},
		{name: "unreadable audio", mutate: func(f *fixture) { f.engine.wav = []byte("garbage") }},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			testCase.mutate(f)

			report := f.run(t)

			result := requireResult(t, report, setup.CheckQuickTest)
			assert.False(t, result.Passed)
			require.ErrorIs(t, result.Kind, setup.ErrEngineFailure)
			assert.Equal(t, 1, report.ExitCode())
		})
	}
}

func TestVerifier_QuickTestWithoutVoice(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.cfg.Voices.Default = "nobody"

	report := f.run(t)

	result := requireResult(t, report, setup.CheckQuickTest)
	require.ErrorIs(t, result.Err, setup.ErrEngineFailure)
	assert.Empty(t, f.engine.requests)
}

func TestReport_PassedIgnoresGPU(t *testing.T) {
	t.Parallel()

	report := &setup.Report{Results: []setup.CheckResult{
		{Name: setup.CheckVoiceFiles, Required: true, Passed: true},
		{Name: setup.CheckDependencies, Required: true, Passed: true},
		{Name: setup.CheckGPU, Required: false, Passed: false},
		{Name: setup.CheckQuickTest, Required: true, Passed: true},
	}}
	assert.True(t, report.Passed())

	report.Results[3].Passed = false
	assert.False(t, report.Passed())
	assert.Equal(t, 1, report.ExitCode())
}
