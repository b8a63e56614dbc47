// Package setup verifies that a machine is ready to generate Marathi speech.
//
// A Verifier runs four independent checks (voice files, Python dependencies,
// GPU and a quick engine test) and returns a Report. Failures are recorded as
// values on each CheckResult; only the GPU check is advisory.
package setup

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/book-expert/logger"
	"github.com/book-expert/marathi-tts/internal/config"
	"github.com/book-expert/marathi-tts/internal/core"
	"github.com/book-expert/marathi-tts/internal/tts/text"
	"github.com/book-expert/marathi-tts/internal/voice"
)

// Check names, in execution order.
const (
	CheckVoiceFiles   = "Voice Files"
	CheckDependencies = "Dependencies"
	CheckGPU          = "GPU"
	CheckQuickTest    = "Quick Test"
)

// Failure kinds.
var (
	ErrMissingDirectory  = errors.New("voice directory not found")
	ErrMissingFiles      = errors.New("no WAV files found")
	ErrMissingDependency = errors.New("required package is not installed")
	ErrNoGPU             = errors.New("no GPU detected")
	ErrEngineFailure     = errors.New("engine test failed")
)

// CheckResult is the outcome of one check.
type CheckResult struct {
	Name     string
	Required bool
	Passed   bool
	// Kind is one of the failure kinds above, nil when Passed.
	Kind    error
	Err     error
	Details []string
	Hints   []string
	// Warnings do not affect Passed.
	Warnings []string
}

func (r *CheckResult) fail(kind, err error, hints ...string) {
	r.Passed = false
	r.Kind = kind
	r.Err = err
	r.Hints = append(r.Hints, hints...)
}

// Report holds every check result in execution order.
type Report struct {
	Results []CheckResult
}

// Passed reports whether every required check passed. The GPU check never
// affects the outcome.
func (r *Report) Passed() bool {
	for _, result := range r.Results {
		if result.Required && !result.Passed {
			return false
		}
	}

	return true
}

// ExitCode returns 0 when the report passed and 1 otherwise.
func (r *Report) ExitCode() int {
	if r.Passed() {
		return 0
	}

	return 1
}

// Result returns the result of the named check.
func (r *Report) Result(name string) (CheckResult, bool) {
	for _, result := range r.Results {
		if result.Name == name {
			return result, true
		}
	}

	return CheckResult{}, false
}

// Dependencies are the external collaborators of a Verifier. Nil Prober and
// GPUs fall back to the system implementations.
type Dependencies struct {
	Engine core.Synthesizer
	Prober PackageProber
	GPUs   GPUDetector
}

// Verifier runs the setup checks.
type Verifier struct {
	cfg          *config.Config
	voices       *voice.Library
	deps         Dependencies
	preprocessor *text.Preprocessor
	out          io.Writer
	log          *logger.Logger
}

// NewVerifier creates a Verifier that prints progress to out.
func NewVerifier(cfg *config.Config, deps Dependencies, out io.Writer, log *logger.Logger) *Verifier {
	if deps.Prober == nil {
		deps.Prober = NewPythonProber()
	}

	if deps.GPUs == nil {
		deps.GPUs = NewSystemGPUDetector()
	}

	return &Verifier{
		cfg:          cfg,
		voices:       voice.NewLibrary(cfg.Voices.Dir),
		deps:         deps,
		preprocessor: text.NewPreprocessor(),
		out:          out,
		log:          log,
	}
}

// Run executes all checks in order and prints the summary.
func (v *Verifier) Run(ctx context.Context) *Report {
	v.printTitle()

	report := &Report{
		Results: []CheckResult{
			v.CheckVoiceFiles(),
			v.CheckDependencies(ctx),
			v.CheckGPU(ctx),
			v.CheckQuickTest(ctx),
		},
	}

	for _, result := range report.Results {
		if result.Passed {
			v.log.Info("Check %s passed", result.Name)
		} else {
			v.log.Warn("Check %s failed: %v", result.Name, result.Err)
		}
	}

	v.printSummary(report)

	return report
}

// CheckVoiceFiles fails when the voice directory is absent or holds no WAV files.
func (v *Verifier) CheckVoiceFiles() CheckResult {
	result := CheckResult{Name: CheckVoiceFiles, Required: true, Passed: true}
	voiceName := v.cfg.Voices.Default
	dir := v.voices.Path(voiceName)

	v.printSection("CHECKING VOICE FILES")

	set, err := v.voices.Inspect(voiceName)

	switch {
	case errors.Is(err, voice.ErrMissingDirectory):
		result.fail(ErrMissingDirectory, fmt.Errorf("%w: %s", ErrMissingDirectory, dir),
			fmt.Sprintf("Create %s and copy the WAV samples of the voice into it", dir))
	case errors.Is(err, voice.ErrNoSamples):
		result.fail(ErrMissingFiles, fmt.Errorf("%w in %s", ErrMissingFiles, dir),
			fmt.Sprintf("Copy 3-5 clean WAV recordings of the voice into %s", dir))
	case err != nil:
		result.fail(ErrMissingDirectory, err)
	default:
		result.Details = append(result.Details,
			fmt.Sprintf("Found %d voice samples in %s", len(set.Samples), dir))

		for _, sample := range set.Samples {
			result.Details = append(result.Details,
				fmt.Sprintf("  - %s (%.2f MB)", sample.Name, float64(sample.Size)/bytesPerMB))
		}
	}

	v.printResult(result)

	return result
}

// CheckDependencies probes every required package and fails when at least one
// cannot be imported. All missing packages are reported.
func (v *Verifier) CheckDependencies(ctx context.Context) CheckResult {
	result := CheckResult{Name: CheckDependencies, Required: true, Passed: true}

	v.printSection("CHECKING DEPENDENCIES")

	var missing []string

	for _, pkg := range v.cfg.Setup.RequiredPackages {
		probeErr := v.deps.Prober.Probe(ctx, v.cfg.Setup.Python, pkg)
		if probeErr != nil {
			v.log.Warn("Package %s failed to import: %v", pkg, probeErr)
			v.printLine(styleFailed.Render(fmt.Sprintf("❌ %s is NOT installed", pkg)))

			missing = append(missing, pkg)

			continue
		}

		v.printLine(stylePassed.Render(fmt.Sprintf("✅ %s is installed", pkg)))
	}

	if len(missing) > 0 {
		result.fail(ErrMissingDependency, fmt.Errorf("%w: %v", ErrMissingDependency, missing),
			"Run: pip install -r requirements.txt",
			"Then run: python setup.py install")
	}

	v.printResult(result)

	return result
}

// CheckGPU looks for a CUDA capable GPU. It is advisory.
func (v *Verifier) CheckGPU(ctx context.Context) CheckResult {
	result := CheckResult{Name: CheckGPU, Required: false, Passed: true}

	v.printSection("CHECKING GPU")

	gpus, err := v.deps.GPUs.Detect(ctx)
	if err != nil {
		v.log.Warn("GPU detection failed: %v", err)
	}

	var cuda []GPU

	for _, gpu := range gpus {
		if gpu.CUDA {
			cuda = append(cuda, gpu)
		} else {
			result.Details = append(result.Details, "Graphics card: "+gpu.Name)
		}
	}

	if len(cuda) == 0 {
		result.fail(ErrNoGPU, ErrNoGPU,
			"No GPU detected. Will use CPU (much slower)",
			"This is OK but generation will take longer")
		v.printResult(result)

		return result
	}

	minBytes := v.cfg.Setup.MinVRAMGB * bytesPerGB

	for _, gpu := range cuda {
		memoryGB := float64(gpu.MemoryBytes) / bytesPerGB

		result.Details = append(result.Details,
			"GPU Available: "+gpu.Name,
			fmt.Sprintf("  Memory: %.2f GB", memoryGB))

		if float64(gpu.MemoryBytes) < minBytes {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Less than %.0fGB VRAM on %s. Use 'ultra_fast' or 'fast' preset",
					v.cfg.Setup.MinVRAMGB, gpu.Name))
		}
	}

	if len(result.Warnings) == 0 {
		result.Details = append(result.Details, "Sufficient GPU memory for all presets")
	}

	v.printResult(result)

	return result
}

// CheckQuickTest health-checks the engine, loads the voice and synthesizes the
// configured test text with the fastest preset and one candidate.
func (v *Verifier) CheckQuickTest(ctx context.Context) CheckResult {
	result := CheckResult{Name: CheckQuickTest, Required: true, Passed: true}

	v.printSection("RUNNING QUICK TEST")

	details, err := v.quickTest(ctx)
	result.Details = details

	if err != nil {
		result.fail(ErrEngineFailure, fmt.Errorf("%w: %w", ErrEngineFailure, err),
			"Make sure the Tortoise engine is installed and reachable",
			"Please install dependencies: pip install -r requirements.txt")
	}

	v.printResult(result)

	return result
}
