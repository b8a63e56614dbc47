package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/book-expert/logger"
	"github.com/book-expert/marathi-tts/internal/core"
	"github.com/book-expert/marathi-tts/internal/tts/ttsutils"
)

const (
	flagEnabled   = "True"
	flagKVCache   = "--kv_cache"
	flagHalf      = "--half"
	flagDeepSpeed = "--use_deepspeed"
	tempDirPrefix = "marathi-tts-*"
)

// Static errors.
var (
	ErrInterpreterNotFound = errors.New("python interpreter not found")
	ErrScriptNotFound      = errors.New("tortoise script not found")
	ErrNoOutputFiles       = errors.New("tortoise script produced no WAV files")
)

// CommandConfig holds the command line used to run the Tortoise script.
//
// The script declares --kv_cache and --half as booleans defaulting to true and
// parses any non-empty value as true, so Options can only switch flags on.
// IgnoredOptions lists the disabled flags the script will still enable.
type CommandConfig struct {
	Python    string
	Script    string
	ExtraArgs []string
	Options   core.EngineOptions
}

// CommandEngine implements core.Synthesizer by running the Tortoise
// command-line script once per request.
type CommandEngine struct {
	config CommandConfig
	log    *logger.Logger
}

// NewCommandEngine creates a new CommandEngine.
func NewCommandEngine(cfg CommandConfig, log *logger.Logger) *CommandEngine {
	return &CommandEngine{
		config: cfg,
		log:    log,
	}
}

// IgnoredOptions returns the script flags that Options disables but the script
// turns on regardless.
func (e *CommandEngine) IgnoredOptions() []string {
	var ignored []string

	if !e.config.Options.KVCache {
		ignored = append(ignored, flagKVCache)
	}

	if !e.config.Options.Half {
		ignored = append(ignored, flagHalf)
	}

	return ignored
}

// Args returns the script arguments for req, writing into outputDir.
func (e *CommandEngine) Args(req core.SynthesisRequest, outputDir string) []string {
	candidates := req.Candidates
	if candidates < 1 {
		candidates = defaultCandidates
	}

	args := []string{
		e.config.Script,
		"--text", req.Text,
		"--voice", req.Voice,
		"--preset", req.Preset,
		"--candidates", strconv.Itoa(candidates),
		"--output_path", outputDir,
	}

	if e.config.Options.KVCache {
		args = append(args, flagKVCache, flagEnabled)
	}

	if e.config.Options.Half {
		args = append(args, flagHalf, flagEnabled)
	}

	if e.config.Options.UseDeepSpeed {
		args = append(args, flagDeepSpeed, flagEnabled)
	}

	return append(args, e.config.ExtraArgs...)
}

// Synthesize runs the script into a temporary directory and returns every WAV
// it produced, in candidate order. The script resolves the voice on its own side,
// so req.Samples and req.Latents are not used.
func (e *CommandEngine) Synthesize(ctx context.Context, req core.SynthesisRequest) ([]core.Candidate, error) {
	if req.Text == "" {
		return nil, ErrTextEmpty
	}

	tempDir, err := os.MkdirTemp("", tempDirPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir for tts output: %w", err)
	}

	defer func() {
		removeErr := os.RemoveAll(tempDir)
		if removeErr != nil {
			e.log.Warn("Failed to remove temp dir '%s': %v", tempDir, removeErr)
		}
	}()

	args := e.Args(req, tempDir)

	e.log.Info("Running %s %s with preset %s, %d candidate(s)",
		e.config.Python, e.config.Script, req.Preset, req.Candidates)

	// #nosec G204 -- interpreter and script come from the local configuration
	cmd := exec.CommandContext(ctx, e.config.Python, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("tortoise script execution failed: %w - output: %s", err, string(output))
	}

	return collectCandidates(tempDir)
}

// HealthCheck verifies that the interpreter and the script exist.
func (e *CommandEngine) HealthCheck(_ context.Context) error {
	_, err := exec.LookPath(e.config.Python)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInterpreterNotFound, e.config.Python, err)
	}

	scriptPath, err := ttsutils.ResolvePath(e.config.Script)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrScriptNotFound, err)
	}

	info, err := os.Stat(scriptPath)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: %s", ErrScriptNotFound, scriptPath)
	}

	return nil
}

func collectCandidates(dir string) ([]core.Candidate, error) {
	files, err := ttsutils.ListWAVFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list tortoise output: %w", err)
	}

	if len(files) == 0 {
		return nil, ErrNoOutputFiles
	}

	sortByCandidateIndex(files)

	candidates := make([]core.Candidate, 0, len(files))

	for _, file := range files {
		// #nosec G304 -- file listed from our own temp dir
		data, readErr := os.ReadFile(file.Path)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read audio data from %s: %w", file.Path, readErr)
		}

		candidates = append(candidates, core.Candidate{WAV: data})
	}

	return candidates, nil
}

// sortByCandidateIndex orders Tortoise output (<voice>_<text>_<candidate>.wav)
// by the trailing number, so candidate 10 follows candidate 9. Names without
// a trailing number keep name order after the numbered ones.
func sortByCandidateIndex(files []ttsutils.WAVFile) {
	sort.SliceStable(files, func(i, j int) bool {
		left, leftOK := candidateIndex(files[i].Name)
		right, rightOK := candidateIndex(files[j].Name)

		switch {
		case leftOK && rightOK && left != right:
			return left < right
		case leftOK != rightOK:
			return leftOK
		default:
			return files[i].Name < files[j].Name
		}
	})
}

func candidateIndex(name string) (int, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	separator := strings.LastIndexAny(stem, "_-")
	digits := stem[separator+1:]

	index, err := strconv.Atoi(digits)
	if err != nil || index < 0 {
		return 0, false
	}

	return index, true
}
