// main package for the marathi-tts command line tool
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/book-expert/marathi-tts/internal/app"
	"github.com/book-expert/marathi-tts/internal/config"
	"github.com/book-expert/marathi-tts/internal/synth"
	"github.com/book-expert/marathi-tts/internal/tts"
	"github.com/book-expert/marathi-tts/internal/voice"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const appName = "marathi-tts"

var errNoText = errors.New("no text given: pass it as arguments or with --text")

// options are the flag values shared by the subcommands.
type options struct {
	configPath string
	voice      string
	output     string
	preset     string
	text       string
	candidates int
}

// session is a bootstrapped runtime with a ready generator.
type session struct {
	runtime   *app.Runtime
	generator *synth.Generator
}

func (s *session) close() {
	s.runtime.Close()
}

func openSession(opts *options, out io.Writer) (*session, error) {
	runtime, err := app.Bootstrap(appName, opts.configPath)
	if err != nil {
		return nil, err
	}

	engine, err := tts.NewSynthesizer(runtime.Config.Engine, runtime.Log)
	if err != nil {
		runtime.Close()

		return nil, fmt.Errorf("failed to create TTS engine: %w", err)
	}

	runtime.Log.System("%s initialized with engine mode %s", appName, runtime.Config.Engine.Mode)

	generator := synth.NewGenerator(engine, voice.NewLibrary(runtime.Config.Voices.Dir), out, runtime.Log)

	return &session{runtime: runtime, generator: generator}, nil
}

func newRootCommand(out io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Marathi voice cloning with Tortoise TTS",
		Long:          "Generates Marathi speech in a cloned voice. Without a subcommand the demonstration run is executed.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd.Context(), opts, out)
		},
	}

	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "TOML config file (default: central configurator)")
	rootCmd.PersistentFlags().StringVarP(&opts.voice, "voice", "v", "", "voice sample set name (default from config)")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "output directory (default from config)")

	rootCmd.AddCommand(newSayCommand(opts, out), newBatchCommand(opts, out))

	return rootCmd
}

func newSayCommand(opts *options, out io.Writer) *cobra.Command {
	sayCmd := &cobra.Command{
		Use:   "say [text...]",
		Short: "Generate speech for one text",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := opts.text
			if text == "" {
				text = strings.Join(args, " ")
			}

			if strings.TrimSpace(text) == "" {
				return errNoText
			}

			return runSay(cmd.Context(), opts, text, cmd.Flags().Changed("candidates"), out)
		},
	}

	sayCmd.Flags().StringVarP(&opts.text, "text", "t", "", "text to speak")
	sayCmd.Flags().StringVarP(&opts.preset, "preset", "p", config.PresetStandard,
		"quality preset: "+strings.Join(config.Presets(), ", "))
	sayCmd.Flags().IntVarP(&opts.candidates, "candidates", "k", config.DefaultCandidates,
		"number of candidates to request (default from config)")

	return sayCmd
}

func newBatchCommand(opts *options, out io.Writer) *cobra.Command {
	var batchPreset string

	batchCmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Generate speech for every text in a JSON array or line-per-text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.preset = batchPreset

			return runBatch(cmd.Context(), opts, args[0], out)
		},
	}

	batchCmd.Flags().StringVarP(&batchPreset, "preset", "p", config.PresetFast,
		"quality preset: "+strings.Join(config.Presets(), ", "))

	return batchCmd
}

func runDemo(ctx context.Context, opts *options, out io.Writer) error {
	s, err := openSession(opts, out)
	if err != nil {
		return err
	}
	defer s.close()

	cfg := s.runtime.Config

	demo := cfg.Demo
	if opts.voice != "" {
		demo.Voice = opts.voice
	}

	_, err = s.generator.Demo(ctx, synth.DemoRequest{
		Demo:       demo,
		OutputDir:  outputDir(opts, cfg),
		Candidates: cfg.Output.Candidates,
	})
	if err != nil {
		s.runtime.Log.Error("Demo failed: %v", err)

		return fmt.Errorf("demo failed: %w", err)
	}

	return nil
}

func runSay(ctx context.Context, opts *options, text string, candidatesSet bool, out io.Writer) error {
	s, err := openSession(opts, out)
	if err != nil {
		return err
	}
	defer s.close()

	cfg := s.runtime.Config

	candidates := cfg.Output.Candidates
	if candidatesSet {
		candidates = opts.candidates
	}

	_, err = s.generator.Generate(ctx, synth.Request{
		Text:       text,
		Voice:      voiceName(opts, cfg),
		Preset:     opts.preset,
		OutputDir:  filepath.Join(outputDir(opts, cfg), opts.preset),
		Candidates: candidates,
	})
	if err != nil {
		s.runtime.Log.Error("Generation failed: %v", err)

		return fmt.Errorf("generation failed: %w", err)
	}

	return nil
}

func runBatch(ctx context.Context, opts *options, inputPath string, out io.Writer) error {
	texts, err := synth.LoadTexts(inputPath)
	if err != nil {
		return err
	}

	s, err := openSession(opts, out)
	if err != nil {
		return err
	}
	defer s.close()

	cfg := s.runtime.Config

	bar := progressbar.NewOptions(
		len(texts),
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("batch"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	items, err := s.generator.Batch(ctx, synth.BatchRequest{
		Texts:     texts,
		Voice:     voiceName(opts, cfg),
		Preset:    opts.preset,
		OutputDir: outputDir(opts, cfg),
		Progress: func(_, _ int) {
			_ = bar.Add(1)
		},
	})

	_ = bar.Finish()

	if err != nil {
		s.runtime.Log.Error("Batch stopped after %d of %d items: %v", len(items), len(texts), err)

		return fmt.Errorf("batch failed: %w", err)
	}

	fmt.Fprintf(out, "\nGenerated %d file(s) in %s\n", len(items), outputDir(opts, cfg))

	return nil
}

func voiceName(opts *options, cfg *config.Config) string {
	if opts.voice != "" {
		return opts.voice
	}

	return cfg.Voices.Default
}

func outputDir(opts *options, cfg *config.Config) string {
	if opts.output != "" {
		return opts.output
	}

	return cfg.Output.Dir
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCommand(os.Stdout).ExecuteContext(ctx)
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "marathi-tts exited with error: %v\n", err)
		os.Exit(1)
	}
}
