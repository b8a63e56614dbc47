// main package for the tts-worker
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/marathi-tts/internal/app"
	"github.com/book-expert/marathi-tts/internal/objectstore"
	"github.com/book-expert/marathi-tts/internal/synth"
	"github.com/book-expert/marathi-tts/internal/tts"
	"github.com/book-expert/marathi-tts/internal/voice"
	"github.com/book-expert/marathi-tts/internal/worker"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

const appName = "tts-worker"

var errNATSURLEmpty = errors.New("nats.url is not configured")

func newRootCommand() *cobra.Command {
	var (
		configPath    string
		jobTimeout    time.Duration
		skipPreflight bool
	)

	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Serve Marathi generation requests from NATS",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath, jobTimeout, !skipPreflight)
		},
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "TOML config file (default: central configurator)")
	rootCmd.Flags().DurationVar(&jobTimeout, "job-timeout", 10*time.Minute, "maximum duration of one generation job")
	rootCmd.Flags().BoolVar(&skipPreflight, "skip-health-check", false, "start without checking the TTS engine")

	return rootCmd
}

// serve connects to NATS and runs the worker until ctx is cancelled.
func serve(ctx context.Context, configPath string, jobTimeout time.Duration, preflight bool) error {
	runtime, err := app.Bootstrap(appName, configPath)
	if err != nil {
		return err
	}
	defer runtime.Close()

	cfg := runtime.Config
	log := runtime.Log

	if cfg.NATS.URL == "" {
		return errNATSURLEmpty
	}

	engine, err := tts.NewSynthesizer(cfg.Engine, log)
	if err != nil {
		return fmt.Errorf("failed to create TTS engine: %w", err)
	}

	if preflight {
		healthErr := tts.CheckHealth(ctx, engine)
		if healthErr != nil {
			log.Error("TTS engine is not ready: %v", healthErr)

			return healthErr
		}
	}

	natsConnection, err := nats.Connect(cfg.NATS.URL, nats.Name(appName))
	if err != nil {
		log.Error("Failed to connect to NATS at %s: %v", cfg.NATS.URL, err)

		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := objectstore.New(jetstreamContext, cfg.NATS.AudioObjectStoreBucket)
	if err != nil {
		log.Error("Failed to open object store %s: %v", cfg.NATS.AudioObjectStoreBucket, err)

		return err
	}

	generator := synth.NewGenerator(engine, voice.NewLibrary(cfg.Voices.Dir), os.Stdout, log)

	natsWorker := worker.NewNatsWorker(natsConnection, cfg.NATS.GenerateSubject, store, generator, worker.Defaults{
		Voice:      cfg.Voices.Default,
		Preset:     "",
		Candidates: cfg.Output.Candidates,
		JobTimeout: jobTimeout,
	}, log)

	log.System("TTS-Worker successfully initialized. Listening for jobs on subject: %s", cfg.NATS.GenerateSubject)

	err = natsWorker.Run(ctx)
	if err != nil {
		log.Error("Worker stopped with error: %v", err)

		return fmt.Errorf("worker failed: %w", err)
	}

	log.System("TTS-Worker shut down cleanly.")

	return nil
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCommand().ExecuteContext(ctx)
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
