// main package for the verify-setup tool
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/marathi-tts/internal/app"
	"github.com/book-expert/marathi-tts/internal/setup"
	"github.com/book-expert/marathi-tts/internal/tts"
	"github.com/spf13/cobra"
)

const appName = "verify-setup"

func newRootCommand(out io.Writer, deps setup.Dependencies, report **setup.Report) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Check voice files, Python dependencies, the GPU and a trial generation",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := verify(cmd.Context(), configPath, deps, out)
			if err != nil {
				return err
			}

			*report = result

			return nil
		},
	}

	rootCmd.SetOut(out)
	rootCmd.Flags().StringVar(&configPath, "config", "", "TOML config file (default: central configurator)")

	return rootCmd
}

func verify(ctx context.Context, configPath string, deps setup.Dependencies, out io.Writer) (*setup.Report, error) {
	runtime, err := app.Bootstrap(appName, configPath)
	if err != nil {
		return nil, err
	}
	defer runtime.Close()

	if deps.Engine == nil {
		engine, engineErr := tts.NewSynthesizer(runtime.Config.Engine, runtime.Log)
		if engineErr != nil {
			return nil, fmt.Errorf("failed to create TTS engine: %w", engineErr)
		}

		deps.Engine = engine
	}

	runtime.Log.System("%s started with engine mode %s", appName, runtime.Config.Engine.Mode)

	report := setup.NewVerifier(runtime.Config, deps, out, runtime.Log).Run(ctx)

	runtime.Log.System("%s finished: passed=%t", appName, report.Passed())

	return report, nil
}

// run returns the process exit code: the report's when the checks ran, 0 for
// help output.
func run() (int, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var report *setup.Report

	err := newRootCommand(os.Stdout, setup.Dependencies{}, &report).ExecuteContext(ctx)
	if err != nil {
		return 1, err
	}

	if report == nil {
		return 0, nil
	}

	return report.ExitCode(), nil
}

func main() {
	exitCode, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify-setup exited with error: %v\n", err)
	}

	os.Exit(exitCode)
}
