// Package app holds the start-up sequence shared by the marathi-tts binaries.
package app

import (
	"fmt"
	"os"

	"github.com/book-expert/logger"
	"github.com/book-expert/marathi-tts/internal/config"
)

const (
	bootstrapLogFmt = "%s-bootstrap.log"
	finalLogFmt     = "%s.log"
)

// Runtime is a loaded configuration with its logger.
type Runtime struct {
	Config *config.Config
	Log    *logger.Logger
}

// Close closes the logger.
func (r *Runtime) Close() {
	closeErr := r.Log.Close()
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
	}
}

// Bootstrap creates a bootstrap logger in the temp dir, loads the
// configuration and opens the final logger in paths.base_logs_dir. A non-empty
// configPath is decoded directly; otherwise the central configurator is used.
func Bootstrap(name, configPath string) (*Runtime, error) {
	bootstrapLog, err := logger.New(os.TempDir(), fmt.Sprintf(bootstrapLogFmt, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create bootstrap logger: %w", err)
	}

	defer func() {
		_ = bootstrapLog.Close()
	}()

	bootstrapLog.Info("Bootstrap logger created.")

	cfg, err := loadConfig(configPath, bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	finalLog, err := logger.New(cfg.Paths.BaseLogsDir, fmt.Sprintf(finalLogFmt, name))
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return nil, fmt.Errorf("failed to create final logger: %w", err)
	}

	return &Runtime{Config: cfg, Log: finalLog}, nil
}

func loadConfig(configPath string, log *logger.Logger) (*config.Config, error) {
	if configPath != "" {
		log.Info("Loading configuration from %s", configPath)

		return config.LoadFile(configPath)
	}

	return config.Load(log)
}
