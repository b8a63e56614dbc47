package tts

import (
	"context"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/marathi-tts/internal/config"
	"github.com/book-expert/marathi-tts/internal/core"
)

// HealthCheckTimeout bounds a single engine health check.
const HealthCheckTimeout = 10 * time.Second

const errFmtHealthCheckFailed = "TTS engine health check failed: %w"

// NewSynthesizer builds the engine selected by cfg.Mode.
func NewSynthesizer(cfg config.EngineConfig, log *logger.Logger) (core.Synthesizer, error) {
	options := core.EngineOptions{
		KVCache:      cfg.KVCache,
		Half:         cfg.Half,
		UseDeepSpeed: cfg.UseDeepSpeed,
	}

	switch cfg.Mode {
	case config.EngineModeHTTP:
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

		return NewHTTPClient(cfg.URL, timeout, options), nil
	case config.EngineModeCommand:
		engine := NewCommandEngine(CommandConfig{
			Python:    cfg.Python,
			Script:    cfg.Script,
			ExtraArgs: cfg.ExtraArgs,
			Options:   options,
		}, log)

		for _, flag := range engine.IgnoredOptions() {
			log.Warn("Engine option %s is disabled in config but the Tortoise script enables it by default", flag)
		}

		return engine, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownEngineMode, cfg.Mode)
	}
}

// CheckHealth runs the engine health check under HealthCheckTimeout.
func CheckHealth(ctx context.Context, engine core.Synthesizer) error {
	healthCtx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	err := engine.HealthCheck(healthCtx)
	if err != nil {
		return fmt.Errorf(errFmtHealthCheckFailed, err)
	}

	return nil
}
