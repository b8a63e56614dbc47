package synth

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/book-expert/marathi-tts/internal/config"
)

const (
	bannerWidth     = 60
	bannerTitle     = "MARATHI VOICE CLONING - TORTOISE TTS"
	msgFmtDemoStep  = "\n%d. %s preset...\n"
	msgFmtDemoDone  = "All generations complete! Check the %s folder.\n"
	logFmtDemoStart = "Demo run with presets %v into %s"
)

// DemoRequest describes the demonstration run.
type DemoRequest struct {
	Demo       config.DemoConfig
	OutputDir  string
	Candidates int
}

// Demo generates the configured demonstration text once per configured preset,
// each into <OutputDir>/<preset>, and returns the results in preset order.
func (g *Generator) Demo(ctx context.Context, req DemoRequest) ([]*Result, error) {
	banner := strings.Repeat("=", bannerWidth)

	g.println(banner)
	g.println(bannerTitle)
	g.println(banner)

	g.log.Info(logFmtDemoStart, req.Demo.Presets, req.OutputDir)

	results := make([]*Result, 0, len(req.Demo.Presets))

	for index, preset := range req.Demo.Presets {
		g.printf(msgFmtDemoStep, index+1, preset)

		result, err := g.Generate(ctx, Request{
			Text:       req.Demo.Text,
			Voice:      req.Demo.Voice,
			Preset:     preset,
			OutputDir:  filepath.Join(req.OutputDir, preset),
			Candidates: req.Candidates,
		})
		if err != nil {
			return results, fmt.Errorf("demo preset %s: %w", preset, err)
		}

		results = append(results, result)
	}

	g.println("\n" + banner)
	g.printf(msgFmtDemoDone, req.OutputDir)
	g.println(banner)

	return results, nil
}
