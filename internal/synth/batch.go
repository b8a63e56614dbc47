package synth

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

const (
	batchDirName       = "batch_%d"
	batchOutputName    = "output_%d.wav"
	batchCandidates    = 1
	msgFmtBatchItem    = "\n--- Processing text %d/%d ---\n"
	logFmtBatchStarted = "Batch of %d text(s) with voice %s, preset %s"
	logFmtBatchFailed  = "Batch stopped at item %d/%d: %v"
)

// Static errors.
var (
	ErrBatchEmpty      = errors.New("batch contains no texts")
	ErrBatchItemFailed = errors.New("batch item failed")
)

// BatchRequest describes a batch generation.
type BatchRequest struct {
	Texts     []string
	Voice     string
	Preset    string
	OutputDir string
	// Progress, when set, is called after every completed item.
	Progress func(completed, total int)
}

// BatchItem is one written batch file.
type BatchItem struct {
	// Index is 1-based.
	Index int
	Text  string
	Path  string
}

// Batch generates one file per text, in input order, as
// <OutputDir>/batch_<i>/output_<i>.wav. The voice is loaded once. The first
// failure stops the batch; the items written before it are returned together
// with an error wrapping ErrBatchItemFailed.
func (g *Generator) Batch(ctx context.Context, req BatchRequest) ([]BatchItem, error) {
	if len(req.Texts) == 0 {
		return nil, ErrBatchEmpty
	}

	if req.OutputDir == "" {
		return nil, ErrOutputDir
	}

	total := len(req.Texts)

	g.log.Info(logFmtBatchStarted, total, req.Voice, req.Preset)
	g.println(msgLoadingEngine)

	loaded, err := g.loadVoice(req.Voice)
	if err != nil {
		return nil, err
	}

	items := make([]BatchItem, 0, total)

	for offset, rawText := range req.Texts {
		index := offset + 1

		g.printf(msgFmtBatchItem, index, total)

		item, itemErr := g.batchItem(ctx, loaded, req, index, rawText)
		if itemErr != nil {
			g.log.Error(logFmtBatchFailed, index, total, itemErr)

			return items, fmt.Errorf("%w: item %d/%d: %w", ErrBatchItemFailed, index, total, itemErr)
		}

		items = append(items, item)

		if req.Progress != nil {
			req.Progress(index, total)
		}
	}

	return items, nil
}

func (g *Generator) batchItem(
	ctx context.Context,
	loaded *loadedVoice,
	req BatchRequest,
	index int,
	rawText string,
) (BatchItem, error) {
	dir := filepath.Join(req.OutputDir, fmt.Sprintf(batchDirName, index))

	normalized, err := g.prepare(rawText, req.Preset, dir)
	if err != nil {
		return BatchItem{}, err
	}

	dirErr := g.ensureOutputDir(dir)
	if dirErr != nil {
		return BatchItem{}, dirErr
	}

	clips, err := g.synthesize(ctx, loaded, normalized, req.Preset, batchCandidates)
	if err != nil {
		return BatchItem{}, err
	}

	path := filepath.Join(dir, fmt.Sprintf(batchOutputName, index))

	writeErr := g.writeClip(path, clips[0])
	if writeErr != nil {
		return BatchItem{}, writeErr
	}

	return BatchItem{Index: index, Text: rawText, Path: path}, nil
}
