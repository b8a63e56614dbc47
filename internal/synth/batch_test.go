package synth_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/marathi-tts/internal/config"
	"github.com/book-expert/marathi-tts/internal/core"
	"github.com/book-expert/marathi-tts/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var batchTexts = []string{
	"नमस्कार",
	"शुभ सकाळ",
	"तुम्ही कसे आहात?",
}

func TestGenerator_Batch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 3, core.SampleRate)

	var progress []int

	items, err := f.generator.Batch(context.Background(), synth.BatchRequest{
		Texts:     batchTexts,
		Voice:     testVoice,
		Preset:    config.PresetFast,
		OutputDir: f.outputDir,
		Progress: func(completed, total int) {
			assert.Equal(t, len(batchTexts), total)
			progress = append(progress, completed)
		},
	})
	require.NoError(t, err)
	require.Len(t, items, len(batchTexts))
	assert.Equal(t, []int{1, 2, 3}, progress)

	for offset, item := range items {
		index := offset + 1
		dir := filepath.Join(f.outputDir, fmt.Sprintf("batch_%d", index))

		assert.Equal(t, index, item.Index)
		assert.Equal(t, batchTexts[offset], item.Text)
		assert.Equal(t, filepath.Join(dir, fmt.Sprintf("output_%d.wav", index)), item.Path)
		requireWAV24k(t, item.Path)

		entries, readErr := os.ReadDir(dir)
		require.NoError(t, readErr)
		assert.Len(t, entries, 1, "exactly one file per batch directory")

		assert.Contains(t, f.out.String(), fmt.Sprintf("--- Processing text %d/%d ---", index, len(batchTexts)))
	}

	for _, call := range f.engine.calls() {
		assert.Equal(t, 1, call.Candidates)
		assert.Equal(t, config.PresetFast, call.Preset)
	}
}

func TestGenerator_Batch_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1, core.SampleRate)
	f.engine.failCall = 2

	items, err := f.generator.Batch(context.Background(), synth.BatchRequest{
		Texts:     batchTexts,
		Voice:     testVoice,
		Preset:    config.PresetFast,
		OutputDir: f.outputDir,
	})
	require.ErrorIs(t, err, synth.ErrBatchItemFailed)
	require.ErrorIs(t, err, errMockEngine)
	assert.Contains(t, err.Error(), "item 2/3")

	require.Len(t, items, 1)
	assert.FileExists(t, filepath.Join(f.outputDir, "batch_1", "output_1.wav"))
	assert.NoFileExists(t, filepath.Join(f.outputDir, "batch_2", "output_2.wav"))
	assert.NoDirExists(t, filepath.Join(f.outputDir, "batch_3"))
	assert.Len(t, f.engine.calls(), 2)
}

func TestGenerator_Batch_EmptyItemAborts(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1, core.SampleRate)

	items, err := f.generator.Batch(context.Background(), synth.BatchRequest{
		Texts:     []string{"नमस्कार", "   "},
		Voice:     testVoice,
		Preset:    config.PresetFast,
		OutputDir: f.outputDir,
	})
	require.ErrorIs(t, err, synth.ErrEmptyText)
	assert.Len(t, items, 1)
}

func TestGenerator_Batch_Empty(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 1, core.SampleRate)

	_, err := f.generator.Batch(context.Background(), synth.BatchRequest{
		Voice:     testVoice,
		Preset:    config.PresetFast,
		OutputDir: f.outputDir,
	})
	require.ErrorIs(t, err, synth.ErrBatchEmpty)
}

func TestParseTexts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected []string
		wantErr  error
	}{
		{
			name:     "json array",
			input:    `["नमस्कार", "शुभ सकाळ"]`,
			expected: []string{"नमस्कार", "शुभ सकाळ"},
		},
		{
			name:     "lines",
			input:    "नमस्कार\n\n  शुभ सकाळ  \r\n",
			expected: []string{"नमस्कार", "शुभ सकाळ"},
		},
		{
			name:     "byte order mark",
			input:    "\ufeffनमस्कार\n",
			expected: []string{"नमस्कार"},
		},
		{
			name:     "lines starting with a bracket",
			input:    "[pause] नमस्कार\nशुभ सकाळ\n",
			expected: []string{"[pause] नमस्कार", "शुभ सकाळ"},
		},
		{name: "empty", input: "  \n", wantErr: synth.ErrBatchEmpty},
		{name: "empty json", input: "[]", wantErr: synth.ErrBatchEmpty},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			texts, err := synth.ParseTexts([]byte(testCase.input))
			if testCase.wantErr != nil {
				require.ErrorIs(t, err, testCase.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, testCase.expected, texts)
		})
	}
}

func TestParseTexts_JSONOfWrongShape(t *testing.T) {
	t.Parallel()

	_, err := synth.ParseTexts([]byte(`["नमस्कार", 7]`))
	require.Error(t, err)
}

func TestLoadTexts_BracketedFirstLine(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "script.txt")
	require.NoError(t, os.WriteFile(path, []byte("[pause] नमस्कार\n[pause] शुभ सकाळ\n"), 0o600))

	texts, err := synth.LoadTexts(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"[pause] नमस्कार", "[pause] शुभ सकाळ"}, texts)
}

func TestLoadTexts(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "texts.txt")
	require.NoError(t, os.WriteFile(path, []byte("एक\nदोन\n"), 0o600))

	texts, err := synth.LoadTexts(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"एक", "दोन"}, texts)

	_, err = synth.LoadTexts(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}
