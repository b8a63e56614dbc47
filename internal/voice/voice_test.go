package voice_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/marathi-tts/internal/voice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestLibrary_Inspect(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "mom_marathi", "2.wav"), make([]byte, 20))
	writeFile(t, filepath.Join(root, "mom_marathi", "1.wav"), make([]byte, 10))
	writeFile(t, filepath.Join(root, "mom_marathi", "readme.txt"), []byte("notes"))

	library := voice.NewLibrary(root)

	set, err := library.Inspect("mom_marathi")
	require.NoError(t, err)

	assert.Equal(t, "mom_marathi", set.Name)
	assert.Equal(t, filepath.Join(root, "mom_marathi"), set.Dir)
	require.Len(t, set.Samples, 2)
	assert.Equal(t, "1.wav", set.Samples[0].Name)
	assert.Equal(t, int64(30), set.TotalSize())
	assert.Empty(t, set.LatentsPath)
}

func TestLibrary_Inspect_MissingDirectory(t *testing.T) {
	t.Parallel()

	library := voice.NewLibrary(t.TempDir())

	_, err := library.Inspect("mom_marathi")
	require.ErrorIs(t, err, voice.ErrMissingDirectory)
}

func TestLibrary_Inspect_FileInsteadOfDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "mom_marathi"), []byte("x"))

	_, err := voice.NewLibrary(root).Inspect("mom_marathi")
	require.ErrorIs(t, err, voice.ErrMissingDirectory)
}

func TestLibrary_Inspect_NoSamples(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "mom_marathi", "sample.mp3"), []byte("x"))

	_, err := voice.NewLibrary(root).Inspect("mom_marathi")
	require.ErrorIs(t, err, voice.ErrNoSamples)
}

func TestLibrary_Inspect_InvalidName(t *testing.T) {
	t.Parallel()

	library := voice.NewLibrary(t.TempDir())

	_, err := library.Inspect("")
	require.ErrorIs(t, err, voice.ErrNameEmpty)

	_, err = library.Inspect("../etc")
	require.ErrorIs(t, err, voice.ErrInvalidName)
}

func TestLibrary_Load(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "aai", "a.wav"), []byte("first"))
	writeFile(t, filepath.Join(root, "aai", "b.wav"), []byte("second"))
	writeFile(t, filepath.Join(root, "aai", "cond_latents_abc.pth"), []byte("latents"))

	samples, latents, err := voice.NewLibrary(root).Load("aai")
	require.NoError(t, err)

	require.Len(t, samples, 2)
	assert.Equal(t, "a.wav", samples[0].Name)
	assert.Equal(t, []byte("first"), samples[0].Data)
	assert.Equal(t, []byte("second"), samples[1].Data)
	assert.Equal(t, []byte("latents"), latents)
}
