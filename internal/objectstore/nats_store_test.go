// Package objectstore_test tests the NATS object store implementation.
package objectstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/marathi-tts/internal/objectstore"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestServer starts an embedded JetStream server on a random port.
func startTestServer(t *testing.T) (*server.Server, nats.JetStreamContext) {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	natsServer := test.RunServer(&opts)
	t.Cleanup(natsServer.Shutdown)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	require.NoError(t, err)
	t.Cleanup(natsConnection.Close)

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	return natsServer, jetstreamContext
}

func TestNatsObjectStore_UploadDownload(t *testing.T) {
	t.Parallel()

	_, jetstreamContext := startTestServer(t)

	store, err := objectstore.New(jetstreamContext, "test-bucket")
	require.NoError(t, err)
	assert.Equal(t, "test-bucket", store.Bucket())

	ctx := context.Background()
	key := "workflow-1/clip.wav"
	uploadData := []byte("RIFF....WAVEfmt ")

	require.NoError(t, store.Upload(ctx, key, uploadData))

	downloadData, err := store.Download(ctx, key)
	require.NoError(t, err)
	require.Equal(t, uploadData, downloadData)
}

func TestNatsObjectStore_UploadFile(t *testing.T) {
	t.Parallel()

	_, jetstreamContext := startTestServer(t)

	store, err := objectstore.New(jetstreamContext, "files")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "output_0.wav")
	require.NoError(t, os.WriteFile(path, []byte("wav payload"), 0o600))

	ctx := context.Background()
	require.NoError(t, store.UploadFile(ctx, "wf/abc.wav", path))

	data, err := store.Download(ctx, "wf/abc.wav")
	require.NoError(t, err)
	assert.Equal(t, []byte("wav payload"), data)

	err = store.UploadFile(ctx, "wf/missing.wav", filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
}

func TestNatsObjectStore_BindsToExistingBucket(t *testing.T) {
	t.Parallel()

	_, jetstreamContext := startTestServer(t)

	first, err := objectstore.New(jetstreamContext, "shared")
	require.NoError(t, err)
	require.NoError(t, first.Upload(context.Background(), "k", []byte("v")))

	second, err := objectstore.New(jetstreamContext, "shared")
	require.NoError(t, err)

	data, err := second.Download(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)
}

func TestNatsObjectStore_DownloadMissing(t *testing.T) {
	t.Parallel()

	_, jetstreamContext := startTestServer(t)

	store, err := objectstore.New(jetstreamContext, "empty")
	require.NoError(t, err)

	_, err = store.Download(context.Background(), "nope")
	require.Error(t, err)
}
