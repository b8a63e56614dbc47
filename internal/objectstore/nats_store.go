// Package objectstore stores generated audio in a NATS JetStream object store.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	headerContentType = "Content-Type"
	contentTypeWAV    = "audio/wav"
	metaSourceFile    = "source-file"
)

// NatsObjectStore implements core.ObjectStore on a JetStream object store bucket.
type NatsObjectStore struct {
	bucket string
	store  nats.ObjectStore
}

// New binds to bucketName, creating the bucket first when it does not exist.
func New(jetstreamContext nats.JetStreamContext, bucketName string) (*NatsObjectStore, error) {
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Generated Marathi speech (%s).", bucketName),
		Storage:     nats.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucketName, err)
		}

		store, err = jetstreamContext.ObjectStore(bucketName)
		if err != nil {
			return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucketName, err)
		}
	}

	return &NatsObjectStore{
		bucket: bucketName,
		store:  store,
	}, nil
}

// Bucket returns the bucket name.
func (n *NatsObjectStore) Bucket() string {
	return n.bucket
}

// Download retrieves an object from the bucket.
func (n *NatsObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	obj, err := n.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, n.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return data, nil
}

// Upload stores WAV bytes under key.
func (n *NatsObjectStore) Upload(_ context.Context, key string, data []byte) error {
	return n.put(key, bytes.NewReader(data), nil)
}

// UploadFile streams the file at path into the bucket under key and records
// the source file name in the object metadata.
func (n *NatsObjectStore) UploadFile(_ context.Context, key, path string) error {
	// #nosec G304 -- path comes from files written by the generator
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open '%s' for upload: %w", path, err)
	}
	defer file.Close()

	return n.put(key, file, map[string]string{metaSourceFile: filepath.Base(path)})
}

func (n *NatsObjectStore) put(key string, reader io.Reader, metadata map[string]string) error {
	headers := nats.Header{}
	headers.Set(headerContentType, contentTypeWAV)

	_, err := n.store.Put(&nats.ObjectMeta{
		Name:     key,
		Headers:  headers,
		Metadata: metadata,
	}, reader)
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, n.bucket, err)
	}

	return nil
}
