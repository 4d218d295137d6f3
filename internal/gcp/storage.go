package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// SaveToGCSAtomically writes content to a GCS object only if it doesn't already exist.
// It reports whether the object was written; an existing object is a skip, not a failure.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName string, content []byte) (bool, error) {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = "application/json"

	if _, err := io.Copy(writer, bytes.NewReader(content)); err != nil {
		_ = writer.Close()
		if isPreconditionFailed(err) {
			slog.Info("Object already exists, skipping write", "object", objectName)
			return false, nil
		}
		slog.Error("Failed to copy content to GCS object", "object", objectName, "error", err)
		return false, fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		if isPreconditionFailed(err) {
			slog.Info("Object already exists, skipping write", "object", objectName)
			return false, nil
		}
		slog.Error("Failed to close GCS writer", "object", objectName, "error", err)
		return false, fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return true, nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

// GCSURI formats a gs:// URI.
func GCSURI(bucket, object string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, object)
}

// ObjectStore reads and writes whole objects.
type ObjectStore struct {
	client *storage.Client
}

func NewObjectStore(client *storage.Client) *ObjectStore {
	return &ObjectStore{client: client}
}

// SaveNew writes data to bucket/object unless the object exists, returning its URI and
// whether it was written.
func (s *ObjectStore) SaveNew(ctx context.Context, bucket, object string, data []byte) (string, bool, error) {
	written, err := SaveToGCSAtomically(ctx, s.client.Bucket(bucket), object, data)
	if err != nil {
		return "", false, err
	}
	return GCSURI(bucket, object), written, nil
}

// Read returns the full contents of bucket/object.
func (s *ObjectStore) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	reader, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", GCSURI(bucket, object), err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", GCSURI(bucket, object), err)
	}
	return data, nil
}

func (s *ObjectStore) Close() error {
	return s.client.Close()
}
