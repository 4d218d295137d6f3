package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lllllllleong/jobboard/internal/models"
)

// ObjectWriter stores an object only if it does not exist yet.
type ObjectWriter interface {
	SaveNew(ctx context.Context, bucket, object string, data []byte) (uri string, written bool, err error)
}

// JobLister is the read side of the job repository.
type JobLister interface {
	ListAll(ctx context.Context) ([]*models.Job, error)
	Collection() string
}

// SnapshotExporter writes the whole jobs collection to a bucket as one JobBatch.
type SnapshotExporter struct {
	jobs    JobLister
	objects ObjectWriter
	bucket  string
	now     func() time.Time
	logger  *slog.Logger
}

func NewSnapshotExporter(jobs JobLister, objects ObjectWriter, bucket string, logger *slog.Logger) (*SnapshotExporter, error) {
	if bucket == "" {
		return nil, fmt.Errorf("SNAPSHOT_BUCKET must be set to export snapshots")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotExporter{jobs: jobs, objects: objects, bucket: bucket, now: time.Now, logger: logger}, nil
}

// Export writes the snapshot to objectName, or to a timestamped name when empty, and
// returns its gs:// URI. An object that already exists is left untouched.
func (e *SnapshotExporter) Export(ctx context.Context, objectName string) (string, error) {
	now := e.now().UTC()
	if objectName == "" {
		objectName = fmt.Sprintf("%s/%s.json", e.jobs.Collection(), now.Format("20060102T150405Z"))
	}
	logger := e.logger.With("bucket", e.bucket, "object", objectName)

	jobs, err := e.jobs.ListAll(ctx)
	if err != nil {
		logger.Error("Failed to read jobs for snapshot", "error", err)
		return "", err
	}

	data, err := json.MarshalIndent(models.JobBatch{
		ExportedAt: now,
		Collection: e.jobs.Collection(),
		Jobs:       jobs,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	uri, written, err := e.objects.SaveNew(ctx, e.bucket, objectName, data)
	if err != nil {
		logger.Error("Failed to save snapshot", "error", err)
		return "", err
	}
	if written {
		logger.Info("Snapshot exported", "jobs", len(jobs), "uri", uri)
	} else {
		logger.Warn("Snapshot object already existed; nothing written", "uri", uri)
	}
	return uri, nil
}
