package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/jobboard/internal/gcp"
	"github.com/Lllllllleong/jobboard/internal/models"
)

// DefaultImportConcurrency bounds concurrent creates during an import.
const DefaultImportConcurrency = 8

// ObjectReader returns an object's full contents.
type ObjectReader interface {
	Read(ctx context.Context, bucket, object string) ([]byte, error)
}

// JobAdder is the write side of the job repository.
type JobAdder interface {
	Add(ctx context.Context, job *models.Job) (string, error)
}

// JobImporter adds every job in an uploaded JobBatch object.
type JobImporter struct {
	jobs        JobAdder
	objects     ObjectReader
	concurrency int
	logger      *slog.Logger
}

func NewJobImporter(jobs JobAdder, objects ObjectReader, concurrency int, logger *slog.Logger) *JobImporter {
	if concurrency <= 0 {
		concurrency = DefaultImportConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JobImporter{jobs: jobs, objects: objects, concurrency: concurrency, logger: logger}
}

// Process imports the batch named by e. Objects that are not .json are ignored. Jobs
// are created as new documents; any ID in the batch is discarded. The first failure
// cancels the remaining creates.
func (im *JobImporter) Process(ctx context.Context, e models.GCSEvent) (*models.ImportResult, error) {
	source := gcp.GCSURI(e.Bucket, e.Name)
	logger := im.logger.With("source", source)
	result := &models.ImportResult{Source: source}

	if !strings.HasSuffix(e.Name, ".json") {
		logger.Info("Ignoring non-JSON object")
		return result, nil
	}

	data, err := im.objects.Read(ctx, e.Bucket, e.Name)
	if err != nil {
		logger.Error("Failed to read batch", "error", err)
		return nil, err
	}
	var batch models.JobBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		logger.Error("Failed to decode batch", "error", err)
		return nil, fmt.Errorf("failed to decode job batch %s: %w", source, err)
	}

	logger.Info("Starting import", "jobs", len(batch.Jobs), "concurrency", im.concurrency)
	ids := make([]string, len(batch.Jobs))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(im.concurrency)
	for i, job := range batch.Jobs {
		if job == nil {
			continue
		}
		job.ID = ""
		eg.Go(func() error {
			id, err := im.jobs.Add(gctx, job)
			if err != nil {
				return fmt.Errorf("job %d (%q): %w", i, job.Title, err)
			}
			ids[i] = id
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logger.Error("Import failed", "error", err)
		return nil, fmt.Errorf("failed to import %s: %w", source, err)
	}

	for _, id := range ids {
		if id != "" {
			result.CreatedIDs = append(result.CreatedIDs, id)
		}
	}
	result.Imported = len(result.CreatedIDs)
	logger.Info("Import complete", "imported", result.Imported)
	return result, nil
}
