package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/jobboard/internal/app"
	"github.com/Lllllllleong/jobboard/internal/config"
	"github.com/Lllllllleong/jobboard/internal/models"
)

var (
	importer *eventImporter
	once     sync.Once
	initErr  error
)

func init() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	functions.CloudEvent("ImportJobs", importJobs)
}

// main is required by the Go Functions Framework.
func main() {}

type batchProcessor interface {
	Process(ctx context.Context, e models.GCSEvent) (*models.ImportResult, error)
}

type eventImporter struct {
	processor batchProcessor
}

func newEventImporter(ctx context.Context) (*eventImporter, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, app.NewLogger(os.Stdout, cfg.LogLevel))
	if err != nil {
		return nil, err
	}
	p, err := a.Importer(ctx)
	if err != nil {
		return nil, err
	}
	return &eventImporter{processor: p}, nil
}

func importJobs(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		importer, initErr = newEventImporter(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}
	return importer.handle(ctx, e)
}

func (im *eventImporter) handle(ctx context.Context, e cloudevents.Event) error {
	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	res, err := im.processor.Process(ctx, gcsEvent)
	if err != nil {
		// Returning the error marks the invocation failed so the event is retried.
		return err
	}
	slog.Info("Import finished", "event_id", e.ID(), "source", res.Source, "imported", res.Imported)
	return nil
}
