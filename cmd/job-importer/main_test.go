package main

import (
	"context"
	"errors"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/jobboard/internal/models"
)

type fakeProcessor struct {
	got models.GCSEvent
	err error
}

func (f *fakeProcessor) Process(_ context.Context, e models.GCSEvent) (*models.ImportResult, error) {
	f.got = e
	if f.err != nil {
		return nil, f.err
	}
	return &models.ImportResult{Source: "gs://" + e.Bucket + "/" + e.Name, Imported: 3}, nil
}

func newEvent(t *testing.T, data any) cloudevents.Event {
	t.Helper()
	e := cloudevents.NewEvent()
	e.SetID("evt-1")
	e.SetSource("//storage.googleapis.com/projects/_/buckets/snapshots")
	e.SetType("google.cloud.storage.object.v1.finalized")
	require.NoError(t, e.SetData(cloudevents.ApplicationJSON, data))
	return e
}

func TestHandleDecodesStorageEvent(t *testing.T) {
	p := &fakeProcessor{}
	im := &eventImporter{processor: p}

	err := im.handle(context.Background(), newEvent(t, map[string]any{
		"bucket": "snapshots", "name": "jobs/batch.json", "contentType": "application/json",
	}))
	require.NoError(t, err)
	require.Equal(t, models.GCSEvent{Bucket: "snapshots", Name: "jobs/batch.json"}, p.got)
}

func TestHandleReturnsProcessError(t *testing.T) {
	im := &eventImporter{processor: &fakeProcessor{err: errors.New("quota exceeded")}}
	err := im.handle(context.Background(), newEvent(t, map[string]any{"bucket": "b", "name": "a.json"}))
	require.ErrorContains(t, err, "quota exceeded")
}

func TestHandleRejectsMalformedData(t *testing.T) {
	im := &eventImporter{processor: &fakeProcessor{}}
	e := cloudevents.NewEvent()
	e.SetID("evt-2")
	e.SetSource("test")
	e.SetType("test")
	require.NoError(t, e.SetData(cloudevents.TextPlain, []byte("not json")))
	require.Error(t, im.handle(context.Background(), e))
}
