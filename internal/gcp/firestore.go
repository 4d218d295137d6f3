package gcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/Lllllllleong/jobboard/internal/docstore"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project
// and database. It centralizes client creation for every binary.
func NewFirestoreClient(ctx context.Context, projectID, database string, opts ...option.ClientOption) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}
	if database == "" {
		database = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, database, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return client, nil
}

// FirestoreStore implements docstore.Store with the Firestore client library instead
// of hand-built REST calls. Authentication is whatever the client was built with; the
// signed-in session token is never used.
type FirestoreStore struct {
	client *firestore.Client
	logger *slog.Logger
}

func NewFirestoreStore(client *firestore.Client, logger *slog.Logger) *FirestoreStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FirestoreStore{client: client, logger: logger}
}

func (s *FirestoreStore) ListCollection(ctx context.Context, collection string) ([]docstore.Document, error) {
	iter := s.client.Collection(collection).Documents(ctx)
	defer iter.Stop()

	var docs []docstore.Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", collection, err)
		}
		docs = append(docs, docstore.Document{
			ID:     snap.Ref.ID,
			Name:   snap.Ref.Path,
			Fields: FieldsFromData(snap.Data()),
		})
	}
	s.logger.Debug("Listed collection", "collection", collection, "count", len(docs))
	return docs, nil
}

func (s *FirestoreStore) CreateDocument(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, DataFromFields(fields))
	if err != nil {
		return "", fmt.Errorf("failed to create document in %s: %w", collection, err)
	}
	if ref == nil || ref.ID == "" {
		return "", docstore.ErrMissingIdentifier
	}
	return ref.ID, nil
}

// PatchDocument merges fields into collection/id, creating it when absent.
func (s *FirestoreStore) PatchDocument(ctx context.Context, collection, id string, fields docstore.Fields) error {
	if id == "" {
		return fmt.Errorf("a document ID is required to patch %s", collection)
	}
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, DataFromFields(fields), firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to patch %s/%s: %w", collection, id, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// FieldsFromData converts a snapshot's data map. Values with no docstore variant
// (booleans, maps, nulls, references) become raw values holding their wire-tagged JSON.
func FieldsFromData(data map[string]any) docstore.Fields {
	fields := make(docstore.Fields, len(data))
	for name, native := range data {
		fields[name] = valueFromData(native)
	}
	return fields
}

func valueFromData(native any) docstore.Value {
	if v, err := docstore.Encode(native); err == nil {
		return v
	}
	tag := "stringValue"
	switch x := native.(type) {
	case nil:
		tag = "nullValue"
	case bool:
		tag = "booleanValue"
	case []byte:
		tag = "bytesValue"
	case map[string]any:
		tag = "mapValue"
		native = map[string]any{"fields": x}
	case []any:
		tag = "arrayValue"
		native = map[string]any{"values": x}
	case *firestore.DocumentRef:
		tag = "referenceValue"
		native = x.Path
	}
	raw, err := json.Marshal(map[string]any{tag: native})
	if err != nil {
		return docstore.RawValue(fmt.Sprintf(`{"stringValue":%q}`, fmt.Sprint(native)))
	}
	return docstore.RawValue(string(raw))
}

// DataFromFields converts fields to the native map the client library writes.
func DataFromFields(fields docstore.Fields) map[string]any {
	return fields.Native()
}
