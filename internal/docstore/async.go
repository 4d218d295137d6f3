package docstore

import (
	"context"

	"github.com/Lllllllleong/jobboard/internal/async"
)

// AsyncStore runs Store calls in the background. Attach UI work to the returned futures
// with Future.Then so it runs on the UI dispatcher.
type AsyncStore struct {
	Store Store
}

func NewAsync(s Store) AsyncStore { return AsyncStore{Store: s} }

func (a AsyncStore) ListCollectionAsync(ctx context.Context, collection string) *async.Future[[]Document] {
	return async.Go(ctx, func(ctx context.Context) ([]Document, error) {
		return a.Store.ListCollection(ctx, collection)
	})
}

func (a AsyncStore) CreateDocumentAsync(ctx context.Context, collection string, fields Fields) *async.Future[string] {
	return async.Go(ctx, func(ctx context.Context) (string, error) {
		return a.Store.CreateDocument(ctx, collection, fields)
	})
}

func (a AsyncStore) PatchDocumentAsync(ctx context.Context, collection, id string, fields Fields) *async.Future[struct{}] {
	return async.Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, a.Store.PatchDocument(ctx, collection, id, fields)
	})
}
