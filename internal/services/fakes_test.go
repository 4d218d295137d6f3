package services

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/Lllllllleong/jobboard/internal/docstore"
	"github.com/Lllllllleong/jobboard/internal/identity"
)

type patchCall struct {
	collection string
	id         string
	fields     docstore.Fields
}

// memStore is an in-memory docstore.Store.
type memStore struct {
	mu        sync.Mutex
	docs      map[string][]docstore.Document
	nextID    int
	listErr   error
	createErr error
	patches   []patchCall
}

func newMemStore() *memStore {
	return &memStore{docs: map[string][]docstore.Document{}}
}

func (m *memStore) seed(collection string, docs ...docstore.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[collection] = append(m.docs[collection], docs...)
}

func (m *memStore) ListCollection(_ context.Context, collection string) ([]docstore.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]docstore.Document(nil), m.docs[collection]...), nil
}

func (m *memStore) CreateDocument(_ context.Context, collection string, fields docstore.Fields) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return "", m.createErr
	}
	m.nextID++
	id := fmt.Sprintf("doc-%d", m.nextID)
	m.docs[collection] = append(m.docs[collection], docstore.Document{ID: id, Name: collection + "/" + id, Fields: maps.Clone(fields)})
	return id, nil
}

func (m *memStore) PatchDocument(_ context.Context, collection, id string, fields docstore.Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patches = append(m.patches, patchCall{collection: collection, id: id, fields: maps.Clone(fields)})
	return nil
}

type fakeAuth struct {
	signIn      *identity.SignInResult
	signInErr   error
	displayName string
	lookupErr   error
	lookupToken string
}

func (f *fakeAuth) SignInWithPassword(context.Context, string, string) (*identity.SignInResult, error) {
	return f.signIn, f.signInErr
}

func (f *fakeAuth) LookupDisplayName(_ context.Context, idToken string) (string, error) {
	f.lookupToken = idToken
	return f.displayName, f.lookupErr
}
