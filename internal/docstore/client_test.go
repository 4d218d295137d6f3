package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/jobboard/internal/async"
	"github.com/Lllllllleong/jobboard/internal/credentials"
	"github.com/Lllllllleong/jobboard/internal/metrics"
)

type staticTokens struct {
	token    string
	err      error
	purposes []credentials.Purpose
}

func (s *staticTokens) ResolveFor(_ context.Context, p credentials.Purpose) (string, error) {
	s.purposes = append(s.purposes, p)
	return s.token, s.err
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...ClientOption) (*Client, *staticTokens) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	tokens := &staticTokens{token: "tok"}
	c, err := NewClient(Config{Endpoint: srv.URL, ProjectID: "demo"}, tokens, opts...)
	require.NoError(t, err)
	return c, tokens
}

func TestNewClientValidates(t *testing.T) {
	_, err := NewClient(Config{}, &staticTokens{})
	require.Error(t, err)
	_, err = NewClient(Config{ProjectID: "p"}, nil)
	require.Error(t, err)

	c, err := NewClient(Config{ProjectID: "p"}, &staticTokens{})
	require.NoError(t, err)
	require.Equal(t, "https://firestore.googleapis.com/v1/projects/p/databases/%28default%29/documents", c.BaseURL())
}

func TestListCollectionDecodesDocuments(t *testing.T) {
	c, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/projects/demo/databases/(default)/documents/jobs", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"documents":[
			{"name":"projects/demo/databases/(default)/documents/jobs/a1","fields":{
				"title":{"stringValue":"Logo design"},
				"timestamp":{"integerValue":"1700000000000"}}},
			{"name":"projects/demo/databases/(default)/documents/jobs/b2","fields":{
				"title":{"stringValue":"No timestamp"}}}
		]}`)
	})

	docs, err := c.ListCollection(context.Background(), "jobs")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "a1", docs[0].ID)
	require.Equal(t, int64(1700000000000), docs[0].Fields.Int("timestamp"))

	// A missing timestamp decodes as zero.
	require.Equal(t, "b2", docs[1].ID)
	require.Zero(t, docs[1].Fields.Int("timestamp"))
	require.Equal(t, []credentials.Purpose{credentials.PurposeRead}, tokens.purposes)
}

func TestListCollectionEmpty(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	docs, err := c.ListCollection(context.Background(), "jobs")
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestCreateDocumentReturnsID(t *testing.T) {
	c, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body struct {
			Fields map[string]json.RawMessage `json:"fields"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.JSONEq(t, `{"stringValue":"Logo design"}`, string(body.Fields["title"]))
		_, _ = io.WriteString(w, `{"name":"projects/demo/databases/(default)/documents/jobs/new123"}`)
	})

	id, err := c.CreateDocument(context.Background(), "jobs", Fields{"title": StringValue("Logo design")})
	require.NoError(t, err)
	require.Equal(t, "new123", id)
	require.Equal(t, []credentials.Purpose{credentials.PurposeWrite}, tokens.purposes)
}

// A 200 without a name is a protocol violation.
func TestCreateDocumentMissingName(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"fields":{}}`)
	})
	_, err := c.CreateDocument(context.Background(), "jobs", Fields{})
	require.ErrorIs(t, err, ErrMissingIdentifier)

	c, _ = newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	})
	_, err = c.CreateDocument(context.Background(), "jobs", Fields{})
	require.ErrorIs(t, err, ErrMissingIdentifier)
}

func TestPatchDocumentSendsUpdateMask(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/projects/demo/databases/(default)/documents/users/uid-1", r.URL.Path)
		assert.Equal(t, []string{"displayName", "email", "`odd-name`"}, r.URL.Query()["updateMask.fieldPaths"])
		_, _ = io.WriteString(w, `{"name":"projects/demo/databases/(default)/documents/users/uid-1"}`)
	})

	err := c.PatchDocument(context.Background(), "users", "uid-1", Fields{
		"email":       StringValue("a@example.com"),
		"displayName": StringValue("Ana"),
		"odd-name":    StringValue("x"),
	})
	require.NoError(t, err)

	require.Error(t, c.PatchDocument(context.Background(), "users", "", Fields{}))
}

func TestHTTPStatusErrorKeepsBody(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"status":"PERMISSION_DENIED"}}`)
	}, WithMetrics(m))

	_, err := c.ListCollection(context.Background(), "jobs")
	var se *HTTPStatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusForbidden, se.Status)
	require.Equal(t, `{"error":{"status":"PERMISSION_DENIED"}}`, se.Body)
	require.True(t, IsStatus(err, http.StatusForbidden))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("list", "403")))
}

func TestHTTPStatusErrorKeepsLargeBody(t *testing.T) {
	body := `{"error":{"message":"` + strings.Repeat("x", 100<<10) + `"}}`
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, body)
	})

	_, err := c.CreateDocument(context.Background(), "jobs", Fields{})
	var se *HTTPStatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, body, se.Body)
}

func TestNoCredentialSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	c, tokens := newTestClient(t, func(http.ResponseWriter, *http.Request) { hits.Add(1) })
	tokens.err = credentials.ErrNoCredential

	_, err := c.ListCollection(context.Background(), "jobs")
	require.ErrorIs(t, err, credentials.ErrNoCredential)
	_, err = c.CreateDocument(context.Background(), "jobs", Fields{})
	require.ErrorIs(t, err, credentials.ErrNoCredential)
	require.Zero(t, hits.Load())
}

func TestTransportErrorOnTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { <-release }))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(Config{Endpoint: srv.URL, ProjectID: "demo", RequestTimeout: 50 * time.Millisecond}, &staticTokens{token: "tok"})
	require.NoError(t, err)

	_, err = c.ListCollection(context.Background(), "jobs")
	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.Equal(t, "list", te.Op)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestTransportErrorOnRefusedConnection(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	c, err := NewClient(Config{Endpoint: endpoint, ProjectID: "demo"}, &staticTokens{token: "tok"})
	require.NoError(t, err)
	_, err = c.CreateDocument(context.Background(), "jobs", Fields{})
	var te *TransportError
	require.ErrorAs(t, err, &te)
}

func TestAsyncStoreDeliversOnDispatcher(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"name":"projects/demo/databases/(default)/documents/jobs/z9"}`)
	})

	loop := async.NewLoop(1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got string
	NewAsync(c).CreateDocumentAsync(ctx, "jobs", Fields{"title": StringValue("x")}).
		Then(loop, func(id string, err error) {
			require.NoError(t, err)
			got = id
			loop.Stop()
		})
	require.NoError(t, loop.Run(ctx))
	require.Equal(t, "z9", got)
}
