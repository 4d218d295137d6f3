// Package docstore talks to a schema-less document collection over the Firestore REST
// API and converts between native Go values and its typed wire format.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Lllllllleong/jobboard/internal/credentials"
	"github.com/Lllllllleong/jobboard/internal/metrics"
)

const (
	DefaultEndpoint       = "https://firestore.googleapis.com/v1"
	DefaultDatabase       = "(default)"
	DefaultRequestTimeout = 30 * time.Second
)

// Store is the three operations the rest of the application needs from a document store.
type Store interface {
	ListCollection(ctx context.Context, collection string) ([]Document, error)
	CreateDocument(ctx context.Context, collection string, fields Fields) (string, error)
	PatchDocument(ctx context.Context, collection, id string, fields Fields) error
}

// TokenResolver supplies the bearer token for each request.
type TokenResolver interface {
	ResolveFor(ctx context.Context, purpose credentials.Purpose) (string, error)
}

// Config locates the database.
type Config struct {
	Endpoint       string
	ProjectID      string
	Database       string
	RequestTimeout time.Duration
}

// Client implements Store over HTTP. It never retries; each call is one request.
type Client struct {
	baseURL string
	timeout time.Duration
	tokens  TokenResolver
	http    *http.Client
	logger  *slog.Logger
	metrics *metrics.Collectors
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMetrics(m *metrics.Collectors) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// NewClient validates cfg and returns a ready client.
func NewClient(cfg Config, tokens TokenResolver, opts ...ClientOption) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a document client")
	}
	if tokens == nil {
		return nil, fmt.Errorf("a token resolver must be provided to create a document client")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	c := &Client{
		baseURL: fmt.Sprintf("%s/projects/%s/databases/%s/documents",
			strings.TrimRight(cfg.Endpoint, "/"), url.PathEscape(cfg.ProjectID), url.PathEscape(cfg.Database)),
		timeout: cfg.RequestTimeout,
		tokens:  tokens,
		http:    http.DefaultClient,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL is the documents root every request is made under.
func (c *Client) BaseURL() string { return c.baseURL }

type wireDocument struct {
	Name   string `json:"name,omitempty"`
	Fields Fields `json:"fields"`
}

type listResponse struct {
	Documents     []wireDocument `json:"documents"`
	NextPageToken string         `json:"nextPageToken"`
}

// ListCollection reads every document in one response. Paging is not followed.
func (c *Client) ListCollection(ctx context.Context, collection string) ([]Document, error) {
	body, err := c.do(ctx, "list", http.MethodGet, c.collectionURL(collection), nil, credentials.PurposeRead)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode list response for %s: %w", collection, err)
		}
	}
	if resp.NextPageToken != "" {
		c.logger.Warn("List response was truncated; further pages are not read",
			"collection", collection, "returned", len(resp.Documents))
	}

	docs := make([]Document, 0, len(resp.Documents))
	for _, wd := range resp.Documents {
		fields := wd.Fields
		if fields == nil {
			fields = Fields{}
		}
		docs = append(docs, Document{ID: lastSegment(wd.Name), Name: wd.Name, Fields: fields})
	}
	return docs, nil
}

// CreateDocument stores fields as a new document and returns its store-assigned ID.
func (c *Client) CreateDocument(ctx context.Context, collection string, fields Fields) (string, error) {
	payload, err := json.Marshal(wireDocument{Fields: nonNil(fields)})
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	body, err := c.do(ctx, "create", http.MethodPost, c.collectionURL(collection), payload, credentials.PurposeWrite)
	if err != nil {
		return "", err
	}

	var created wireDocument
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingIdentifier, err)
	}
	id := lastSegment(created.Name)
	if id == "" {
		return "", ErrMissingIdentifier
	}
	return id, nil
}

// PatchDocument writes only the given fields of collection/id, creating the document
// if it does not exist. Other fields are left alone.
func (c *Client) PatchDocument(ctx context.Context, collection, id string, fields Fields) error {
	if id == "" {
		return fmt.Errorf("a document ID is required to patch %s", collection)
	}
	payload, err := json.Marshal(wireDocument{Fields: nonNil(fields)})
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	target := c.collectionURL(collection) + "/" + url.PathEscape(id)
	if len(fields) > 0 {
		q := url.Values{}
		for _, name := range fields.Names() {
			q.Add("updateMask.fieldPaths", quoteFieldPath(name))
		}
		target += "?" + q.Encode()
	}

	_, err = c.do(ctx, "patch", http.MethodPatch, target, payload, credentials.PurposeWrite)
	return err
}

func (c *Client) do(ctx context.Context, op, method, target string, payload []byte, purpose credentials.Purpose) ([]byte, error) {
	logger := c.logger.With("op", op, "request_id", uuid.NewString())

	token, err := c.tokens.ResolveFor(ctx, purpose)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, &TransportError{Op: op, URL: target, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(op, 0, time.Since(start))
		logger.Error("Request failed before a response arrived", "url", target, "error", err)
		return nil, &TransportError{Op: op, URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.metrics.ObserveRequest(op, resp.StatusCode, time.Since(start))
	if err != nil {
		logger.Error("Failed to read response body", "status", resp.StatusCode, "error", err)
		return nil, &TransportError{Op: op, URL: target, Err: err}
	}

	if resp.StatusCode >= 400 {
		logger.Warn("Remote rejected request", "status", resp.StatusCode, "url", target)
		return nil, &HTTPStatusError{Status: resp.StatusCode, Body: string(body)}
	}

	logger.Debug("Request complete", "status", resp.StatusCode, "elapsed", time.Since(start))
	return body, nil
}

func (c *Client) collectionURL(collection string) string {
	segments := strings.Split(strings.Trim(collection, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return c.baseURL + "/" + strings.Join(segments, "/")
}

func lastSegment(name string) string {
	name = strings.TrimRight(name, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

func nonNil(f Fields) Fields {
	if f == nil {
		return Fields{}
	}
	return f
}

var simpleFieldPath = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quoteFieldPath backtick-quotes names that are not plain identifiers.
func quoteFieldPath(name string) string {
	if simpleFieldPath.MatchString(name) {
		return name
	}
	escaped := strings.NewReplacer(`\`, `\\`, "`", "\\`").Replace(name)
	return "`" + escaped + "`"
}
