// Package credentials decides which bearer token a document store request carries.
package credentials

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/Lllllllleong/jobboard/internal/metrics"
)

// ErrNoCredential means neither the privileged provider nor the session had a token.
var ErrNoCredential = errors.New("credentials: no usable credential")

// Source names reported in logs and metrics.
const (
	SourcePrivileged = "privileged"
	SourceSession    = "session"
)

// Purpose tells the resolver what the token is for.
type Purpose int

const (
	PurposeRead Purpose = iota
	PurposeWrite
)

func (p Purpose) String() string {
	if p == PurposeWrite {
		return "write"
	}
	return "read"
}

// TokenProvider yields a service-identity access token.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// SessionTokens is the part of the session store the resolver reads.
type SessionTokens interface {
	Token() string
}

// Resolver tries the privileged provider first and falls back to the signed-in user.
type Resolver struct {
	privileged         TokenProvider
	session            SessionTokens
	userTokenForWrites bool
	logger             *slog.Logger
	metrics            *metrics.Collectors

	mu         sync.Mutex
	lastSource string
}

type Option func(*Resolver)

// WithPrivileged sets the service-identity provider. Without one every request uses the
// session token.
func WithPrivileged(p TokenProvider) Option {
	return func(r *Resolver) { r.privileged = p }
}

// WithUserTokenForWrites makes PurposeWrite skip the privileged provider so writes
// are checked against the signed-in user's access rules.
func WithUserTokenForWrites(enabled bool) Option {
	return func(r *Resolver) { r.userTokenForWrites = enabled }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithMetrics(m *metrics.Collectors) Option {
	return func(r *Resolver) { r.metrics = m }
}

func NewResolver(session SessionTokens, opts ...Option) *Resolver {
	r := &Resolver{session: session, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns a token for a read.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	return r.ResolveFor(ctx, PurposeRead)
}

// ResolveFor returns a token for purpose. Privileged provider failures are logged and
// otherwise ignored.
func (r *Resolver) ResolveFor(ctx context.Context, purpose Purpose) (string, error) {
	logger := r.logger.With("purpose", purpose.String())

	if r.privileged != nil && !(purpose == PurposeWrite && r.userTokenForWrites) {
		token, err := r.privileged.AccessToken(ctx)
		switch {
		case err != nil:
			logger.Warn("Privileged token unavailable, falling back to session", "error", err)
		case strings.TrimSpace(token) == "":
			logger.Warn("Privileged provider returned a blank token, falling back to session")
		default:
			r.used(logger, SourcePrivileged)
			return token, nil
		}
	}

	if r.session != nil {
		if token := r.session.Token(); strings.TrimSpace(token) != "" {
			r.used(logger, SourceSession)
			return token, nil
		}
	}

	logger.Warn("No credential available")
	return "", ErrNoCredential
}

// used logs the source at INFO the first time and whenever it changes, DEBUG otherwise.
func (r *Resolver) used(logger *slog.Logger, source string) {
	r.mu.Lock()
	previous := r.lastSource
	r.lastSource = source
	r.mu.Unlock()

	if previous != source {
		logger.Info("Credential source selected", "source", source, "previous", previous)
	} else {
		logger.Debug("Resolved credential", "source", source)
	}
	r.metrics.CredentialResolved(source)
}
