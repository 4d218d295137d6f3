package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/jobboard/internal/docstore"
	"github.com/Lllllllleong/jobboard/internal/identity"
	"github.com/Lllllllleong/jobboard/internal/models"
	"github.com/Lllllllleong/jobboard/internal/session"
)

// ErrNotSignedIn is returned by operations that need a signed-in user.
var ErrNotSignedIn = errors.New("no user is signed in")

// Authenticator is the identity service the profile service signs users in with.
type Authenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (*identity.SignInResult, error)
	LookupDisplayName(ctx context.Context, idToken string) (string, error)
}

// ProfileService keeps the session and the users collection in step with the
// identity service.
type ProfileService struct {
	store      docstore.Store
	auth       Authenticator
	session    *session.Store
	collection string
	logger     *slog.Logger
}

func NewProfileService(store docstore.Store, auth Authenticator, sess *session.Store, collection string, logger *slog.Logger) *ProfileService {
	if collection == "" {
		collection = "users"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		store:      store,
		auth:       auth,
		session:    sess,
		collection: collection,
		logger:     logger,
	}
}

// Upsert writes uid, displayName and email to users/{uid}, leaving other fields alone.
func (s *ProfileService) Upsert(ctx context.Context, p models.Profile) error {
	if p.UID == "" {
		return fmt.Errorf("profile uid must not be empty")
	}
	fields := docstore.Fields{
		"uid":         docstore.StringValue(p.UID),
		"displayName": docstore.StringValue(p.DisplayName),
		"email":       docstore.StringValue(p.Email),
	}
	if err := s.store.PatchDocument(ctx, s.collection, p.UID, fields); err != nil {
		return fmt.Errorf("failed to write profile for %s: %w", p.UID, err)
	}
	s.logger.Info("Profile saved", "uid", p.UID)
	return nil
}

// SignIn authenticates and replaces the session with the new identity.
func (s *ProfileService) SignIn(ctx context.Context, email, password string) (*identity.SignInResult, error) {
	if s.auth == nil {
		return nil, fmt.Errorf("sign-in is not configured")
	}
	res, err := s.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	s.session.SetSession(res.IDToken, res.LocalID, res.Email, res.ExpiresAt)
	if res.DisplayName != "" {
		s.session.SetDisplayName(res.DisplayName)
	}
	return res, nil
}

// RefreshDisplayName looks the signed-in account up and stores its display name,
// using the email when the account has none.
func (s *ProfileService) RefreshDisplayName(ctx context.Context) (string, error) {
	snap := s.session.Snapshot()
	if !snap.IsAuthenticated() {
		return "", ErrNotSignedIn
	}
	if s.auth == nil {
		return "", fmt.Errorf("account lookup is not configured")
	}

	name, err := s.auth.LookupDisplayName(ctx, snap.Token)
	if err != nil {
		return "", fmt.Errorf("failed to look up account: %w", err)
	}
	if name == "" {
		name = snap.Email
	}
	s.session.SetDisplayName(name)
	return name, nil
}

// SetDisplayName saves a new display name for the signed-in user and updates the session.
func (s *ProfileService) SetDisplayName(ctx context.Context, name string) error {
	snap := s.session.Snapshot()
	if !snap.IsAuthenticated() {
		return ErrNotSignedIn
	}
	if err := s.Upsert(ctx, models.Profile{UID: snap.UserID, DisplayName: name, Email: snap.Email}); err != nil {
		return err
	}
	s.session.SetDisplayName(name)
	return nil
}

// SignOut clears the session.
func (s *ProfileService) SignOut() {
	s.session.Clear()
}
