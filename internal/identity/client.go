// Package identity signs users in against the Identity Toolkit REST API.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultEndpoint = "https://identitytoolkit.googleapis.com/v1"

// ErrNoAccount is returned when a lookup succeeds but lists no users.
var ErrNoAccount = errors.New("identity: no account returned")

// APIError is a non-200 response. Message is the API's error code, e.g.
// INVALID_PASSWORD or EMAIL_NOT_FOUND.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity: HTTP %d: %s", e.Status, e.Message)
}

// SignInResult is the identity established by a password sign-in.
type SignInResult struct {
	IDToken      string
	RefreshToken string
	LocalID      string
	Email        string
	DisplayName  string
	ExpiresAt    time.Time
}

// Account is one entry of an accounts:lookup response.
type Account struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
	now      func() time.Time
}

// NewClient returns a client for the project owning apiKey. An empty endpoint selects
// DefaultEndpoint.
func NewClient(endpoint, apiKey string, hc *http.Client, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("a web API key must be provided to create an identity client")
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     hc,
		logger:   logger,
		now:      time.Now,
	}, nil
}

type signInResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	ExpiresIn    string `json:"expiresIn"`
}

// SignInWithPassword exchanges an email and password for an ID token.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error) {
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	var resp signInResponse
	if err := c.post(ctx, "accounts:signInWithPassword", payload, &resp); err != nil {
		return nil, err
	}
	if resp.IDToken == "" || resp.LocalID == "" {
		return nil, fmt.Errorf("identity: sign-in response is missing idToken or localId")
	}
	if resp.Email == "" {
		resp.Email = email
	}

	result := &SignInResult{
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		LocalID:      resp.LocalID,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		ExpiresAt:    c.expiry(resp.ExpiresIn, resp.IDToken),
	}
	c.logger.Info("User signed in", "local_id", result.LocalID)
	return result, nil
}

// Lookup returns the account that idToken belongs to.
func (c *Client) Lookup(ctx context.Context, idToken string) (*Account, error) {
	var resp struct {
		Users []Account `json:"users"`
	}
	if err := c.post(ctx, "accounts:lookup", map[string]string{"idToken": idToken}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Users) == 0 {
		return nil, ErrNoAccount
	}
	return &resp.Users[0], nil
}

// LookupDisplayName returns the account's display name, which may be empty.
func (c *Client) LookupDisplayName(ctx context.Context, idToken string) (string, error) {
	acct, err := c.Lookup(ctx, idToken)
	if err != nil {
		return "", err
	}
	return acct.DisplayName, nil
}

// expiry prefers expiresIn (seconds) and falls back to the token's exp claim. The
// token is not verified; it came straight from the issuer over TLS.
func (c *Client) expiry(expiresIn, idToken string) time.Time {
	if secs, err := strconv.Atoi(strings.TrimSpace(expiresIn)); err == nil && secs > 0 {
		return c.now().Add(time.Duration(secs) * time.Second)
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, &claims); err != nil {
		c.logger.Debug("Could not read expiry from ID token", "error", err)
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func (c *Client) post(ctx context.Context, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}
	target := fmt.Sprintf("%s/%s?key=%s", c.endpoint, method, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var wrapped struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(data, &wrapped) == nil && wrapped.Error.Message != "" {
			apiErr.Message = wrapped.Error.Message
		}
		c.logger.Warn("Identity request rejected", "method", method, "status", resp.StatusCode, "message", apiErr.Message)
		return apiErr
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	return nil
}
