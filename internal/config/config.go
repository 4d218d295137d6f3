package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	ProjectID string
	LogLevel  slog.Level

	DocStore  DocStoreConfig
	Auth      AuthConfig
	Identity  IdentityConfig
	Snapshots SnapshotConfig

	JobsCollection  string
	UsersCollection string
}

type DocStoreConfig struct {
	// Backend is "rest" (hand-built REST client) or "sdk" (Firestore client library).
	Backend        string
	Endpoint       string
	Database       string
	RequestTimeout time.Duration
}

type AuthConfig struct {
	ServiceAccountPath string
	TokenEarlyExpiry   time.Duration
	UserTokenForWrites bool
}

type IdentityConfig struct {
	WebAPIKey string
	Endpoint  string
}

type SnapshotConfig struct {
	Bucket            string
	ImportConcurrency int
}

const (
	BackendREST = "rest"
	BackendSDK  = "sdk"
)

// Load reads configuration from the environment, after loading any .env files given
// (".env" when none are). Missing .env files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("FIRESTORE_DATABASE", "(default)")
	v.SetDefault("FIRESTORE_ENDPOINT", "https://firestore.googleapis.com/v1")
	v.SetDefault("DOCSTORE_BACKEND", BackendREST)
	v.SetDefault("TOKEN_EARLY_EXPIRY", "5m")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("USER_TOKEN_FOR_WRITES", false)
	v.SetDefault("IDENTITY_ENDPOINT", "https://identitytoolkit.googleapis.com/v1")
	v.SetDefault("JOBS_COLLECTION", "jobs")
	v.SetDefault("USERS_COLLECTION", "users")
	v.SetDefault("IMPORT_CONCURRENCY", 8)
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		ProjectID: strings.TrimSpace(v.GetString("PROJECT_ID")),
		DocStore: DocStoreConfig{
			Backend:        strings.ToLower(strings.TrimSpace(v.GetString("DOCSTORE_BACKEND"))),
			Endpoint:       v.GetString("FIRESTORE_ENDPOINT"),
			Database:       v.GetString("FIRESTORE_DATABASE"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		},
		Auth: AuthConfig{
			ServiceAccountPath: v.GetString("SERVICE_ACCOUNT_PATH"),
			TokenEarlyExpiry:   v.GetDuration("TOKEN_EARLY_EXPIRY"),
			UserTokenForWrites: v.GetBool("USER_TOKEN_FOR_WRITES"),
		},
		Identity: IdentityConfig{
			WebAPIKey: v.GetString("FIREBASE_WEB_API_KEY"),
			Endpoint:  v.GetString("IDENTITY_ENDPOINT"),
		},
		Snapshots: SnapshotConfig{
			Bucket:            v.GetString("SNAPSHOT_BUCKET"),
			ImportConcurrency: v.GetInt("IMPORT_CONCURRENCY"),
		},
		JobsCollection:  v.GetString("JOBS_COLLECTION"),
		UsersCollection: v.GetString("USERS_COLLECTION"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	switch c.DocStore.Backend {
	case BackendREST, BackendSDK:
	default:
		return fmt.Errorf("DOCSTORE_BACKEND must be %q or %q, got %q", BackendREST, BackendSDK, c.DocStore.Backend)
	}
	if c.DocStore.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.Auth.TokenEarlyExpiry < 0 {
		return fmt.Errorf("TOKEN_EARLY_EXPIRY must not be negative")
	}
	if c.Snapshots.ImportConcurrency <= 0 {
		return fmt.Errorf("IMPORT_CONCURRENCY must be positive")
	}
	return nil
}
