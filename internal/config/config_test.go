package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PROJECT_ID", "demo")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, "demo", cfg.ProjectID)
	require.Equal(t, BackendREST, cfg.DocStore.Backend)
	require.Equal(t, "(default)", cfg.DocStore.Database)
	require.Equal(t, "https://firestore.googleapis.com/v1", cfg.DocStore.Endpoint)
	require.Equal(t, 30*time.Second, cfg.DocStore.RequestTimeout)
	require.Equal(t, 5*time.Minute, cfg.Auth.TokenEarlyExpiry)
	require.False(t, cfg.Auth.UserTokenForWrites)
	require.Equal(t, "jobs", cfg.JobsCollection)
	require.Equal(t, "users", cfg.UsersCollection)
	require.Equal(t, 8, cfg.Snapshots.ImportConcurrency)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadFromEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("PROJECT_ID=from-file\nDOCSTORE_BACKEND=SDK\nREQUEST_TIMEOUT=5s\nUSER_TOKEN_FOR_WRITES=true\nLOG_LEVEL=debug\n"), 0o600))
	// godotenv does not override variables that are already set, so register them
	// with t.Setenv first to have them restored afterwards.
	for _, k := range []string{"PROJECT_ID", "DOCSTORE_BACKEND", "REQUEST_TIMEOUT", "USER_TOKEN_FOR_WRITES", "LOG_LEVEL"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := Load(envFile)
	require.NoError(t, err)
	require.Equal(t, "from-file", cfg.ProjectID)
	require.Equal(t, BackendSDK, cfg.DocStore.Backend)
	require.Equal(t, 5*time.Second, cfg.DocStore.RequestTimeout)
	require.True(t, cfg.Auth.UserTokenForWrites)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("PROJECT_ID", "")
	_, err := Load(filepath.Join(t.TempDir(), "none.env"))
	require.ErrorContains(t, err, "PROJECT_ID")

	t.Setenv("PROJECT_ID", "demo")
	t.Setenv("DOCSTORE_BACKEND", "mongo")
	_, err = Load(filepath.Join(t.TempDir(), "none.env"))
	require.ErrorContains(t, err, "DOCSTORE_BACKEND")

	t.Setenv("DOCSTORE_BACKEND", "rest")
	t.Setenv("LOG_LEVEL", "chatty")
	_, err = Load(filepath.Join(t.TempDir(), "none.env"))
	require.ErrorContains(t, err, "LOG_LEVEL")
}
