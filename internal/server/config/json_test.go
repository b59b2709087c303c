package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	dir := t.TempDir()

	t.Run("loads every key", func(t *testing.T) {
		path := writeTempJSON(t, dir, "full.json", map[string]any{
			"http_addr":        ":9000",
			"grpc_addr":        ":9001",
			"database_dsn":     "dsn",
			"secrets_key":      "key",
			"secrets_cipher":   "xchacha20-poly1305",
			"webhook_secret":   "hook",
			"front_url":        "https://map",
			"catalog_path":     "catalog.yaml",
			"match_radius_km":  2,
			"match_threshold":  40,
			"match_limit":      4,
			"candidate_cap":    20,
			"s3_root_user":     "user",
			"s3_root_password": "password",
			"s3_bucket":        "bucket",
			"s3_region":        "region",
			"s3_base_endpoint": "endpoint",
			"photo_hosts":      []string{"cdn.example"},
			"log_level":        "debug",
			"log_format":       "text",
			"shutdown_timeout": 2000000000,
		})

		cfg := &Config{}
		require.NoError(t, parseJson(cfg, path))

		want := &Config{
			HTTPAddr: ":9000", GRPCAddr: ":9001", DatabaseDSN: "dsn",
			SecretsKey: "key", SecretsCipher: "xchacha20-poly1305", WebhookSecret: "hook",
			FrontURL: "https://map", CatalogPath: "catalog.yaml",
			MatchRadiusKm: 2, MatchThreshold: 40, MatchLimit: 4, CandidateCap: 20,
			S3RootUser: "user", S3RootPassword: "password", S3Bucket: "bucket",
			S3Region: "region", S3BaseEndpoint: "endpoint", PhotoHosts: []string{"cdn.example"},
			LogLevel: "debug", LogFormat: "text", ShutdownTimeout: 2 * time.Second,
		}
		assert.Empty(t, cmp.Diff(want, cfg))
	})

	t.Run("missing keys keep current values", func(t *testing.T) {
		path := writeTempJSON(t, dir, "partial.json", map[string]any{"log_level": "warn"})

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg, path))

		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	})

	t.Run("empty path is a no-op", func(t *testing.T) {
		cfg := &Config{HTTPAddr: "keep"}
		require.NoError(t, parseJson(cfg, ""))
		assert.Equal(t, "keep", cfg.HTTPAddr)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		require.Error(t, parseJson(&Config{}, bad))
	})

	t.Run("missing file", func(t *testing.T) {
		require.Error(t, parseJson(&Config{}, filepath.Join(dir, "nope.json")))
	})
}
