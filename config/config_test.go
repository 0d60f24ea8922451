package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMongo, cfg.App.Storage)
	assert.Equal(t, "college", cfg.Mongo.Database)
	assert.Equal(t, "students", cfg.Mongo.StudentsCollection)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Redis.SubjectTTL)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "college.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  storage: memory
mongo:
  database: from_file
redis:
  enabled: true
  subject_ttl: 2m
http:
  port: 9000
  api_key_hashes: ["$2a$10$abc"]
`), 0o600))

	t.Setenv(ConfigFileEnv, path)
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("HTTP_HEALTH_TIMEOUT", "750ms")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.App.Storage)
	assert.Equal(t, "from_file", cfg.Mongo.Database)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Redis.SubjectTTL)
	assert.Equal(t, 9100, cfg.HTTP.Port)
	assert.Equal(t, 750*time.Millisecond, cfg.HTTP.HealthTimeout)
	assert.Equal(t, []string{"$2a$10$abc"}, cfg.HTTP.APIKeyHashes)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestLoad_BadFile(t *testing.T) {
	t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.App.Storage = "postgres"
	cfg.HTTP.Port = 0
	cfg.HTTP.HealthTimeout = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_STORAGE")
	assert.Contains(t, err.Error(), "HTTP_PORT")
	assert.Contains(t, err.Error(), "HTTP_HEALTH_TIMEOUT")

	cfg = Default()
	cfg.App.Environment = EnvProduction
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_API_KEY_HASHES")

	cfg.HTTP.APIKeyHashes = []string{"hash"}
	assert.NoError(t, cfg.Validate())
}

func TestGetEnvStringSlice(t *testing.T) {
	t.Setenv("X_LIST", " a, ,b ")
	assert.Equal(t, []string{"a", "b"}, getEnvStringSlice("X_LIST", nil))
	assert.Equal(t, []string{"d"}, getEnvStringSlice("X_UNSET_LIST", []string{"d"}))
}
