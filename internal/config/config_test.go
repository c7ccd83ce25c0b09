package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("BLOGDECK_DATA_DIR", dir)
	t.Setenv("BLOGDECK_API_URL", "")
	t.Setenv("BLOGDECK_TOKEN_STORE", "")
	t.Setenv("BLOGDECK_HTTP_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8000", cfg.API.BaseURL)
	assert.Equal(t, time.Duration(0), cfg.API.Timeout)
	assert.Equal(t, "file", cfg.Storage.TokenStore)
	assert.Equal(t, dir+"/drafts.sqlite", cfg.Drafts.DatabasePath)
	assert.Equal(t, 30*24*time.Hour, cfg.Drafts.Retention)
	assert.Equal(t, "@daily", cfg.Drafts.PruneSchedule)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Web.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("BLOGDECK_DATA_DIR", dir)
	t.Setenv("BLOGDECK_API_URL", "https://blog.example.com/")
	t.Setenv("BLOGDECK_TOKEN_STORE", "memory")
	t.Setenv("BLOGDECK_HTTP_TIMEOUT", "5s")
	t.Setenv("BLOGDECK_CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://blog.example.com", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "memory", cfg.Storage.TokenStore)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Web.CORSOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown token store", key: "BLOGDECK_TOKEN_STORE", value: "vault"},
		{name: "bad timeout", key: "BLOGDECK_HTTP_TIMEOUT", value: "soon"},
		{name: "bad api url", key: "BLOGDECK_API_URL", value: "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			chdir(t, dir)
			t.Setenv("BLOGDECK_DATA_DIR", dir)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
		})
	}
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent to testing.T.Chdir in Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
