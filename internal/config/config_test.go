package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestEnvTransformFunc(t *testing.T) {
	assert.Equal(t, "tmdb.api_key", envTransformFunc("TMDB_API_KEY"))
	assert.Equal(t, "demo.mode", envTransformFunc("DEMO_MODE"))
	assert.Equal(t, "supabase.jwt_secret", envTransformFunc("SUPABASE_JWT_SECRET"))
	assert.Equal(t, "", envTransformFunc("HOME"))
	assert.Equal(t, "", envTransformFunc("GOPATH_EXTRA"))
}

func TestLoadDemoModeFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DEMO_MODE", "true")
	t.Setenv("SEARCH_DEBOUNCE", "500ms")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Demo.Mode)
	assert.Equal(t, 500*time.Millisecond, cfg.Search.Debounce)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "pl-PL", cfg.TMDB.Language)
}

func TestLoadReadsDotEnvAndYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AUTH_MODE=supabase\nSUPABASE_JWT_SECRET=s3cret\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\nserver:\n  cors_origins: \"https://a.example, https://b.example\"\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("AUTH_MODE")
		os.Unsetenv("SUPABASE_JWT_SECRET")
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "supabase", cfg.Auth.Mode)
	assert.Equal(t, "s3cret", cfg.Supabase.JWTSecret)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.Origins())
}

func TestValidate(t *testing.T) {
	t.Run("defaults need auth0 settings", func(t *testing.T) {
		cfg := defaultConfig()
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth0.domain")
	})

	t.Run("postgrest needs url and key", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Auth0 = Auth0Config{Domain: "x.auth0.com", Audience: "api"}
		cfg.Store.Backend = "postgrest"
		assert.ErrorContains(t, cfg.Validate(), "store.url")

		cfg.Store.URL = "https://x.supabase.co"
		cfg.Store.Key = "anon"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("demo mode skips backend checks", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Demo.Mode = true
		assert.NoError(t, cfg.Validate())
	})
}
