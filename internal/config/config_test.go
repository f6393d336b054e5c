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
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GITHUB_TOKEN", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIURL)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 4, cfg.Resolve.Concurrency)
	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddr())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = 9090

[git]
user_name = "File User"
`), 0o644))

	t.Setenv("WIZMERGE_GIT_USER_NAME", "Env User")
	t.Setenv("WIZMERGE_RATE_LIMIT_BURST", "9")
	t.Setenv("WIZMERGE_GITHUB_TOKEN", "ghp_env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "Env User", cfg.Git.UserName)
	assert.Equal(t, 9, cfg.RateLimit.Burst)
	assert.Equal(t, "ghp_env", cfg.GitHub.Token)
}

func TestLoadTokenFallback(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GITHUB_TOKEN", "ghp_fallback")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ghp_fallback", cfg.GitHub.Token)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("WIZMERGE_GITLAB_TOKEN=glpat-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("WIZMERGE_GITLAB_TOKEN") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "glpat-dotenv", cfg.GitLab.Token)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	chdirTemp(t)
	_, err := Load("/nonexistent/wizmerge.toml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	chdirTemp(t)
	t.Setenv("WIZMERGE_LOG_FORMAT", "xml")

	_, err := Load("")
	assert.ErrorContains(t, err, "log.format")
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"WIZMERGE_GIT_USER_NAME", "git.user_name"},
		{"WIZMERGE_GITHUB_API_URL", "github.api_url"},
		{"WIZMERGE_RATE_LIMIT_REQUESTS_PER_SECOND", "rate_limit.requests_per_second"},
		{"WIZMERGE_SERVER_PORT", "server.port"},
		{"WIZMERGE_UNKNOWN", "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, envKey(tt.in), tt.in)
	}
}

func TestWriteSample(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "wizmerge.toml")

	require.NoError(t, WriteSample(path))
	assert.Error(t, WriteSample(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "WizardMerge Bot", cfg.Git.UserName)
}
