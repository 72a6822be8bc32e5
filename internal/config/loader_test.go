package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blockeval.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "service:\n  name: test\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Service.Name)
	assert.Equal(t, "info", cfg.Service.LogLevel)
	assert.Equal(t, "json", cfg.Service.LogFormat)
	assert.Equal(t, "tmux", cfg.Session.Backend)
	assert.Equal(t, "blockeval-", cfg.Session.TargetPrefix)
	assert.Equal(t, "fsnotify", cfg.Watch.Backend)
	assert.Equal(t, 12000, cfg.Eval.MaxLineLength)
	assert.Equal(t, 10*time.Second, cfg.Eval.WaitTimeout)
	assert.Equal(t, 30*24*time.Hour, cfg.Journal.Retention)
	assert.False(t, cfg.API.Enabled)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
service:
  name: blockeval
  log_level: debug
  log_format: text
journal:
  path: /var/lib/blockeval/journal.db
  retention: 168h
workdir:
  path: /tmp/blockeval-work
session:
  backend: tmux
  tmux_path: /usr/bin/tmux
  target_prefix: "jl-"
watch:
  backend: poll
  poll_interval: 250ms
eval:
  max_line_length: 4000
  wait_timeout: 30s
  debug: true
api:
  enabled: true
  listen: 127.0.0.1:9090
  auth:
    tokens:
      - token: secret123
        scopes: [eval, events]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Service.LogLevel)
	assert.Equal(t, "/var/lib/blockeval/journal.db", cfg.Journal.Path)
	assert.Equal(t, 7*24*time.Hour, cfg.Journal.Retention)
	assert.Equal(t, "/tmp/blockeval-work", cfg.Workdir.Path)
	assert.Equal(t, "/usr/bin/tmux", cfg.Session.TmuxPath)
	assert.Equal(t, "jl-", cfg.Session.TargetPrefix)
	assert.Equal(t, "poll", cfg.Watch.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.PollInterval)
	assert.Equal(t, 4000, cfg.Eval.MaxLineLength)
	assert.True(t, cfg.Eval.Debug)
	assert.True(t, cfg.API.Enabled)
	require.Len(t, cfg.API.Auth.Tokens, 1)
	assert.Equal(t, []string{"eval", "events"}, cfg.API.Auth.Tokens[0].Scopes)
}

func TestLoadInterpolatesEnv(t *testing.T) {
	t.Setenv("BLOCKEVAL_TEST_TOKEN", "from-env")
	path := writeConfig(t, `
api:
  enabled: true
  auth:
    api_key: ${BLOCKEVAL_TEST_TOKEN}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.API.Auth.APIKey)
}

func TestLoadDirectoryResolvesDefaultFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blockeval.yaml"), []byte("service:\n  name: dir\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "dir", cfg.Service.Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"bad log level":     "service:\n  log_level: loud\n",
		"bad log format":    "service:\n  log_format: xml\n",
		"bad backend":       "session:\n  backend: ssh\n",
		"bad watch backend": "watch:\n  backend: inotifyd\n",
		"api without auth":  "api:\n  enabled: true\n",
		"token no scopes":   "api:\n  enabled: true\n  auth:\n    tokens:\n      - token: t1\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}
