package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, 2*time.Second, cfg.Autosave.Debounce)
	assert.Equal(t, 500*time.Millisecond, cfg.Autosave.Settle)
	assert.Equal(t, 2*time.Second, cfg.Autosave.Display)
	assert.Equal(t, "20-M", cfg.RateLimit.Rate)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoad_FileAndEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LARK_APPROVER_OPEN_ID", "ou_approver")
	t.Setenv("SERVER_PORT", "9090")

	path := writeConfig(t, `
server:
  port: 8081
storage:
  driver: file
  file_dir: /tmp/portal-kv
openai:
  model: gpt-4.1-mini
autosave:
  debounce: 1s
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, StorageFile, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/portal-kv", cfg.Storage.FileDir)
	assert.Equal(t, "gpt-4.1-mini", cfg.OpenAI.Model)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "ou_approver", cfg.Lark.ApproverOpenID)
	assert.Equal(t, time.Second, cfg.Autosave.Debounce)
	assert.Equal(t, 500*time.Millisecond, cfg.Autosave.Settle)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown driver", "storage:\n  driver: redis\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"zero debounce", "autosave:\n  debounce: 0s\n"},
		{"malformed yaml", "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestServerConfig_Addr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8080", ServerConfig{Host: "127.0.0.1", Port: 8080}.Addr())
}
