package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	c, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerURL)
	assert.Equal(t, 60*time.Second, c.RequestTimeout)
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_JSONThenEnv(t *testing.T) {
	path := writeFile(t, `{"server_url":"https://json.example.org","request_timeout":"5s"}`)
	t.Setenv("PKGINDEX_REQUEST_TIMEOUT", "7s")

	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://json.example.org", c.ServerURL, "json beats default")
	assert.Equal(t, 7*time.Second, c.RequestTimeout, "env beats json")
}

func TestLoadConfig_PartialJSONKeepsDefaults(t *testing.T) {
	path := writeFile(t, `{"request_timeout": 2000000000}`)

	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerURL)
	assert.Equal(t, 2*time.Second, c.RequestTimeout)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
	})
	t.Run("bad json", func(t *testing.T) {
		_, err := LoadConfig(writeFile(t, `{ nope`))
		require.Error(t, err)
	})
	t.Run("bad duration", func(t *testing.T) {
		_, err := LoadConfig(writeFile(t, `{"request_timeout":"soon"}`))
		require.Error(t, err)
	})
	t.Run("bad env duration", func(t *testing.T) {
		t.Setenv("PKGINDEX_REQUEST_TIMEOUT", "soon")
		_, err := LoadConfig("")
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"ok", Config{ServerURL: "https://index.example.org", RequestTimeout: time.Second}, false},
		{"no scheme", Config{ServerURL: "index.example.org", RequestTimeout: time.Second}, true},
		{"ftp", Config{ServerURL: "ftp://index.example.org", RequestTimeout: time.Second}, true},
		{"no host", Config{ServerURL: "http://", RequestTimeout: time.Second}, true},
		{"zero timeout", Config{ServerURL: "http://localhost:8080"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
