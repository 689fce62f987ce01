package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Equal(t, "secretKey", c.SecretKey)
	assert.Equal(t, "slog", c.LogBackend)
	assert.False(t, c.Debug)
}

func TestLoadConfig_JSONThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"endpoint_addr_grpc": ":6000",
		"database_dsn": "postgres://json",
		"secret_key": "from-json",
		"debug": true
	}`), 0o600))

	cfg, err := LoadConfig([]string{"-config", path, "-s", "from-flag"})
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.EndpointAddrGRPC)
	assert.Equal(t, "postgres://json", cfg.DatabaseDSN)
	assert.Equal(t, "from-flag", cfg.SecretKey)
	assert.Equal(t, "slog", cfg.LogBackend)
	assert.True(t, cfg.Debug)
}

func TestLoadConfig_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))

	_, err := LoadConfig([]string{"-c", path})
	assert.ErrorContains(t, err, "parse config")
}

func TestParseFlags_IgnoresUnknown(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, parseFlags(cfg, []string{"-x", "1", "-a", ":7000", "-v"}))

	assert.Equal(t, &Config{EndpointAddrGRPC: ":7000", Debug: true}, cfg)
}
