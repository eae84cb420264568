package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	def := Default()
	assert.Equal(t, def.Host, cfg.Host)
	assert.Equal(t, def.Port, cfg.Port)
	assert.Equal(t, def.PingInterval, cfg.PingInterval)
	assert.Equal(t, def.ConnectGrace, cfg.ConnectGrace)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Empty(t, cfg.Tokens)

	_, err = os.Stat(path)
	assert.NoError(t, err, "default config file should have been written")
}

func TestLoadReadsFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("host: voice.example.org\nport: 1234\nusername: bot\ntokens: [red, blue]\nping_interval: 3s\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	t.Setenv("MUMBLEBOT_PORT", "4321")
	t.Setenv("MUMBLEBOT_COMMAND_TIMEOUT", "2s")

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)

	assert.Equal(t, "voice.example.org", cfg.Host)
	assert.Equal(t, 4321, cfg.Port, "env overrides file")
	assert.Equal(t, "bot", cfg.Username)
	assert.Equal(t, []string{"red", "blue"}, cfg.Tokens)
	assert.Equal(t, 3*time.Second, cfg.PingInterval)
	assert.Equal(t, 2*time.Second, cfg.CommandTimeout)
	assert.Equal(t, "simple mumble bot", cfg.ClientName, "defaults fill the gaps")
	assert.Equal(t, "voice.example.org:4321", cfg.ServerAddr())
}

func TestLoadDefaultPathFromEnv(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")
	t.Setenv(envConfigDefaultPath, dir)

	_, resolved, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, defaultConfigName), resolved)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host: [unterminated"), 0o600))

	_, _, err := Load(nil, path)
	assert.Error(t, err)
}

func TestUpdateFromKeepsZeroValues(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Host: "h", Port: 1, Tokens: []string{"t"}, StatusAddr: ":9090"})

	assert.Equal(t, "h", cfg.Host)
	assert.Equal(t, 1, cfg.Port)
	assert.Equal(t, []string{"t"}, cfg.Tokens)
	assert.Equal(t, ":9090", cfg.StatusAddr)
	assert.Equal(t, "simple mumble bot", cfg.ClientName)
	assert.Equal(t, 10*time.Second, cfg.PingInterval)
	assert.True(t, cfg.InsecureSkipVerify)
}

func TestServerAddrBracketsIPv6(t *testing.T) {
	cfg := Default()
	cfg.Host = "::1"
	assert.Equal(t, "[::1]:64738", cfg.ServerAddr())
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"empty host":       func(c *Config) { c.Host = "" },
		"port zero":        func(c *Config) { c.Port = 0 },
		"port too large":   func(c *Config) { c.Port = 70000 },
		"no username":      func(c *Config) { c.Username = "" },
		"no ping interval": func(c *Config) { c.PingInterval = 0 },
		"no timeout":       func(c *Config) { c.CommandTimeout = -time.Second },
		"negative grace":   func(c *Config) { c.ConnectGrace = -1 },
		"cert without key": func(c *Config) { c.CertFile = "client.pem" },
	}

	require.NoError(t, Default().Validate())
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 99999\n"), 0o600))

	_, _, err := Load(nil, path)
	assert.ErrorContains(t, err, "port")
}
