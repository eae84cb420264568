package app

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/mumblebot/internal/config"
	"github.com/vovakirdan/mumblebot/internal/core"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestNewRequiresUsername(t *testing.T) {
	cfg := config.Default()
	cfg.Username = ""

	_, err := New(&cfg, testLogger())
	assert.Error(t, err)
}

func TestSessionOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Username = "bot"
	cfg.Password = "secret"
	cfg.Tokens = []string{"a", "b"}
	cfg.ConnectGrace = 250 * time.Millisecond
	cfg.CommandTimeout = 3 * time.Second

	a, err := New(&cfg, testLogger())
	require.NoError(t, err)

	opts := a.sessionOptions()
	assert.Equal(t, "simple mumble bot", opts.ClientName)
	assert.Equal(t, "bot", opts.Username)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, []string{"a", "b"}, opts.Tokens)
	assert.Equal(t, 250*time.Millisecond, opts.GraceDelay)
	assert.Equal(t, 3*time.Second, opts.CommandTimeout)
	assert.Equal(t, 10*time.Second, opts.PingInterval)
	assert.NotNil(t, opts.Metrics)
}

func TestNewRegistersCollectors(t *testing.T) {
	cfg := config.Default()
	a, err := New(&cfg, testLogger())
	require.NoError(t, err)

	families, err := a.registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["go_goroutines"])
}

func TestExecFailsWhenServerUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = port
	cfg.DialTimeout = time.Second

	a, err := New(&cfg, testLogger())
	require.NoError(t, err)

	called := false
	err = a.Exec(context.Background(), func(context.Context, *core.Session) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), strconv.Itoa(port))
	assert.False(t, called)
}
