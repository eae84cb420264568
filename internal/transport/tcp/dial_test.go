package tcp

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tlsServerAddr(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewTLSServer(nil)
	t.Cleanup(srv.Close)
	return srv, strings.TrimPrefix(srv.URL, "https://")
}

func TestDialSelfSigned(t *testing.T) {
	_, addr := tlsServerAddr(t)

	conn, err := Dial(context.Background(), addr, Options{Timeout: time.Second, InsecureSkipVerify: true}, nil)
	require.NoError(t, err)
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	assert.True(t, state.HandshakeComplete)
}

func TestDialVerifiesByDefault(t *testing.T) {
	_, addr := tlsServerAddr(t)

	_, err := Dial(context.Background(), addr, Options{Timeout: time.Second}, nil)
	assert.Error(t, err)
}

func TestDialWithTrustedRoot(t *testing.T) {
	srv, addr := tlsServerAddr(t)

	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())

	conn, err := Dial(context.Background(), addr, Options{
		Timeout:   time.Second,
		TLSConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12},
	}, nil)
	require.NoError(t, err)
	conn.Close()
}

func TestTLSConfigNeedsBothKeyFiles(t *testing.T) {
	_, err := tlsConfig("localhost:64738", Options{CertFile: "cert.pem"})
	assert.Error(t, err)

	_, err = tlsConfig("localhost:64738", Options{CertFile: "missing.pem", KeyFile: "missing.key"})
	assert.ErrorContains(t, err, "load client certificate")
}

func TestTLSConfigServerName(t *testing.T) {
	cfg, err := tlsConfig("voice.example.org:64738", Options{InsecureSkipVerify: true})
	require.NoError(t, err)
	assert.Equal(t, "voice.example.org", cfg.ServerName)
	assert.True(t, cfg.InsecureSkipVerify)

	_, err = tlsConfig("no-port", Options{})
	assert.Error(t, err)
}
