// Package tcp opens the TLS control connection to a Mumble server.
package tcp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
)

// Options configures Dial.
type Options struct {
	// Timeout bounds the TCP connect and TLS handshake together.
	Timeout time.Duration
	// InsecureSkipVerify accepts any server certificate. Most Mumble servers
	// run with a self-signed one.
	InsecureSkipVerify bool
	// CertFile and KeyFile name a PEM client certificate. Mumble identifies
	// registered users by it.
	CertFile string
	KeyFile  string
	// TLSConfig is the base configuration. Nil means TLS 1.2 or later
	// with the system roots.
	TLSConfig *tls.Config
}

// Dial connects to addr and completes the TLS handshake.
func Dial(ctx context.Context, addr string, opts Options, logger *zerolog.Logger) (net.Conn, error) {
	cfg, err := tlsConfig(addr, opts)
	if err != nil {
		return nil, err
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	d := tls.Dialer{Config: cfg}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	if logger != nil {
		state := conn.(*tls.Conn).ConnectionState()
		logger.Info().
			Str("addr", addr).
			Str("tls_version", tls.VersionName(state.Version)).
			Bool("client_cert", len(cfg.Certificates) > 0).
			Msg("connected to server")
	}
	return conn, nil
}

func tlsConfig(addr string, opts Options) (*tls.Config, error) {
	var cfg *tls.Config
	if opts.TLSConfig != nil {
		cfg = opts.TLSConfig.Clone()
	} else {
		cfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	cfg.InsecureSkipVerify = opts.InsecureSkipVerify //nolint:gosec // self-signed servers are the norm

	if cfg.ServerName == "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("parse address %q: %w", addr, err)
		}
		cfg.ServerName = host
	}

	switch {
	case opts.CertFile != "" && opts.KeyFile != "":
		cert, err := tls.LoadX509KeyPair(opts.CertFile, opts.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		cfg.Certificates = append(cfg.Certificates, cert)
	case opts.CertFile != "" || opts.KeyFile != "":
		return nil, errors.New("client certificate needs both cert_file and key_file")
	}
	return cfg, nil
}
