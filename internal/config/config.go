package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config holds client configuration values.
type Config struct {
	Host       string   `mapstructure:"host" yaml:"host"`
	Port       int      `mapstructure:"port" yaml:"port"`
	ClientName string   `mapstructure:"client_name" yaml:"client_name"`
	Username   string   `mapstructure:"username" yaml:"username"`
	Password   string   `mapstructure:"password" yaml:"password"`
	Tokens     []string `mapstructure:"tokens" yaml:"tokens"`

	PingInterval   time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	CommandTimeout time.Duration `mapstructure:"command_timeout" yaml:"command_timeout"`
	ConnectGrace   time.Duration `mapstructure:"connect_grace" yaml:"connect_grace"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`

	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	CertFile           string `mapstructure:"cert_file" yaml:"cert_file"`
	KeyFile            string `mapstructure:"key_file" yaml:"key_file"`

	StatusAddr        string        `mapstructure:"status_addr" yaml:"status_addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Host:               "localhost",
		Port:               64738,
		ClientName:         "simple mumble bot",
		Username:           "mumblebot",
		PingInterval:       10 * time.Second,
		CommandTimeout:     10 * time.Second,
		ConnectGrace:       time.Second,
		DialTimeout:        10 * time.Second,
		InsecureSkipVerify: true,
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
	}
}

// ServerAddr returns host:port of the Mumble server.
func (c Config) ServerAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Booleans cannot be told apart from their zero value and are left alone.
func (c *Config) UpdateFrom(other Config) {
	if other.Host != "" {
		c.Host = other.Host
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.ClientName != "" {
		c.ClientName = other.ClientName
	}
	if other.Username != "" {
		c.Username = other.Username
	}
	if other.Password != "" {
		c.Password = other.Password
	}
	if len(other.Tokens) > 0 {
		c.Tokens = other.Tokens
	}
	if other.PingInterval != 0 {
		c.PingInterval = other.PingInterval
	}
	if other.CommandTimeout != 0 {
		c.CommandTimeout = other.CommandTimeout
	}
	if other.ConnectGrace != 0 {
		c.ConnectGrace = other.ConnectGrace
	}
	if other.DialTimeout != 0 {
		c.DialTimeout = other.DialTimeout
	}
	if other.CertFile != "" {
		c.CertFile = other.CertFile
	}
	if other.KeyFile != "" {
		c.KeyFile = other.KeyFile
	}
	if other.StatusAddr != "" {
		c.StatusAddr = other.StatusAddr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}

// Validate reports the first setting a session cannot start with.
func (c Config) Validate() error {
	switch {
	case c.Host == "":
		return errors.New("host is required")
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("port %d out of range", c.Port)
	case c.Username == "":
		return errors.New("username is required")
	case c.PingInterval <= 0:
		return errors.New("ping_interval must be positive")
	case c.CommandTimeout <= 0:
		return errors.New("command_timeout must be positive")
	case c.ConnectGrace < 0:
		return errors.New("connect_grace must not be negative")
	case (c.CertFile == "") != (c.KeyFile == ""):
		return errors.New("cert_file and key_file must be set together")
	}
	return nil
}
