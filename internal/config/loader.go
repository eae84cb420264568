package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "MUMBLEBOT"
	envConfigDefaultPath = envPrefix + "_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
	appDirName           = "mumblebot"
)

// Load resolves the configuration and the path of the file it was read from.
// Precedence: defaults < config file < MUMBLEBOT_* env vars. Flags are
// applied by the caller with UpdateFrom. A missing file is created with
// the defaults so there is something to edit next time.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := resolveConfigPath(explicitPath)
	if err := readConfig(v, configPath, cfg, logger); err != nil {
		return cfg, configPath, err
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, configPath, fmt.Errorf("config %s: %w", configPath, err)
	}

	return cfg, configPath, nil
}

func readConfig(v *viper.Viper, path string, defaults Config, logger *zerolog.Logger) error {
	v.SetConfigFile(path)

	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read config: %w", err)
	}

	if err := writeDefaultConfig(path, defaults); err != nil {
		// Defaults and env still apply without a file.
		logger.Warn().Err(err).Str("path", path).Msg("failed to write default config")
		return nil
	}
	logger.Info().Str("path", path).Msg("created default config")

	if err := v.ReadInConfig(); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("failed to read config after writing default")
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can see it even when
// the config file leaves it out.
func setDefaults(v *viper.Viper, cfg Config) {
	defaults := map[string]any{
		"host":                 cfg.Host,
		"port":                 cfg.Port,
		"client_name":          cfg.ClientName,
		"username":             cfg.Username,
		"password":             cfg.Password,
		"tokens":               cfg.Tokens,
		"ping_interval":        cfg.PingInterval,
		"command_timeout":      cfg.CommandTimeout,
		"connect_grace":        cfg.ConnectGrace,
		"dial_timeout":         cfg.DialTimeout,
		"insecure_skip_verify": cfg.InsecureSkipVerify,
		"cert_file":            cfg.CertFile,
		"key_file":             cfg.KeyFile,
		"status_addr":          cfg.StatusAddr,
		"read_header_timeout":  cfg.ReadHeaderTimeout,
		"shutdown_timeout":     cfg.ShutdownTimeout,
		"log_level":            cfg.LogLevel,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// resolveConfigPath picks, in order: the explicit path, the directory named
// by MUMBLEBOT_CONFIG_DEFAULT_PATH, ./config.yaml when it exists, and the
// user config directory.
func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, defaultConfigName)
		if _, err := os.Stat(local); err == nil {
			return local
		}
	}

	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appDirName, defaultConfigName)
	}
	return defaultConfigName
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	// The file may end up holding a password.
	return os.WriteFile(path, data, 0o600)
}
