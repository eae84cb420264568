package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/mumblebot/internal/app"
	"github.com/vovakirdan/mumblebot/internal/config"
	"github.com/vovakirdan/mumblebot/internal/log"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

// globalFlags are accepted by every command that talks to a server.
type globalFlags struct {
	configPath string
	overrides  config.Config
}

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "mumblebot",
		Short: "A headless Mumble client",
		Long: `mumblebot connects to a Mumble server as a regular client, mirrors
its users, channels and permissions, and exposes them over a small
read-only HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to config file")
	pf.StringVar(&flags.overrides.Host, "host", "", "Mumble server host")
	pf.IntVarP(&flags.overrides.Port, "port", "p", 0, "Mumble server port")
	pf.StringVarP(&flags.overrides.Username, "username", "u", "", "username to connect as")
	pf.StringVar(&flags.overrides.Password, "password", "", "server password")
	pf.StringSliceVar(&flags.overrides.Tokens, "token", nil, "access token (repeatable)")
	pf.StringVar(&flags.overrides.ClientName, "name", "", "client name announced to the server")
	pf.StringVar(&flags.overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		runCmd(&flags),
		usersCmd(&flags),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// setup resolves the configuration and builds the logger and the app.
func setup(flags *globalFlags) (*app.App, *config.Config, *zerolog.Logger, error) {
	if _, err := log.ParseLevel(flags.overrides.LogLevel); err != nil {
		return nil, nil, nil, err
	}

	bootLog := log.New(flags.overrides.LogLevel)
	cfg, path, err := config.Load(bootLog, flags.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg.UpdateFrom(flags.overrides)

	logger := log.New(cfg.LogLevel)
	logger.Debug().Str("config", path).Msg("configuration loaded")

	application, err := app.New(&cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return application, &cfg, logger, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
