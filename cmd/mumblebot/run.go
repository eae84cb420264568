package main

import (
	"github.com/spf13/cobra"
)

func runCmd(flags *globalFlags) *cobra.Command {
	var statusAddr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect and stay online until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.overrides.StatusAddr = statusAddr

			application, cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			logger.Info().Str("server", cfg.ServerAddr()).Str("username", cfg.Username).Msg("starting mumblebot")
			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("mumblebot stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&statusAddr, "status-addr", "", "listen address of the status API, empty to disable")

	return cmd
}
