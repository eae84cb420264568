package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/mumblebot/internal/proto"
)

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Println(version)
				return
			}

			fmt.Printf("mumblebot %s (%s)\n", version, commit)
			fmt.Printf("  Protocol:   %s\n", proto.ClientVersion)
			fmt.Printf("  Go version: %s\n", runtime.Version())
			fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}
