package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/mumblebot/internal/core"
	"github.com/vovakirdan/mumblebot/internal/service/registered"
)

func usersCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage the server's registered users",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List registered users",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRegistered(flags, func(ctx context.Context, svc *registered.Service) error {
					users, err := svc.List(ctx)
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "ID\tNAME\tLAST SEEN")
					for _, u := range users {
						fmt.Fprintf(w, "%d\t%s\t%s\n", u.UserID, u.Name, u.LastSeen)
					}
					return w.Flush()
				})
			},
		},
		&cobra.Command{
			Use:   "rename <name> <new-name>",
			Short: "Rename a registered user",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRegistered(flags, func(ctx context.Context, svc *registered.Service) error {
					u, err := svc.ByName(ctx, args[0])
					if err != nil {
						return err
					}
					return svc.Rename(ctx, u.UserID, args[1])
				})
			},
		},
		deregisterCmd(flags),
	)

	return cmd
}

func deregisterCmd(flags *globalFlags) *cobra.Command {
	var byID bool

	cmd := &cobra.Command{
		Use:   "deregister <name>",
		Short: "Delete a user registration",
		Long: `Delete a user registration. The argument is a registered name;
with --id it is the numeric user id instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistered(flags, func(ctx context.Context, svc *registered.Service) error {
				id, err := resolveUserID(ctx, svc, args[0], byID)
				if err != nil {
					return err
				}
				return svc.Deregister(ctx, id)
			})
		},
	}

	cmd.Flags().BoolVar(&byID, "id", false, "treat the argument as a user id")

	return cmd
}

// nameLookup finds a registered user by name.
type nameLookup interface {
	ByName(ctx context.Context, name string) (registered.User, error)
}

// resolveUserID turns a command line argument into a user id. Names made of
// digits are still names unless byID is set.
func resolveUserID(ctx context.Context, svc nameLookup, arg string, byID bool) (uint32, error) {
	if byID {
		id, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid user id %q: %w", arg, err)
		}
		return uint32(id), nil
	}

	u, err := svc.ByName(ctx, arg)
	if err != nil {
		return 0, err
	}
	return u.UserID, nil
}

func withRegistered(flags *globalFlags, fn func(ctx context.Context, svc *registered.Service) error) error {
	application, _, _, err := setup(flags)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	return application.Exec(ctx, func(ctx context.Context, sess *core.Session) error {
		return fn(ctx, application.Registered(sess))
	})
}
