package cmd

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bnema/roland/internal/adapters/transport/ipc"
	"github.com/bnema/roland/internal/application"
	"github.com/spf13/cobra"
)

func newSendCmd(app *app) *cobra.Command {
	var session string
	var asJSON bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "send <transcript...>",
		Short: "Send a transcript to a running `roland listen --socket`",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			reply, err := ipc.Send(ctx, app.cfg.SocketPath, ipc.Request{
				Session:    session,
				Transcript: strings.Join(args, " "),
			})
			if err != nil && !errors.Is(err, ipc.ErrRemote) {
				return err
			}
			if writeErr := writeReply(cmd.OutOrStdout(), reply, asJSON); writeErr != nil {
				return writeErr
			}

			return err
		},
	}

	cmd.Flags().StringVar(&session, "session", application.DefaultSession, "Dialog session name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "How long to wait for the listener")

	return cmd
}
