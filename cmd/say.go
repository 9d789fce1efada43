package cmd

import (
	"strings"

	"github.com/bnema/roland/internal/application"
	"github.com/spf13/cobra"
)

func newSayCmd(app *app) *cobra.Command {
	var session string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "say <transcript...>",
		Short: "Run one transcript through Roland and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer func() { _ = app.Close() }()

			pipeline, _, err := app.pipeline(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			result, processErr := pipeline.Process(cmd.Context(), session, strings.Join(args, " "))
			if err := writeReply(cmd.OutOrStdout(), replyFor(result, processErr), asJSON); err != nil {
				return err
			}

			return processErr
		},
	}

	cmd.Flags().StringVar(&session, "session", application.DefaultSession, "Dialog session name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
