package cmd

import (
	"encoding/json"
	"fmt"

	catalogrender "github.com/bnema/roland/internal/adapters/render/catalog"
	"github.com/spf13/cobra"
)

func newKeybindCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keybind",
		Short: "Inspect built-in keybinds",
	}

	cmd.AddCommand(newKeybindListCmd(app))

	return cmd
}

func newKeybindListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List built-in keybinds and the phrases that trigger them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(app.keybinds)
			}

			rendered, err := app.catalogRender(catalogrender.Catalog{Keybinds: app.keybinds}, catalogrender.RenderOptions{
				Now:        app.now(),
				HideMacros: true,
			})
			if err != nil {
				return fmt.Errorf("render keybinds: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
