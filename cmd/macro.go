package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	catalogrender "github.com/bnema/roland/internal/adapters/render/catalog"
	"github.com/bnema/roland/internal/application"
	"github.com/spf13/cobra"
)

func newMacroCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "macro",
		Short: "Manage voice macros",
	}

	cmd.AddCommand(
		newMacroListCmd(app),
		newMacroCreateCmd(app),
		newMacroDeleteCmd(app),
		newMacroRenameCmd(app),
		newMacroExportCmd(app),
		newMacroImportCmd(app),
	)

	return cmd
}

func newMacroListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved macros",
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer func() { _ = app.Close() }()

			store, err := app.macroStore(cmd.Context())
			if err != nil {
				return err
			}
			macros := slices.Collect(store.List())

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(macros)
			}

			rendered, err := app.catalogRender(catalogrender.Catalog{Macros: macros}, catalogrender.RenderOptions{
				Now:          app.now(),
				Limit:        store.Limit(),
				HideKeybinds: true,
			})
			if err != nil {
				return fmt.Errorf("render macros: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newMacroCreateCmd(app *app) *cobra.Command {
	var trigger string
	var action string
	var aliases []string
	var response string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a macro without speaking",
		Example: `  roland macro create --trigger "panic mode" --action "press c"
  roland macro create --trigger evasive --action "hold shift for 2 seconds" --alias "dodge"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer func() { _ = app.Close() }()

			spec, err := application.ActionGrammar{MaxHold: app.cfg.Keys.MaxHold}.Parse(action)
			if err != nil {
				return err
			}

			store, err := app.macroStore(cmd.Context())
			if err != nil {
				return err
			}

			macro, err := store.Create(cmd.Context(), application.MacroSpec{
				Trigger:  trigger,
				Keys:     spec.Keys,
				Kind:     spec.Kind,
				Duration: spec.Duration,
				Aliases:  aliases,
				Response: response,
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created macro %q (%s): %s\n", macro.Trigger, macro.ID, macro.Ref())
			return err
		},
	}

	cmd.Flags().StringVar(&trigger, "trigger", "", "Phrase that runs the macro")
	cmd.Flags().StringVar(&action, "action", "", `What to press, e.g. "press c" or "control alt p"`)
	cmd.Flags().StringArrayVar(&aliases, "alias", nil, "Extra phrase that runs the macro (repeatable)")
	cmd.Flags().StringVar(&response, "response", "", "What Roland says when the macro runs")
	_ = cmd.MarkFlagRequired("trigger")
	_ = cmd.MarkFlagRequired("action")

	return cmd
}

func newMacroDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|trigger>",
		Short: "Delete a macro",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer func() { _ = app.Close() }()

			store, err := app.macroStore(cmd.Context())
			if err != nil {
				return err
			}

			identifier := strings.Join(args, " ")
			removed, err := store.Delete(cmd.Context(), identifier)
			if err != nil {
				return err
			}

			if !removed {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "no macro named %q\n", identifier)
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted macro %q\n", identifier)
			return err
		},
	}
}

func newMacroRenameCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id|trigger> <new trigger>",
		Short: "Change the phrase that runs a macro",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer func() { _ = app.Close() }()

			store, err := app.macroStore(cmd.Context())
			if err != nil {
				return err
			}

			macro, err := store.Rename(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "renamed %q to %q\n", args[0], macro.Trigger)
			return err
		},
	}
}

func newMacroExportCmd(app *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write saved macros as JSON",
		Example: `  roland macro export > macros.json
  roland macro export --output macros.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer func() { _ = app.Close() }()

			store, err := app.macroStore(cmd.Context())
			if err != nil {
				return err
			}
			records := application.ExportMacros(store.List())

			out := cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer func() { _ = file.Close() }()
				out = file
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(records); err != nil {
				return fmt.Errorf("encode macros: %w", err)
			}

			if output != "" {
				_, err = fmt.Fprintf(cmd.ErrOrStderr(), "exported %d macros to %s\n", len(records), output)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")

	return cmd
}

func newMacroImportCmd(app *app) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Create macros from an exported JSON file",
		Long:  "import creates one macro per record. Records that conflict with an existing phrase, name an unknown key or exceed the macro limit are skipped and listed on stderr. With --overwrite a macro already answering to a record's trigger is replaced.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer func() { _ = app.Close() }()

			records, err := readMacroRecords(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			store, err := app.macroStore(cmd.Context())
			if err != nil {
				return err
			}

			report, err := store.Import(cmd.Context(), records, overwrite)
			for _, skipped := range report.Skipped {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "skipped %q: %v\n", skipped.Trigger, skipped.Err)
			}
			if err != nil {
				return fmt.Errorf("import macros: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d macros, skipped %d\n", report.Imported, len(report.Skipped))
			return err
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace macros whose trigger is already taken")

	return cmd
}

func readMacroRecords(stdin io.Reader, path string) ([]application.MacroRecord, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}

	var records []application.MacroRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode import file: %w", err)
	}
	return records, nil
}
