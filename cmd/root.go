package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "roland",
		Short:         "Roland: voice commands and macros for your ship",
		Long:          "roland turns transcribed speech into game key presses. It resolves built-in keybinds and your own voice macros, remembers the last action for \"again\", and walks you through teaching new macros.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		return app.Close()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newListenCmd(app),
		newSayCmd(app),
		newSendCmd(app),
		newMacroCmd(app),
		newKeybindCmd(app),
	)

	return rootCmd
}
