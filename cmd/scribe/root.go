package main

import (
	"github.com/spf13/cobra"

	"github.com/five82/scribe/internal/app"
)

var (
	configPath string
	prefsPath  string
	verbose    bool
)

// rootCmd opens the notes TUI when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "A shared note list for the terminal",
	Long: `Scribe shows a shared list of notes. Changes appear immediately and are
written to the notes API (or Redis) in the background; notes created by
other scribe instances show up as they happen.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(cmd.Context(), app.Options{
			ConfigPath: configPath,
			PrefsPath:  prefsPath,
			Verbose:    verbose,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/scribe/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().StringVar(&prefsPath, "prefs", "", "prefs file (default ~/.config/scribe/prefs.toml)")
}
