package main

import (
	"github.com/spf13/cobra"

	"github.com/five82/scribe/internal/app"
)

var (
	serveListen  string
	serveBackend string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the notes API backed by Redis or memory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Serve(cmd.Context(), app.ServeOptions{
			ConfigPath: configPath,
			Listen:     serveListen,
			Backend:    serveBackend,
			Verbose:    verbose,
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "address to listen on (default [server] listen)")
	serveCmd.Flags().StringVar(&serveBackend, "backend", "", "redis or memory (default [remote] backend)")
	rootCmd.AddCommand(serveCmd)
}
