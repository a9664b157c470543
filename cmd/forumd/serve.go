package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/forum/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API until interrupted",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	srv, err := server.New(cfg, logger, version)
	if err != nil {
		return err
	}
	logger.Info("starting forumd", slog.String("version", version))
	return srv.Start()
}
