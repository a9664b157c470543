package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/forum/internal/config"
	"github.com/sakif/forum/internal/server"
)

var (
	configPath string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:          "forumd",
	Short:        "Discussion forum server",
	Long:         "forumd serves users, threads, messages, tags, categories and attachments\nover a JSON API, with fine grained privileges on every entity.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = server.NewLogger(cfg.Service.LogLevel, logFormat)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "configuration file (JSON, comments allowed)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format: text or json")
}
