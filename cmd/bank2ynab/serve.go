package main

import (
	"github.com/spf13/cobra"

	"github.com/bank2ynab/bank2ynab/pkg/config"
	"github.com/bank2ynab/bank2ynab/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the conversion pipeline over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()

		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		addr, _ := cmd.Flags().GetString("addr")
		logger.Info("starting server", "addr", addr)
		return server.New(cfg, logger).Start(addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Listen address")
}
