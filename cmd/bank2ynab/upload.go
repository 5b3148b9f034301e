package main

import (
	"github.com/spf13/cobra"

	"github.com/bank2ynab/bank2ynab/pkg/config"
	"github.com/bank2ynab/bank2ynab/pkg/service"
	"github.com/bank2ynab/bank2ynab/pkg/ynab"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Convert all configured banks and push the results to YNAB",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()

		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		client, err := ynab.New(cfg.YNAB, logger)
		if err != nil {
			return err
		}

		summary, err := service.NewProcessor(cfg, logger).Run()
		if err != nil {
			return err
		}
		summary.Log(logger)

		for name, batch := range summary.Batches {
			if _, err := client.Upload(batch); err != nil {
				logger.Error("upload failed", "bank", name, "error", err)
			}
		}
		return nil
	},
}
