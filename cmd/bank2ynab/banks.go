package main

import (
	"fmt"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/bank2ynab/bank2ynab/pkg/config"
)

var banksCmd = &cobra.Command{
	Use:   "banks",
	Short: "List the configured bank formats",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		dump, _ := cmd.Flags().GetBool("dump")
		if dump {
			pp.Println(cfg.Banks().All())
			return nil
		}

		for _, bc := range cfg.Banks().All() {
			fmt.Printf("%-30s %-4s pattern=%q date=%q\n", bc.Name, bc.Format, bc.FilePattern, bc.DateFormat)
		}
		return nil
	},
}

func init() {
	banksCmd.Flags().Bool("dump", false, "Dump full bank configs")
}
