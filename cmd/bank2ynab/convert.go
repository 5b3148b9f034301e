package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/bank2ynab/bank2ynab/pkg/bank"
	"github.com/bank2ynab/bank2ynab/pkg/config"
	"github.com/bank2ynab/bank2ynab/pkg/reader"
	"github.com/bank2ynab/bank2ynab/pkg/service"
	"github.com/bank2ynab/bank2ynab/pkg/writer"
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] [path...]",
	Short: "Convert bank statements to normalized CSV",
	Long: `Convert bank statements to normalized CSV.

With no arguments every configured bank's files are collected from the input
directory. With path arguments (globs allowed) each file's format is detected
against the configured bank signatures.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		processor := service.NewProcessor(cfg, logger)

		if len(args) == 0 {
			summary, err := processor.Run()
			if err != nil {
				return err
			}
			summary.Log(logger)
			return nil
		}

		toStdout, _ := cmd.Flags().GetBool("stdout")

		summary := &service.Summary{}
		for _, pattern := range args {
			matches, err := filepath.Glob(pattern)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				return fmt.Errorf("no files found matching pattern %s", pattern)
			}
			for _, match := range matches {
				if toStdout {
					if err := printConverted(cfg, match); err != nil {
						logger.Warn("failed to process file", "file", match, "error", err)
					}
					continue
				}
				summary.Results = append(summary.Results, processor.ProcessPath(match))
			}
		}
		if !toStdout {
			summary.Log(logger)
		}
		return nil
	},
}

// printConverted writes one file's normalized rows to stdout, with the
// global filter flags applied.
func printConverted(cfg *config.Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	logger := newLogger()
	bc, err := reader.New(cfg.Banks(), logger).Detect(path, data)
	if err != nil {
		return err
	}
	h, err := bank.New(bc, logger)
	if err != nil {
		return err
	}
	batch, err := h.Process(data, filepath.Base(path))
	if err != nil {
		return err
	}

	sort.SliceStable(batch.Transactions, func(i, j int) bool {
		return batch.Transactions[i].Date.Before(batch.Transactions[j].Date)
	})
	return writer.WriteCSV(os.Stdout, batch.Transactions, cliFilters.toFilterFunc())
}

func init() {
	convertCmd.Flags().Bool("stdout", false, "Print normalized CSV to stdout instead of writing files")
}
