// Package service drives the conversion pipeline across all configured banks
// and produces the run summary.
package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/bank2ynab/bank2ynab/pkg/bank"
	"github.com/bank2ynab/bank2ynab/pkg/config"
	"github.com/bank2ynab/bank2ynab/pkg/models"
	"github.com/bank2ynab/bank2ynab/pkg/reader"
	"github.com/bank2ynab/bank2ynab/pkg/writer"
)

// FileResult records the outcome for one input file.
type FileResult struct {
	Path         string
	Bank         string
	Transactions int
	RowsSkipped  int
	Output       string
	Err          error
}

// Summary is what a run reports back: files processed, files skipped with
// reason, and rows skipped per file.
type Summary struct {
	Results []FileResult
	Batches map[string]*models.TransactionBatch
}

// FilesProcessed counts successfully converted files.
func (s *Summary) FilesProcessed() int {
	n := 0
	for _, r := range s.Results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// FilesSkipped counts files that could not be processed.
func (s *Summary) FilesSkipped() int {
	return len(s.Results) - s.FilesProcessed()
}

// Log writes the run summary through the given logger.
func (s *Summary) Log(logger *log.Logger) {
	for _, r := range s.Results {
		if r.Err != nil {
			logger.Warn("file skipped", "file", r.Path, "reason", r.Err)
			continue
		}
		logger.Info("file processed", "file", r.Path, "bank", r.Bank, "transactions", r.Transactions, "rows_skipped", r.RowsSkipped, "output", r.Output)
	}
	logger.Info("run complete", "files_processed", s.FilesProcessed(), "files_skipped", s.FilesSkipped())
}

type Processor struct {
	cfg    *config.Config
	logger *log.Logger
	reader *reader.Reader
}

func NewProcessor(cfg *config.Config, logger *log.Logger) *Processor {
	return &Processor{
		cfg:    cfg,
		logger: logger,
		reader: reader.New(cfg.Banks(), logger),
	}
}

// Run processes the input directory for every configured bank. Handlers for
// different banks run in parallel workers; they share only the immutable
// config store, so no locking beyond the summary collection is needed.
func (p *Processor) Run() (*Summary, error) {
	summary := &Summary{Batches: make(map[string]*models.TransactionBatch)}

	handlers := make([]*bank.Handler, 0, p.cfg.Banks().Len())
	for _, bc := range p.cfg.Banks().All() {
		h, err := bank.New(bc, p.logger)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, h)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, h := range handlers {
		bc, _ := p.cfg.Banks().Lookup(h.Name())
		wg.Add(1)
		go func(h *bank.Handler, bc config.BankConfig) {
			defer wg.Done()
			results := p.runHandler(h, bc)
			mu.Lock()
			summary.Results = append(summary.Results, results...)
			if h.Batch().Len() > 0 {
				h.Batch().Dedupe()
				summary.Batches[h.Name()] = h.Batch()
			}
			mu.Unlock()
		}(h, bc)
	}
	wg.Wait()

	sort.Slice(summary.Results, func(i, j int) bool { return summary.Results[i].Path < summary.Results[j].Path })
	return summary, nil
}

func (p *Processor) runHandler(h *bank.Handler, bc config.BankConfig) []FileResult {
	files, err := h.Files(p.cfg.InputDir)
	if err != nil {
		return []FileResult{{Path: p.cfg.InputDir, Bank: h.Name(), Err: err}}
	}

	var results []FileResult
	for _, path := range files {
		results = append(results, p.processFile(h, bc, path))
	}
	return results
}

func (p *Processor) processFile(h *bank.Handler, bc config.BankConfig, path string) FileResult {
	result := FileResult{Path: path, Bank: h.Name()}

	batch, err := h.ProcessFile(path)
	if err != nil {
		result.Err = err
		return result
	}
	result.Transactions = batch.Len()
	result.RowsSkipped = len(batch.Skipped)
	if batch.Len() == 0 {
		p.logger.Info("no output data from file", "file", path, "bank", h.Name())
		return result
	}

	result.Output = p.outputPath(path, bc)
	if err := writer.WriteFile(result.Output, batch, nil); err != nil {
		result.Err = err
		result.Output = ""
	}
	return result
}

// ProcessPath converts a single file, detecting its bank format by trying
// each configured signature in order.
func (p *Processor) ProcessPath(path string) FileResult {
	result := FileResult{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Err = fmt.Errorf("failed to read file: %w", err)
		return result
	}

	bc, err := p.reader.Detect(path, data)
	if err != nil {
		result.Err = err
		return result
	}
	result.Bank = bc.Name

	h, err := bank.New(bc, p.logger)
	if err != nil {
		result.Err = err
		return result
	}

	batch, err := h.Process(data, filepath.Base(path))
	if err != nil {
		result.Err = err
		return result
	}
	result.Transactions = batch.Len()
	result.RowsSkipped = len(batch.Skipped)
	if batch.Len() == 0 {
		return result
	}

	result.Output = p.outputPath(path, bc)
	if err := writer.WriteFile(result.Output, batch, nil); err != nil {
		result.Err = err
		result.Output = ""
	}
	return result
}

func (p *Processor) outputPath(inputPath string, bc config.BankConfig) string {
	if p.cfg.OutputDir != "" {
		inputPath = filepath.Join(p.cfg.OutputDir, filepath.Base(inputPath))
	}
	return writer.OutputPath(inputPath, bc.OutputPrefix, bc.OutputExt)
}
