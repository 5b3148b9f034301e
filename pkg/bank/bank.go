// Package bank orchestrates extraction and normalization for one bank's
// files. Each Handler owns its batch and shares nothing mutable, so handlers
// for different banks can run in parallel.
package bank

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/bank2ynab/bank2ynab/pkg/config"
	"github.com/bank2ynab/bank2ynab/pkg/extract"
	"github.com/bank2ynab/bank2ynab/pkg/models"
	"github.com/bank2ynab/bank2ynab/pkg/normalize"
	"github.com/bank2ynab/bank2ynab/pkg/reader"
)

type Handler struct {
	cfg        config.BankConfig
	extractor  extract.Extractor
	normalizer *normalize.Normalizer
	logger     *log.Logger

	batch          *models.TransactionBatch
	filesProcessed int
}

// New builds the handler for one bank config: one extraction strategy plus
// one normalization pass, selected entirely by configuration.
func New(cfg config.BankConfig, logger *log.Logger) (*Handler, error) {
	extractor, err := extract.ForFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Name, err)
	}
	return &Handler{
		cfg:        cfg,
		extractor:  extractor,
		normalizer: normalize.New(logger),
		logger:     logger.With("bank", cfg.Name),
		batch:      models.NewBatch(cfg.Name),
	}, nil
}

// Name returns the bank name this handler serves.
func (h *Handler) Name() string { return h.cfg.Name }

// Batch returns the accumulated transactions for this handler.
func (h *Handler) Batch() *models.TransactionBatch { return h.batch }

// FilesProcessed returns how many files this handler has converted.
func (h *Handler) FilesProcessed() int { return h.filesProcessed }

// Run finds this bank's files in the input directory and processes each one.
// Per-file failures are reported through the returned map, keyed by path;
// one bad file never stops the others.
func (h *Handler) Run(inputDir string) map[string]error {
	files, err := h.Files(inputDir)
	if err != nil {
		return map[string]error{inputDir: err}
	}

	failures := make(map[string]error)
	for _, path := range files {
		if _, err := h.ProcessFile(path); err != nil {
			h.logger.Error("failed to process file", "file", path, "error", err)
			failures[path] = err
		}
	}
	h.batch.Dedupe()
	return failures
}

// ProcessFile reads one file and accumulates its transactions into the
// handler's batch. The returned batch holds just this file's rows.
func (h *Handler) ProcessFile(path string) (*models.TransactionBatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return h.Process(data, filepath.Base(path))
}

// Process extracts and normalizes one file's bytes. A shape mismatch is
// surfaced as UnsupportedFormatError: statement formats are static, so it
// signals stale configuration rather than a transient fault.
func (h *Handler) Process(data []byte, name string) (*models.TransactionBatch, error) {
	h.logger.Info("parsing input file", "file", name, "format", h.cfg.Format)

	table, err := h.extractor.Extract(data, name, h.cfg)
	if err != nil {
		if errors.Is(err, models.ErrShapeMismatch) {
			return nil, &models.UnsupportedFormatError{Bank: h.cfg.Name, Path: name, Reason: "columns do not match configuration"}
		}
		return nil, err
	}

	batch, err := h.normalizer.Run(table, h.cfg)
	if err != nil {
		return nil, err
	}
	h.batch.Merge(batch)
	h.filesProcessed++
	return batch, nil
}

// Files lists input files matching this bank's filename pattern and
// extension, skipping files that already carry the output prefix.
func (h *Handler) Files(inputDir string) ([]string, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		base := entry.Name()
		if !strings.HasSuffix(strings.ToLower(base), strings.ToLower(h.cfg.Ext)) {
			continue
		}
		if !reader.MatchesName(h.cfg, base) {
			continue
		}
		files = append(files, filepath.Join(inputDir, base))
	}
	return files, nil
}
