// Package server exposes the conversion pipeline over HTTP: upload a bank
// statement, get normalized transactions back.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/bank2ynab/bank2ynab/pkg/bank"
	"github.com/bank2ynab/bank2ynab/pkg/config"
	"github.com/bank2ynab/bank2ynab/pkg/models"
	"github.com/bank2ynab/bank2ynab/pkg/reader"
	"github.com/bank2ynab/bank2ynab/pkg/writer"
	"github.com/bank2ynab/bank2ynab/pkg/ynab"
)

// Server handles HTTP requests for statement conversion.
type Server struct {
	cfg     *config.Config
	logger  *log.Logger
	mux     *http.ServeMux
	reader  *reader.Reader
	batches sync.Map
}

// New creates a new HTTP server.
func New(cfg *config.Config, logger *log.Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		mux:    http.NewServeMux(),
		reader: reader.New(cfg.Banks(), logger),
	}
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	s.setupRoutes()
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/banks", s.withLogging(s.handleBanks))
	s.mux.HandleFunc("/api/convert", s.withLogging(s.handleConvert))
	s.mux.HandleFunc("/api/upload", s.withLogging(s.handleUpload))
	s.mux.HandleFunc("/api/files/", s.withLogging(s.handleFiles))
}

// handleBanks lists the configured bank formats.
func (s *Server) handleBanks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	type bankInfo struct {
		Name   string `json:"name"`
		Format string `json:"format"`
	}
	banks := make([]bankInfo, 0, s.cfg.Banks().Len())
	for _, bc := range s.cfg.Banks().All() {
		banks = append(banks, bankInfo{Name: bc.Name, Format: bc.Format})
	}

	if err := s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"banks":  banks,
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// transactionJSON is a simplified transaction for JSON responses.
type transactionJSON struct {
	Date   string `json:"date"`
	Payee  string `json:"payee"`
	Memo   string `json:"memo"`
	Amount string `json:"amount"`
	Bank   string `json:"bank"`
}

// handleConvert accepts a statement upload, detects its bank format and
// returns the normalized transactions. The generated CSV is cached for a
// later download through /api/files/.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	batch, filename, ok := s.convertUpload(w, r)
	if !ok {
		return
	}

	sort.SliceStable(batch.Transactions, func(i, j int) bool {
		return batch.Transactions[i].Date.Before(batch.Transactions[j].Date)
	})

	outName := strings.TrimSuffix(filename, filepath.Ext(filename)) + ".csv"
	s.batches.Store(outName, batch)

	txs := make([]transactionJSON, len(batch.Transactions))
	for i, t := range batch.Transactions {
		txs[i] = transactionJSON{Date: t.ISODate(), Payee: t.Payee, Memo: t.Memo, Amount: t.Amount.StringFixed(2), Bank: t.Bank}
	}
	skipped := make([]string, len(batch.Skipped))
	for i, e := range batch.Skipped {
		skipped[i] = e.Error()
	}

	if err := s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "success",
		"bank":         batch.Bank,
		"file":         outName,
		"data":         txs,
		"rows_skipped": skipped,
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// handleUpload converts a statement and pushes the result straight to the
// YNAB account configured for the detected bank.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	batch, _, ok := s.convertUpload(w, r)
	if !ok {
		return
	}

	client, err := ynab.New(s.cfg.YNAB, s.logger)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "ynab not configured", err)
		return
	}
	created, err := client.Upload(batch)
	if err != nil {
		s.respondError(w, r, http.StatusBadGateway, "upload failed", err)
		return
	}

	if err := s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"bank":    batch.Bank,
		"created": created,
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// convertUpload reads the multipart statement, detects the bank and runs the
// pipeline. On failure it writes the error response and returns ok=false.
func (s *Server) convertUpload(w http.ResponseWriter, r *http.Request) (*models.TransactionBatch, string, bool) {
	file, header, err := r.FormFile("statement")
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "statement file required", err)
		return nil, "", false
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to read file", err)
		return nil, "", false
	}

	bc, err := s.reader.Detect(header.Filename, data)
	if err != nil {
		var noMatch *models.NoMatchingBankError
		if errors.As(err, &noMatch) {
			s.respondError(w, r, http.StatusUnprocessableEntity, "no configured bank matches this file", err)
		} else {
			s.respondError(w, r, http.StatusBadRequest, "detection failed", err)
		}
		return nil, "", false
	}

	h, err := bank.New(bc, s.logger)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "handler setup failed", err)
		return nil, "", false
	}
	batch, err := h.Process(data, header.Filename)
	if err != nil {
		s.respondError(w, r, http.StatusUnprocessableEntity, "failed to process file", err)
		return nil, "", false
	}
	return batch, header.Filename, true
}

// handleFiles serves the generated CSV for a previously converted statement.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	filename := strings.TrimPrefix(r.URL.Path, "/api/files/")
	if filename == "" {
		s.respondError(w, r, http.StatusBadRequest, "filename required", nil)
		return
	}

	value, ok := s.batches.Load(filename)
	if !ok {
		s.respondError(w, r, http.StatusNotFound, "file not found", nil)
		return
	}
	batch, ok := value.(*models.TransactionBatch)
	if !ok {
		s.respondError(w, r, http.StatusInternalServerError, "internal type assertion error", nil)
		return
	}

	var buf bytes.Buffer
	if err := writer.WriteCSV(&buf, batch.Transactions, nil); err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to build csv", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("failed to write csv response", "err", err)
	}
}

// --- helpers ---

// writeJSON encodes v as JSON with the given status and writes headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// respondError logs the error and returns a minimal JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		s.logger.Warn("request error", "status", status, "msg", message, "err", err, "method", r.Method, "path", r.URL.Path)
	} else {
		s.logger.Warn("request error", "status", status, "msg", message, "method", r.Method, "path", r.URL.Path)
	}
	_ = s.writeJSON(w, status, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// withLogging wraps a handler to log requests and recover panics.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "panic", rec, "method", r.Method, "path", r.URL.Path)
				s.respondError(w, r, http.StatusInternalServerError, "internal server error", fmt.Errorf("panic: %v", rec))
			}
		}()
		next(w, r)
	}
}
