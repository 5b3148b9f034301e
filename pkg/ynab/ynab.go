// Package ynab pushes normalized transaction batches to the YNAB API.
package ynab

import (
	"fmt"

	"github.com/brunomvsouza/ynab.go"
	"github.com/brunomvsouza/ynab.go/api"
	"github.com/brunomvsouza/ynab.go/api/transaction"
	"github.com/charmbracelet/log"

	"github.com/bank2ynab/bank2ynab/pkg/config"
	"github.com/bank2ynab/bank2ynab/pkg/models"
)

// Client wraps the YNAB API client with batch upload behaviour.
type Client struct {
	client ynab.ClientServicer
	cfg    config.YNABConfig
	logger *log.Logger
}

func New(cfg config.YNABConfig, logger *log.Logger) (*Client, error) {
	token := cfg.Token()
	if token == "" {
		return nil, fmt.Errorf("no API token set (env %s)", cfg.TokenEnv)
	}
	return &Client{client: ynab.NewClient(token), cfg: cfg, logger: logger}, nil
}

// Upload creates all transactions of a batch in the account configured for
// the batch's bank. Banks without an account mapping are skipped.
func (c *Client) Upload(batch *models.TransactionBatch) (int, error) {
	accountID, ok := c.cfg.Accounts[batch.Bank]
	if !ok {
		c.logger.Warn("no account mapped for bank, skipping upload", "bank", batch.Bank)
		return 0, nil
	}

	toCreate, err := c.Missing(accountID, batch.Transactions)
	if err != nil {
		return 0, err
	}
	if skipped := len(batch.Transactions) - len(toCreate); skipped > 0 {
		c.logger.Info("transactions already on remote", "bank", batch.Bank, "count", skipped)
	}

	payloads := Payloads(toCreate, accountID)
	if len(payloads) == 0 {
		return 0, nil
	}

	if _, err := c.client.Transaction().CreateTransactions(c.cfg.BudgetID, payloads); err != nil {
		return 0, fmt.Errorf("failed to create transactions: %w", err)
	}
	c.logger.Info("uploaded transactions", "bank", batch.Bank, "count", len(payloads), "account_id", accountID)
	return len(payloads), nil
}

// Payloads converts transactions into YNAB payloads. Import IDs follow the
// YNAB:<milliunits>:<iso-date>:<occurrence> convention, with the occurrence
// counter disambiguating same-day same-amount transactions.
func Payloads(txs []models.Transaction, accountID string) []transaction.PayloadTransaction {
	occurrences := make(map[string]int, len(txs))
	payloads := make([]transaction.PayloadTransaction, 0, len(txs))
	for _, t := range txs {
		base := fmt.Sprintf("YNAB:%d:%s", t.Milliunits(), t.ISODate())
		occurrences[base]++
		importID := fmt.Sprintf("%s:%d", base, occurrences[base])

		payee := truncate(t.Payee, 50)
		memo := truncate(t.Memo, 100)
		payloads = append(payloads, transaction.PayloadTransaction{
			AccountID: accountID,
			Date:      api.Date{Time: t.Date},
			Amount:    t.Milliunits(),
			Cleared:   transaction.ClearingStatusCleared,
			Approved:  false,
			PayeeName: &payee,
			Memo:      &memo,
			ImportID:  &importID,
		})
	}
	return payloads
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
