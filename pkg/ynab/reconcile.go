package ynab

import (
	"fmt"

	"github.com/brunomvsouza/ynab.go/api/transaction"

	"github.com/bank2ynab/bank2ynab/pkg/models"
)

// Missing returns the transactions not already present in the remote
// account, so re-exported statements with overlapping date ranges never
// create duplicates on the API side.
func (c *Client) Missing(accountID string, txs []models.Transaction) ([]models.Transaction, error) {
	remote, err := c.client.Transaction().GetTransactionsByAccount(c.cfg.BudgetID, accountID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch remote transactions: %w", err)
	}

	present := make(map[string]bool, len(remote))
	for _, r := range remote {
		present[remoteKey(r)] = true
	}

	var missing []models.Transaction
	for _, t := range txs {
		if !present[localKey(t)] {
			missing = append(missing, t)
		}
	}
	return missing, nil
}

// Local and remote transactions are matched on the fields stable across both
// systems: date, payee and milliunit amount.
func localKey(t models.Transaction) string {
	return fmt.Sprintf("%s|%s|%d", t.ISODate(), t.Payee, t.Milliunits())
}

func remoteKey(r *transaction.Transaction) string {
	payee := ""
	if r.PayeeName != nil {
		payee = *r.PayeeName
	}
	return fmt.Sprintf("%s|%s|%d", r.Date.Format("2006-01-02"), payee, r.Amount)
}
