package models

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the canonical record every bank format is normalized into.
type Transaction struct {
	Date   time.Time
	Payee  string
	Memo   string
	Amount decimal.Decimal
	Bank   string
}

// ISODate returns the transaction date in ISO form (YYYY-MM-DD).
func (t Transaction) ISODate() string {
	return t.Date.Format("2006-01-02")
}

// Milliunits returns the amount in YNAB milliunits (1000 per currency unit).
func (t Transaction) Milliunits() int64 {
	return t.Amount.Mul(decimal.NewFromInt(1000)).Round(0).IntPart()
}

// ID creates a short stable ID based on date, payee and amount.
func (t Transaction) ID() string {
	cleanPayee := strings.ToLower(strings.TrimSpace(t.Payee))
	input := fmt.Sprintf("%s-%s-%s", t.ISODate(), cleanPayee, t.Amount.StringFixed(2))
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%x", hash)[:8]
}

// key identifies exact duplicates across all canonical fields.
func (t Transaction) key() string {
	return strings.Join([]string{t.ISODate(), t.Payee, t.Memo, t.Amount.StringFixed(2), t.Bank}, "\x1f")
}
