package main

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bank2ynab/bank2ynab/pkg/models"
	"github.com/bank2ynab/bank2ynab/pkg/writer"
)

type filters struct {
	startDate string
	endDate   string
	minAmount float64
	maxAmount float64
	payee     string
}

func (f *filters) toFilterFunc() writer.FilterFunc {
	return func(t models.Transaction) bool {
		if f.startDate != "" {
			start, err := time.Parse("2006-01-02", f.startDate)
			if err == nil && t.Date.Before(start) {
				return false
			}
		}
		if f.endDate != "" {
			end, err := time.Parse("2006-01-02", f.endDate)
			if err == nil && t.Date.After(end) {
				return false
			}
		}
		if f.minAmount != 0 && t.Amount.LessThan(decimal.NewFromFloat(f.minAmount)) {
			return false
		}
		if f.maxAmount != 0 && t.Amount.GreaterThan(decimal.NewFromFloat(f.maxAmount)) {
			return false
		}
		if f.payee != "" && !strings.Contains(strings.ToLower(t.Payee), strings.ToLower(f.payee)) {
			return false
		}
		return true
	}
}
