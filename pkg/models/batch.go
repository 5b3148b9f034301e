package models

// TransactionBatch accumulates the normalized transactions of one bank along
// with the row-level errors recorded while producing them.
type TransactionBatch struct {
	Bank         string
	Transactions []Transaction
	Skipped      []*NormalizationError
}

// NewBatch creates an empty batch for the named bank.
func NewBatch(bank string) *TransactionBatch {
	return &TransactionBatch{Bank: bank}
}

// Append adds a transaction to the batch.
func (b *TransactionBatch) Append(tx Transaction) {
	b.Transactions = append(b.Transactions, tx)
}

// Skip records a row-level normalization failure without aborting the batch.
func (b *TransactionBatch) Skip(err *NormalizationError) {
	b.Skipped = append(b.Skipped, err)
}

// Len returns the number of transactions in the batch.
func (b *TransactionBatch) Len() int {
	return len(b.Transactions)
}

// Dedupe removes transactions that are exact duplicates across all canonical
// fields, keeping the first occurrence. Running it twice is a no-op.
func (b *TransactionBatch) Dedupe() {
	seen := make(map[string]bool, len(b.Transactions))
	out := b.Transactions[:0]
	for _, tx := range b.Transactions {
		k := tx.key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, tx)
	}
	b.Transactions = out
}

// Merge appends another batch's transactions and skipped rows into this one.
func (b *TransactionBatch) Merge(other *TransactionBatch) {
	if other == nil {
		return
	}
	b.Transactions = append(b.Transactions, other.Transactions...)
	b.Skipped = append(b.Skipped, other.Skipped...)
}
