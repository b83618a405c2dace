package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/ledgerdesk-dev/ledgerdesk/internal/model"
)

// Summary is the live-derived bank feed roll-up. It is recomputed from the
// collection on every call; matches change status continuously, so no
// cached aggregate would stay correct.
type Summary struct {
	UnmatchedCount int
	UnmatchedTotal decimal.Decimal
	Inflow         decimal.Decimal // sum of Credit amounts
	Outflow        decimal.Decimal // sum of Debit amounts
	NetCashFlow    decimal.Decimal
}

// Summary computes the current aggregates over all bank transactions.
func (e *Engine) Summary() (Summary, error) {
	records, err := e.store.List(string(model.EntityBankTransactions))
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{
		UnmatchedTotal: decimal.Zero,
		Inflow:         decimal.Zero,
		Outflow:        decimal.Zero,
	}
	for _, rec := range records {
		txn := model.BankTransactionFromRecord(rec)
		amount := txn.Amount.Abs()
		if txn.Status == model.StatusUnmatched {
			sum.UnmatchedCount++
			sum.UnmatchedTotal = sum.UnmatchedTotal.Add(amount)
		}
		switch txn.Type {
		case model.TypeCredit:
			sum.Inflow = sum.Inflow.Add(amount)
		case model.TypeDebit:
			sum.Outflow = sum.Outflow.Add(amount)
		}
	}
	sum.NetCashFlow = sum.Inflow.Sub(sum.Outflow)
	return sum, nil
}
