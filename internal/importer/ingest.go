package importer

import (
	"fmt"

	"github.com/ledgerdesk-dev/ledgerdesk/internal/model"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/policy"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/reconcile"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/store"
)

// Result summarizes one ingestion run.
type Result struct {
	Imported int
	Skipped  int // duplicates by bank reference
}

// Ingest stores parsed transactions as unmatched bank transaction records,
// pre-scoring each with the confidence its best current suggestion would
// carry. Transactions whose bank reference already exists are skipped, so
// re-importing a statement is harmless.
func Ingest(st *store.Store, eng *reconcile.Engine, txns []model.BankTransaction, actor policy.User) (Result, error) {
	existing, err := st.List(string(model.EntityBankTransactions))
	if err != nil {
		return Result{}, fmt.Errorf("listing transactions: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, rec := range existing {
		ref := model.CoerceString(rec.Field(model.FieldTxnBankReference))
		if ref != "" {
			seen[ref] = true
		}
	}

	var res Result
	for _, txn := range txns {
		if txn.BankReference != "" && seen[txn.BankReference] {
			res.Skipped++
			continue
		}

		txn.Status = model.StatusUnmatched
		txn.MatchConfidence = eng.PreScore(txn)

		if _, err := st.UpsertRecord(string(model.EntityBankTransactions), model.Record{Fields: txn.Fields()}, actor); err != nil {
			return res, fmt.Errorf("storing transaction %q: %w", txn.BankReference, err)
		}
		if txn.BankReference != "" {
			seen[txn.BankReference] = true
		}
		res.Imported++
	}
	return res, nil
}
