package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the reconciliation lifecycle state of a bank
// transaction. Only unmatched is reachable from both terminals; matched and
// ignored transition back through unmatch.
type TransactionStatus string

const (
	StatusUnmatched TransactionStatus = "unmatched"
	StatusMatched   TransactionStatus = "matched"
	StatusIgnored   TransactionStatus = "ignored"
)

// TransactionType distinguishes money in from money out.
type TransactionType string

const (
	TypeCredit TransactionType = "Credit"
	TypeDebit  TransactionType = "Debit"
)

// MatchConfidence is the coarse suggestion score for a transaction.
type MatchConfidence string

const (
	ConfidenceNone  MatchConfidence = "none"
	ConfidenceAmber MatchConfidence = "amber"
	ConfidenceGreen MatchConfidence = "green"
)

// Field names for banktransactions records.
const (
	FieldTxnDate            = "date"
	FieldTxnDescription     = "description"
	FieldTxnAmount          = "amount"
	FieldTxnType            = "type"
	FieldTxnStatus          = "status"
	FieldTxnMatchConfidence = "matchConfidence"
	FieldTxnMatchedToID     = "matchedToId"
	FieldTxnMatchedToType   = "matchedToType"
	FieldTxnReconciled      = "reconciled"
	FieldTxnReconciledAt    = "reconciledAt"
	FieldTxnReconciledBy    = "reconciledBy"
	FieldTxnBankReference   = "bankReference"
	FieldTxnNotes           = "notes"
)

// BankTransaction is a typed projection over a banktransactions record.
type BankTransaction struct {
	ID              string
	Date            time.Time
	Description     string
	Amount          decimal.Decimal
	Type            TransactionType
	Status          TransactionStatus
	MatchConfidence MatchConfidence
	MatchedToID     string
	MatchedToType   EntityType
	Reconciled      bool
	ReconciledAt    time.Time
	ReconciledBy    string
	BankReference   string
	Notes           string
}

// BankTransactionFromRecord projects a record onto the typed transaction
// shape, tolerating JSON round-tripped field values.
func BankTransactionFromRecord(r *Record) BankTransaction {
	txn := BankTransaction{
		ID:              r.ID,
		Description:     CoerceString(r.Field(FieldTxnDescription)),
		Type:            TransactionType(CoerceString(r.Field(FieldTxnType))),
		Status:          TransactionStatus(CoerceString(r.Field(FieldTxnStatus))),
		MatchConfidence: MatchConfidence(CoerceString(r.Field(FieldTxnMatchConfidence))),
		MatchedToID:     CoerceString(r.Field(FieldTxnMatchedToID)),
		MatchedToType:   NormalizeEntityType(CoerceString(r.Field(FieldTxnMatchedToType))),
		Reconciled:      CoerceBool(r.Field(FieldTxnReconciled)),
		ReconciledBy:    CoerceString(r.Field(FieldTxnReconciledBy)),
		BankReference:   CoerceString(r.Field(FieldTxnBankReference)),
		Notes:           CoerceString(r.Field(FieldTxnNotes)),
	}
	txn.Date, _ = CoerceTime(r.Field(FieldTxnDate))
	txn.Amount, _ = CoerceDecimal(r.Field(FieldTxnAmount))
	txn.ReconciledAt, _ = CoerceTime(r.Field(FieldTxnReconciledAt))
	if txn.Status == "" {
		txn.Status = StatusUnmatched
	}
	if txn.MatchConfidence == "" {
		txn.MatchConfidence = ConfidenceNone
	}
	return txn
}

// Fields returns the record field map for a new bank transaction.
func (t BankTransaction) Fields() map[string]any {
	return map[string]any{
		FieldTxnDate:            t.Date,
		FieldTxnDescription:     t.Description,
		FieldTxnAmount:          t.Amount,
		FieldTxnType:            string(t.Type),
		FieldTxnStatus:          string(t.Status),
		FieldTxnMatchConfidence: string(t.MatchConfidence),
		FieldTxnBankReference:   t.BankReference,
		FieldTxnNotes:           t.Notes,
	}
}
