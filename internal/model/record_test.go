package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelatedTo(t *testing.T) {
	rec := &Record{Fields: map[string]any{
		FieldRelatedToType: "Leads", // mixed case on purpose
		FieldRelatedToID:   "lead-1",
	}}

	ref, ok := rec.RelatedTo()
	require.True(t, ok)
	assert.Equal(t, EntityLeads, ref.Kind)
	assert.Equal(t, "lead-1", ref.ID)
}

func TestRelatedTo_Unset(t *testing.T) {
	rec := &Record{Fields: map[string]any{FieldRelatedToType: "leads"}}
	_, ok := rec.RelatedTo()
	assert.False(t, ok, "half a reference is no reference")

	_, ok = (&Record{}).RelatedTo()
	assert.False(t, ok)
}

func TestClone_Isolation(t *testing.T) {
	rec := &Record{
		ID:         "r1",
		Fields:     map[string]any{"name": "Acme", "tags": []any{"a"}},
		CustomData: map[string]any{"tier": "gold"},
	}

	clone := rec.Clone()
	clone.SetField("name", "Changed")
	clone.CustomData["tier"] = "silver"

	assert.Equal(t, "Acme", rec.Field("name"))
	assert.Equal(t, "gold", rec.CustomData["tier"])
}

func TestNormalizeEntityType(t *testing.T) {
	assert.Equal(t, EntityLeads, NormalizeEntityType("  Leads "))
	assert.Equal(t, EntityBankTransactions, NormalizeEntityType("bankTransactions"))
}

func TestCoerceHelpers(t *testing.T) {
	d, ok := CoerceDecimal("12.34")
	require.True(t, ok)
	assert.True(t, d.Equal(dec("12.34")))

	d, ok = CoerceDecimal(float64(5))
	require.True(t, ok)
	assert.True(t, d.Equal(dec("5")))

	_, ok = CoerceDecimal("nope")
	assert.False(t, ok)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	got, ok := CoerceTime(now.Format(time.RFC3339))
	require.True(t, ok)
	assert.True(t, got.Equal(now))

	assert.True(t, IsEmptyValue(nil))
	assert.True(t, IsEmptyValue(""))
	assert.True(t, IsEmptyValue([]any{}))
	assert.False(t, IsEmptyValue("x"))
	assert.False(t, IsEmptyValue(0)) // zero is a value, not a gap
}

func TestBankTransactionFromRecord_Defaults(t *testing.T) {
	txn := BankTransactionFromRecord(&Record{ID: "t1", Fields: map[string]any{}})
	assert.Equal(t, StatusUnmatched, txn.Status)
	assert.Equal(t, ConfidenceNone, txn.MatchConfidence)
}

func TestBankTransactionFromRecord_JSONShapes(t *testing.T) {
	rec := &Record{ID: "t1", Fields: map[string]any{
		FieldTxnDate:          "2025-01-03T00:00:00Z",
		FieldTxnAmount:        "495000",
		FieldTxnType:          "Credit",
		FieldTxnStatus:        "matched",
		FieldTxnMatchedToType: "Invoices",
		FieldTxnMatchedToID:   "inv-1",
		FieldTxnReconciled:    true,
	}}

	txn := BankTransactionFromRecord(rec)
	assert.Equal(t, TypeCredit, txn.Type)
	assert.Equal(t, StatusMatched, txn.Status)
	assert.Equal(t, EntityInvoices, txn.MatchedToType)
	assert.True(t, txn.Amount.Equal(dec("495000")))
	assert.True(t, txn.Reconciled)
	assert.Equal(t, 2025, txn.Date.Year())
}
