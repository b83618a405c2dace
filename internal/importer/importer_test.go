package importer

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk-dev/ledgerdesk/internal/model"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/policy"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/reconcile"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/store"
)

const sampleStatement = `date,description,amount,reference
2025-01-03,GITHUB INC,-49.00,gh-123
2025-01-05,ACME CORP PAYMENT,1000.00,wire-778
2025-01-07,Coffee & Snacks,-12.50,
`

func actor() policy.User {
	return policy.User{ID: "u1", Name: "User One", Role: policy.RoleAdmin}
}

func newFixture() (*store.Store, *reconcile.Engine) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	st := store.New(policy.NewValidationPolicy(nil), store.WithLogger(log))
	return st, reconcile.NewEngine(st, reconcile.DefaultConfig(), log)
}

func TestStatementParser_Parse(t *testing.T) {
	p := &StatementParser{}
	txns, err := p.Parse(strings.NewReader(sampleStatement))
	require.NoError(t, err)
	require.Len(t, txns, 3)

	gh := txns[0]
	assert.Equal(t, model.TypeDebit, gh.Type, "negative amount is a debit")
	assert.True(t, gh.Amount.Equal(decimal.NewFromInt(49)), "amount stored absolute")
	assert.Equal(t, "gh-123", gh.BankReference)
	assert.Equal(t, model.StatusUnmatched, gh.Status)

	wire := txns[1]
	assert.Equal(t, model.TypeCredit, wire.Type)
	assert.True(t, wire.Amount.Equal(decimal.NewFromInt(1000)))

	// Missing reference falls back to a deterministic synthetic one.
	coffee := txns[2]
	assert.Equal(t, "stmt_20250107_CoffeeSnac", coffee.BankReference)
}

func TestChaseParser_Parse(t *testing.T) {
	const chaseCSV = `Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #
DEBIT,01/03/2025,GITHUB INC,-49.00,ACH_DEBIT,1451.00,
CREDIT,01/05/2025,ACME CORP PAYMENT,1000.00,ACH_CREDIT,2451.00,
`
	p := &ChaseParser{}
	txns, err := p.Parse(strings.NewReader(chaseCSV))
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, model.TypeDebit, txns[0].Type)
	assert.True(t, txns[0].Amount.Equal(decimal.NewFromInt(49)))
	assert.Equal(t, "chase_20250103_GITHUBINC", txns[0].BankReference)

	assert.Equal(t, model.TypeCredit, txns[1].Type)
	assert.Equal(t, model.StatusUnmatched, txns[1].Status)
}

func TestStatementParser_ParseErrors(t *testing.T) {
	p := &StatementParser{}

	_, err := p.Parse(strings.NewReader("date,description,amount,reference\nnot-a-date,x,10,r\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")

	_, err = p.Parse(strings.NewReader("date,description,amount,reference\n2025-01-03,x,not-a-number,r\n"))
	require.Error(t, err)

	// Header-only file is empty, not an error.
	txns, err := p.Parse(strings.NewReader("date,description,amount,reference\n"))
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r.Get("statement"))
	assert.NotNil(t, r.Get("STATEMENT"), "format lookup is case-insensitive")
	assert.Nil(t, r.Get("unknown"))
	assert.Contains(t, r.Formats(), "statement")

	assert.Panics(t, func() { r.Register(&StatementParser{}) })
}

func TestIngest_DedupesByBankReference(t *testing.T) {
	st, eng := newFixture()

	p := &StatementParser{}
	txns, err := p.Parse(strings.NewReader(sampleStatement))
	require.NoError(t, err)

	res, err := Ingest(st, eng, txns, actor())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 0, res.Skipped)

	// Re-importing the same statement is a no-op.
	res, err = Ingest(st, eng, txns, actor())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Imported)
	assert.Equal(t, 3, res.Skipped)

	records, err := st.List("banktransactions")
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestIngest_PreScoresConfidence(t *testing.T) {
	st, eng := newFixture()

	_, err := st.UpsertRecord("invoices", model.Record{Fields: map[string]any{
		"total": decimal.NewFromInt(1000),
		"date":  "2025-01-04T00:00:00Z",
	}}, actor())
	require.NoError(t, err)

	p := &StatementParser{}
	txns, err := p.Parse(strings.NewReader(sampleStatement))
	require.NoError(t, err)

	_, err = Ingest(st, eng, txns, actor())
	require.NoError(t, err)

	records, err := st.List("banktransactions")
	require.NoError(t, err)
	require.Len(t, records, 3)

	byRef := make(map[string]model.BankTransaction)
	for _, rec := range records {
		txn := model.BankTransactionFromRecord(rec)
		byRef[txn.BankReference] = txn
	}
	assert.Equal(t, model.ConfidenceGreen, byRef["wire-778"].MatchConfidence, "exact invoice total exists")
	assert.Equal(t, model.ConfidenceNone, byRef["gh-123"].MatchConfidence, "no expense candidates")
}

func TestScanAndMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	importPath := filepath.Join(dir, "import")
	require.NoError(t, os.MkdirAll(importPath, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(importPath, "jan.csv"), []byte(sampleStatement), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(importPath, "notes.txt"), []byte("skip me"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "jan.csv", files[0].Name)
	assert.Greater(t, files[0].Size, int64(0))

	require.NoError(t, MarkProcessed(dir, "jan.csv"))
	assert.NoFileExists(t, files[0].Path)
	assert.FileExists(t, filepath.Join(dir, "import", "processed", "jan.csv"))

	// Re-scan finds nothing left to import.
	files, err = Scan(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScan_MissingDir(t *testing.T) {
	files, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, files)
}
