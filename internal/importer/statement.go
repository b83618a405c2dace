package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerdesk-dev/ledgerdesk/internal/model"
)

// StatementParser parses the standard statement export layout:
// date,description,amount,reference. Negative amounts are debits.
type StatementParser struct{}

const (
	statementDateFormat = "2006-01-02"
	statementNumFields  = 4
	statementColDate    = 0
	statementColDesc    = 1
	statementColAmount  = 2
	statementColRef     = 3
)

// Format returns the parser name.
func (p *StatementParser) Format() string { return "statement" }

// Parse reads a statement CSV and returns BankTransactions.
func (p *StatementParser) Parse(r io.Reader) ([]model.BankTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = statementNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading statement CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var txns []model.BankTransaction
	for i, rec := range records[1:] {
		txn, err := parseStatementRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func parseStatementRow(rec []string) (model.BankTransaction, error) {
	date, err := time.Parse(statementDateFormat, rec[statementColDate])
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing date %q: %w", rec[statementColDate], err)
	}

	amount, err := decimal.NewFromString(rec[statementColAmount])
	if err != nil {
		return model.BankTransaction{}, fmt.Errorf("parsing amount %q: %w", rec[statementColAmount], err)
	}

	txnType := model.TypeCredit
	if amount.IsNegative() {
		txnType = model.TypeDebit
	}

	desc := rec[statementColDesc]
	ref := rec[statementColRef]
	if ref == "" {
		ref = makeStatementRef(date, desc)
	}

	return model.BankTransaction{
		Date:          date,
		Description:   desc,
		Amount:        amount.Abs(),
		Type:          txnType,
		Status:        model.StatusUnmatched,
		BankReference: ref,
	}, nil
}

// makeStatementRef creates a fallback reference like stmt_20250103_GITHUB
// so re-imports of the same file stay idempotent.
func makeStatementRef(date time.Time, desc string) string {
	return fmt.Sprintf("stmt_%s_%s", date.Format("20060102"), refSuffix(desc))
}

// refSuffix reduces a description to a short alphanumeric tag.
func refSuffix(desc string) string {
	s := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, desc)
	if len(s) > 10 {
		s = s[:10]
	}
	return s
}
