// Package reconcile proposes and commits matches between bank transactions
// and the financial obligations they settle: invoices for credits, expenses
// for debits. It reads invoices and expenses as candidates but only ever
// mutates bank transaction records.
package reconcile

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ledgerdesk-dev/ledgerdesk/internal/model"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/policy"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/store"
)

// Action is a reconciliation state transition.
type Action string

const (
	ActionMatch   Action = "match"
	ActionIgnore  Action = "ignore"
	ActionUnmatch Action = "unmatch"
)

// MatchPayload names the obligation a match action links to.
type MatchPayload struct {
	MatchedToID   string
	MatchedToType string
}

// Suggestion is one ranked match candidate for an unmatched transaction.
type Suggestion struct {
	ID          string
	Type        model.EntityType
	Description string
	Amount      decimal.Decimal
	Confidence  model.MatchConfidence
}

// Config holds the match tolerance policy. The bands are product policy,
// not algorithm constants, so they are injected rather than hard-coded.
type Config struct {
	AmountTolerancePct decimal.Decimal // amber band width, percent of amount
	DateWindowDays     int             // amber band width in days
	MaxSuggestions     int             // cap on returned suggestions
}

// DefaultConfig returns the stock tolerance bands: ±2% amount, 30 days,
// top 5 suggestions.
func DefaultConfig() Config {
	return Config{
		AmountTolerancePct: decimal.NewFromInt(2),
		DateWindowDays:     30,
		MaxSuggestions:     5,
	}
}

// Engine drives bank transaction matching against an entity store.
// Competing match attempts are serialized so exactly one succeeds.
type Engine struct {
	mu    sync.Mutex // serializes check-then-commit across Reconcile calls
	store *store.Store
	cfg   Config
	log   *logrus.Logger
	now   func() time.Time
}

// NewEngine creates an Engine over a store.
func NewEngine(st *store.Store, cfg Config, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
	}
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = DefaultConfig().MaxSuggestions
	}
	return &Engine{store: st, cfg: cfg, log: log, now: time.Now}
}

// candidate is a scored match candidate before ranking.
type candidate struct {
	Suggestion
	amountDist decimal.Decimal
	dateDist   time.Duration
}

// Suggestions returns ranked match candidates for an unmatched transaction:
// green (exact amount) before amber (within tolerance), then closest
// amount, then closest date, ties broken by id. An empty list is a valid,
// expected result, not an error.
func (e *Engine) Suggestions(txnID string) ([]Suggestion, error) {
	rec, err := e.store.Get(string(model.EntityBankTransactions), txnID)
	if err != nil {
		return nil, err
	}
	txn := model.BankTransactionFromRecord(rec)
	if txn.Status != model.StatusUnmatched {
		return nil, nil
	}
	return e.suggestionsFor(txn), nil
}

// PreScore computes the suggestion confidence a transaction would receive,
// without requiring it to be stored yet. Used by ingestion to seed
// matchConfidence.
func (e *Engine) PreScore(txn model.BankTransaction) model.MatchConfidence {
	suggestions := e.suggestionsFor(txn)
	if len(suggestions) == 0 {
		return model.ConfidenceNone
	}
	return suggestions[0].Confidence
}

func (e *Engine) suggestionsFor(txn model.BankTransaction) []Suggestion {
	candidateType := candidateTypeFor(txn.Type)
	if candidateType == "" {
		return nil
	}

	records, err := e.store.List(string(candidateType))
	if err != nil {
		return nil
	}
	taken := e.activeMatches(candidateType, txn.ID)
	amount := txn.Amount.Abs()

	var candidates []candidate
	for _, rec := range records {
		if taken[rec.ID] {
			continue
		}
		candAmount, ok := candidateAmount(candidateType, rec)
		if !ok {
			continue
		}
		candDate, _ := model.CoerceTime(rec.Field("date"))

		dist := candAmount.Sub(amount).Abs()
		dateDist := absDuration(candDate.Sub(txn.Date))

		var confidence model.MatchConfidence
		switch {
		case candAmount.Equal(amount):
			confidence = model.ConfidenceGreen
		case e.withinTolerance(amount, dist) && e.withinDateWindow(dateDist):
			confidence = model.ConfidenceAmber
		default:
			continue
		}

		candidates = append(candidates, candidate{
			Suggestion: Suggestion{
				ID:          rec.ID,
				Type:        candidateType,
				Description: model.CoerceString(rec.Field("description")),
				Amount:      candAmount,
				Confidence:  confidence,
			},
			amountDist: dist,
			dateDist:   dateDist,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Confidence != b.Confidence {
			return a.Confidence == model.ConfidenceGreen
		}
		if cmp := a.amountDist.Cmp(b.amountDist); cmp != 0 {
			return cmp < 0
		}
		if a.dateDist != b.dateDist {
			return a.dateDist < b.dateDist
		}
		return a.ID < b.ID
	})

	if len(candidates) > e.cfg.MaxSuggestions {
		candidates = candidates[:e.cfg.MaxSuggestions]
	}
	out := make([]Suggestion, len(candidates))
	for i, c := range candidates {
		out[i] = c.Suggestion
	}
	return out
}

// Reconcile applies a match/ignore/unmatch action to a transaction and
// returns its resulting state. The bool reports whether state changed;
// re-invoking an action already in effect is a no-op, so callers can skip
// duplicate history entries. The whole action runs under the store's write
// lock discipline: the returned transaction reflects exactly the committed
// state.
func (e *Engine) Reconcile(txnID string, action Action, payload *MatchPayload, actor policy.User) (model.BankTransaction, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.store.Get(string(model.EntityBankTransactions), txnID)
	if err != nil {
		return model.BankTransaction{}, false, err
	}
	txn := model.BankTransactionFromRecord(rec)

	var patch map[string]any
	switch action {
	case ActionMatch:
		patch, err = e.matchPatch(txn, payload, actor)
	case ActionIgnore:
		patch, err = e.ignorePatch(txn)
	case ActionUnmatch:
		patch, err = e.unmatchPatch(txn)
	default:
		return model.BankTransaction{}, false, &InvalidTransitionError{From: txn.Status, Action: action}
	}
	if err != nil {
		return model.BankTransaction{}, false, err
	}
	if patch == nil {
		// Already in the requested state.
		return txn, false, nil
	}

	updated, err := e.store.UpsertRecord(string(model.EntityBankTransactions), model.Record{ID: txnID, Fields: patch}, actor)
	if err != nil {
		return model.BankTransaction{}, false, err
	}

	result := model.BankTransactionFromRecord(updated)
	e.log.WithFields(logrus.Fields{
		"transactionId": txnID,
		"action":        action,
		"status":        result.Status,
		"actor":         actor.ID,
	}).Info("reconciled transaction")
	return result, true, nil
}

func (e *Engine) matchPatch(txn model.BankTransaction, payload *MatchPayload, actor policy.User) (map[string]any, error) {
	if payload == nil || payload.MatchedToID == "" || payload.MatchedToType == "" {
		return nil, &InvalidMatchError{Reason: "matchedToId and matchedToType are required"}
	}
	targetType := model.NormalizeEntityType(payload.MatchedToType)

	if txn.Status == model.StatusMatched {
		if txn.MatchedToID == payload.MatchedToID && txn.MatchedToType == targetType {
			return nil, nil
		}
		return nil, &InvalidTransitionError{From: txn.Status, Action: ActionMatch}
	}
	if txn.Status == model.StatusIgnored {
		return nil, &InvalidTransitionError{From: txn.Status, Action: ActionMatch}
	}

	if _, err := e.store.Get(string(targetType), payload.MatchedToID); err != nil {
		return nil, &InvalidMatchError{Reason: "target " + string(targetType) + "/" + payload.MatchedToID + " does not exist"}
	}

	// At-most-one-active-match: an obligation already settled by another
	// matched transaction cannot be double-counted.
	if holder := e.matchHolder(targetType, payload.MatchedToID, txn.ID); holder != "" {
		return nil, &InvalidMatchError{Reason: "target already matched by transaction " + holder}
	}

	return map[string]any{
		model.FieldTxnStatus:        string(model.StatusMatched),
		model.FieldTxnMatchedToID:   payload.MatchedToID,
		model.FieldTxnMatchedToType: string(targetType),
		model.FieldTxnReconciled:    true,
		model.FieldTxnReconciledAt:  e.now(),
		model.FieldTxnReconciledBy:  actor.ID,
	}, nil
}

func (e *Engine) ignorePatch(txn model.BankTransaction) (map[string]any, error) {
	if txn.Status == model.StatusIgnored {
		return nil, nil
	}
	if txn.Status == model.StatusMatched {
		return nil, &InvalidTransitionError{From: txn.Status, Action: ActionIgnore}
	}
	return map[string]any{
		model.FieldTxnStatus:        string(model.StatusIgnored),
		model.FieldTxnMatchedToID:   "",
		model.FieldTxnMatchedToType: "",
		model.FieldTxnReconciled:    false,
		model.FieldTxnReconciledAt:  nil,
		model.FieldTxnReconciledBy:  "",
	}, nil
}

func (e *Engine) unmatchPatch(txn model.BankTransaction) (map[string]any, error) {
	if txn.Status == model.StatusUnmatched {
		return nil, nil
	}

	// Re-score so the transaction re-enters the suggestion pool with a
	// sensible confidence. Its own former target is free again by the time
	// this patch commits, so it is not excluded.
	restored := txn
	restored.Status = model.StatusUnmatched
	confidence := e.PreScore(restored)

	return map[string]any{
		model.FieldTxnStatus:          string(model.StatusUnmatched),
		model.FieldTxnMatchConfidence: string(confidence),
		model.FieldTxnMatchedToID:     "",
		model.FieldTxnMatchedToType:   "",
		model.FieldTxnReconciled:      false,
		model.FieldTxnReconciledAt:    nil,
		model.FieldTxnReconciledBy:    "",
	}, nil
}

// matchHolder returns the id of the matched transaction currently holding
// the target, excluding excludeTxnID, or "" if the target is free.
func (e *Engine) matchHolder(targetType model.EntityType, targetID, excludeTxnID string) string {
	records, err := e.store.List(string(model.EntityBankTransactions))
	if err != nil {
		return ""
	}
	for _, rec := range records {
		if rec.ID == excludeTxnID {
			continue
		}
		other := model.BankTransactionFromRecord(rec)
		if other.Status == model.StatusMatched && other.MatchedToType == targetType && other.MatchedToID == targetID {
			return other.ID
		}
	}
	return ""
}

// activeMatches returns the candidate ids already held by matched
// transactions other than excludeTxnID.
func (e *Engine) activeMatches(candidateType model.EntityType, excludeTxnID string) map[string]bool {
	taken := make(map[string]bool)
	records, err := e.store.List(string(model.EntityBankTransactions))
	if err != nil {
		return taken
	}
	for _, rec := range records {
		if rec.ID == excludeTxnID {
			continue
		}
		txn := model.BankTransactionFromRecord(rec)
		if txn.Status == model.StatusMatched && txn.MatchedToType == candidateType {
			taken[txn.MatchedToID] = true
		}
	}
	return taken
}

func (e *Engine) withinTolerance(amount, dist decimal.Decimal) bool {
	band := amount.Mul(e.cfg.AmountTolerancePct).Div(decimal.NewFromInt(100))
	return dist.LessThanOrEqual(band)
}

func (e *Engine) withinDateWindow(dist time.Duration) bool {
	window := time.Duration(e.cfg.DateWindowDays) * 24 * time.Hour
	return dist <= window
}

// candidateTypeFor maps a transaction direction to its obligation pool.
func candidateTypeFor(t model.TransactionType) model.EntityType {
	switch t {
	case model.TypeCredit:
		return model.EntityInvoices
	case model.TypeDebit:
		return model.EntityExpenses
	default:
		return ""
	}
}

// candidateAmount reads the comparable amount off a candidate: the derived
// total for invoices, the amount field for expenses.
func candidateAmount(t model.EntityType, rec *model.Record) (decimal.Decimal, bool) {
	field := "amount"
	if t == model.EntityInvoices {
		field = model.FieldTotal
	}
	d, ok := model.CoerceDecimal(rec.Field(field))
	if !ok {
		return decimal.Zero, false
	}
	return d.Abs(), true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
