// Package audit independently re-derives the invariants the store and
// reconciliation engine are supposed to uphold and reports violations as
// findings. Findings are diagnostics: the system stays usable with
// imperfect historical data, so nothing here ever blocks a write.
package audit

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerdesk-dev/ledgerdesk/internal/model"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/policy"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/store"
)

// Kind classifies a finding.
type Kind string

const (
	KindOrphanReference  Kind = "orphan-reference"
	KindSelectorBypass   Kind = "selector-bypass"
	KindDoubleMatch      Kind = "double-match"
	KindStaleTotals      Kind = "stale-totals"
	KindRequiredFieldGap Kind = "required-field-gap"
)

// Finding is one detected integrity defect.
type Finding struct {
	Kind        Kind
	EntityType  model.EntityType
	RecordID    string
	Description string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s %s/%s: %s", f.Kind, f.EntityType, f.RecordID, f.Description)
}

// Report is the outcome of one audit pass.
type Report struct {
	RanAt          time.Time
	CheckedRecords int
	Findings       []Finding
}

// Clean reports whether the pass found nothing.
func (r Report) Clean() bool {
	return len(r.Findings) == 0
}

// Auditor runs integrity passes over a store.
type Auditor struct {
	store  *store.Store
	policy policy.ValidationPolicy

	// SampleSize caps how many parent records the selector-consistency
	// check re-derives per entity type. Zero means check all.
	SampleSize int
}

// New creates an Auditor.
func New(st *store.Store, p policy.ValidationPolicy) *Auditor {
	return &Auditor{store: st, policy: p}
}

// Run executes every check and returns the combined report.
func (a *Auditor) Run() (Report, error) {
	report := Report{RanAt: time.Now()}

	types := a.store.EntityTypes()
	byType := make(map[model.EntityType][]*model.Record, len(types))
	for _, t := range types {
		records, err := a.store.List(string(t))
		if err != nil {
			return Report{}, fmt.Errorf("listing %s: %w", t, err)
		}
		byType[t] = records
		report.CheckedRecords += len(records)
	}

	report.Findings = append(report.Findings, a.checkOrphanReferences(types, byType)...)
	report.Findings = append(report.Findings, a.checkSelectorConsistency(types, byType)...)
	report.Findings = append(report.Findings, a.checkDoubleMatches(byType)...)
	report.Findings = append(report.Findings, a.checkDocumentTotals(byType)...)
	report.Findings = append(report.Findings, a.checkRequiredFields(types, byType)...)

	return report, nil
}

// checkOrphanReferences flags records whose (relatedToType, relatedToId)
// pair does not resolve to a live record.
func (a *Auditor) checkOrphanReferences(types []model.EntityType, byType map[model.EntityType][]*model.Record) []Finding {
	ids := make(map[model.EntityType]map[string]bool, len(byType))
	for t, records := range byType {
		set := make(map[string]bool, len(records))
		for _, rec := range records {
			set[rec.ID] = true
		}
		ids[t] = set
	}

	var findings []Finding
	for _, t := range types {
		for _, rec := range byType[t] {
			ref, ok := rec.RelatedTo()
			if !ok {
				continue
			}
			targets, known := ids[ref.Kind]
			if !known {
				findings = append(findings, Finding{
					Kind:        KindOrphanReference,
					EntityType:  t,
					RecordID:    rec.ID,
					Description: fmt.Sprintf("relatedToType %q is not a collection", ref.Kind),
				})
				continue
			}
			if !targets[ref.ID] {
				findings = append(findings, Finding{
					Kind:        KindOrphanReference,
					EntityType:  t,
					RecordID:    rec.ID,
					Description: fmt.Sprintf("dangling reference %s", ref),
				})
			}
		}
	}
	return findings
}

// checkSelectorConsistency re-derives GetRelatedRecords with a raw linear
// scan and diffs the two. Any divergence means a derived view bypassed the
// canonical predicate.
func (a *Auditor) checkSelectorConsistency(types []model.EntityType, byType map[model.EntityType][]*model.Record) []Finding {
	var findings []Finding
	for _, parent := range types {
		parents := byType[parent]
		if a.SampleSize > 0 && len(parents) > a.SampleSize {
			parents = parents[:a.SampleSize]
		}
		for _, rec := range parents {
			for _, child := range types {
				want := rawRelatedScan(byType[child], parent, rec.ID)
				got, err := a.store.GetRelatedRecords(string(parent), rec.ID, []model.EntityType{child})
				if err != nil {
					findings = append(findings, Finding{
						Kind:        KindSelectorBypass,
						EntityType:  parent,
						RecordID:    rec.ID,
						Description: fmt.Sprintf("selector error on %s: %v", child, err),
					})
					continue
				}
				if !sameIDSet(want, got) {
					findings = append(findings, Finding{
						Kind:        KindSelectorBypass,
						EntityType:  parent,
						RecordID:    rec.ID,
						Description: fmt.Sprintf("selector returned %d records from %s, raw scan found %d", len(got), child, len(want)),
					})
				}
			}
		}
	}
	return findings
}

// checkDoubleMatches flags obligations held by more than one matched
// transaction.
func (a *Auditor) checkDoubleMatches(byType map[model.EntityType][]*model.Record) []Finding {
	holders := make(map[model.Reference][]string)
	var order []model.Reference
	for _, rec := range byType[model.EntityBankTransactions] {
		txn := model.BankTransactionFromRecord(rec)
		if txn.Status != model.StatusMatched || txn.MatchedToID == "" {
			continue
		}
		ref := model.Reference{Kind: txn.MatchedToType, ID: txn.MatchedToID}
		if _, seen := holders[ref]; !seen {
			order = append(order, ref)
		}
		holders[ref] = append(holders[ref], txn.ID)
	}

	var findings []Finding
	for _, ref := range order {
		txns := holders[ref]
		if len(txns) > 1 {
			findings = append(findings, Finding{
				Kind:        KindDoubleMatch,
				EntityType:  ref.Kind,
				RecordID:    ref.ID,
				Description: fmt.Sprintf("matched by %d transactions %v", len(txns), txns),
			})
		}
	}
	return findings
}

// checkDocumentTotals re-derives totals from line items and compares them
// with the stored roll-ups.
func (a *Auditor) checkDocumentTotals(byType map[model.EntityType][]*model.Record) []Finding {
	var findings []Finding
	for t, records := range byType {
		if !model.IsDocument(t) {
			continue
		}
		for _, rec := range records {
			raw := rec.Field(model.FieldLineItems)
			if raw == nil {
				continue
			}
			items, err := model.CoerceLineItems(raw)
			if err != nil {
				findings = append(findings, Finding{
					Kind:        KindStaleTotals,
					EntityType:  t,
					RecordID:    rec.ID,
					Description: fmt.Sprintf("unreadable line items: %v", err),
				})
				continue
			}
			want := model.CalculateTotals(items)
			for field, expected := range map[string]decimal.Decimal{
				model.FieldSubtotal: want.Subtotal,
				model.FieldTaxTotal: want.TaxTotal,
				model.FieldTotal:    want.Total,
			} {
				stored, ok := model.CoerceDecimal(rec.Field(field))
				if !ok || !stored.Equal(expected) {
					findings = append(findings, Finding{
						Kind:        KindStaleTotals,
						EntityType:  t,
						RecordID:    rec.ID,
						Description: fmt.Sprintf("%s is %v, re-derived %s", field, rec.Field(field), expected),
					})
				}
			}
		}
	}
	return findings
}

// checkRequiredFields re-applies the validation policy to existing data.
// Historical records that predate a policy change surface here instead of
// failing writes.
func (a *Auditor) checkRequiredFields(types []model.EntityType, byType map[model.EntityType][]*model.Record) []Finding {
	var findings []Finding
	for _, t := range types {
		required := a.policy.RequiredFields(t)
		if len(required) == 0 {
			continue
		}
		for _, rec := range byType[t] {
			for _, f := range required {
				if model.IsEmptyValue(rec.Field(f)) {
					findings = append(findings, Finding{
						Kind:        KindRequiredFieldGap,
						EntityType:  t,
						RecordID:    rec.ID,
						Description: fmt.Sprintf("required field %q is empty", f),
					})
				}
			}
		}
	}
	return findings
}

// rawRelatedScan is the independent predicate the selector must agree with.
func rawRelatedScan(children []*model.Record, parent model.EntityType, parentID string) []*model.Record {
	var out []*model.Record
	for _, rec := range children {
		ref, ok := rec.RelatedTo()
		if !ok {
			continue
		}
		if ref.Kind == parent && ref.ID == parentID {
			out = append(out, rec)
		}
	}
	return out
}

func sameIDSet(a, b []*model.Record) bool {
	if len(a) != len(b) {
		return false
	}
	ids := make(map[string]int, len(a))
	for _, rec := range a {
		ids[rec.ID]++
	}
	for _, rec := range b {
		ids[rec.ID]--
		if ids[rec.ID] < 0 {
			return false
		}
	}
	return true
}
