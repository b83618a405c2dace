// Package store is the single source of truth for all business records.
// Every mutation funnels through UpsertRecord/DeleteRecord so that
// referential-integrity checking and audit re-derivation stay possible;
// callers never splice collections directly.
package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ledgerdesk-dev/ledgerdesk/internal/id"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/model"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/policy"
)

// documentNumberPrefixes assigns human-facing number prefixes to the
// document-shaped entity types.
var documentNumberPrefixes = map[model.EntityType]string{
	model.EntityInvoices:      "INV",
	model.EntityQuotes:        "QUO",
	model.EntitySubscriptions: "SUB",
}

// collection holds one entity type's records. order preserves insertion
// order for stable iteration; id uniqueness is the only invariant.
type collection struct {
	records map[string]*model.Record
	order   []string
}

func newCollection() *collection {
	return &collection{records: make(map[string]*model.Record)}
}

// Store owns all entity collections and enforces the generic create/update
// contract. All methods are safe for concurrent use; each call executes as
// one atomic unit against the shared state.
type Store struct {
	mu           sync.RWMutex
	collections  map[model.EntityType]*collection
	customOrder  []model.EntityType
	custom       map[model.EntityType]model.CustomEntityDef
	customFields map[model.EntityType][]model.CustomFieldDef
	policy       policy.ValidationPolicy
	access       policy.AccessFunc
	log          *logrus.Logger
	now          func() time.Time
	newID        func() string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for integrity warnings.
func WithLogger(log *logrus.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDFunc overrides record id generation.
func WithIDFunc(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithAccessFunc overrides the visibility rule table.
func WithAccessFunc(fn policy.AccessFunc) Option {
	return func(s *Store) { s.access = fn }
}

// New creates a Store with all built-in collections registered.
func New(p policy.ValidationPolicy, opts ...Option) *Store {
	s := &Store{
		collections:  make(map[model.EntityType]*collection),
		custom:       make(map[model.EntityType]model.CustomEntityDef),
		customFields: make(map[model.EntityType][]model.CustomFieldDef),
		policy:       p,
		access:       policy.CanAccessRecord,
		log:          logrus.New(),
		now:          time.Now,
		newID:        id.NewRecordID,
	}
	for _, t := range model.BuiltinEntityTypes {
		s.collections[t] = newCollection()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterCustomEntity declares a new entity type from a blueprint
// definition and creates its collection.
func (s *Store) RegisterCustomEntity(def model.CustomEntityDef) error {
	t := def.Type()
	if t == "" {
		return fmt.Errorf("custom entity id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.collections[t]; exists {
		return fmt.Errorf("entity type %q already exists", t)
	}
	s.collections[t] = newCollection()
	s.custom[t] = def
	s.customOrder = append(s.customOrder, t)
	return nil
}

// RegisterCustomFields extends an existing entity type with custom field
// definitions. Values live in each record's CustomData map; required custom
// fields gate persistence like built-in required fields.
func (s *Store) RegisterCustomFields(entityType string, fields []model.CustomFieldDef) error {
	t := model.NormalizeEntityType(entityType)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.collections[t]; !exists {
		return &UnknownEntityTypeError{EntityType: t}
	}
	s.customFields[t] = append(s.customFields[t], fields...)
	return nil
}

// CustomEntity returns the blueprint definition for a custom entity type.
func (s *Store) CustomEntity(entityType string) (model.CustomEntityDef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.custom[model.NormalizeEntityType(entityType)]
	return def, ok
}

// EntityTypes returns every registered entity type: built-ins in their
// stable order followed by custom entities in registration order.
func (s *Store) EntityTypes() []model.EntityType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := make([]model.EntityType, 0, len(s.collections))
	types = append(types, model.BuiltinEntityTypes...)
	types = append(types, s.customOrder...)
	return types
}

// UpsertRecord creates or updates a record. A patch without an ID is a
// create: a fresh id is generated, timestamps set, CreatedBy stamped from
// the actor. A patch with an ID is an update: patch fields shallow-merge
// over the existing record and UpdatedAt is refreshed. Required-field
// validation runs before commit; on failure nothing is written.
func (s *Store) UpsertRecord(entityType string, patch model.Record, actor policy.User) (*model.Record, error) {
	t := model.NormalizeEntityType(entityType)

	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[t]
	if !ok {
		return nil, &UnknownEntityTypeError{EntityType: t}
	}

	var rec *model.Record
	creating := patch.ID == ""
	if creating {
		rec = &model.Record{
			ID:         s.newID(),
			CreatedAt:  s.now(),
			CreatedBy:  actor.ID,
			OwnerID:    patch.OwnerID,
			Fields:     make(map[string]any),
			CustomData: make(map[string]any),
		}
		rec.UpdatedAt = rec.CreatedAt
		s.applyDefaults(t, rec)
		mergeInto(rec, patch)
		s.assignDocumentNumber(t, col, rec)
	} else {
		existing, ok := col.records[patch.ID]
		if !ok {
			return nil, &NotFoundError{EntityType: t, ID: patch.ID}
		}
		rec = existing.Clone()
		mergeInto(rec, patch)
		rec.UpdatedAt = s.now()
	}

	if err := s.recomputeTotals(t, rec); err != nil {
		return nil, fmt.Errorf("%s/%s: %w", t, rec.ID, err)
	}

	if missing := s.missingRequiredFields(t, rec); len(missing) > 0 {
		return nil, &ValidationError{EntityType: t, MissingFields: missing}
	}

	// Dangling references are tolerated: partially-seeded data is expected
	// to self-heal as dependents arrive. The audit pass reports them.
	s.warnDanglingReference(t, rec)

	if creating {
		col.order = append(col.order, rec.ID)
	}
	col.records[rec.ID] = rec

	return rec.Clone(), nil
}

// DeleteRecord removes a record. Dependents are not cascade-deleted;
// resulting orphan references are a tolerated, detectable condition.
func (s *Store) DeleteRecord(entityType, recordID string) error {
	t := model.NormalizeEntityType(entityType)

	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[t]
	if !ok {
		return &UnknownEntityTypeError{EntityType: t}
	}
	if _, ok := col.records[recordID]; !ok {
		return &NotFoundError{EntityType: t, ID: recordID}
	}

	delete(col.records, recordID)
	for i, oid := range col.order {
		if oid == recordID {
			col.order = append(col.order[:i], col.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns a copy of a record by id.
func (s *Store) Get(entityType, recordID string) (*model.Record, error) {
	t := model.NormalizeEntityType(entityType)

	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[t]
	if !ok {
		return nil, &UnknownEntityTypeError{EntityType: t}
	}
	rec, ok := col.records[recordID]
	if !ok {
		return nil, &NotFoundError{EntityType: t, ID: recordID}
	}
	return rec.Clone(), nil
}

// List returns copies of all records of an entity type in insertion order.
func (s *Store) List(entityType string) ([]*model.Record, error) {
	t := model.NormalizeEntityType(entityType)

	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[t]
	if !ok {
		return nil, &UnknownEntityTypeError{EntityType: t}
	}
	out := make([]*model.Record, 0, len(col.order))
	for _, rid := range col.order {
		out = append(out, col.records[rid].Clone())
	}
	return out, nil
}

// GetRelatedRecords returns every record in the given child collections
// whose (relatedToType, relatedToId) pair points at the parent record.
// Matching is case-insensitive on the type tag. The result must always
// equal a raw linear scan with the same predicate; the audit pass re-derives
// and diffs the two.
func (s *Store) GetRelatedRecords(entityType, recordID string, children []model.EntityType) ([]*model.Record, error) {
	parent := model.NormalizeEntityType(entityType)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Record
	for _, child := range children {
		col, ok := s.collections[model.NormalizeEntityType(string(child))]
		if !ok {
			return nil, &UnknownEntityTypeError{EntityType: child}
		}
		for _, rid := range col.order {
			rec := col.records[rid]
			ref, ok := rec.RelatedTo()
			if !ok {
				continue
			}
			if ref.Kind == parent && ref.ID == recordID {
				out = append(out, rec.Clone())
			}
		}
	}
	return out, nil
}

// CanAccess reports whether the user may view or mutate the record, per the
// injected visibility policy.
func (s *Store) CanAccess(rec *model.Record, u policy.User) bool {
	return s.access(rec, u)
}

// mergeInto shallow-merges patch fields over a record. OwnerID changes only
// when the patch carries a non-empty owner.
func mergeInto(rec *model.Record, patch model.Record) {
	if patch.OwnerID != "" {
		rec.OwnerID = patch.OwnerID
	}
	for k, v := range patch.Fields {
		rec.SetField(k, v)
	}
	for k, v := range patch.CustomData {
		if rec.CustomData == nil {
			rec.CustomData = make(map[string]any)
		}
		rec.CustomData[k] = v
	}
}

// applyDefaults seeds declared default values for custom fields on create.
func (s *Store) applyDefaults(t model.EntityType, rec *model.Record) {
	if def, ok := s.custom[t]; ok {
		for k, v := range def.Defaults() {
			rec.CustomData[k] = v
		}
	}
	for _, f := range s.customFields[t] {
		if f.DefaultValue != nil {
			rec.CustomData[f.ID] = f.DefaultValue
		}
	}
}

// assignDocumentNumber gives new invoices/quotes/subscriptions a sequential
// human-facing number when the caller supplied none.
func (s *Store) assignDocumentNumber(t model.EntityType, col *collection, rec *model.Record) {
	prefix, ok := documentNumberPrefixes[t]
	if !ok || model.CoerceString(rec.Field(model.FieldNumber)) != "" {
		return
	}
	existing := make([]string, 0, len(col.order))
	for _, rid := range col.order {
		existing = append(existing, model.CoerceString(col.records[rid].Field(model.FieldNumber)))
	}
	rec.SetField(model.FieldNumber, id.NextDocumentNumber(existing, prefix, rec.CreatedAt.Year()))
}

// recomputeTotals re-derives subtotal/taxTotal/total from line items for
// document-shaped records. Caller-supplied totals are never trusted.
func (s *Store) recomputeTotals(t model.EntityType, rec *model.Record) error {
	if !model.IsDocument(t) {
		return nil
	}
	raw := rec.Field(model.FieldLineItems)
	if raw == nil {
		return nil
	}
	items, err := model.CoerceLineItems(raw)
	if err != nil {
		return err
	}
	items = model.NormalizeLineItems(items)
	totals := model.CalculateTotals(items)
	rec.SetField(model.FieldLineItems, items)
	rec.SetField(model.FieldSubtotal, totals.Subtotal)
	rec.SetField(model.FieldTaxTotal, totals.TaxTotal)
	rec.SetField(model.FieldTotal, totals.Total)
	return nil
}

// missingRequiredFields collects the required-field gaps for a record:
// policy-configured fields checked against Fields, plus required custom
// fields checked against CustomData.
func (s *Store) missingRequiredFields(t model.EntityType, rec *model.Record) []string {
	var missing []string
	for _, f := range s.policy.RequiredFields(t) {
		if model.IsEmptyValue(rec.Field(f)) {
			missing = append(missing, f)
		}
	}
	if def, ok := s.custom[t]; ok {
		for _, f := range def.RequiredFieldIDs() {
			if model.IsEmptyValue(rec.CustomData[f]) {
				missing = append(missing, f)
			}
		}
	}
	for _, f := range s.customFields[t] {
		if f.Required && model.IsEmptyValue(rec.CustomData[f.ID]) {
			missing = append(missing, f.ID)
		}
	}
	return missing
}

// warnDanglingReference logs a non-fatal integrity warning when a record's
// polymorphic reference does not resolve.
func (s *Store) warnDanglingReference(t model.EntityType, rec *model.Record) {
	ref, ok := rec.RelatedTo()
	if !ok {
		return
	}
	target, ok := s.collections[ref.Kind]
	if ok {
		if _, exists := target.records[ref.ID]; exists {
			return
		}
	}
	s.log.WithFields(logrus.Fields{
		"entityType":    t,
		"recordId":      rec.ID,
		"relatedToType": ref.Kind,
		"relatedToId":   ref.ID,
	}).Warn("dangling relation reference")
}
