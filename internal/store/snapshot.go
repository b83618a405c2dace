package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ledgerdesk-dev/ledgerdesk/internal/model"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/policy"
)

// snapshotFile is the store's on-disk location under a data directory.
const snapshotFile = "data/records.json"

// Snapshot is the serializable representation of all collections.
type Snapshot struct {
	SavedAt        time.Time                       `json:"savedAt"`
	Collections    map[string][]*model.Record      `json:"collections"`
	CustomEntities []model.CustomEntityDef         `json:"customEntities,omitempty"`
	CustomFields   map[string][]model.CustomFieldDef `json:"customFields,omitempty"`
}

// Snapshot captures the current state of every collection.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		SavedAt:     s.now(),
		Collections: make(map[string][]*model.Record, len(s.collections)),
	}
	for t, col := range s.collections {
		records := make([]*model.Record, 0, len(col.order))
		for _, rid := range col.order {
			records = append(records, col.records[rid].Clone())
		}
		snap.Collections[string(t)] = records
	}
	for _, t := range s.customOrder {
		snap.CustomEntities = append(snap.CustomEntities, s.custom[t])
	}
	if len(s.customFields) > 0 {
		snap.CustomFields = make(map[string][]model.CustomFieldDef, len(s.customFields))
		for t, fields := range s.customFields {
			snap.CustomFields[string(t)] = fields
		}
	}
	return snap
}

// Restore replaces the store's contents with a snapshot. Records keep their
// ids and timestamps; custom entity collections are re-registered first.
func (s *Store) Restore(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.custom = make(map[model.EntityType]model.CustomEntityDef)
	s.customOrder = nil
	s.customFields = make(map[model.EntityType][]model.CustomFieldDef)
	s.collections = make(map[model.EntityType]*collection)
	for _, t := range model.BuiltinEntityTypes {
		s.collections[t] = newCollection()
	}
	for _, def := range snap.CustomEntities {
		t := def.Type()
		if _, exists := s.collections[t]; exists {
			return fmt.Errorf("restoring custom entity %q: type already exists", t)
		}
		s.collections[t] = newCollection()
		s.custom[t] = def
		s.customOrder = append(s.customOrder, t)
	}
	for t, fields := range snap.CustomFields {
		s.customFields[model.NormalizeEntityType(t)] = fields
	}

	for rawType, records := range snap.Collections {
		t := model.NormalizeEntityType(rawType)
		col, ok := s.collections[t]
		if !ok {
			return fmt.Errorf("restoring collection %q: unknown entity type", rawType)
		}
		for _, rec := range records {
			if rec.ID == "" {
				return fmt.Errorf("restoring collection %q: record without id", rawType)
			}
			if _, dup := col.records[rec.ID]; dup {
				return fmt.Errorf("restoring collection %q: duplicate id %s", rawType, rec.ID)
			}
			col.records[rec.ID] = rec.Clone()
			col.order = append(col.order, rec.ID)
		}
	}
	return nil
}

// Save writes the store snapshot under <dataDir>/data/records.json.
func (s *Store) Save(dataDir string) error {
	snap := s.Snapshot()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	path := filepath.Join(dataDir, snapshotFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Load builds a store from <dataDir>/data/records.json. A missing snapshot
// yields an empty store.
func Load(dataDir string, p policy.ValidationPolicy, opts ...Option) (*Store, error) {
	s := New(p, opts...)

	path := filepath.Join(dataDir, snapshotFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	if err := s.Restore(snap); err != nil {
		return nil, fmt.Errorf("restoring snapshot %s: %w", path, err)
	}
	return s, nil
}
