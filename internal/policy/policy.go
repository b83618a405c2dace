// Package policy holds the externally-configured rules the entity store
// consults: which fields are required per entity type, and who may see a
// record. Both are loaded once at startup and passed in explicitly.
package policy

import (
	"sort"

	"github.com/ledgerdesk-dev/ledgerdesk/internal/model"
)

// Role classifies an acting user for visibility checks.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// User is the acting identity passed into store and engine operations.
type User struct {
	ID   string
	Name string
	Role Role
}

// ValidationPolicy maps entity types to their required field lists.
type ValidationPolicy struct {
	required map[model.EntityType][]string
}

// NewValidationPolicy builds a policy from a string-keyed map, normalizing
// entity type tags.
func NewValidationPolicy(required map[string][]string) ValidationPolicy {
	m := make(map[model.EntityType][]string, len(required))
	for k, fields := range required {
		m[model.NormalizeEntityType(k)] = append([]string(nil), fields...)
	}
	return ValidationPolicy{required: m}
}

// RequiredFields returns the configured required fields for an entity type.
func (p ValidationPolicy) RequiredFields(t model.EntityType) []string {
	return p.required[t]
}

// EntityTypes returns every entity type the policy configures, sorted.
func (p ValidationPolicy) EntityTypes() []model.EntityType {
	types := make([]model.EntityType, 0, len(p.required))
	for t := range p.required {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// AccessFunc decides whether a user may view or mutate a record. The store
// takes one as a hook point; CanAccessRecord is the default rule table.
type AccessFunc func(rec *model.Record, u User) bool

// CanAccessRecord implements the default ownership-visibility rule: admins
// and managers see everything; unowned records are visible to all; owned
// records are visible to their owner.
func CanAccessRecord(rec *model.Record, u User) bool {
	if u.Role == RoleAdmin || u.Role == RoleManager {
		return true
	}
	if rec.OwnerID == "" {
		return true
	}
	return rec.OwnerID == u.ID
}
