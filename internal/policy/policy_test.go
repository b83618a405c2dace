package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ledgerdesk-dev/ledgerdesk/internal/model"
)

func TestValidationPolicy_NormalizesTypes(t *testing.T) {
	p := NewValidationPolicy(map[string][]string{
		"Leads": {"name", "company"},
	})

	assert.Equal(t, []string{"name", "company"}, p.RequiredFields(model.EntityLeads))
	assert.Empty(t, p.RequiredFields(model.EntityDeals))
}

func TestCanAccessRecord(t *testing.T) {
	owned := &model.Record{ID: "r1", OwnerID: "u1"}
	unowned := &model.Record{ID: "r2"}

	tests := []struct {
		name string
		rec  *model.Record
		user User
		want bool
	}{
		{"admin sees owned", owned, User{ID: "other", Role: RoleAdmin}, true},
		{"manager sees owned", owned, User{ID: "other", Role: RoleManager}, true},
		{"owner sees own", owned, User{ID: "u1", Role: RoleMember}, true},
		{"member blocked from others", owned, User{ID: "u2", Role: RoleMember}, false},
		{"anyone sees unowned", unowned, User{ID: "u2", Role: RoleMember}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccessRecord(tt.rec, tt.user))
		})
	}
}
