package model

import "time"

// Common field names shared across entity types.
const (
	FieldRelatedToType = "relatedToType"
	FieldRelatedToID   = "relatedToId"
	FieldLineItems     = "lineItems"
	FieldSubtotal      = "subtotal"
	FieldTaxTotal      = "taxTotal"
	FieldTotal         = "total"
	FieldNumber        = "number"
)

// Record is the base shape of every business record. Entity-specific fields
// live in Fields; custom-field values live in CustomData.
type Record struct {
	ID         string         `json:"id"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	CreatedBy  string         `json:"createdBy"`
	OwnerID    string         `json:"ownerId,omitempty"`
	Fields     map[string]any `json:"fields"`
	CustomData map[string]any `json:"customData,omitempty"`
}

// Field returns a named field value, or nil if unset.
func (r *Record) Field(name string) any {
	if r.Fields == nil {
		return nil
	}
	return r.Fields[name]
}

// SetField writes a named field value, allocating Fields if needed.
func (r *Record) SetField(name string, value any) {
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	r.Fields[name] = value
}

// RelatedTo returns the record's polymorphic reference, if both halves of
// the (relatedToType, relatedToId) pair are set.
func (r *Record) RelatedTo() (Reference, bool) {
	kind := CoerceString(r.Field(FieldRelatedToType))
	id := CoerceString(r.Field(FieldRelatedToID))
	if kind == "" || id == "" {
		return Reference{}, false
	}
	return Reference{Kind: NormalizeEntityType(kind), ID: id}, true
}

// Clone returns a deep copy of the record so callers cannot mutate stored
// state through the returned maps.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Fields = cloneMap(r.Fields)
	out.CustomData = cloneMap(r.CustomData)
	return &out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch vv := v.(type) {
		case []LineItem:
			items := make([]LineItem, len(vv))
			copy(items, vv)
			out[k] = items
		case []any:
			items := make([]any, len(vv))
			copy(items, vv)
			out[k] = items
		case map[string]any:
			out[k] = cloneMap(vv)
		default:
			out[k] = v
		}
	}
	return out
}
