package model

// FieldType is the input kind of a custom field.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeSelect   FieldType = "select"
	FieldTypeDate     FieldType = "date"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeTextarea FieldType = "textarea"
)

// CustomFieldDef describes one field of a custom entity, or a custom-field
// extension on a built-in entity.
type CustomFieldDef struct {
	ID           string    `json:"id" yaml:"id"`
	Label        string    `json:"label" yaml:"label"`
	Type         FieldType `json:"type" yaml:"type"`
	Required     bool      `json:"required" yaml:"required"`
	Options      []string  `json:"options,omitempty" yaml:"options,omitempty"`
	DefaultValue any       `json:"defaultValue,omitempty" yaml:"default_value,omitempty"`
}

// CustomEntityDef is a blueprint-declared entity type. Field order is
// significant for form rendering and is preserved.
type CustomEntityDef struct {
	ID     string           `json:"id" yaml:"id"`
	Label  string           `json:"label" yaml:"label"`
	Fields []CustomFieldDef `json:"fields" yaml:"fields"`
}

// Type returns the normalized entity type tag for this definition.
func (d CustomEntityDef) Type() EntityType {
	return NormalizeEntityType(d.ID)
}

// RequiredFieldIDs returns the ids of all required fields, in declaration
// order.
func (d CustomEntityDef) RequiredFieldIDs() []string {
	var ids []string
	for _, f := range d.Fields {
		if f.Required {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// Defaults returns the declared default values keyed by field id.
func (d CustomEntityDef) Defaults() map[string]any {
	defaults := make(map[string]any)
	for _, f := range d.Fields {
		if f.DefaultValue != nil {
			defaults[f.ID] = f.DefaultValue
		}
	}
	return defaults
}
