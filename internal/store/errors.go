package store

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ledgerdesk-dev/ledgerdesk/internal/model"
)

// ValidationError reports required fields missing at write time. The caller
// corrects input and retries; the store never retries on its own.
type ValidationError struct {
	EntityType    model.EntityType
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing required fields: %s", e.EntityType, strings.Join(e.MissingFields, ", "))
}

// Friendly renders the missing fields as a human-readable prompt, with
// camelCase field names spaced and capitalized.
func (e *ValidationError) Friendly() string {
	names := make([]string, len(e.MissingFields))
	for i, f := range e.MissingFields {
		names[i] = HumanizeField(f)
	}
	return "Please fill in " + strings.Join(names, ", ")
}

// NotFoundError reports an operation against a record id that does not
// exist in the target collection.
type NotFoundError struct {
	EntityType model.EntityType
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s/%s: not found", e.EntityType, e.ID)
}

// UnknownEntityTypeError reports an operation against a collection that is
// neither built-in nor registered as a custom entity.
type UnknownEntityTypeError struct {
	EntityType model.EntityType
}

func (e *UnknownEntityTypeError) Error() string {
	return fmt.Sprintf("unknown entity type %q", e.EntityType)
}

// HumanizeField converts a camelCase field id into a display name:
// "matchConfidence" -> "Match Confidence".
func HumanizeField(field string) string {
	var b strings.Builder
	for i, r := range field {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
