package model

import "fmt"

// Reference is a weak polymorphic pointer to a record in any collection.
// Resolution is a lookup that may fail; holding a Reference never implies
// the target exists.
type Reference struct {
	Kind EntityType `json:"kind"`
	ID   string     `json:"id"`
}

// IsZero reports whether the reference is unset.
func (r Reference) IsZero() bool {
	return r.Kind == "" && r.ID == ""
}

func (r Reference) String() string {
	return fmt.Sprintf("%s/%s", r.Kind, r.ID)
}
