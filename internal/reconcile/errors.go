package reconcile

import (
	"fmt"

	"github.com/ledgerdesk-dev/ledgerdesk/internal/model"
)

// InvalidMatchError reports a match action whose target is missing or
// already exclusively matched to another transaction. Surfaced to the
// caller, never retried.
type InvalidMatchError struct {
	Reason string
}

func (e *InvalidMatchError) Error() string {
	return "invalid match: " + e.Reason
}

// InvalidTransitionError reports an action not permitted from the
// transaction's current status. Only unmatched is the hub state; matched
// and ignored must pass back through unmatch.
type InvalidTransitionError struct {
	From   model.TransactionStatus
	Action Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a %s transaction", e.Action, e.From)
}
