package trade

import "fmt"

// ValidationError reports a record that failed schema or invariant checks.
// Ticket is empty when the failure is not tied to a single record.
type ValidationError struct {
	Ticket string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Ticket == "" {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("validation: ticket %s: %s: %s", e.Ticket, e.Field, e.Reason)
}
