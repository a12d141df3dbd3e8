package order

import "fmt"

// Status is an order's lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPlaced    Status = "placed"
	StatusConfirmed Status = "confirmed"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// ParseStatus converts a wire string into a Status.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusDraft, StatusPlaced, StatusConfirmed, StatusDelivered, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether the move from one status to the next is
// legal: draft -> placed -> confirmed -> delivered, one step at a time, with
// cancelled reachable from any non-terminal state. Cancellation is the only
// transition with a side effect (stock restoration).
func CanTransition(from, to Status) bool {
	if to == StatusCancelled {
		return !from.IsTerminal()
	}
	switch from {
	case StatusDraft:
		return to == StatusPlaced
	case StatusPlaced:
		return to == StatusConfirmed
	case StatusConfirmed:
		return to == StatusDelivered
	}
	return false
}

// InvalidTransitionError reports an attempted illegal status change.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}
