package enums

// CartLineStatus tracks the lifecycle of a scanned cart line.
type CartLineStatus string

const (
	CartLineStatusCart     CartLineStatus = "cart"
	CartLineStatusBought   CartLineStatus = "bought"
	CartLineStatusReturned CartLineStatus = "returned"
)

var validCartLineStatuses = []CartLineStatus{
	CartLineStatusCart,
	CartLineStatusBought,
	CartLineStatusReturned,
}

// String implements fmt.Stringer.
func (s CartLineStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s CartLineStatus) IsValid() bool {
	for _, candidate := range validCartLineStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the status may move to next. Lines only
// move forward: cart -> bought -> returned, or cart -> returned directly.
func (s CartLineStatus) CanTransitionTo(next CartLineStatus) bool {
	switch s {
	case CartLineStatusCart:
		return next == CartLineStatusBought || next == CartLineStatusReturned
	case CartLineStatusBought:
		return next == CartLineStatusReturned
	default:
		return false
	}
}

// TransitionSources lists the statuses allowed to move to next, derived from
// the forward-only transition rules. Repositories use it to scope bulk status
// updates.
func TransitionSources(next CartLineStatus) []CartLineStatus {
	var sources []CartLineStatus
	for _, candidate := range validCartLineStatuses {
		if candidate.CanTransitionTo(next) {
			sources = append(sources, candidate)
		}
	}
	return sources
}
