package encumbrance

// transitions is the directed lifecycle graph. Terminal states have no
// outgoing edges. PENDING is the only non-contributing state with an edge
// into a contributing one, so a record's contribution can only rise once,
// on activation.
var transitions = map[Status][]Status{
	StatusPending: {
		StatusActive, StatusCancelled, StatusUnderReview, StatusSuspended,
	},
	StatusActive: {
		StatusPartiallyReleased, StatusReleased, StatusExpired, StatusSuspended,
		StatusDefaulted, StatusUnderReview, StatusTransferred, StatusModified,
		StatusTerminated, StatusCancelled,
	},
	StatusPartiallyReleased: {
		StatusPartiallyReleased, StatusReleased, StatusExpired, StatusSuspended,
		StatusDefaulted, StatusUnderReview, StatusTransferred, StatusTerminated,
	},
	StatusSuspended: {
		StatusUnderReview, StatusCancelled, StatusTerminated,
	},
	StatusUnderReview: {
		StatusSuspended, StatusCancelled, StatusTerminated,
	},
	StatusDefaulted: {
		StatusUnderReview, StatusTerminated,
	},
	StatusModified: {
		StatusTerminated,
	},
	StatusTransferred: {
		StatusTerminated,
	},
	StatusReleased:   nil,
	StatusExpired:    nil,
	StatusCancelled:  nil,
	StatusTerminated: nil,
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
// Staying in the same non-terminal state is always allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return !from.Terminal()
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
