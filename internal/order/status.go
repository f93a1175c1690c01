package order

// transitions maps each status to the statuses it may move to. A held ticket
// resumes at PENDING; refunds are only reachable from a completed sale.
var transitions = map[Status][]Status{
	StatusPending:   {StatusPreparing, StatusReady, StatusCompleted, StatusCancelled, StatusHeld},
	StatusPreparing: {StatusReady, StatusCompleted, StatusCancelled},
	StatusReady:     {StatusCompleted, StatusCancelled},
	StatusCompleted: {StatusRefunded},
	StatusHeld:      {StatusPending, StatusCancelled},
	StatusCancelled: {},
	StatusRefunded:  {},
}

// ValidStatus reports whether s is one of the known order statuses.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist from s.
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}
