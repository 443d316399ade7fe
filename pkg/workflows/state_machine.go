package workflows

// StateMachine enforces status transitions for registry workflows
type StateMachine struct {
	allowedTransitions map[string][]string
}

// NewMintRequestMachine returns the state machine for mint-request approvals.
// Executed and Rejected are terminal; repeated approvals below quorum keep a
// request PartiallyApproved.
func NewMintRequestMachine() *StateMachine {
	return &StateMachine{
		allowedTransitions: map[string][]string{
			"Pending":           {"PartiallyApproved", "Executed", "Rejected"},
			"PartiallyApproved": {"PartiallyApproved", "Executed", "Rejected"},
			"Executed":          {},
			"Rejected":          {},
		},
	}
}

// NewBuyRequestMachine returns the state machine for buy requests.
func NewBuyRequestMachine() *StateMachine {
	return &StateMachine{
		allowedTransitions: map[string][]string{
			"Pending":  {"Approved"},
			"Approved": {},
		},
	}
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition can leave the status.
func (sm *StateMachine) IsTerminal(status string) bool {
	allowed, exists := sm.allowedTransitions[status]
	return exists && len(allowed) == 0
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	return allowed
}
