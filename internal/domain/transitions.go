package domain

type TransitionTable map[RentalStatus]map[RentalStatus]struct{}

func set(statuses ...RentalStatus) map[RentalStatus]struct{} {
	m := make(map[RentalStatus]struct{}, len(statuses))
	for _, s := range statuses {
		m[s] = struct{}{}
	}
	return m
}

// UserTransitions lists the moves a renter or lessor may make. CANCELLED and
// COMPLETED are terminal for them.
var UserTransitions = TransitionTable{
	RentalStatusPending:    set(RentalStatusConfirmed, RentalStatusCancelled),
	RentalStatusConfirmed:  set(RentalStatusActive, RentalStatusCancelled),
	RentalStatusActive:     set(RentalStatusCompleted, RentalStatusLateReturn, RentalStatusDisputed),
	RentalStatusLateReturn: set(RentalStatusCompleted, RentalStatusDisputed),
	RentalStatusDisputed:   set(RentalStatusCompleted),
}

// AdminTransitions is a superset of UserTransitions that also allows
// reversals, reactivation and reopening.
var AdminTransitions = TransitionTable{
	RentalStatusPending:    set(RentalStatusConfirmed, RentalStatusCancelled),
	RentalStatusConfirmed:  set(RentalStatusPending, RentalStatusActive, RentalStatusCancelled),
	RentalStatusActive:     set(RentalStatusCompleted, RentalStatusLateReturn, RentalStatusDisputed, RentalStatusCancelled),
	RentalStatusLateReturn: set(RentalStatusCompleted, RentalStatusDisputed),
	RentalStatusDisputed:   set(RentalStatusCompleted, RentalStatusActive, RentalStatusCancelled),
	RentalStatusCancelled:  set(RentalStatusPending, RentalStatusConfirmed),
	RentalStatusCompleted:  set(RentalStatusActive, RentalStatusDisputed),
}

// TransitionsFor returns the table that governs the given role. The system
// actor (webhooks, jobs, damage escalation) uses the admin table.
func TransitionsFor(role ActorRole) TransitionTable {
	if role == ActorRoleAdmin || role == ActorRoleSystem {
		return AdminTransitions
	}
	return UserTransitions
}

// CanTransition checks whether role may move a rental from one status to another.
func CanTransition(role ActorRole, from, to RentalStatus) bool {
	next, ok := TransitionsFor(role)[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// AllowedTargets lists legal next statuses in a stable order.
func AllowedTargets(role ActorRole, from RentalStatus) []RentalStatus {
	order := []RentalStatus{
		RentalStatusPending, RentalStatusConfirmed, RentalStatusActive, RentalStatusLateReturn,
		RentalStatusDisputed, RentalStatusCancelled, RentalStatusCompleted,
	}
	next := TransitionsFor(role)[from]
	var out []RentalStatus
	for _, s := range order {
		if _, ok := next[s]; ok {
			out = append(out, s)
		}
	}
	return out
}
