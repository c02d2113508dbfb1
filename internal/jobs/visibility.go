package jobs

import "delivery-service/internal/auth"

// Visible reports whether a job falls inside the actor's scope. A job without
// an assigned driver is never visible to a driver.
func Visible(scope auth.Scope, actorID string, job *Job) bool {
	switch scope {
	case auth.ScopeAll:
		return true
	case auth.ScopeAssigned:
		return job.AssignedTo(actorID)
	case auth.ScopeOwned:
		return actorID != "" && job.CreatedBy == actorID
	default:
		return false
	}
}

// FilterFor translates a scope into the store filter used by list operations.
func FilterFor(scope auth.Scope, actorID string) Filter {
	switch scope {
	case auth.ScopeAssigned:
		return Filter{AssignedDriver: actorID}
	case auth.ScopeOwned:
		return Filter{CreatedBy: actorID}
	default:
		return Filter{}
	}
}

// FilterVisible returns the jobs of list that are visible to the actor,
// preserving order.
func FilterVisible(scope auth.Scope, actorID string, list []*Job) []*Job {
	out := make([]*Job, 0, len(list))
	for _, j := range list {
		if Visible(scope, actorID, j) {
			out = append(out, j)
		}
	}
	return out
}
