package auth

import "delivery-service/internal/apperr"

// Operation names a use case subject to authorization.
type Operation string

const (
	OpCreateJob    Operation = "create_job"
	OpCreateOwnJob Operation = "create_own_job"
	OpAssignDriver Operation = "assign_driver"
	OpChangeStatus Operation = "change_status"
	OpUploadProof  Operation = "upload_proof"
	OpListJobs     Operation = "list_jobs"
	OpGetJob       Operation = "get_job"
	OpListUsers    Operation = "list_users"
)

// Scope is the slice of jobs an allowed actor may see or act on.
type Scope int

const (
	ScopeNone Scope = iota
	// ScopeAll covers every job.
	ScopeAll
	// ScopeAssigned covers jobs whose assigned driver is the actor.
	ScopeAssigned
	// ScopeOwned covers jobs the actor created.
	ScopeOwned
)

func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeAssigned:
		return "assigned"
	case ScopeOwned:
		return "owned"
	default:
		return "none"
	}
}

// grants is the role x operation matrix. A missing entry is a denial.
var grants = map[Role]map[Operation]Scope{
	RoleAdmin: {
		OpCreateJob:    ScopeAll,
		OpAssignDriver: ScopeAll,
		OpListJobs:     ScopeAll,
		OpGetJob:       ScopeAll,
		OpListUsers:    ScopeAll,
	},
	RoleDriver: {
		OpChangeStatus: ScopeAssigned,
		OpUploadProof:  ScopeAssigned,
		OpListJobs:     ScopeAssigned,
		OpGetJob:       ScopeAssigned,
	},
	RoleClient: {
		OpCreateOwnJob: ScopeOwned,
		OpListJobs:     ScopeOwned,
		OpGetJob:       ScopeOwned,
	},
}

// Authorize decides whether id may perform op and, if so, over which scope.
func Authorize(id Identity, op Operation) (Scope, error) {
	if id.UserID == "" || !id.Active {
		return ScopeNone, apperr.Unauthorized("Unauthorized")
	}
	scope, ok := grants[id.Role][op]
	if !ok {
		return ScopeNone, apperr.Forbidden("Forbidden")
	}
	return scope, nil
}
