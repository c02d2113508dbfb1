package jobs

import (
	"slices"

	"delivery-service/internal/apperr"
)

// allowedNext is the forward-only status graph for the status-change
// operation. ASSIGNED is reachable only through assignment, so CREATED has
// no entries here.
var allowedNext = map[Status][]Status{
	StatusCreated:   {},
	StatusAssigned:  {StatusPickedUp},
	StatusPickedUp:  {StatusOnRoute},
	StatusOnRoute:   {StatusDelivered},
	StatusDelivered: {},
}

// proofAllowedIn are the statuses in which a proof of delivery may be uploaded.
var proofAllowedIn = []Status{StatusPickedUp, StatusOnRoute, StatusDelivered}

// NextStatuses returns the statuses a driver may move a job to from s.
func NextStatuses(s Status) []Status {
	return slices.Clone(allowedNext[s])
}

// CanTransition reports whether from -> to is an edge of the status graph.
func CanTransition(from, to Status) bool {
	return slices.Contains(allowedNext[from], to)
}

// CheckTransition validates a status change of job to target requested by
// actorID. It does not mutate the job.
func CheckTransition(job *Job, actorID string, target Status) error {
	if job.AssignedDriver == nil || *job.AssignedDriver == "" {
		return apperr.PreconditionFailed("job has no assigned driver")
	}
	if !job.AssignedTo(actorID) {
		return apperr.Forbidden("Forbidden")
	}
	if !CanTransition(job.Status, target) {
		return apperr.InvalidTransition("invalid status transition: %s -> %s", job.Status, target)
	}
	return nil
}

// ApplyAssignment binds driverID to job and forces its status to ASSIGNED,
// whatever the current status. It is the only way into ASSIGNED.
func ApplyAssignment(job *Job, driverID string) {
	d := driverID
	job.AssignedDriver = &d
	job.Status = StatusAssigned
}

// CheckProofUpload validates a proof-of-delivery upload on job by actorID.
// The driver check runs first so other drivers learn nothing about the job.
func CheckProofUpload(job *Job, actorID string) error {
	if !job.AssignedTo(actorID) {
		return apperr.Forbidden("Forbidden")
	}
	if !slices.Contains(proofAllowedIn, job.Status) {
		return apperr.InvalidState("POD upload not allowed at status %s", job.Status)
	}
	if job.HasProof() {
		return apperr.Conflict("POD already uploaded")
	}
	return nil
}
