package jobs

import "time"

// Status enumerates the job lifecycle states, in lifecycle order.
type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusAssigned  Status = "ASSIGNED"
	StatusPickedUp  Status = "PICKED_UP"
	StatusOnRoute   Status = "ON_ROUTE"
	StatusDelivered Status = "DELIVERED"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusCreated, StatusAssigned, StatusPickedUp, StatusOnRoute, StatusDelivered}

// ParseStatus reports whether s names a known status.
func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Rank is the position of s in the lifecycle, or -1 for unknown values.
func (s Status) Rank() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return -1
}

// Address is a pickup or drop location with its on-site contact.
type Address struct {
	Address      string `json:"address"`
	ContactName  string `json:"contactName"`
	ContactPhone string `json:"contactPhone"`
}

// ProofOfDelivery is the photo evidence attached to a job, at most once.
type ProofOfDelivery struct {
	PhotoURL   string    `json:"photoUrl"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Job represents a delivery in the system.
type Job struct {
	ID              string           `json:"id"`
	CreatedBy       string           `json:"createdBy"`
	ClientName      string           `json:"clientName"`
	Pickup          Address          `json:"pickup"`
	Drop            Address          `json:"drop"`
	Status          Status           `json:"status"`
	AssignedDriver  *string          `json:"assignedDriver"`
	ProofOfDelivery *ProofOfDelivery `json:"proofOfDelivery"`
	// Version is bumped on every save and guards concurrent writes.
	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AssignedTo reports whether the job is assigned to userID.
func (j *Job) AssignedTo(userID string) bool {
	return j.AssignedDriver != nil && *j.AssignedDriver != "" && *j.AssignedDriver == userID
}

// HasProof reports whether a proof of delivery was recorded.
func (j *Job) HasProof() bool {
	return j.ProofOfDelivery != nil && j.ProofOfDelivery.PhotoURL != ""
}

// Clone returns a deep copy of j.
func (j *Job) Clone() *Job {
	c := *j
	if j.AssignedDriver != nil {
		d := *j.AssignedDriver
		c.AssignedDriver = &d
	}
	if j.ProofOfDelivery != nil {
		p := *j.ProofOfDelivery
		c.ProofOfDelivery = &p
	}
	return &c
}

// NewJob carries the fields a job is created from.
type NewJob struct {
	CreatedBy  string
	ClientName string
	Pickup     Address
	Drop       Address
}

// Filter narrows List results. Empty fields do not filter.
type Filter struct {
	AssignedDriver string
	CreatedBy      string
}

// CreateJobRequest is the body for POST /jobs and POST /client/jobs.
type CreateJobRequest struct {
	ClientName string  `json:"clientName"`
	Pickup     Address `json:"pickup"`
	Drop       Address `json:"drop"`
}

// AssignRequest is the body for PATCH /jobs/{id}/assign-driver.
type AssignRequest struct {
	DriverID string `json:"driverId"`
}

// StatusRequest is the body for PATCH /jobs/{id}/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// ProofResponse is returned by POST /jobs/{id}/pod/photo.
type ProofResponse struct {
	Message string `json:"message"`
	Job     *Job   `json:"job"`
}
