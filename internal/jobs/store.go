package jobs

import (
	"context"
	"strings"

	"delivery-service/internal/apperr"
)

// Store persists jobs. It enforces required fields on creation and optimistic
// concurrency on save, and holds no business rules beyond that.
type Store interface {
	// Create persists a new job in status CREATED.
	Create(ctx context.Context, in NewJob) (*Job, error)
	// GetByID returns the job or a not_found error.
	GetByID(ctx context.Context, id string) (*Job, error)
	// List returns matching jobs, newest first.
	List(ctx context.Context, f Filter) ([]*Job, error)
	// Save persists the full state of job if its Version still matches the
	// stored one, and returns the stored job with the bumped version.
	// A stale version fails with a conflict error.
	Save(ctx context.Context, job *Job) (*Job, error)
}

// normalizeNewJob trims every field and rejects missing ones.
func normalizeNewJob(in NewJob) (NewJob, error) {
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.Pickup = trimAddress(in.Pickup)
	in.Drop = trimAddress(in.Drop)

	if in.CreatedBy == "" {
		return in, apperr.ValidationField("createdBy", "createdBy is required")
	}
	if in.ClientName == "" {
		return in, apperr.ValidationField("clientName", "clientName is required")
	}
	if err := validateAddress("pickup", in.Pickup); err != nil {
		return in, err
	}
	if err := validateAddress("drop", in.Drop); err != nil {
		return in, err
	}
	return in, nil
}

func trimAddress(a Address) Address {
	return Address{
		Address:      strings.TrimSpace(a.Address),
		ContactName:  strings.TrimSpace(a.ContactName),
		ContactPhone: strings.TrimSpace(a.ContactPhone),
	}
}

func validateAddress(prefix string, a Address) error {
	switch {
	case a.Address == "":
		return apperr.ValidationField(prefix+".address", prefix+".address is required")
	case a.ContactName == "":
		return apperr.ValidationField(prefix+".contactName", prefix+".contactName is required")
	case a.ContactPhone == "":
		return apperr.ValidationField(prefix+".contactPhone", prefix+".contactPhone is required")
	}
	return nil
}
