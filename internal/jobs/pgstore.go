package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"delivery-service/internal/apperr"
)

const jobColumns = `id,created_by,client_name,
	pickup_address,pickup_contact_name,pickup_contact_phone,
	drop_address,drop_contact_name,drop_contact_phone,
	status,assigned_driver,pod_photo_url,pod_uploaded_at,
	version,created_at,updated_at`

// PGStore is the PostgreSQL-backed Store.
type PGStore struct {
	db *pgxpool.Pool
}

// NewPGStore creates a store backed by the given pool.
func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, in NewJob) (*Job, error) {
	in, err := normalizeNewJob(in)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRow(ctx,
		`INSERT INTO jobs (id,created_by,client_name,
		        pickup_address,pickup_contact_name,pickup_contact_phone,
		        drop_address,drop_contact_name,drop_contact_phone,status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 RETURNING `+jobColumns,
		uuid.NewString(), in.CreatedBy, in.ClientName,
		in.Pickup.Address, in.Pickup.ContactName, in.Pickup.ContactPhone,
		in.Drop.Address, in.Drop.ContactName, in.Drop.ContactPhone, string(StatusCreated))
	j, err := scanJob(row)
	if err != nil {
		return nil, apperr.MapDBError(err)
	}
	return j, nil
}

func (s *PGStore) GetByID(ctx context.Context, id string) (*Job, error) {
	j, err := scanJob(s.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Job not found")
	}
	if err != nil {
		return nil, apperr.MapDBError(err)
	}
	return j, nil
}

func (s *PGStore) List(ctx context.Context, f Filter) ([]*Job, error) {
	var (
		where []string
		args  []any
	)
	if f.AssignedDriver != "" {
		args = append(args, f.AssignedDriver)
		where = append(where, fmt.Sprintf("assigned_driver=$%d", len(args)))
	}
	if f.CreatedBy != "" {
		args = append(args, f.CreatedBy)
		where = append(where, fmt.Sprintf("created_by=$%d", len(args)))
	}
	q := `SELECT ` + jobColumns + ` FROM jobs`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, apperr.MapDBError(err)
	}
	defer rows.Close()

	out := []*Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, apperr.MapDBError(err)
		}
		out = append(out, j)
	}
	return out, apperr.MapDBError(rows.Err())
}

// Save writes the job only if the row still carries job.Version.
func (s *PGStore) Save(ctx context.Context, job *Job) (*Job, error) {
	var podURL *string
	var podAt *time.Time
	if job.ProofOfDelivery != nil {
		podURL = &job.ProofOfDelivery.PhotoURL
		podAt = &job.ProofOfDelivery.UploadedAt
	}

	row := s.db.QueryRow(ctx,
		`UPDATE jobs SET client_name=$2,
		        pickup_address=$3, pickup_contact_name=$4, pickup_contact_phone=$5,
		        drop_address=$6, drop_contact_name=$7, drop_contact_phone=$8,
		        status=$9, assigned_driver=$10, pod_photo_url=$11, pod_uploaded_at=$12,
		        version=version+1, updated_at=NOW()
		 WHERE id=$1 AND version=$13
		 RETURNING `+jobColumns,
		job.ID, job.ClientName,
		job.Pickup.Address, job.Pickup.ContactName, job.Pickup.ContactPhone,
		job.Drop.Address, job.Drop.ContactName, job.Drop.ContactPhone,
		string(job.Status), job.AssignedDriver, podURL, podAt, job.Version)
	saved, err := scanJob(row)
	if err == nil {
		return saved, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.MapDBError(err)
	}

	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM jobs WHERE id=$1)`, job.ID).Scan(&exists); err != nil {
		return nil, apperr.MapDBError(err)
	}
	if !exists {
		return nil, apperr.NotFound("Job not found")
	}
	return nil, apperr.Conflict("job was modified concurrently, reload and retry")
}

func scanJob(row pgx.Row) (*Job, error) {
	var (
		j      Job
		status string
		podURL *string
		podAt  *time.Time
	)
	err := row.Scan(&j.ID, &j.CreatedBy, &j.ClientName,
		&j.Pickup.Address, &j.Pickup.ContactName, &j.Pickup.ContactPhone,
		&j.Drop.Address, &j.Drop.ContactName, &j.Drop.ContactPhone,
		&status, &j.AssignedDriver, &podURL, &podAt,
		&j.Version, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.Status = Status(status)
	if podURL != nil && *podURL != "" {
		p := ProofOfDelivery{PhotoURL: *podURL}
		if podAt != nil {
			p.UploadedAt = *podAt
		}
		j.ProofOfDelivery = &p
	}
	return &j, nil
}
