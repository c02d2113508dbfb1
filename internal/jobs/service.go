package jobs

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"delivery-service/internal/apperr"
	"delivery-service/internal/auth"
	"delivery-service/internal/events"
	"delivery-service/pkg/storage"
)

// Directory resolves user ids to identities.
type Directory interface {
	Resolve(ctx context.Context, userID string) (auth.Identity, error)
}

// BlobStore stores proof-of-delivery photos and returns their URL.
type BlobStore interface {
	Put(ctx context.Context, b storage.Blob) (string, error)
}

// Publisher receives an event after every successful job write.
type Publisher interface {
	Publish(ctx context.Context, ev events.JobEvent) error
}

// ServiceOptions groups the dependencies of a Service.
type ServiceOptions struct {
	Store     Store
	Directory Directory
	Blobs     BlobStore
	Publisher Publisher   // optional
	Logger    *zap.Logger // optional
	Now       func() time.Time
}

// Service contains job business logic. Every operation takes the acting
// identity explicitly and authorizes it once before touching the store.
type Service struct {
	store     Store
	directory Directory
	blobs     BlobStore
	publisher Publisher
	log       *zap.Logger
	now       func() time.Time
}

// NewService creates a job service.
func NewService(opts ServiceOptions) *Service {
	s := &Service{
		store:     opts.Store,
		directory: opts.Directory,
		blobs:     opts.Blobs,
		publisher: opts.Publisher,
		log:       opts.Logger,
		now:       opts.Now,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CreateJobAsAdmin creates a job on behalf of an admin.
func (s *Service) CreateJobAsAdmin(ctx context.Context, actor auth.Identity, req CreateJobRequest) (*Job, error) {
	if _, err := auth.Authorize(actor, auth.OpCreateJob); err != nil {
		return nil, err
	}
	return s.create(ctx, actor, NewJob{
		CreatedBy:  actor.UserID,
		ClientName: req.ClientName,
		Pickup:     req.Pickup,
		Drop:       req.Drop,
	})
}

// CreateJobAsClient creates a job owned by the calling client. The client
// name defaults to the client's display name.
func (s *Service) CreateJobAsClient(ctx context.Context, actor auth.Identity, req CreateJobRequest) (*Job, error) {
	if _, err := auth.Authorize(actor, auth.OpCreateOwnJob); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.ClientName)
	if name == "" {
		name = strings.TrimSpace(actor.Name)
	}
	if name == "" {
		name = "Client"
	}
	return s.create(ctx, actor, NewJob{
		CreatedBy:  actor.UserID,
		ClientName: name,
		Pickup:     req.Pickup,
		Drop:       req.Drop,
	})
}

func (s *Service) create(ctx context.Context, actor auth.Identity, in NewJob) (*Job, error) {
	j, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.Info("job created", zap.String("job_id", j.ID), zap.String("actor", actor.UserID), zap.String("role", string(actor.Role)))
	s.publish(ctx, events.JobCreated, actor, j, "")
	return j, nil
}

// AssignDriver binds an active driver to the job and moves it to ASSIGNED.
func (s *Service) AssignDriver(ctx context.Context, actor auth.Identity, jobID, driverID string) (*Job, error) {
	if _, err := auth.Authorize(actor, auth.OpAssignDriver); err != nil {
		return nil, err
	}
	driverID = strings.TrimSpace(driverID)
	if driverID == "" {
		return nil, apperr.ValidationField("driverId", "Driver Id is required")
	}

	driver, err := s.directory.Resolve(ctx, driverID)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}
	if err != nil || driver.Role != auth.RoleDriver || !driver.Active {
		return nil, apperr.InvalidReference("Invalid Driver ID")
	}

	job, err := s.store.GetByID(ctx, jobID)
	if apperr.IsNotFound(err) {
		return nil, apperr.InvalidReference("Job not found. Enter correct Job ID")
	}
	if err != nil {
		return nil, err
	}
	prev := job.Status
	ApplyAssignment(job, driver.UserID)
	saved, err := s.store.Save(ctx, job)
	if err != nil {
		return nil, err
	}
	s.log.Info("driver assigned",
		zap.String("job_id", saved.ID), zap.String("driver_id", driver.UserID), zap.String("actor", actor.UserID))
	s.publish(ctx, events.JobAssigned, actor, saved, prev)
	return saved, nil
}

// ChangeStatus moves a job one step along the lifecycle on behalf of its
// assigned driver.
func (s *Service) ChangeStatus(ctx context.Context, actor auth.Identity, jobID, target string) (*Job, error) {
	if _, err := auth.Authorize(actor, auth.OpChangeStatus); err != nil {
		return nil, err
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, apperr.ValidationField("status", "status is required")
	}
	// Unknown names fall outside the status graph and fail as transitions.
	next := Status(target)

	job, err := s.store.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := CheckTransition(job, actor.UserID, next); err != nil {
		return nil, err
	}
	prev := job.Status
	job.Status = next
	saved, err := s.store.Save(ctx, job)
	if err != nil {
		return nil, err
	}
	s.log.Info("job status changed",
		zap.String("job_id", saved.ID), zap.String("from", string(prev)), zap.String("to", string(next)), zap.String("actor", actor.UserID))
	s.publish(ctx, events.JobStatusChanged, actor, saved, prev)
	return saved, nil
}

// UploadProof stores the photo and records it as the job's proof of
// delivery. The proof is fixed once recorded.
func (s *Service) UploadProof(ctx context.Context, actor auth.Identity, jobID string, photo storage.Blob) (*Job, error) {
	if _, err := auth.Authorize(actor, auth.OpUploadProof); err != nil {
		return nil, err
	}
	job, err := s.store.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := CheckProofUpload(job, actor.UserID); err != nil {
		return nil, err
	}
	if photo.Body == nil {
		return nil, apperr.ValidationField("photo", "Photo file is required")
	}

	url, err := s.blobs.Put(ctx, photo)
	if err != nil {
		return nil, err
	}
	job.ProofOfDelivery = &ProofOfDelivery{PhotoURL: url, UploadedAt: s.now().UTC()}
	saved, err := s.store.Save(ctx, job)
	if err != nil {
		s.log.Warn("orphaned proof blob, job write failed",
			zap.String("job_id", jobID), zap.String("photo_url", url), zap.Error(err))
		return nil, err
	}
	s.log.Info("proof of delivery uploaded",
		zap.String("job_id", saved.ID), zap.String("photo_url", url), zap.String("actor", actor.UserID))
	s.publish(ctx, events.JobProofUploaded, actor, saved, "")
	return saved, nil
}

// ListJobs returns the jobs visible to actor, newest first.
func (s *Service) ListJobs(ctx context.Context, actor auth.Identity) ([]*Job, error) {
	scope, err := auth.Authorize(actor, auth.OpListJobs)
	if err != nil {
		return nil, err
	}
	list, err := s.store.List(ctx, FilterFor(scope, actor.UserID))
	if err != nil {
		return nil, err
	}
	return FilterVisible(scope, actor.UserID, list), nil
}

// GetJob returns a single job if it is visible to actor. Existing jobs
// outside the actor's scope are forbidden rather than hidden.
func (s *Service) GetJob(ctx context.Context, actor auth.Identity, jobID string) (*Job, error) {
	scope, err := auth.Authorize(actor, auth.OpGetJob)
	if err != nil {
		return nil, err
	}
	job, err := s.store.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !Visible(scope, actor.UserID, job) {
		return nil, apperr.Forbidden("Forbidden")
	}
	return job, nil
}

func (s *Service) publish(ctx context.Context, typ events.Type, actor auth.Identity, j *Job, prev Status) {
	if s.publisher == nil {
		return
	}
	ev := events.JobEvent{
		Type:           typ,
		JobID:          j.ID,
		Status:         string(j.Status),
		PreviousStatus: string(prev),
		CreatedBy:      j.CreatedBy,
		Actor:          actor.UserID,
		At:             s.now().UTC().Format(time.RFC3339),
	}
	if j.AssignedDriver != nil {
		ev.AssignedDriver = *j.AssignedDriver
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn("failed to publish job event", zap.String("type", string(typ)), zap.String("job_id", j.ID), zap.Error(err))
	}
}
