package jobs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"delivery-service/internal/apperr"
)

// MemStore is an in-process Store used by tests and STORE_DRIVER=memory.
type MemStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	now  func() time.Time
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{jobs: make(map[string]*Job), now: time.Now}
}

func (s *MemStore) Create(_ context.Context, in NewJob) (*Job, error) {
	in, err := normalizeNewJob(in)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	j := &Job{
		ID:         uuid.NewString(),
		CreatedBy:  in.CreatedBy,
		ClientName: in.ClientName,
		Pickup:     in.Pickup,
		Drop:       in.Drop,
		Status:     StatusCreated,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()
	return j.Clone(), nil
}

func (s *MemStore) GetByID(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, apperr.NotFound("Job not found")
	}
	return j.Clone(), nil
}

func (s *MemStore) List(_ context.Context, f Filter) ([]*Job, error) {
	s.mu.RLock()
	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		if f.AssignedDriver != "" && !j.AssignedTo(f.AssignedDriver) {
			continue
		}
		if f.CreatedBy != "" && j.CreatedBy != f.CreatedBy {
			continue
		}
		out = append(out, j.Clone())
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID > out[b].ID
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out, nil
}

func (s *MemStore) Save(_ context.Context, job *Job) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.jobs[job.ID]
	if !ok {
		return nil, apperr.NotFound("Job not found")
	}
	if cur.Version != job.Version {
		return nil, apperr.Conflict("job was modified concurrently, reload and retry")
	}
	next := job.Clone()
	next.CreatedBy = cur.CreatedBy
	next.CreatedAt = cur.CreatedAt
	next.Version = cur.Version + 1
	next.UpdatedAt = s.now().UTC()
	s.jobs[job.ID] = next
	return next.Clone(), nil
}
