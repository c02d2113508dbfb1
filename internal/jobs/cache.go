package jobs

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// Cache is a byte-level job cache. GetCachedJob returns nil, nil on a miss.
// CacheJob must keep the entry unchanged when it already holds a version
// greater than or equal to version.
type Cache interface {
	CacheJob(ctx context.Context, id string, version int64, data []byte) error
	GetCachedJob(ctx context.Context, id string) ([]byte, error)
	InvalidateJob(ctx context.Context, id string) error
}

// cachedJob keeps the version, which Job hides from JSON.
type cachedJob struct {
	*Job
	V int64 `json:"version"`
}

// CachedStore is a read-through cache in front of a Store. Saves write the
// new version through; since the cache never moves back to an older version,
// a reader that loaded before a save cannot replace the saved copy.
type CachedStore struct {
	Store
	cache Cache
	log   *zap.Logger
}

// NewCachedStore wraps inner with cache.
func NewCachedStore(inner Store, cache Cache, log *zap.Logger) *CachedStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedStore{Store: inner, cache: cache, log: log}
}

func (s *CachedStore) GetByID(ctx context.Context, id string) (*Job, error) {
	if data, err := s.cache.GetCachedJob(ctx, id); err != nil {
		s.log.Warn("job cache read failed", zap.String("job_id", id), zap.Error(err))
	} else if data != nil {
		var c cachedJob
		if err := json.Unmarshal(data, &c); err == nil && c.Job != nil {
			c.Job.Version = c.V
			return c.Job, nil
		}
	}

	j, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.put(ctx, j)
	return j, nil
}

func (s *CachedStore) Save(ctx context.Context, job *Job) (*Job, error) {
	saved, err := s.Store.Save(ctx, job)
	if err != nil {
		// the cached copy may be the stale one that lost the race
		s.invalidate(ctx, job.ID)
		return nil, err
	}
	if !s.put(ctx, saved) {
		s.invalidate(ctx, saved.ID)
	}
	return saved, nil
}

func (s *CachedStore) put(ctx context.Context, j *Job) bool {
	data, err := json.Marshal(cachedJob{Job: j, V: j.Version})
	if err != nil {
		return false
	}
	if err := s.cache.CacheJob(ctx, j.ID, j.Version, data); err != nil {
		s.log.Warn("job cache write failed", zap.String("job_id", j.ID), zap.Error(err))
		return false
	}
	return true
}

func (s *CachedStore) invalidate(ctx context.Context, id string) {
	if err := s.cache.InvalidateJob(ctx, id); err != nil {
		s.log.Warn("job cache invalidate failed", zap.String("job_id", id), zap.Error(err))
	}
}
