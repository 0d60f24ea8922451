package redis

import (
	"context"
	"errors"
	"time"

	"github.com/Java42-DashaShamis/college-mongo/internal/domain/college"
)

// SubjectCache implements college.SubjectCache on top of Cache.
// A miss is reported as (nil, nil) so callers fall through to the repository.
type SubjectCache struct {
	cache *Cache
}

// NewSubjectCache creates a new SubjectCache.
func NewSubjectCache(cache *Cache) *SubjectCache {
	return &SubjectCache{cache: cache}
}

// Get returns the cached subject for name, or nil on a miss.
func (s *SubjectCache) Get(ctx context.Context, name string) (*college.Subject, error) {
	var subj college.Subject
	if err := s.cache.Get(ctx, SubjectKey(name), &subj); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &subj, nil
}

// Set caches a subject under its name.
func (s *SubjectCache) Set(ctx context.Context, subj *college.Subject, ttl time.Duration) error {
	if subj == nil {
		return nil
	}
	if ttl == 0 {
		ttl = TTLSubjectCache
	}
	return s.cache.Set(ctx, SubjectKey(subj.SubjectName), subj, ttl)
}

var _ college.SubjectCache = (*SubjectCache)(nil)
