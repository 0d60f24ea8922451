// Package service holds infrastructure-level services that stitch repositories
// and caches together for the application layer.
package service

import (
	"context"
	"time"

	"github.com/Java42-DashaShamis/college-mongo/internal/domain/college"
	"github.com/Java42-DashaShamis/college-mongo/pkg/circuitbreaker"
	"github.com/Java42-DashaShamis/college-mongo/pkg/logger"
)

// SubjectResolver turns subject names found in marks back into subjects.
// Only found subjects are cached and a subject is never renamed, so entries
// need no invalidation beyond their TTL.
// The cache is optional; a cache failure only costs a repository read, and
// after repeated failures the breaker stops calling the cache for a while.
type SubjectResolver struct {
	repo    college.SubjectRepository
	cache   college.SubjectCache
	breaker *circuitbreaker.CircuitBreaker
	ttl     time.Duration
	log     *logger.Logger
}

// NewSubjectResolver creates a new SubjectResolver. cache may be nil.
func NewSubjectResolver(repo college.SubjectRepository, cache college.SubjectCache, ttl time.Duration, log *logger.Logger) *SubjectResolver {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("subject_resolver"))
	breaker := circuitbreaker.CacheBreaker(func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})
	return &SubjectResolver{
		repo:    repo,
		cache:   cache,
		breaker: breaker,
		ttl:     ttl,
		log:     log,
	}
}

// ResolveByName returns the subject named subjectName.
func (s *SubjectResolver) ResolveByName(ctx context.Context, subjectName string) (*college.Subject, error) {
	// 1. Try cache if available
	if s.cache != nil {
		var cached *college.Subject
		err := s.breaker.Execute(ctx, func(ctx context.Context) error {
			var err error
			cached, err = s.cache.Get(ctx, subjectName)
			return err
		})
		switch {
		case circuitbreaker.IsRejected(err):
			s.log.Debug("subject cache skipped", logger.SubjectName(subjectName))
		case err != nil:
			s.log.Warn("subject cache read failed", logger.SubjectName(subjectName), logger.Err(err))
		case cached != nil:
			return cached, nil
		}
	}

	// 2. Fall back to the repository
	subj, err := s.repo.GetByName(ctx, subjectName)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		err := s.breaker.Execute(ctx, func(ctx context.Context) error {
			return s.cache.Set(ctx, subj, s.ttl)
		})
		if err != nil && !circuitbreaker.IsRejected(err) {
			s.log.Warn("subject cache write failed", logger.SubjectName(subjectName), logger.Err(err))
		}
	}
	return subj, nil
}

var _ college.SubjectResolver = (*SubjectResolver)(nil)
