package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Java42-DashaShamis/college-mongo/internal/domain/college"
	"github.com/Java42-DashaShamis/college-mongo/internal/domain/shared"
)

type stubSubjectRepo struct {
	byName map[string]*college.Subject
	reads  int
}

func (r *stubSubjectRepo) Exists(ctx context.Context, id int64) (bool, error) { return false, nil }
func (r *stubSubjectRepo) GetByID(ctx context.Context, id int64) (*college.Subject, error) {
	return nil, shared.SubjectNotFound(id)
}
func (r *stubSubjectRepo) Insert(ctx context.Context, s *college.Subject) error { return nil }

func (r *stubSubjectRepo) GetByName(ctx context.Context, name string) (*college.Subject, error) {
	r.reads++
	if s, ok := r.byName[name]; ok {
		return s, nil
	}
	return nil, shared.ErrSubjectNotFound
}

type mapCache struct {
	items   map[string]*college.Subject
	failGet bool
}

func (c *mapCache) Get(ctx context.Context, name string) (*college.Subject, error) {
	if c.failGet {
		return nil, errors.New("redis down")
	}
	return c.items[name], nil
}

func (c *mapCache) Set(ctx context.Context, s *college.Subject, ttl time.Duration) error {
	c.items[s.SubjectName] = s
	return nil
}

func TestSubjectResolver_ReadsThroughCache(t *testing.T) {
	repo := &stubSubjectRepo{byName: map[string]*college.Subject{"Math": {ID: 1, SubjectName: "Math"}}}
	cache := &mapCache{items: map[string]*college.Subject{}}
	r := NewSubjectResolver(repo, cache, time.Minute, nil)
	ctx := context.Background()

	s, err := r.ResolveByName(ctx, "Math")
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.ID)

	s, err = r.ResolveByName(ctx, "Math")
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.ID)
	assert.Equal(t, 1, repo.reads)
	assert.Contains(t, cache.items, "Math")
}

func TestSubjectResolver_MissIsNotCached(t *testing.T) {
	repo := &stubSubjectRepo{byName: map[string]*college.Subject{}}
	cache := &mapCache{items: map[string]*college.Subject{}}
	r := NewSubjectResolver(repo, cache, time.Minute, nil)
	ctx := context.Background()

	_, err := r.ResolveByName(ctx, "Chemistry")
	assert.True(t, shared.IsNotFound(err))
	assert.Empty(t, cache.items)

	repo.byName["Chemistry"] = &college.Subject{ID: 3, SubjectName: "Chemistry"}
	s, err := r.ResolveByName(ctx, "Chemistry")
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.ID)
	assert.Equal(t, 2, repo.reads)
}

func TestSubjectResolver_CacheFailureFallsBackToRepository(t *testing.T) {
	repo := &stubSubjectRepo{byName: map[string]*college.Subject{"Art": {ID: 7, SubjectName: "Art"}}}
	r := NewSubjectResolver(repo, &mapCache{items: map[string]*college.Subject{}, failGet: true}, time.Minute, nil)

	s, err := r.ResolveByName(context.Background(), "Art")
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.ID)
}

func TestSubjectResolver_WithoutCache(t *testing.T) {
	repo := &stubSubjectRepo{byName: map[string]*college.Subject{}}
	r := NewSubjectResolver(repo, nil, 0, nil)

	_, err := r.ResolveByName(context.Background(), "Nope")
	assert.True(t, shared.IsNotFound(err))
}

func TestSubjectResolver_BreakerStopsCallingBrokenCache(t *testing.T) {
	repo := &stubSubjectRepo{byName: map[string]*college.Subject{"Art": {ID: 7, SubjectName: "Art"}}}
	cache := &countingCache{}
	r := NewSubjectResolver(repo, cache, time.Minute, nil)

	for i := 0; i < 10; i++ {
		s, err := r.ResolveByName(context.Background(), "Art")
		require.NoError(t, err)
		assert.Equal(t, int64(7), s.ID)
	}
	assert.Equal(t, 10, repo.reads)
	assert.Less(t, cache.calls, 10)
}

type countingCache struct{ calls int }

func (c *countingCache) Get(ctx context.Context, name string) (*college.Subject, error) {
	c.calls++
	return nil, errors.New("redis down")
}

func (c *countingCache) Set(ctx context.Context, s *college.Subject, ttl time.Duration) error {
	c.calls++
	return errors.New("redis down")
}
