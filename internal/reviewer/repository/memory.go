package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/buildreviewer/reviewer-services/internal/reviewer"
)

// MemoryRepo is an in-memory Repository used by tests and by the API when no
// MongoDB URI is configured. Values are copied on the way in and out so callers
// never share state with the store.
type MemoryRepo struct {
	mu         sync.RWMutex
	businesses map[string]*reviewer.Business
	reviews    map[string]*reviewer.Review
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		businesses: make(map[string]*reviewer.Business),
		reviews:    make(map[string]*reviewer.Review),
	}
}

func (m *MemoryRepo) Ensure(ctx context.Context) error { return nil }

func (m *MemoryRepo) ListBusinesses(ctx context.Context) ([]*reviewer.Business, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*reviewer.Business, 0, len(m.businesses))
	for _, b := range m.businesses {
		out = append(out, cloneBusiness(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepo) GetBusiness(ctx context.Context, id string) (*reviewer.Business, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.businesses[id]
	if !ok {
		return nil, reviewer.ErrNotFound
	}
	return cloneBusiness(b), nil
}

func (m *MemoryRepo) InsertBusiness(ctx context.Context, b *reviewer.Business) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.businesses[b.ID]; ok {
		return reviewer.ErrConflict
	}
	m.businesses[b.ID] = cloneBusiness(b)
	return nil
}

func (m *MemoryRepo) ReplaceBusiness(ctx context.Context, b *reviewer.Business) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.businesses[b.ID]; !ok {
		return reviewer.ErrNotFound
	}
	m.businesses[b.ID] = cloneBusiness(b)
	return nil
}

func (m *MemoryRepo) ReviewsByBusiness(ctx context.Context, businessID string) ([]*reviewer.Review, error) {
	return m.filterReviews(func(r *reviewer.Review) bool { return r.BusinessID == businessID }), nil
}

func (m *MemoryRepo) ReviewsByAuthor(ctx context.Context, authorID string) ([]*reviewer.Review, error) {
	return m.filterReviews(func(r *reviewer.Review) bool { return r.AuthorID == authorID }), nil
}

func (m *MemoryRepo) filterReviews(match func(*reviewer.Review) bool) []*reviewer.Review {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*reviewer.Review{}
	for _, r := range m.reviews {
		if match(r) {
			out = append(out, cloneReview(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemoryRepo) GetReview(ctx context.Context, id string) (*reviewer.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, reviewer.ErrNotFound
	}
	return cloneReview(r), nil
}

func (m *MemoryRepo) InsertReview(ctx context.Context, r *reviewer.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[r.ID]; ok {
		return reviewer.ErrConflict
	}
	m.reviews[r.ID] = cloneReview(r)
	return nil
}

func (m *MemoryRepo) ReplaceReview(ctx context.Context, r *reviewer.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.reviews[r.ID]
	if !ok {
		return reviewer.ErrNotFound
	}
	r.Videos = cloneVideos(existing.Videos)
	m.reviews[r.ID] = cloneReview(r)
	return nil
}

func (m *MemoryRepo) AttachVideo(ctx context.Context, reviewID string, v reviewer.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[reviewID]
	if !ok {
		return reviewer.ErrNotFound
	}
	r.Videos = append(r.Videos, v)
	return nil
}

func cloneBusiness(b *reviewer.Business) *reviewer.Business {
	c := *b
	return &c
}

func cloneReview(r *reviewer.Review) *reviewer.Review {
	c := *r
	if r.Photos != nil {
		c.Photos = append([]string(nil), r.Photos...)
	}
	c.Videos = cloneVideos(r.Videos)
	return &c
}

func cloneVideos(v []reviewer.Video) []reviewer.Video {
	if v == nil {
		return nil
	}
	return append([]reviewer.Video(nil), v...)
}
