package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/buildreviewer/reviewer-services/internal/reviewer"
	"github.com/buildreviewer/reviewer-services/internal/reviewer/repository"
	"github.com/buildreviewer/reviewer-services/pkg/logger"
	"github.com/buildreviewer/reviewer-services/pkg/metrics"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// DataService defines the business and review operations used by the handler
// layer and the seeding tool.
type DataService interface {
	Initialize(ctx context.Context) error

	GetBusinesses(ctx context.Context) ([]*reviewer.Business, error)
	GetBusiness(ctx context.Context, id string) (*reviewer.Business, error)
	InsertBusiness(ctx context.Context, b *reviewer.Business) error
	UpdateBusiness(ctx context.Context, b *reviewer.Business) error

	GetReviewsForBusiness(ctx context.Context, businessID string) ([]*reviewer.Review, error)
	GetReviewsByAuthor(ctx context.Context, authorID string) ([]*reviewer.Review, error)
	GetReview(ctx context.Context, id string) (*reviewer.Review, error)
	InsertReview(ctx context.Context, r *reviewer.Review) error
	UpdateReview(ctx context.Context, r *reviewer.Review) error
	AttachVideo(ctx context.Context, reviewID string, v reviewer.Video) error
}

// Service implements DataService over an injected repository.
type Service struct {
	repo  repository.Repository
	newID func() string

	mu          sync.Mutex
	initialized bool
}

var _ DataService = (*Service)(nil)

func New(repo repository.Repository) *Service {
	return &Service{repo: repo, newID: func() string { return uuid.New().String() }}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() *Service {
	return New(repository.NewMemoryRepo())
}

// NewMongoService returns a Service backed by the given database. The caller
// owns the client and is responsible for disconnecting it.
func NewMongoService(db *mongo.Database, opts repository.MongoOptions) *Service {
	return New(repository.NewMongoRepo(db, opts))
}

// Initialize provisions the backing store once. Later calls are no-ops; a
// failed attempt leaves the service uninitialized, and every other operation
// retries it before touching the store.
func (s *Service) Initialize(ctx context.Context) (err error) {
	defer s.observe("Initialize", time.Now(), &err)
	return s.ensure(ctx)
}

func (s *Service) ensure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}
	if err := s.repo.Ensure(ctx); err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	s.initialized = true
	return nil
}

// GetBusinesses returns every stored business. Failures are logged and
// returned; an empty slice always means there are no businesses.
func (s *Service) GetBusinesses(ctx context.Context) (out []*reviewer.Business, err error) {
	defer s.observe("GetBusinesses", time.Now(), &err)
	if err = s.ensure(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListBusinesses(ctx)
}

func (s *Service) GetBusiness(ctx context.Context, id string) (out *reviewer.Business, err error) {
	defer s.observe("GetBusiness", time.Now(), &err)
	if err = s.ensure(ctx); err != nil {
		return nil, err
	}
	return s.repo.GetBusiness(ctx, id)
}

// InsertBusiness stores a new business, assigning an id when b has none.
func (s *Service) InsertBusiness(ctx context.Context, b *reviewer.Business) (err error) {
	defer s.observe("InsertBusiness", time.Now(), &err)
	if err = s.ensure(ctx); err != nil {
		return err
	}
	if b.ID == "" {
		b.ID = s.newID()
	}
	return s.repo.InsertBusiness(ctx, b)
}

// UpdateBusiness replaces the stored business with b in full; no field of
// the stored document survives. The business must already exist.
func (s *Service) UpdateBusiness(ctx context.Context, b *reviewer.Business) (err error) {
	defer s.observe("UpdateBusiness", time.Now(), &err)
	if err = s.ensure(ctx); err != nil {
		return err
	}
	return s.repo.ReplaceBusiness(ctx, b)
}

func (s *Service) GetReviewsForBusiness(ctx context.Context, businessID string) (out []*reviewer.Review, err error) {
	defer s.observe("GetReviewsForBusiness", time.Now(), &err)
	if err = s.ensure(ctx); err != nil {
		return nil, err
	}
	return s.repo.ReviewsByBusiness(ctx, businessID)
}

func (s *Service) GetReviewsByAuthor(ctx context.Context, authorID string) (out []*reviewer.Review, err error) {
	defer s.observe("GetReviewsByAuthor", time.Now(), &err)
	if err = s.ensure(ctx); err != nil {
		return nil, err
	}
	return s.repo.ReviewsByAuthor(ctx, authorID)
}

func (s *Service) GetReview(ctx context.Context, id string) (out *reviewer.Review, err error) {
	defer s.observe("GetReview", time.Now(), &err)
	if err = s.ensure(ctx); err != nil {
		return nil, err
	}
	return s.repo.GetReview(ctx, id)
}

// InsertReview stores a new review, assigning an id and a date when missing.
// Assigned dates have the store's millisecond precision.
func (s *Service) InsertReview(ctx context.Context, r *reviewer.Review) (err error) {
	defer s.observe("InsertReview", time.Now(), &err)
	if err = s.ensure(ctx); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = s.newID()
	}
	if r.Date.IsZero() {
		r.Date = time.Now().UTC().Truncate(time.Millisecond)
	}
	return s.repo.InsertReview(ctx, r)
}

// UpdateReview replaces the stored review with r but keeps the stored Videos,
// which only the media pipeline writes. Whatever r.Videos held is discarded;
// on return it holds the stored value.
func (s *Service) UpdateReview(ctx context.Context, r *reviewer.Review) (err error) {
	defer s.observe("UpdateReview", time.Now(), &err)
	if err = s.ensure(ctx); err != nil {
		return err
	}
	return s.repo.ReplaceReview(ctx, r)
}

// AttachVideo appends a video to a stored review on behalf of the media pipeline.
func (s *Service) AttachVideo(ctx context.Context, reviewID string, v reviewer.Video) (err error) {
	defer s.observe("AttachVideo", time.Now(), &err)
	if err = s.ensure(ctx); err != nil {
		return err
	}
	return s.repo.AttachVideo(ctx, reviewID, v)
}

func (s *Service) observe(op string, start time.Time, errp *error) {
	metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	err := *errp
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, reviewer.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, reviewer.ErrConflict):
		outcome = "conflict"
	default:
		outcome = "error"
		logger.Errorw("store operation failed", "op", op, "err", err)
	}
	if outcome != "ok" && outcome != "error" {
		logger.Debugf("store operation %s: %v", op, err)
	}
	metrics.StoreOperations.WithLabelValues(op, outcome).Inc()
}
