package repository

import (
	"context"

	"github.com/buildreviewer/reviewer-services/internal/reviewer"
)

// Repository is the persistence contract behind the data service. Lookups of a
// missing id return reviewer.ErrNotFound; inserts of an existing id return
// reviewer.ErrConflict.
type Repository interface {
	// Ensure provisions storage. It must be safe to call more than once.
	Ensure(ctx context.Context) error

	ListBusinesses(ctx context.Context) ([]*reviewer.Business, error)
	GetBusiness(ctx context.Context, id string) (*reviewer.Business, error)
	InsertBusiness(ctx context.Context, b *reviewer.Business) error
	// ReplaceBusiness overwrites the stored business with b in full.
	ReplaceBusiness(ctx context.Context, b *reviewer.Business) error

	ReviewsByBusiness(ctx context.Context, businessID string) ([]*reviewer.Review, error)
	ReviewsByAuthor(ctx context.Context, authorID string) ([]*reviewer.Review, error)
	GetReview(ctx context.Context, id string) (*reviewer.Review, error)
	InsertReview(ctx context.Context, r *reviewer.Review) error
	// ReplaceReview overwrites the stored review with r, except that the stored
	// Videos are kept. On success r.Videos holds the stored value.
	ReplaceReview(ctx context.Context, r *reviewer.Review) error
	// AttachVideo appends v to the stored review's Videos.
	AttachVideo(ctx context.Context, reviewID string, v reviewer.Video) error
}
