// Package seed loads business and review fixtures from YAML and writes them
// through the data service.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/buildreviewer/reviewer-services/internal/reviewer"
	"github.com/buildreviewer/reviewer-services/internal/reviewer/service"
	"github.com/buildreviewer/reviewer-services/pkg/logger"
	"gopkg.in/yaml.v3"
)

// Fixture is the on-disk layout of a seed file.
type Fixture struct {
	Businesses []Business `yaml:"businesses"`
	Reviews    []Review   `yaml:"reviews"`
}

type Address struct {
	Line1 string `yaml:"line1"`
	Line2 string `yaml:"line2"`
	City  string `yaml:"city"`
	State string `yaml:"state"`
	Zip   string `yaml:"zip"`
}

type Business struct {
	ID      string  `yaml:"id"`
	Name    string  `yaml:"name"`
	Address Address `yaml:"address"`
	Phone   string  `yaml:"phone"`
	Hours   string  `yaml:"hours"`
	Type    string  `yaml:"type"`
	Photo   string  `yaml:"photo"`
}

type Review struct {
	ID           string    `yaml:"id"`
	BusinessID   string    `yaml:"businessId"`
	BusinessName string    `yaml:"businessName"`
	AuthorID     string    `yaml:"authorId"`
	Author       string    `yaml:"author"`
	ReviewText   string    `yaml:"reviewText"`
	Rating       int       `yaml:"rating"`
	Date         time.Time `yaml:"date"`
	Photos       []string  `yaml:"photos"`
}

// Result counts what Apply wrote.
type Result struct {
	BusinessesInserted int
	BusinessesUpdated  int
	ReviewsInserted    int
	ReviewsUpdated     int
}

// Load decodes a fixture, rejecting unknown keys.
func Load(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

// Apply initializes the store and writes every record. Records whose id
// already exists are updated instead, so a fixture can be applied repeatedly.
// Videos on existing reviews are kept, as with any review update.
func Apply(ctx context.Context, svc service.DataService, f *Fixture) (Result, error) {
	var res Result
	if err := svc.Initialize(ctx); err != nil {
		return res, err
	}
	for _, fb := range f.Businesses {
		b := fb.toModel()
		err := svc.InsertBusiness(ctx, b)
		if errors.Is(err, reviewer.ErrConflict) {
			err = svc.UpdateBusiness(ctx, b)
			if err == nil {
				res.BusinessesUpdated++
			}
		} else if err == nil {
			res.BusinessesInserted++
		}
		if err != nil {
			return res, fmt.Errorf("business %q: %w", fb.ID, err)
		}
	}
	for _, fr := range f.Reviews {
		r := fr.toModel()
		err := svc.InsertReview(ctx, r)
		if errors.Is(err, reviewer.ErrConflict) {
			err = svc.UpdateReview(ctx, r)
			if err == nil {
				res.ReviewsUpdated++
			}
		} else if err == nil {
			res.ReviewsInserted++
		}
		if err != nil {
			return res, fmt.Errorf("review %q: %w", fr.ID, err)
		}
	}
	logger.Infow("fixture applied",
		"businesses_inserted", res.BusinessesInserted, "businesses_updated", res.BusinessesUpdated,
		"reviews_inserted", res.ReviewsInserted, "reviews_updated", res.ReviewsUpdated)
	return res, nil
}

func (b Business) toModel() *reviewer.Business {
	return &reviewer.Business{
		ID:   b.ID,
		Name: b.Name,
		Address: reviewer.Address{
			Line1: b.Address.Line1,
			Line2: b.Address.Line2,
			City:  b.Address.City,
			State: b.Address.State,
			Zip:   b.Address.Zip,
		},
		Phone: b.Phone,
		Hours: b.Hours,
		Type:  b.Type,
		Photo: b.Photo,
	}
}

func (r Review) toModel() *reviewer.Review {
	return &reviewer.Review{
		ID:           r.ID,
		BusinessID:   r.BusinessID,
		BusinessName: r.BusinessName,
		AuthorID:     r.AuthorID,
		Author:       r.Author,
		ReviewText:   r.ReviewText,
		Rating:       r.Rating,
		Date:         r.Date,
		Photos:       r.Photos,
	}
}
