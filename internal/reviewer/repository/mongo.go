package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/buildreviewer/reviewer-services/internal/database"
	"github.com/buildreviewer/reviewer-services/internal/reviewer"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions names the collections used inside the database and the page
// size used when draining query cursors (0 lets the server choose).
type MongoOptions struct {
	BusinessCollection string
	ReviewCollection   string
	PageSize           int32
}

// MongoRepo implements Repository on top of a MongoDB database. Documents are
// addressed by their string _id.
type MongoRepo struct {
	db         *mongo.Database
	businesses *mongo.Collection
	reviews    *mongo.Collection
	pageSize   int32
}

func NewMongoRepo(db *mongo.Database, opts MongoOptions) *MongoRepo {
	if opts.BusinessCollection == "" {
		opts.BusinessCollection = "Businesses"
	}
	if opts.ReviewCollection == "" {
		opts.ReviewCollection = "Reviews"
	}
	return &MongoRepo{
		db:         db,
		businesses: db.Collection(opts.BusinessCollection),
		reviews:    db.Collection(opts.ReviewCollection),
		pageSize:   opts.PageSize,
	}
}

// Ensure creates both collections when missing and indexes the review
// foreign keys used by the filtered queries.
func (m *MongoRepo) Ensure(ctx context.Context) error {
	if err := database.EnsureCollections(ctx, m.db, m.reviews.Name(), m.businesses.Name()); err != nil {
		return err
	}
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "businessId", Value: 1}}},
		{Keys: bson.D{{Key: "authorId", Value: 1}}},
	}
	if _, err := m.reviews.Indexes().CreateMany(ctx, idx); err != nil {
		return fmt.Errorf("create review indexes: %w", err)
	}
	return nil
}

func (m *MongoRepo) findOptions() *options.FindOptions {
	opts := options.Find()
	if m.pageSize > 0 {
		opts.SetBatchSize(m.pageSize)
	}
	return opts
}

// drain decodes every page of the query into a slice. An empty result is a
// non-nil empty slice.
func drain[T any](ctx context.Context, col *mongo.Collection, filter interface{}, opts *options.FindOptions) ([]*T, error) {
	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", col.Name(), err)
	}
	defer cur.Close(ctx)
	out := []*T{}
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", col.Name(), err)
		}
		out = append(out, &v)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", col.Name(), err)
	}
	return out, nil
}

func findByID[T any](ctx context.Context, col *mongo.Collection, id string) (*T, error) {
	var v T
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reviewer.ErrNotFound
		}
		return nil, fmt.Errorf("read %s/%s: %w", col.Name(), id, err)
	}
	return &v, nil
}

func insert(ctx context.Context, col *mongo.Collection, doc interface{}) error {
	if _, err := col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return reviewer.ErrConflict
		}
		return fmt.Errorf("insert into %s: %w", col.Name(), err)
	}
	return nil
}

func (m *MongoRepo) ListBusinesses(ctx context.Context) ([]*reviewer.Business, error) {
	return drain[reviewer.Business](ctx, m.businesses, bson.M{}, m.findOptions())
}

func (m *MongoRepo) GetBusiness(ctx context.Context, id string) (*reviewer.Business, error) {
	return findByID[reviewer.Business](ctx, m.businesses, id)
}

func (m *MongoRepo) InsertBusiness(ctx context.Context, b *reviewer.Business) error {
	return insert(ctx, m.businesses, b)
}

// ReplaceBusiness fails with ErrNotFound when no document matched, which
// doubles as the existence check for the update.
func (m *MongoRepo) ReplaceBusiness(ctx context.Context, b *reviewer.Business) error {
	res, err := m.businesses.ReplaceOne(ctx, bson.M{"_id": b.ID}, b)
	if err != nil {
		return fmt.Errorf("replace business %s: %w", b.ID, err)
	}
	if res.MatchedCount == 0 {
		return reviewer.ErrNotFound
	}
	return nil
}

func (m *MongoRepo) ReviewsByBusiness(ctx context.Context, businessID string) ([]*reviewer.Review, error) {
	return drain[reviewer.Review](ctx, m.reviews, bson.M{"businessId": businessID}, m.findOptions())
}

func (m *MongoRepo) ReviewsByAuthor(ctx context.Context, authorID string) ([]*reviewer.Review, error) {
	return drain[reviewer.Review](ctx, m.reviews, bson.M{"authorId": authorID}, m.findOptions())
}

func (m *MongoRepo) GetReview(ctx context.Context, id string) (*reviewer.Review, error) {
	return findByID[reviewer.Review](ctx, m.reviews, id)
}

func (m *MongoRepo) InsertReview(ctx context.Context, r *reviewer.Review) error {
	return insert(ctx, m.reviews, r)
}

// ReplaceReview replaces the stored review with r while carrying the stored
// videos array over byte for byte, including fields Video does not model. The
// replace is conditioned on that same array, so a video attached in between
// makes it match nothing and yields ErrConflict. On success r.Videos holds the
// stored videos.
func (m *MongoRepo) ReplaceReview(ctx context.Context, r *reviewer.Review) error {
	var stored struct {
		Videos bson.RawValue `bson:"videos"`
	}
	err := m.reviews.FindOne(ctx, bson.M{"_id": r.ID}, options.FindOne().SetProjection(bson.M{"videos": 1})).Decode(&stored)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return reviewer.ErrNotFound
		}
		return fmt.Errorf("read review %s: %w", r.ID, err)
	}
	hasVideos := stored.Videos.Type != 0

	raw, err := bson.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode review %s: %w", r.ID, err)
	}
	elems, err := bson.Raw(raw).Elements()
	if err != nil {
		return fmt.Errorf("encode review %s: %w", r.ID, err)
	}
	doc := make(bson.D, 0, len(elems)+1)
	for _, e := range elems {
		if e.Key() == "videos" {
			continue
		}
		doc = append(doc, bson.E{Key: e.Key(), Value: e.Value()})
	}

	filter := bson.D{{Key: "_id", Value: r.ID}}
	if hasVideos {
		doc = append(doc, bson.E{Key: "videos", Value: stored.Videos})
		filter = append(filter, bson.E{Key: "videos", Value: stored.Videos})
	} else {
		filter = append(filter, bson.E{Key: "videos", Value: bson.M{"$exists": false}})
	}

	res, err := m.reviews.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return fmt.Errorf("replace review %s: %w", r.ID, err)
	}
	if res.MatchedCount == 0 {
		return reviewer.ErrConflict
	}

	r.Videos = nil
	if hasVideos {
		if err := stored.Videos.Unmarshal(&r.Videos); err != nil {
			return fmt.Errorf("decode videos of review %s: %w", r.ID, err)
		}
	}
	return nil
}

func (m *MongoRepo) AttachVideo(ctx context.Context, reviewID string, v reviewer.Video) error {
	res, err := m.reviews.UpdateOne(ctx, bson.M{"_id": reviewID}, bson.M{"$push": bson.M{"videos": v}})
	if err != nil {
		return fmt.Errorf("attach video to review %s: %w", reviewID, err)
	}
	if res.MatchedCount == 0 {
		return reviewer.ErrNotFound
	}
	return nil
}
