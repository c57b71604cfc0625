package repository

import (
	"context"
	"testing"

	"github.com/buildreviewer/reviewer-services/internal/reviewer"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func reviewDoc(id, businessID, authorID string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "businessId", Value: businessID},
		{Key: "authorId", Value: authorID},
		{Key: "reviewText", Value: "text for " + id},
		{Key: "rating", Value: 4},
	}
}

// startedCommand returns the first recorded command with the given name.
func startedCommand(mt *mtest.T, name string) bson.Raw {
	mt.Helper()
	for e := mt.GetStartedEvent(); e != nil; e = mt.GetStartedEvent() {
		if e.CommandName == name {
			return e.Command
		}
	}
	mt.Fatalf("no %s command was sent", name)
	return nil
}

func rawValueOf(t *testing.T, v interface{}) []byte {
	t.Helper()
	doc, err := bson.Marshal(bson.D{{Key: "v", Value: v}})
	require.NoError(t, err)
	return bson.Raw(doc).Lookup("v").Value
}

func TestMongoRepo_Queries(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("drains every page", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB, MongoOptions{PageSize: 1})
		ns := mt.DB.Name() + ".Reviews"
		mt.AddMockResponses(
			mtest.CreateCursorResponse(42, ns, mtest.FirstBatch, reviewDoc("r1", "b1", "a1")),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch, reviewDoc("r2", "b1", "a2")),
		)

		got, err := repo.ReviewsByBusiness(context.Background(), "b1")
		require.NoError(t, err)
		require.Equal(t, []string{"r1", "r2"}, reviewIDs(got))
		require.Equal(t, 4, got[0].Rating)
	})

	mt.Run("no matches is an empty slice", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB, MongoOptions{})
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".Reviews", mtest.FirstBatch))

		got, err := repo.ReviewsByAuthor(context.Background(), "nobody")
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Empty(t, got)
	})

	mt.Run("query failure is returned", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB, MongoOptions{})
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "boom"}))

		got, err := repo.ListBusinesses(context.Background())
		require.Error(t, err)
		require.Nil(t, got)
	})

	mt.Run("missing business", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB, MongoOptions{})
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".Businesses", mtest.FirstBatch))

		_, err := repo.GetBusiness(context.Background(), "missing")
		require.ErrorIs(t, err, reviewer.ErrNotFound)
	})
}

func TestMongoRepo_Writes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB, MongoOptions{})
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(t, repo.InsertBusiness(context.Background(), &reviewer.Business{ID: "b1", Name: "x"}))
	})

	mt.Run("duplicate insert conflicts", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB, MongoOptions{})
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}))
		err := repo.InsertReview(context.Background(), &reviewer.Review{ID: "r1"})
		require.ErrorIs(t, err, reviewer.ErrConflict)
	})

	mt.Run("replace business", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB, MongoOptions{})
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		require.NoError(t, repo.ReplaceBusiness(context.Background(), &reviewer.Business{ID: "b1", Name: "y"}))
	})

	mt.Run("replace missing business", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB, MongoOptions{})
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		err := repo.ReplaceBusiness(context.Background(), &reviewer.Business{ID: "missing"})
		require.ErrorIs(t, err, reviewer.ErrNotFound)
	})

	mt.Run("replace review keeps stored videos", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB, MongoOptions{})
		stored := append(reviewDoc("r1", "b1", "a1"), bson.E{Key: "videos", Value: bson.A{
			bson.D{{Key: "hlsUrl", Value: "https://cdn/v1.m3u8"}},
		}})
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, mt.DB.Name()+".Reviews", mtest.FirstBatch, stored),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		upd := &reviewer.Review{ID: "r1", BusinessID: "b1", AuthorID: "a1", ReviewText: "edited"}
		require.NoError(t, repo.ReplaceReview(context.Background(), upd))
		require.Equal(t, []reviewer.Video{{HLSURL: "https://cdn/v1.m3u8"}}, upd.Videos)
	})

	mt.Run("replace review writes stored videos back untouched", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB, MongoOptions{})
		videos := bson.A{bson.D{
			{Key: "hlsUrl", Value: "https://cdn/v.m3u8"},
			{Key: "thumbnailUrl", Value: ""},
			{Key: "durationSec", Value: 12},
		}}
		stored := append(reviewDoc("r1", "b1", "a1"), bson.E{Key: "videos", Value: videos})
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, mt.DB.Name()+".Reviews", mtest.FirstBatch, stored),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		upd := &reviewer.Review{ID: "r1", BusinessID: "b1", AuthorID: "a1", ReviewText: "edited",
			Videos: []reviewer.Video{{HLSURL: "https://elsewhere/x.m3u8"}}}
		require.NoError(t, repo.ReplaceReview(context.Background(), upd))
		require.Equal(t, []reviewer.Video{{HLSURL: "https://cdn/v.m3u8"}}, upd.Videos)

		cmd := startedCommand(mt, "update")
		want := rawValueOf(t, videos)
		require.Equal(t, want, cmd.Lookup("updates", "0", "q", "videos").Value)
		require.Equal(t, want, cmd.Lookup("updates", "0", "u", "videos").Value)
		require.Equal(t, "edited", cmd.Lookup("updates", "0", "u", "reviewText").StringValue())
	})

	mt.Run("replace review without videos requires them still absent", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB, MongoOptions{})
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, mt.DB.Name()+".Reviews", mtest.FirstBatch, reviewDoc("r1", "b1", "a1")),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		upd := &reviewer.Review{ID: "r1", Videos: []reviewer.Video{{HLSURL: "x"}}}
		require.NoError(t, repo.ReplaceReview(context.Background(), upd))
		require.Nil(t, upd.Videos)

		cmd := startedCommand(mt, "update")
		require.False(t, cmd.Lookup("updates", "0", "q", "videos", "$exists").Boolean())
		_, err := cmd.LookupErr("updates", "0", "u", "videos")
		require.Error(t, err)
	})

	mt.Run("replace review loses race with video attach", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB, MongoOptions{})
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, mt.DB.Name()+".Reviews", mtest.FirstBatch, reviewDoc("r1", "b1", "a1")),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
		)
		err := repo.ReplaceReview(context.Background(), &reviewer.Review{ID: "r1"})
		require.ErrorIs(t, err, reviewer.ErrConflict)
	})

	mt.Run("replace missing review", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB, MongoOptions{})
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".Reviews", mtest.FirstBatch))
		err := repo.ReplaceReview(context.Background(), &reviewer.Review{ID: "missing"})
		require.ErrorIs(t, err, reviewer.ErrNotFound)
	})

	mt.Run("attach video to missing review", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB, MongoOptions{})
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		err := repo.AttachVideo(context.Background(), "missing", reviewer.Video{HLSURL: "x"})
		require.ErrorIs(t, err, reviewer.ErrNotFound)
	})
}

func TestMongoRepo_Ensure(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates missing collection and indexes", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.DB, MongoOptions{})
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, mt.DB.Name()+".$cmd.listCollections", mtest.FirstBatch,
				bson.D{{Key: "name", Value: "Reviews"}, {Key: "type", Value: "collection"}}),
			mtest.CreateSuccessResponse(), // create Businesses
			mtest.CreateSuccessResponse(), // createIndexes on Reviews
		)
		require.NoError(t, repo.Ensure(context.Background()))
	})
}
