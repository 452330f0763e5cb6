// internal/app/store/reviews/reviewstore.go
package reviewstore

import (
	"context"
	"errors"

	"github.com/YinkTech/peerreview/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateDay is returned when the optional unique
// (reviewer_id, reviewed_user_id, day_key) index rejects an insert.
var ErrDuplicateDay = errors.New("a review for this teammate already exists for the day")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("reviews")}
}

// Create inserts a review. Reviews are never updated afterwards.
func (s *Store) Create(ctx context.Context, r models.Review) (models.Review, error) {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Review{}, ErrDuplicateDay
		}
		return models.Review{}, err
	}
	return r, nil
}

// GetByID returns mongo.ErrNoDocuments if the review does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Review, error) {
	var r models.Review
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return models.Review{}, err
	}
	return r, nil
}

// FindByPair returns every review reviewerID wrote about revieweeID.
func (s *Store) FindByPair(ctx context.Context, reviewerID, revieweeID primitive.ObjectID) ([]models.Review, error) {
	return s.find(ctx, bson.M{"reviewer_id": reviewerID, "reviewed_user_id": revieweeID})
}

// FindByGroup returns every review recorded in groupID.
func (s *Store) FindByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Review, error) {
	return s.find(ctx, bson.M{"group_id": groupID})
}

// FindByGroupAndReviewee returns the reviews about revieweeID in groupID.
func (s *Store) FindByGroupAndReviewee(ctx context.Context, groupID, revieweeID primitive.ObjectID) ([]models.Review, error) {
	return s.find(ctx, bson.M{"group_id": groupID, "reviewed_user_id": revieweeID})
}

// FindByGroupAndReviewer returns the reviews reviewerID wrote in groupID.
func (s *Store) FindByGroupAndReviewer(ctx context.Context, groupID, reviewerID primitive.ObjectID) ([]models.Review, error) {
	return s.find(ctx, bson.M{"group_id": groupID, "reviewer_id": reviewerID})
}

// Delete removes a review by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByReviewer removes every review authored by reviewerID. Reviews
// about reviewerID are untouched.
func (s *Store) DeleteByReviewer(ctx context.Context, reviewerID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"reviewer_id": reviewerID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Store order is insertion order; callers that need newest-first sort with
// Review.SubmittedAt so legacy records without a server timestamp still sort.
func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Review, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Review{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
