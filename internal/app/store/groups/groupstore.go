// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/YinkTech/peerreview/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

// GetByID returns mongo.ErrNoDocuments if the group does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// Exists reports whether a group with id is stored.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create inserts a group with zero averages and returns the stored record.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	g.ID = primitive.NewObjectID()
	g.Name = strings.TrimSpace(g.Name)
	g.NameCI = text.Fold(g.Name)
	g.Averages = models.RubricAverages{}
	g.AveragesUpdatedAt = nil
	g.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// Sort orders for List.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

// ListOptions narrows List. The zero value lists every group, newest first.
type ListOptions struct {
	Search string // case-insensitive substring of the name
	Sort   string // SortNewest (default) or SortOldest
	Limit  int64  // <= 0 means no limit
}

// List returns the groups matching opts, ordered by creation time.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]models.Group, error) {
	filter := bson.M{}
	if q := strings.TrimSpace(opts.Search); q != "" {
		filter["name_ci"] = bson.M{"$regex": regexp.QuoteMeta(text.Fold(q))}
	}
	dir := -1
	if opts.Sort == SortOldest {
		dir = 1
	}
	find := options.Find().SetSort(bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: dir}})
	if opts.Limit > 0 {
		find.SetLimit(opts.Limit)
	}
	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Group{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListIDs returns the id of every group.
func (s *Store) ListIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// SetAverages overwrites the cached averages snapshot.
// Returns mongo.ErrNoDocuments if the group does not exist.
func (s *Store) SetAverages(ctx context.Context, id primitive.ObjectID, avg models.RubricAverages, at time.Time) error {
	at = at.UTC()
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"averages":            avg,
		"averages_updated_at": at,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a group by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
