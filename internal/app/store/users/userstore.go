// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/YinkTech/peerreview/internal/app/system/normalize"
	"github.com/YinkTech/peerreview/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
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
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when a profile already exists for the email.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "student"|"teacher"`)
)

// Sort orders accepted by ListStudents.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a profile. The ID must already be set (it is the identity id
// issued at account creation). Students start PendingNew.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)

	switch u.Role {
	case models.RoleStudent:
		if u.GroupID == nil {
			u.GroupPending = true
		}
	case models.RoleTeacher:
		u.GroupID = nil
		u.GroupPending = false
	default:
		return models.User{}, errBadRole
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// ProfileUpdate holds the user-editable profile fields. Email and role are
// not editable.
type ProfileUpdate struct {
	FullName    string
	Bio         string
	Preferences models.Preferences
}

// UpdateProfile writes the editable profile fields.
// Returns mongo.ErrNoDocuments if the user does not exist.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	name := normalize.Name(upd.FullName)
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"full_name":    name,
		"full_name_ci": text.Fold(name),
		"bio":          upd.Bio,
		"preferences":  upd.Preferences,
		"updated_at":   time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetGroup sets (or with nil clears) a student's group and leaves the
// PendingNew state for good. Returns mongo.ErrNoDocuments if no such student.
func (s *Store) SetGroup(ctx context.Context, id primitive.ObjectID, groupID *primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "role": models.RoleStudent},
		bson.M{
			"$set":   bson.M{"group_id": groupID, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"group_pending": ""},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListByGroup returns the students whose group is groupID, by name.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}})
	return s.find(ctx, bson.M{"role": models.RoleStudent, "group_id": groupID}, opts)
}

// ListStudents returns every student, optionally filtered by a
// case-insensitive substring of name or email, ordered by creation time.
func (s *Store) ListStudents(ctx context.Context, search, sort string) ([]models.User, error) {
	filter := bson.M{"role": models.RoleStudent}
	if q := normalize.QueryParam(search); q != "" {
		pattern := regexp.QuoteMeta(text.Fold(q))
		filter["$or"] = bson.A{
			bson.M{"full_name_ci": bson.M{"$regex": pattern}},
			bson.M{"email": bson.M{"$regex": regexp.QuoteMeta(normalize.Email(q))}},
		}
	}
	dir := -1
	if sort == SortOldest {
		dir = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: dir}})
	return s.find(ctx, filter, opts)
}

// ListUnassigned returns students with no group (including PendingNew).
func (s *Store) ListUnassigned(ctx context.Context) ([]models.User, error) {
	filter := bson.M{"role": models.RoleStudent, "group_id": nil}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return s.find(ctx, filter, opts)
}

// MemberCounts returns the number of students per group.
func (s *Store) MemberCounts(ctx context.Context) (map[primitive.ObjectID]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"role": models.RoleStudent, "group_id": bson.M{"$ne": nil}}}},
		{{Key: "$group", Value: bson.M{"_id": "$group_id", "n": bson.M{"$sum": 1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[primitive.ObjectID]int)
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
			N  int                `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.N
	}
	return out, cur.Err()
}

// Delete removes a user. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.User, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
