// internal/app/store/sessions/store.go
package sessions

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// End reasons.
const (
	EndLogout  = "logout"
	EndDeleted = "account_deleted"
)

// Session is the server-side record of one issued session token. The ID is
// the token's jti. Records expire from the collection via a TTL index on
// expires_at.
type Session struct {
	ID        string             `bson:"_id"`
	UserID    primitive.ObjectID `bson:"user_id"`
	CreatedAt time.Time          `bson:"created_at"`
	ExpiresAt time.Time          `bson:"expires_at"`

	// How did session end?
	ClosedAt  *time.Time `bson:"closed_at,omitempty"`
	EndReason string     `bson:"end_reason,omitempty"`

	IP        string `bson:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty"`
}

// Open reports whether the session is unclosed and unexpired at now.
func (s Session) Open(now time.Time) bool {
	return s.ClosedAt == nil && now.Before(s.ExpiresAt)
}

// Store manages session token records.
type Store struct {
	c *mongo.Collection
}

// New creates a new sessions Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sessions")}
}

// Create records a newly issued session.
func (s *Store) Create(ctx context.Context, sess Session) (Session, error) {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// GetByID returns mongo.ErrNoDocuments if the session is unknown (or was
// already removed by the TTL monitor).
func (s *Store) GetByID(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sess)
	return sess, err
}

// Close ends a session. Closing an already closed or unknown session is a no-op.
func (s *Store) Close(ctx context.Context, id, reason string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "closed_at": nil},
		bson.M{"$set": bson.M{"closed_at": time.Now().UTC(), "end_reason": reason}},
	)
	return err
}

// CloseAllForUser ends every open session of userID and returns how many
// were closed.
func (s *Store) CloseAllForUser(ctx context.Context, userID primitive.ObjectID, reason string) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "closed_at": nil},
		bson.M{"$set": bson.M{"closed_at": time.Now().UTC(), "end_reason": reason}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
