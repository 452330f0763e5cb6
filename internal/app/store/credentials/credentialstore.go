// internal/app/store/credentials/credentialstore.go
package credentialstore

import (
	"context"
	"errors"
	"time"

	"github.com/YinkTech/peerreview/internal/app/system/normalize"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicateEmail is returned when an account already exists for the email.
var ErrDuplicateEmail = errors.New("an account with this email already exists")

// Credential is the login secret for one account. Its ID is the identity id
// shared with the user profile.
type Credential struct {
	ID           primitive.ObjectID `bson:"_id"`
	Email        string             `bson:"email"`
	PasswordHash []byte             `bson:"password_hash"`
	CreatedAt    time.Time          `bson:"created_at"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("credentials")}
}

// Create stores a new credential with a generated ID.
func (s *Store) Create(ctx context.Context, email string, hash []byte) (Credential, error) {
	cred := Credential{
		ID:           primitive.NewObjectID(),
		Email:        normalize.Email(email),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, cred); err != nil {
		if wafflemongo.IsDup(err) {
			return Credential{}, ErrDuplicateEmail
		}
		return Credential{}, err
	}
	return cred, nil
}

// GetByEmail returns mongo.ErrNoDocuments if no account uses the email.
func (s *Store) GetByEmail(ctx context.Context, email string) (Credential, error) {
	var cred Credential
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&cred); err != nil {
		return Credential{}, err
	}
	return cred, nil
}

// Delete removes the credential. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
