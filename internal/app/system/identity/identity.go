// Package identity is the email/password identity provider: it owns login
// credentials, issues signed session tokens, and notifies subscribers when
// the current identity changes. User profiles live in the users collection
// and share the identity id.
package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	credentialstore "github.com/YinkTech/peerreview/internal/app/store/credentials"
	"github.com/YinkTech/peerreview/internal/app/store/sessions"
	"github.com/YinkTech/peerreview/internal/app/system/inputval"
	"github.com/YinkTech/peerreview/internal/app/system/normalize"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

const issuer = "peerreview"

var (
	ErrEmailInUse         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("session is invalid or has expired")
)

// CredentialStore is the subset of the credentials store the gateway uses.
type CredentialStore interface {
	Create(ctx context.Context, email string, hash []byte) (credentialstore.Credential, error)
	GetByEmail(ctx context.Context, email string) (credentialstore.Credential, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// SessionStore is the subset of the sessions store the gateway uses.
type SessionStore interface {
	Create(ctx context.Context, sess sessions.Session) (sessions.Session, error)
	GetByID(ctx context.Context, id string) (sessions.Session, error)
	Close(ctx context.Context, id, reason string) error
	CloseAllForUser(ctx context.Context, userID primitive.ObjectID, reason string) (int64, error)
}

// Config configures a Gateway.
type Config struct {
	Secret     []byte
	TokenTTL   time.Duration
	BcryptCost int // 0 means bcrypt.DefaultCost
}

// Gateway implements account creation, authentication and session tokens.
type Gateway struct {
	creds    CredentialStore
	sessions SessionStore
	secret   []byte
	ttl      time.Duration
	cost     int
	log      *zap.Logger
	now      func() time.Time

	mu     sync.Mutex
	subs   map[int]chan Change
	nextID int
}

// New creates a Gateway.
func New(creds CredentialStore, sess SessionStore, cfg Config, logger *zap.Logger) *Gateway {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Gateway{
		creds:    creds,
		sessions: sess,
		secret:   cfg.Secret,
		ttl:      ttl,
		cost:     cost,
		log:      logger,
		now:      time.Now,
		subs:     make(map[int]chan Change),
	}
}

// CreateAccount registers email/password and returns the new identity id.
func (g *Gateway) CreateAccount(ctx context.Context, email, password string) (primitive.ObjectID, error) {
	email = normalize.Email(email)
	if !inputval.IsValidEmail(email) {
		return primitive.NilObjectID, inputval.Fail("email", "Please enter a valid email address.")
	}
	if len(password) < MinPasswordLength {
		return primitive.NilObjectID, inputval.Fail("password", fmt.Sprintf("Password must be at least %d characters.", MinPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.cost)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("hash password: %w", err)
	}
	cred, err := g.creds.Create(ctx, email, hash)
	if err != nil {
		if errors.Is(err, credentialstore.ErrDuplicateEmail) {
			return primitive.NilObjectID, ErrEmailInUse
		}
		return primitive.NilObjectID, fmt.Errorf("create credential: %w", err)
	}
	return cred.ID, nil
}

// Authenticate checks email/password and opens a session. Unknown email and
// wrong password both yield ErrInvalidCredentials.
func (g *Gateway) Authenticate(ctx context.Context, email, password string) (primitive.ObjectID, string, error) {
	cred, err := g.creds.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return primitive.NilObjectID, "", ErrInvalidCredentials
		}
		return primitive.NilObjectID, "", fmt.Errorf("load credential: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password)); err != nil {
		return primitive.NilObjectID, "", ErrInvalidCredentials
	}

	token, err := g.issue(ctx, cred.ID)
	if err != nil {
		return primitive.NilObjectID, "", err
	}
	g.publish(Change{Kind: SignedIn, UserID: cred.ID, At: g.now()})
	return cred.ID, token, nil
}

func (g *Gateway) issue(ctx context.Context, userID primitive.ObjectID) (string, error) {
	now := g.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID.Hex(),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	if _, err := g.sessions.Create(ctx, sessions.Session{
		ID:        claims.ID,
		UserID:    userID,
		CreatedAt: now.UTC(),
		ExpiresAt: now.Add(g.ttl).UTC(),
	}); err != nil {
		return "", fmt.Errorf("record session: %w", err)
	}
	return signed, nil
}

func (g *Gateway) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != issuer || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Verify returns the identity id of a valid, open session token.
func (g *Gateway) Verify(ctx context.Context, token string) (primitive.ObjectID, error) {
	claims, err := g.parse(token)
	if err != nil {
		return primitive.NilObjectID, err
	}
	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidToken
	}
	sess, err := g.sessions.GetByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return primitive.NilObjectID, ErrInvalidToken
		}
		return primitive.NilObjectID, fmt.Errorf("load session: %w", err)
	}
	if sess.UserID != userID || !sess.Open(g.now()) {
		return primitive.NilObjectID, ErrInvalidToken
	}
	return userID, nil
}

// EndSession closes the session behind token. Invalid or already closed
// tokens are ignored.
func (g *Gateway) EndSession(ctx context.Context, token string) error {
	claims, err := g.parse(token)
	if err != nil {
		return nil
	}
	if err := g.sessions.Close(ctx, claims.ID, sessions.EndLogout); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if userID, err := primitive.ObjectIDFromHex(claims.Subject); err == nil {
		g.publish(Change{Kind: SignedOut, UserID: userID, At: g.now()})
	}
	return nil
}

// DeleteAccount removes the credential and closes every session of userID.
func (g *Gateway) DeleteAccount(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := g.sessions.CloseAllForUser(ctx, userID, sessions.EndDeleted); err != nil {
		return fmt.Errorf("close sessions: %w", err)
	}
	if _, err := g.creds.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	g.publish(Change{Kind: Deleted, UserID: userID, At: g.now()})
	return nil
}
