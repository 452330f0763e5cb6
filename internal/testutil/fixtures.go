package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/YinkTech/peerreview/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateGroup inserts a group with zero averages.
func (f *Fixtures) CreateGroup(ctx context.Context, name string) models.Group {
	f.t.Helper()

	g := models.Group{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("CreateGroup: %v", err)
	}
	return g
}

// CreateStudent inserts a student profile in groupID (nil leaves them
// unassigned, not pending).
func (f *Fixtures) CreateStudent(ctx context.Context, fullName, email string, groupID *primitive.ObjectID) models.User {
	f.t.Helper()
	return f.createUser(ctx, fullName, email, models.RoleStudent, groupID)
}

// CreateTeacher inserts a teacher profile.
func (f *Fixtures) CreateTeacher(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.createUser(ctx, fullName, email, models.RoleTeacher, nil)
}

func (f *Fixtures) createUser(ctx context.Context, fullName, email, role string, groupID *primitive.ObjectID) models.User {
	now := time.Now().UTC()
	u := models.User{
		ID:          primitive.NewObjectID(),
		Email:       email,
		FullName:    fullName,
		FullNameCI:  text.Fold(fullName),
		Role:        role,
		GroupID:     groupID,
		Preferences: models.Preferences{EmailNotifications: true},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("createUser: %v", err)
	}
	return u
}

// CreateReview inserts a review submitted at ts. ratings may be nil to
// store an absent (attendance "no") review.
func (f *Fixtures) CreateReview(ctx context.Context, reviewer, reviewee models.User, groupID primitive.ObjectID, ts time.Time, ratings *[4]int) models.Review {
	f.t.Helper()

	ts = ts.UTC()
	r := models.Review{
		ID:             primitive.NewObjectID(),
		ReviewerID:     reviewer.ID,
		ReviewerName:   reviewer.DisplayName(),
		ReviewedUserID: reviewee.ID,
		GroupID:        groupID,
		RubricVersion:  models.RubricExtendedV1,
		Attendance:     models.No,
		Timestamp:      &ts,
		CreatedAt:      ts.Format(time.RFC3339Nano),
		DayKey:         ts.Format("2006-01-02"),
	}
	if ratings != nil {
		r.Attendance = models.Yes
		r.Punctuality = models.Yes
		r.Environment = models.EnvConducive
		r.QualityOfContribution = intPtr(ratings[0])
		r.LevelOfParticipation = intPtr(ratings[1])
		r.Collaboration = intPtr(ratings[2])
		r.OverallContribution = intPtr(ratings[3])
		r.AreasForImprovement = "listen more"
		r.Suggestions = "share notes"
	}
	if _, err := f.db.Collection("reviews").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("CreateReview: %v", err)
	}
	return r
}

func intPtr(v int) *int { return &v }
