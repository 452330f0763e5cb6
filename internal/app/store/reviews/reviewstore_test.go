package reviewstore_test

import (
	"errors"
	"testing"
	"time"

	reviewstore "github.com/YinkTech/peerreview/internal/app/store/reviews"
	"github.com/YinkTech/peerreview/internal/domain/models"
	"github.com/YinkTech/peerreview/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestStore_Create_AbsentReviewOmitsRubric(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := reviewstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	created, err := store.Create(ctx, models.Review{
		ReviewerID:     primitive.NewObjectID(),
		ReviewedUserID: primitive.NewObjectID(),
		GroupID:        primitive.NewObjectID(),
		RubricVersion:  models.RubricExtendedV1,
		Attendance:     models.No,
		Timestamp:      &now,
		CreatedAt:      now.Format(time.RFC3339Nano),
		DayKey:         now.Format("2006-01-02"),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID.IsZero() {
		t.Fatal("expected ID to be assigned")
	}

	var raw bson.M
	if err := db.Collection("reviews").FindOne(ctx, bson.M{"_id": created.ID}).Decode(&raw); err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	for _, key := range []string{"punctuality", "environment", "quality_of_contribution", "areas_for_improvement", "suggestions"} {
		if _, ok := raw[key]; ok {
			t.Errorf("expected %q to be omitted, got %v", key, raw[key])
		}
	}
	if raw["attendance"] != models.No {
		t.Errorf("attendance: got %v", raw["attendance"])
	}
}

func TestStore_Create_UniqueDayIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := reviewstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection("reviews").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "reviewer_id", Value: 1}, {Key: "reviewed_user_id", Value: 1}, {Key: "day_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		t.Fatalf("create index: %v", err)
	}

	r := models.Review{
		ReviewerID:     primitive.NewObjectID(),
		ReviewedUserID: primitive.NewObjectID(),
		GroupID:        primitive.NewObjectID(),
		Attendance:     models.No,
		DayKey:         "2026-05-04",
	}
	if _, err := store.Create(ctx, r); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if _, err := store.Create(ctx, r); !errors.Is(err, reviewstore.ErrDuplicateDay) {
		t.Errorf("expected ErrDuplicateDay, got %v", err)
	}
}

func TestStore_Finders(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := reviewstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "G")
	other := fixtures.CreateGroup(ctx, "Other")
	a := fixtures.CreateStudent(ctx, "A", "a@example.com", &g.ID)
	b := fixtures.CreateStudent(ctx, "B", "b@example.com", &g.ID)
	c := fixtures.CreateStudent(ctx, "C", "c@example.com", &g.ID)
	now := time.Now()

	fixtures.CreateReview(ctx, a, b, g.ID, now, &[4]int{4, 5, 3, 4})
	fixtures.CreateReview(ctx, a, b, g.ID, now.Add(-48*time.Hour), nil)
	fixtures.CreateReview(ctx, a, c, g.ID, now, nil)
	fixtures.CreateReview(ctx, c, a, g.ID, now, nil)
	fixtures.CreateReview(ctx, a, b, other.ID, now, nil)

	tests := []struct {
		name string
		fn   func() ([]models.Review, error)
		want int
	}{
		{"pair", func() ([]models.Review, error) { return store.FindByPair(ctx, a.ID, b.ID) }, 3},
		{"group", func() ([]models.Review, error) { return store.FindByGroup(ctx, g.ID) }, 4},
		{"reviewee", func() ([]models.Review, error) { return store.FindByGroupAndReviewee(ctx, g.ID, b.ID) }, 2},
		{"reviewer", func() ([]models.Review, error) { return store.FindByGroupAndReviewer(ctx, g.ID, a.ID) }, 3},
		{"empty", func() ([]models.Review, error) { return store.FindByGroup(ctx, primitive.NewObjectID()) }, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn()
			if err != nil {
				t.Fatalf("query failed: %v", err)
			}
			if got == nil {
				t.Fatal("expected non-nil slice")
			}
			if len(got) != tt.want {
				t.Errorf("got %d reviews, want %d", len(got), tt.want)
			}
		})
	}
}

func TestStore_DeleteByReviewer_KeepsReviewsAboutUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := reviewstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "G")
	a := fixtures.CreateStudent(ctx, "A", "a@example.com", &g.ID)
	b := fixtures.CreateStudent(ctx, "B", "b@example.com", &g.ID)
	now := time.Now()

	fixtures.CreateReview(ctx, a, b, g.ID, now, nil)
	fixtures.CreateReview(ctx, a, b, g.ID, now.Add(-24*time.Hour), nil)
	kept := fixtures.CreateReview(ctx, b, a, g.ID, now, nil)

	n, err := store.DeleteByReviewer(ctx, a.ID)
	if err != nil {
		t.Fatalf("DeleteByReviewer failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}

	left, _ := store.FindByGroup(ctx, g.ID)
	if len(left) != 1 || left[0].ID != kept.ID {
		t.Errorf("unexpected remaining reviews: %+v", left)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := reviewstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "G")
	a := fixtures.CreateStudent(ctx, "A", "a@example.com", &g.ID)
	b := fixtures.CreateStudent(ctx, "B", "b@example.com", &g.ID)
	r := fixtures.CreateReview(ctx, a, b, g.ID, time.Now(), nil)

	got, err := store.GetByID(ctx, r.ID)
	if err != nil || got.ReviewerID != a.ID {
		t.Fatalf("GetByID: %+v err=%v", got, err)
	}
	if n, err := store.Delete(ctx, r.ID); err != nil || n != 1 {
		t.Fatalf("Delete: n=%d err=%v", n, err)
	}
	if _, err := store.GetByID(ctx, r.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}
