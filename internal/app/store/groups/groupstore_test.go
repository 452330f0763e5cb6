package groupstore_test

import (
	"errors"
	"testing"
	"time"

	groupstore "github.com/YinkTech/peerreview/internal/app/store/groups"
	"github.com/YinkTech/peerreview/internal/domain/models"
	"github.com/YinkTech/peerreview/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Group{
		Name:     " Team Alpha ",
		Averages: models.RubricAverages{Collaboration: 4.5},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Name != "Team Alpha" {
		t.Errorf("Name: got %q, want %q", created.Name, "Team Alpha")
	}
	if created.NameCI == "" {
		t.Error("expected NameCI to be set")
	}
	if created.Averages != (models.RubricAverages{}) {
		t.Errorf("expected zero averages, got %+v", created.Averages)
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Team Alpha" {
		t.Errorf("stored Name: got %q", got.Name)
	}
}

func TestStore_Exists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "G")

	ok, err := store.Exists(ctx, g.ID)
	if err != nil || !ok {
		t.Errorf("Exists(existing): ok=%v err=%v", ok, err)
	}
	ok, err = store.Exists(ctx, primitive.NewObjectID())
	if err != nil || ok {
		t.Errorf("Exists(missing): ok=%v err=%v", ok, err)
	}
}

func TestStore_List_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, name := range []string{"First", "Second", "Third"} {
		if _, err := store.Create(ctx, models.Group{Name: name}); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	all, err := store.List(ctx, groupstore.ListOptions{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 || all[0].Name != "Third" || all[2].Name != "First" {
		t.Errorf("unexpected order: %v", names(all))
	}

	recent, err := store.List(ctx, groupstore.ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("List(2) failed: %v", err)
	}
	if len(recent) != 2 || recent[0].Name != "Third" || recent[1].Name != "Second" {
		t.Errorf("unexpected recent: %v", names(recent))
	}

	ids, err := store.ListIDs(ctx)
	if err != nil || len(ids) != 3 {
		t.Errorf("ListIDs: %v err=%v", ids, err)
	}
}

func TestStore_List_SearchAndSort(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, name := range []string{"Team Alpha", "Beta Squad", "ALPHA two", "a.b"} {
		if _, err := store.Create(ctx, models.Group{Name: name}); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	got, err := store.List(ctx, groupstore.ListOptions{Search: "alpha"})
	if err != nil {
		t.Fatalf("List(search) failed: %v", err)
	}
	if len(got) != 2 || got[0].Name != "ALPHA two" || got[1].Name != "Team Alpha" {
		t.Errorf("search alpha newest: %v", names(got))
	}

	got, err = store.List(ctx, groupstore.ListOptions{Search: "alpha", Sort: groupstore.SortOldest})
	if err != nil {
		t.Fatalf("List(oldest) failed: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Team Alpha" || got[1].Name != "ALPHA two" {
		t.Errorf("search alpha oldest: %v", names(got))
	}

	// Regex metacharacters match literally.
	got, err = store.List(ctx, groupstore.ListOptions{Search: "."})
	if err != nil {
		t.Fatalf("List(dot) failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "a.b" {
		t.Errorf("search dot: %v", names(got))
	}

	got, _ = store.List(ctx, groupstore.ListOptions{Search: "gamma"})
	if len(got) != 0 {
		t.Errorf("search gamma: %v", names(got))
	}
}

func TestStore_SetAverages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "G")
	avg := models.RubricAverages{QualityOfContribution: 4, LevelOfParticipation: 3.5, Collaboration: 2.7, OverallContribution: 5}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.SetAverages(ctx, g.ID, avg, at); err != nil {
		t.Fatalf("SetAverages failed: %v", err)
	}
	got, _ := store.GetByID(ctx, g.ID)
	if got.Averages != avg {
		t.Errorf("Averages: got %+v, want %+v", got.Averages, avg)
	}
	if got.AveragesUpdatedAt == nil || !got.AveragesUpdatedAt.Equal(at) {
		t.Errorf("AveragesUpdatedAt: got %v", got.AveragesUpdatedAt)
	}

	err := store.SetAverages(ctx, primitive.NewObjectID(), avg, at)
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("missing group: expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "Doomed")

	n, err := store.Delete(ctx, g.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete: n=%d err=%v", n, err)
	}
	n, err = store.Delete(ctx, g.ID)
	if err != nil || n != 0 {
		t.Errorf("second Delete: n=%d err=%v", n, err)
	}
	if _, err := store.GetByID(ctx, g.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func names(gs []models.Group) []string {
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.Name
	}
	return out
}
