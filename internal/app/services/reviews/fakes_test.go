package reviewsvc_test

import (
	"context"
	"sync"

	reviewstore "github.com/YinkTech/peerreview/internal/app/store/reviews"
	"github.com/YinkTech/peerreview/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeReviews struct {
	mu        sync.Mutex
	items     []models.Review
	uniqueDay bool
	err       error // returned by every call when set
	creates   int
}

func (f *fakeReviews) Create(_ context.Context, r models.Review) (models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Review{}, f.err
	}
	if f.uniqueDay {
		for _, e := range f.items {
			if e.ReviewerID == r.ReviewerID && e.ReviewedUserID == r.ReviewedUserID && e.DayKey == r.DayKey {
				return models.Review{}, reviewstore.ErrDuplicateDay
			}
		}
	}
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	f.creates++
	f.items = append(f.items, r)
	return r, nil
}

func (f *fakeReviews) GetByID(_ context.Context, id primitive.ObjectID) (models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Review{}, f.err
	}
	for _, r := range f.items {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Review{}, mongo.ErrNoDocuments
}

func (f *fakeReviews) filter(keep func(models.Review) bool) ([]models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []models.Review{}
	for _, r := range f.items {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReviews) FindByPair(_ context.Context, reviewer, reviewee primitive.ObjectID) ([]models.Review, error) {
	return f.filter(func(r models.Review) bool { return r.ReviewerID == reviewer && r.ReviewedUserID == reviewee })
}

func (f *fakeReviews) FindByGroup(_ context.Context, g primitive.ObjectID) ([]models.Review, error) {
	return f.filter(func(r models.Review) bool { return r.GroupID == g })
}

func (f *fakeReviews) FindByGroupAndReviewee(_ context.Context, g, u primitive.ObjectID) ([]models.Review, error) {
	return f.filter(func(r models.Review) bool { return r.GroupID == g && r.ReviewedUserID == u })
}

func (f *fakeReviews) FindByGroupAndReviewer(_ context.Context, g, u primitive.ObjectID) ([]models.Review, error) {
	return f.filter(func(r models.Review) bool { return r.GroupID == g && r.ReviewerID == u })
}

func (f *fakeReviews) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	for i, r := range f.items {
		if r.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeReviews) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

type fakeUsers struct {
	byID map[primitive.ObjectID]models.User
	err  error
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &u, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	groups []primitive.ObjectID
}

func (n *recordingNotifier) Trigger(g primitive.ObjectID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.groups = append(n.groups, g)
}
