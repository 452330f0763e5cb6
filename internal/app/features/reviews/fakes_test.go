package reviews_test

import (
	"context"
	"sync"

	"github.com/YinkTech/peerreview/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type memReviews struct {
	mu    sync.Mutex
	items []models.Review
}

func (m *memReviews) Create(_ context.Context, r models.Review) (models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	m.items = append(m.items, r)
	return r, nil
}

func (m *memReviews) GetByID(_ context.Context, id primitive.ObjectID) (models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Review{}, mongo.ErrNoDocuments
}

func (m *memReviews) filter(keep func(models.Review) bool) ([]models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Review{}
	for _, r := range m.items {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReviews) FindByPair(_ context.Context, reviewer, reviewee primitive.ObjectID) ([]models.Review, error) {
	return m.filter(func(r models.Review) bool { return r.ReviewerID == reviewer && r.ReviewedUserID == reviewee })
}

func (m *memReviews) FindByGroup(_ context.Context, g primitive.ObjectID) ([]models.Review, error) {
	return m.filter(func(r models.Review) bool { return r.GroupID == g })
}

func (m *memReviews) FindByGroupAndReviewee(_ context.Context, g, u primitive.ObjectID) ([]models.Review, error) {
	return m.filter(func(r models.Review) bool { return r.GroupID == g && r.ReviewedUserID == u })
}

func (m *memReviews) FindByGroupAndReviewer(_ context.Context, g, u primitive.ObjectID) ([]models.Review, error) {
	return m.filter(func(r models.Review) bool { return r.GroupID == g && r.ReviewerID == u })
}

func (m *memReviews) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.items {
		if r.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type memUsers map[primitive.ObjectID]models.User

func (m memUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &u, nil
}

func (m memUsers) ListByGroup(_ context.Context, g primitive.ObjectID) ([]models.User, error) {
	out := []models.User{}
	for _, u := range m {
		if u.InGroup(g) {
			out = append(out, u)
		}
	}
	return out, nil
}

type memGroups map[primitive.ObjectID]models.Group

func (m memGroups) GetByID(_ context.Context, id primitive.ObjectID) (models.Group, error) {
	g, ok := m[id]
	if !ok {
		return models.Group{}, mongo.ErrNoDocuments
	}
	return g, nil
}
