package groupsvc_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	groupstore "github.com/YinkTech/peerreview/internal/app/store/groups"
	"github.com/YinkTech/peerreview/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var errBoom = errors.New("boom")

type fakeGroups struct {
	mu        sync.Mutex
	items     map[primitive.ObjectID]models.Group
	deleteErr error
	listErr   error
}

func newFakeGroups() *fakeGroups {
	return &fakeGroups{items: map[primitive.ObjectID]models.Group{}}
}

func (f *fakeGroups) Create(_ context.Context, g models.Group) (models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g.ID = primitive.NewObjectID()
	g.CreatedAt = time.Now().UTC()
	f.items[g.ID] = g
	return g, nil
}

func (f *fakeGroups) GetByID(_ context.Context, id primitive.ObjectID) (models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.items[id]
	if !ok {
		return models.Group{}, mongo.ErrNoDocuments
	}
	return g, nil
}

func (f *fakeGroups) Exists(_ context.Context, id primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.items[id]
	return ok, nil
}

func (f *fakeGroups) List(_ context.Context, opts groupstore.ListOptions) ([]models.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Group, 0, len(f.items))
	for _, g := range f.items {
		if strings.Contains(strings.ToLower(g.Name), strings.ToLower(opts.Search)) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if opts.Sort == groupstore.SortOldest {
			return out[i].ID.Hex() < out[j].ID.Hex()
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	if opts.Limit > 0 && int64(len(out)) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f *fakeGroups) ListIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	gs, err := f.List(ctx, groupstore.ListOptions{})
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(gs))
	for i, g := range gs {
		ids[i] = g.ID
	}
	return ids, nil
}

func (f *fakeGroups) SetAverages(_ context.Context, id primitive.ObjectID, avg models.RubricAverages, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.items[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	g.Averages = avg
	g.AveragesUpdatedAt = &at
	f.items[id] = g
	return nil
}

func (f *fakeGroups) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	if _, ok := f.items[id]; !ok {
		return 0, nil
	}
	delete(f.items, id)
	return 1, nil
}

type fakeUsers struct {
	mu        sync.Mutex
	items     map[primitive.ObjectID]models.User
	setCalls  int
	failSetAt int // SetGroup fails on this call number (1-based) when > 0
	deleteErr error
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{items: map[primitive.ObjectID]models.User{}}
	for _, u := range users {
		f.items[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.items[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &u, nil
}

func (f *fakeUsers) matching(keep func(models.User) bool) []models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, u := range f.items {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

func (f *fakeUsers) ListByGroup(_ context.Context, groupID primitive.ObjectID) ([]models.User, error) {
	return f.matching(func(u models.User) bool { return u.InGroup(groupID) }), nil
}

func (f *fakeUsers) ListStudents(_ context.Context, _, _ string) ([]models.User, error) {
	return f.matching(func(u models.User) bool { return u.Role == models.RoleStudent }), nil
}

func (f *fakeUsers) ListUnassigned(_ context.Context) ([]models.User, error) {
	return f.matching(func(u models.User) bool {
		return u.Role == models.RoleStudent && u.GroupState() != models.Assigned
	}), nil
}

func (f *fakeUsers) MemberCounts(_ context.Context) (map[primitive.ObjectID]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[primitive.ObjectID]int{}
	for _, u := range f.items {
		if u.GroupID != nil {
			out[*u.GroupID]++
		}
	}
	return out, nil
}

func (f *fakeUsers) SetGroup(_ context.Context, id primitive.ObjectID, groupID *primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.failSetAt > 0 && f.setCalls == f.failSetAt {
		return errBoom
	}
	u, ok := f.items[id]
	if !ok || u.Role != models.RoleStudent {
		return mongo.ErrNoDocuments
	}
	u.GroupID = groupID
	u.GroupPending = false
	f.items[id] = u
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	if _, ok := f.items[id]; !ok {
		return 0, nil
	}
	delete(f.items, id)
	return 1, nil
}

type fakeReviews struct {
	mu        sync.Mutex
	items     []models.Review
	deleteErr error
}

func (f *fakeReviews) FindByGroup(_ context.Context, groupID primitive.ObjectID) ([]models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Review{}
	for _, r := range f.items {
		if r.GroupID == groupID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReviews) DeleteByReviewer(_ context.Context, reviewerID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	kept := f.items[:0]
	var n int64
	for _, r := range f.items {
		if r.ReviewerID == reviewerID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	f.items = kept
	return n, nil
}

type fakeIdentity struct {
	deleted []primitive.ObjectID
	err     error
}

func (f *fakeIdentity) DeleteAccount(_ context.Context, userID primitive.ObjectID) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, userID)
	return nil
}
