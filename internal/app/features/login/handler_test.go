package login_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/YinkTech/peerreview/internal/app/features/errors"
	"github.com/YinkTech/peerreview/internal/app/features/login"
	"github.com/YinkTech/peerreview/internal/app/system/auth"
	"github.com/YinkTech/peerreview/internal/app/system/identity"
	"github.com/YinkTech/peerreview/internal/app/system/ratelimit"
	"github.com/YinkTech/peerreview/internal/domain/models"
	"github.com/YinkTech/peerreview/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fakeAuth struct {
	email, password string
	userID          primitive.ObjectID
	calls           int
}

func (f *fakeAuth) Authenticate(_ context.Context, email, password string) (primitive.ObjectID, string, error) {
	f.calls++
	if email != f.email || password != f.password {
		return primitive.NilObjectID, "", identity.ErrInvalidCredentials
	}
	return f.userID, "signed-token", nil
}

type fakeUsers map[primitive.ObjectID]models.User

func (f fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &u, nil
}

func newHandler(t *testing.T, limiter *ratelimit.AttemptLimiter) (*login.Handler, *fakeAuth, models.User) {
	t.Helper()
	u := models.User{ID: primitive.NewObjectID(), Email: "ada@example.com", FullName: "Ada", Role: models.RoleStudent, GroupPending: true}
	fa := &fakeAuth{email: u.Email, password: "secret1", userID: u.ID}
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	h := login.NewHandler(fa, fakeUsers{u.ID: u}, sm, limiter, errors.NewErrorLogger(zap.NewNop()), nil, zap.NewNop())
	return h, fa, u
}

func TestHandleLogin_Success(t *testing.T) {
	h, _, u := newHandler(t, nil)

	rec := testutil.NewRecorder()
	req := testutil.NewJSONRequest("POST", "/auth/login", map[string]string{"email": " ADA@example.com ", "password": "secret1"})
	r := chi.NewRouter()
	r.Mount("/auth/login", login.Routes(h))
	r.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	var resp login.SessionResponse
	rec.DecodeJSON(t, &resp)
	if resp.Token != "signed-token" || resp.User.ID != u.ID.Hex() || resp.User.GroupState != "pending" {
		t.Errorf("response = %+v", resp)
	}

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			found = true
		}
	}
	if !found {
		t.Error("expected session cookie")
	}
}

func TestHandleLogin_Errors(t *testing.T) {
	tests := []struct {
		name string
		body any
		want int
	}{
		{"wrong password", map[string]string{"email": "ada@example.com", "password": "nope"}, http.StatusUnauthorized},
		{"unknown email", map[string]string{"email": "bob@example.com", "password": "secret1"}, http.StatusUnauthorized},
		{"missing password", map[string]string{"email": "ada@example.com"}, http.StatusBadRequest},
		{"not json", "plain", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newHandler(t, nil)
			rec := testutil.NewRecorder()
			h.HandleLogin(rec, testutil.NewJSONRequest("POST", "/auth/login", tt.body))
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestHandleLogin_SameMessageForUnknownAndWrong(t *testing.T) {
	h, _, _ := newHandler(t, nil)
	msgs := map[string]bool{}
	for _, body := range []map[string]string{
		{"email": "ada@example.com", "password": "nope"},
		{"email": "bob@example.com", "password": "secret1"},
	} {
		rec := testutil.NewRecorder()
		h.HandleLogin(rec, testutil.NewJSONRequest("POST", "/auth/login", body))
		var resp errors.Body
		rec.DecodeJSON(t, &resp)
		msgs[resp.Error] = true
	}
	if len(msgs) != 1 {
		t.Errorf("distinct failure messages = %v, want exactly one", msgs)
	}
}

func TestHandleLogin_RateLimited(t *testing.T) {
	h, fa, _ := newHandler(t, ratelimit.NewAttemptLimiterWithConfig(100, time.Minute, 2, time.Minute))
	body := map[string]string{"email": "ada@example.com", "password": "nope"}

	for i := 0; i < 2; i++ {
		rec := testutil.NewRecorder()
		h.HandleLogin(rec, testutil.NewJSONRequest("POST", "/auth/login", body))
		rec.AssertStatus(t, http.StatusUnauthorized)
	}
	rec := testutil.NewRecorder()
	h.HandleLogin(rec, testutil.NewJSONRequest("POST", "/auth/login", body))
	rec.AssertStatus(t, http.StatusTooManyRequests)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if fa.calls != 2 {
		t.Errorf("Authenticate calls = %d, want 2", fa.calls)
	}
}
