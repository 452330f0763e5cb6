package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/YinkTech/peerreview/internal/app/system/auditlog"
	"github.com/YinkTech/peerreview/internal/app/system/timeouts"
	"github.com/YinkTech/peerreview/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	DefaultSessionName = "peerreview-session"

	tokenKey = "token"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the signed-in user injected into r.Context(). It is
// rebuilt from the stored profile on every request, so role and group
// changes take effect immediately.
type SessionUser struct {
	ID           string
	Name         string
	Email        string
	Role         string
	GroupID      string // empty when unassigned
	GroupPending bool
}

// UserID returns the user's ObjectID, or NilObjectID if malformed.
func (u *SessionUser) UserID() primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// Group returns the user's group ObjectID, or NilObjectID when unassigned.
func (u *SessionUser) Group() primitive.ObjectID {
	if u.GroupID == "" {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(u.GroupID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// IsTeacher reports whether the user has the teacher role.
func (u *SessionUser) IsTeacher() bool { return u.Role == models.RoleTeacher }

// IsStudent reports whether the user has the student role.
func (u *SessionUser) IsStudent() bool { return u.Role == models.RoleStudent }

func sessionUserFrom(m *models.User) *SessionUser {
	u := &SessionUser{
		ID:           m.ID.Hex(),
		Name:         m.DisplayName(),
		Email:        m.Email,
		Role:         m.Role,
		GroupPending: m.GroupPending,
	}
	if m.GroupState() == models.Assigned {
		u.GroupID = m.GroupID.Hex()
	}
	return u
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects u the way LoadSessionUser would. Intended for
// handler tests.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session manager                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// TokenVerifier resolves an access token to the user it was issued to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (primitive.ObjectID, error)
}

// UserLoader loads profiles for verified users.
type UserLoader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// SessionManager carries the access token in a signed cookie (browsers) or
// the Authorization header (API clients) and resolves it to a SessionUser.
type SessionManager struct {
	store    *sessions.CookieStore
	name     string
	log      *zap.Logger
	verifier TokenVerifier
	users    UserLoader
}

// NewSessionManager creates a SessionManager. The `secure` flag controls
// whether cookies are marked Secure and which SameSite mode is used.
//
// In production (secure=true), cookies are Secure + SameSite=None.
// In local dev over http://localhost, use secure=false so cookies are accepted.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = DefaultSessionName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("max_age", maxAge))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// WithIdentity attaches the token verifier and profile loader used by
// LoadSessionUser.
func (sm *SessionManager) WithIdentity(v TokenVerifier, users UserLoader) *SessionManager {
	sm.verifier = v
	sm.users = users
	return sm
}

// Name returns the cookie name.
func (sm *SessionManager) Name() string { return sm.name }

// SaveToken stores token in the session cookie.
func (sm *SessionManager) SaveToken(w http.ResponseWriter, r *http.Request, token string) error {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		// Get still returns a fresh session alongside the error.
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			sm.log.Warn("session cookie invalid, using fresh session", zap.Error(err))
		} else {
			sm.log.Error("session store error, using fresh session", zap.Error(err))
		}
	}
	sess.Values[tokenKey] = token
	return sess.Save(r, w)
}

// ClearToken expires the session cookie.
func (sm *SessionManager) ClearToken(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	delete(sess.Values, tokenKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// TokenFrom returns the request's access token: an Authorization bearer
// token if present, otherwise the cookie value.
func (sm *SessionManager) TokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		return ""
	}
	tok, _ := sess.Values[tokenKey].(string)
	return tok
}

// LoadSessionUser injects the user into context if the request carries a
// valid token for an existing profile. Invalid tokens are treated as
// signed out.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sm.verifier == nil || sm.users == nil {
			next.ServeHTTP(w, r)
			return
		}
		tok := sm.TokenFrom(r)
		if tok == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()

		userID, err := sm.verifier.Verify(ctx, tok)
		if err != nil {
			sm.log.Debug("ignoring invalid access token", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		profile, err := sm.users.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				sm.log.Info("token for missing profile", zap.String("user_id", userID.Hex()))
				next.ServeHTTP(w, r)
				return
			}
			sm.log.Error("load session user failed", zap.Error(err), zap.String("user_id", userID.Hex()))
			WriteError(w, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.")
			return
		}

		next.ServeHTTP(w, withUser(r, sessionUserFrom(profile)))
	})
}

// RequireSignedIn responds 401 unless a user is in context.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			WriteError(w, http.StatusUnauthorized, "Please sign in.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole responds 401 when signed out and 403 when the user's role is
// not one of allowed.
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				WriteError(w, http.StatusUnauthorized, "Please sign in.")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				WriteError(w, http.StatusForbidden, "You do not have access to this page.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteError writes {"error": msg} with status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	ctx := context.WithValue(r.Context(), currentUserKey, u)
	if oid := u.UserID(); !oid.IsZero() {
		ctx = auditlog.WithActor(ctx, oid)
	}
	return r.WithContext(ctx)
}
