// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	uierrors "github.com/YinkTech/peerreview/internal/app/features/errors"
	"github.com/YinkTech/peerreview/internal/app/features/shared/views"
	"github.com/YinkTech/peerreview/internal/app/system/auditlog"
	"github.com/YinkTech/peerreview/internal/app/system/auth"
	"github.com/YinkTech/peerreview/internal/app/system/identity"
	"github.com/YinkTech/peerreview/internal/app/system/inputval"
	"github.com/YinkTech/peerreview/internal/app/system/normalize"
	"github.com/YinkTech/peerreview/internal/app/system/ratelimit"
	"github.com/YinkTech/peerreview/internal/app/system/timeouts"
	"github.com/YinkTech/peerreview/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Authenticator checks credentials and opens a session.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (primitive.ObjectID, string, error)
}

// ProfileReader loads the signed-in user's profile.
type ProfileReader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type Handler struct {
	Identity   Authenticator
	Users      ProfileReader
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.AttemptLimiter
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(id Authenticator, users ProfileReader, sm *auth.SessionManager, limiter *ratelimit.AttemptLimiter, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	if limiter == nil {
		limiter = ratelimit.NewAttemptLimiter()
	}
	return &Handler{
		Identity:   id,
		Users:      users,
		SessionMgr: sm,
		Limiter:    limiter,
		ErrLog:     errLog,
		AuditLog:   audit,
		Log:        logger,
	}
}

type loginInput struct {
	Email    string `json:"email" validate:"required" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// SessionResponse is returned by login and signup.
type SessionResponse struct {
	Token string     `json:"token"`
	User  views.User `json:"user"`
}

// HandleLogin serves POST /auth/login.
//
// A successful login sets the session cookie and also returns the token for
// API clients. Unknown email and wrong password are reported identically.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		uierrors.Error(w, http.StatusBadRequest, "Request body must be JSON.")
		return
	}
	in.Email = normalize.Email(in.Email)
	if err := inputval.Validate(in).Err(); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	if ok, reason, retry := h.Limiter.Check(r, in.Email); !ok {
		h.AuditLog.LoginFailed(r.Context(), r, in.Email, "rate_limited")
		if retry > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
		}
		uierrors.Error(w, http.StatusTooManyRequests, reason)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	userID, token, err := h.Identity.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			h.AuditLog.LoginFailed(ctx, r, in.Email, "invalid_credentials")
		}
		h.ErrLog.Respond(w, r, err)
		return
	}

	profile, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.Log.Error("login: profile missing for authenticated account",
			zap.String("user_id", userID.Hex()), zap.Error(err))
		uierrors.Error(w, http.StatusServiceUnavailable, "Your profile could not be loaded. Please try again.")
		return
	}

	if err := h.SessionMgr.SaveToken(w, r, token); err != nil {
		h.Log.Error("login: save session cookie", zap.Error(err))
	}
	h.Limiter.ResetEmail(in.Email)
	h.AuditLog.LoginSuccess(ctx, r, userID, in.Email)

	uierrors.WriteJSON(w, http.StatusOK, SessionResponse{Token: token, User: views.FromUser(*profile)})
}
