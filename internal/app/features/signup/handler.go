// internal/app/features/signup/handler.go
package signup

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	uierrors "github.com/YinkTech/peerreview/internal/app/features/errors"
	"github.com/YinkTech/peerreview/internal/app/features/login"
	"github.com/YinkTech/peerreview/internal/app/features/shared/views"
	"github.com/YinkTech/peerreview/internal/app/system/auditlog"
	"github.com/YinkTech/peerreview/internal/app/system/auth"
	"github.com/YinkTech/peerreview/internal/app/system/inputval"
	"github.com/YinkTech/peerreview/internal/app/system/normalize"
	"github.com/YinkTech/peerreview/internal/app/system/ratelimit"
	"github.com/YinkTech/peerreview/internal/app/system/timeouts"
	"github.com/YinkTech/peerreview/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AccountCreator registers credentials and opens sessions.
type AccountCreator interface {
	CreateAccount(ctx context.Context, email, password string) (primitive.ObjectID, error)
	Authenticate(ctx context.Context, email, password string) (primitive.ObjectID, string, error)
	DeleteAccount(ctx context.Context, userID primitive.ObjectID) error
}

// ProfileCreator inserts the user profile.
type ProfileCreator interface {
	Create(ctx context.Context, u models.User) (models.User, error)
}

type Handler struct {
	Identity   AccountCreator
	Users      ProfileCreator
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.AttemptLimiter
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(id AccountCreator, users ProfileCreator, sm *auth.SessionManager, limiter *ratelimit.AttemptLimiter, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
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

type signupInput struct {
	FullName string `json:"full_name" validate:"required,max=200" label:"Full name"`
	Email    string `json:"email" validate:"required" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
	Role     string `json:"role" validate:"oneof=student teacher" label:"Role"`
}

// HandleSignup serves POST /auth/signup.
//
// The credential is created first and the profile second. If the profile
// insert fails the credential is removed again so the email can be reused.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var in signupInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		uierrors.Error(w, http.StatusBadRequest, "Request body must be JSON.")
		return
	}
	in.FullName = normalize.Name(in.FullName)
	in.Email = normalize.Email(in.Email)
	in.Role = normalize.Role(in.Role)
	if in.Role == "" {
		in.Role = models.RoleStudent
	}
	if err := inputval.Validate(in).Err(); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	if ok, reason, retry := h.Limiter.Check(r, in.Email); !ok {
		if retry > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
		}
		uierrors.Error(w, http.StatusTooManyRequests, reason)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	userID, err := h.Identity.CreateAccount(ctx, in.Email, in.Password)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	profile, err := h.Users.Create(ctx, models.User{
		ID:          userID,
		Email:       in.Email,
		FullName:    in.FullName,
		Role:        in.Role,
		Preferences: models.Preferences{EmailNotifications: true},
	})
	if err != nil {
		h.Log.Error("signup: create profile", zap.String("user_id", userID.Hex()), zap.Error(err))
		if derr := h.Identity.DeleteAccount(ctx, userID); derr != nil {
			h.Log.Error("signup: remove orphaned credential",
				zap.String("user_id", userID.Hex()), zap.Error(derr))
		}
		uierrors.Error(w, http.StatusServiceUnavailable, "Your account could not be created. Please try again.")
		return
	}

	_, token, err := h.Identity.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if err := h.SessionMgr.SaveToken(w, r, token); err != nil {
		h.Log.Error("signup: save session cookie", zap.Error(err))
	}
	h.AuditLog.Signup(ctx, r, userID, in.Email, in.Role)

	uierrors.WriteJSON(w, http.StatusCreated, login.SessionResponse{Token: token, User: views.FromUser(profile)})
}
