// internal/app/features/logout/handler.go
package logout

import (
	"context"
	"net/http"

	uierrors "github.com/YinkTech/peerreview/internal/app/features/errors"
	"github.com/YinkTech/peerreview/internal/app/system/auditlog"
	"github.com/YinkTech/peerreview/internal/app/system/auth"
	"github.com/YinkTech/peerreview/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// SessionEnder invalidates an identity session token.
type SessionEnder interface {
	EndSession(ctx context.Context, token string) error
}

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Identity   SessionEnder
	AuditLog   *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, id SessionEnder, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		Identity:   id,
		AuditLog:   audit,
	}
}

// ServeLogout handles POST /auth/logout.
//
// The cookie is cleared even when the identity session cannot be closed;
// the token then stays valid only until it expires.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	token := h.SessionMgr.TokenFrom(r)
	if token != "" && h.Identity != nil {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		if err := h.Identity.EndSession(ctx, token); err != nil {
			h.Log.Warn("logout: end identity session", zap.Error(err))
		}
	}

	if err := h.SessionMgr.ClearToken(w, r); err != nil {
		h.Log.Error("logout: clear session cookie", zap.Error(err))
	}

	var userID string
	if u, ok := auth.CurrentUser(r); ok {
		userID = u.ID
	}
	h.AuditLog.Logout(r.Context(), r, userID)

	uierrors.WriteJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}
