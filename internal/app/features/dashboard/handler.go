// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/YinkTech/peerreview/internal/app/features/errors"
	metricsstore "github.com/YinkTech/peerreview/internal/app/store/metrics"
	"github.com/YinkTech/peerreview/internal/app/system/authz"
	"go.uber.org/zap"
)

// CountFetcher returns the dashboard totals; ReviewsToday counts reviews
// submitted at or after since.
type CountFetcher func(ctx context.Context, since time.Time) metricsstore.Counts

type Handler struct {
	Counts CountFetcher
	Loc    *time.Location
	Log    *zap.Logger

	now func() time.Time
}

func NewHandler(counts CountFetcher, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		Counts: counts,
		Loc:    loc,
		Log:    logger,
		now:    time.Now,
	}
}

// ServeDashboard dispatches to the role-specific dashboard.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	role, ok := authz.Role(r)
	if !ok {
		uierrors.Error(w, http.StatusUnauthorized, "Please sign in.")
		return
	}

	switch {
	case authz.IsTeacher(r):
		h.ServeTeacher(w, r)
	case authz.IsStudent(r):
		h.ServeStudent(w, r)
	default:
		h.Log.Warn("dashboard requested with unknown role", zap.String("role", role))
		uierrors.Error(w, http.StatusForbidden, "You do not have access to this page.")
	}
}
