// internal/app/features/dashboard/teacher.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/YinkTech/peerreview/internal/app/features/errors"
	metricsstore "github.com/YinkTech/peerreview/internal/app/store/metrics"
	"github.com/YinkTech/peerreview/internal/app/system/authz"
	"github.com/YinkTech/peerreview/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type teacherData struct {
	Role     string              `json:"role"`
	UserName string              `json:"user_name"`
	Day      string              `json:"day"`
	Counts   metricsstore.Counts `json:"counts"`
}

func (h *Handler) ServeTeacher(w http.ResponseWriter, r *http.Request) {
	role, uname, _, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	now := h.now().In(h.Loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.Loc)

	data := teacherData{
		Role:     role,
		UserName: uname,
		Day:      now.Format("2006-01-02"),
		Counts:   h.Counts(ctx, midnight),
	}

	h.Log.Debug("teacher dashboard served", zap.String("user", uname))

	uierrors.WriteJSON(w, http.StatusOK, data)
}
