// internal/app/features/reviews/teacher.go
package reviews

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	uierrors "github.com/YinkTech/peerreview/internal/app/features/errors"
	reviewsvc "github.com/YinkTech/peerreview/internal/app/services/reviews"
	"github.com/YinkTech/peerreview/internal/app/system/csvutil"
	"github.com/YinkTech/peerreview/internal/app/system/timeouts"
	"github.com/YinkTech/peerreview/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// loadGroup resolves the {id} URL parameter. It writes the error response
// and returns false when the group cannot be used.
func (h *Handler) loadGroup(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Group, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.Error(w, http.StatusBadRequest, "Group id is invalid.")
		return models.Group{}, false
	}
	g, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			uierrors.Error(w, http.StatusNotFound, "Group not found.")
			return models.Group{}, false
		}
		h.Log.Error("load group", zap.String("group_id", id.Hex()), zap.Error(err))
		uierrors.Error(w, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.")
		return models.Group{}, false
	}
	return g, true
}

// ServeGroupReviews serves GET /groups/{id}/reviews, newest first.
func (h *Handler) ServeGroupReviews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, ok := h.loadGroup(ctx, w, r)
	if !ok {
		return
	}
	list, err := h.Reviews.GetGroupReviews(ctx, g.ID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	reviewsvc.SortNewestFirst(list)
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"group":    g,
		"averages": reviewsvc.ComputeGroupAverages(list),
		"reviews":  list,
	})
}

// HandleDelete serves DELETE /reviews/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.Error(w, http.StatusBadRequest, "Review id is invalid.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rev, err := h.Reviews.DeleteReview(ctx, id)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	h.AuditLog.ReviewDeleted(ctx, rev.ID, rev.GroupID)
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"deleted": rev.ID})
}

// ServeGroupCSV serves GET /groups/{id}/reviews.csv.
//
// The file is rendered into memory first so a failure part way through
// still produces a JSON error instead of a truncated download.
func (h *Handler) ServeGroupCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	g, ok := h.loadGroup(ctx, w, r)
	if !ok {
		return
	}
	list, err := h.Reviews.GetGroupReviews(ctx, g.ID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	reviewsvc.SortNewestFirst(list)

	members, err := h.Members.ListByGroup(ctx, g.ID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	names := make(map[primitive.ObjectID]string, len(members))
	for _, m := range members {
		names[m.ID] = m.DisplayName()
	}

	var buf bytes.Buffer
	if err := csvutil.WriteReviews(&buf, list, names, h.Loc); err != nil {
		if errors.Is(err, csvutil.ErrTooManyRows) {
			uierrors.Error(w, http.StatusRequestEntityTooLarge, "Too many reviews to export at once.")
			return
		}
		h.Log.Error("write review csv", zap.String("group_id", g.ID.Hex()), zap.Error(err))
		uierrors.Error(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+csvutil.ExportFilename(g.Name, h.now().In(h.Loc))+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
