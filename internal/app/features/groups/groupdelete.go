// internal/app/features/groups/groupdelete.go
package groups

import (
	"context"
	"net/http"

	uierrors "github.com/YinkTech/peerreview/internal/app/features/errors"
	"github.com/YinkTech/peerreview/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleDeleteGroup serves DELETE /groups/{id}. Members are moved to
// unassigned before the group record is removed; their reviews stay.
func (h *Handler) HandleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	gid, ok := groupID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Service.DeleteGroup(ctx, gid)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"deleted":    res.Group.ID,
		"name":       res.Group.Name,
		"unassigned": res.Unassigned,
	})
}

// HandleRecompute serves POST /groups/{id}/recompute: refreshes the cached
// averages from the group's reviews now.
func (h *Handler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	gid, ok := groupID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	avg, err := h.Service.RecomputeAverages(ctx, gid)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"group_id": gid, "averages": avg})
}

func groupID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	gid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.Error(w, http.StatusBadRequest, "Group id is invalid.")
		return primitive.NilObjectID, false
	}
	return gid, true
}
