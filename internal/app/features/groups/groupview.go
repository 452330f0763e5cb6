// internal/app/features/groups/groupview.go
package groups

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/YinkTech/peerreview/internal/app/features/errors"
	"github.com/YinkTech/peerreview/internal/app/features/shared/views"
	"github.com/YinkTech/peerreview/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeGroupView serves GET /groups/{id}: the group and its members.
func (h *Handler) ServeGroupView(w http.ResponseWriter, r *http.Request) {
	gid, ok := groupID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.Groups.GetByID(ctx, gid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			uierrors.Error(w, http.StatusNotFound, "Group not found.")
			return
		}
		h.ErrLog.Respond(w, r, err)
		return
	}
	members, err := h.Service.ListMembers(ctx, gid)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	out := make([]views.Member, 0, len(members))
	for _, m := range members {
		out = append(out, views.FromMember(m))
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"group": g, "members": out})
}
