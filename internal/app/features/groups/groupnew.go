// internal/app/features/groups/groupnew.go
package groups

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/YinkTech/peerreview/internal/app/features/errors"
	"github.com/YinkTech/peerreview/internal/app/system/timeouts"
)

type createInput struct {
	Name string `json:"name"`
}

// HandleCreateGroup serves POST /groups. The response is the stored group.
func (h *Handler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		uierrors.Error(w, http.StatusBadRequest, "Request body must be JSON.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := h.Service.CreateGroup(ctx, in.Name)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, g)
}
