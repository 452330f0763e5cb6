// internal/app/features/members/manage.go
package members

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/YinkTech/peerreview/internal/app/features/errors"
	groupsvc "github.com/YinkTech/peerreview/internal/app/services/groups"
	"github.com/YinkTech/peerreview/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type assignInput struct {
	Group string `json:"group"`
}

// HandleAssign serves POST /students/{id}/assign with {"group": "<id>"} or
// {"group": "unassigned"}.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	sid, ok := studentID(w, r)
	if !ok {
		return
	}
	var in assignInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		uierrors.Error(w, http.StatusBadRequest, "Request body must be JSON.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Service.AssignStudent(ctx, sid, in.Group); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"student_id": sid, "group": in.Group})
}

// HandleDelete serves DELETE /students/{id}.
//
// When only the login account could not be removed the student is gone
// from the roster, so the response is 200 with a warning describing the
// leftover account.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sid, ok := studentID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Service.DeleteStudent(ctx, sid)
	body := map[string]any{
		"deleted":         sid,
		"reviews_deleted": res.ReviewsDeleted,
	}
	if err != nil {
		var ce *groupsvc.CascadeError
		if !errors.As(err, &ce) || ce.Stage != groupsvc.StageDeleteIdentity {
			h.ErrLog.Respond(w, r, err)
			return
		}
		h.Log.Warn("student deleted but login account remains",
			zap.String("student_id", sid.Hex()), zap.Error(ce.Err))
		body["warning"] = "The student was removed, but their login account could not be deleted."
		body["detail"] = uierrors.CascadeDetail(ce)
	}
	uierrors.WriteJSON(w, http.StatusOK, body)
}

func studentID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	sid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.Error(w, http.StatusBadRequest, "Student id is invalid.")
		return primitive.NilObjectID, false
	}
	return sid, true
}
