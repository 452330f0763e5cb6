// internal/app/features/dashboard/student.go
package dashboard

import (
	"net/http"

	uierrors "github.com/YinkTech/peerreview/internal/app/features/errors"
	"github.com/YinkTech/peerreview/internal/app/system/auth"
	"github.com/YinkTech/peerreview/internal/app/system/authz"
	"go.uber.org/zap"
)

type studentData struct {
	Role       string `json:"role"`
	UserName   string `json:"user_name"`
	GroupID    string `json:"group_id,omitempty"`
	GroupState string `json:"group_state"`
}

// ServeStudent reports the student's group state so clients can decide
// whether to show the review form or the waiting notice.
func (h *Handler) ServeStudent(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	data := studentData{Role: u.Role, UserName: u.Name, GroupState: "unassigned"}
	if gid, ok := authz.StudentGroup(r); ok {
		data.GroupID = gid.Hex()
		data.GroupState = "assigned"
	} else if u.GroupPending {
		data.GroupState = "pending"
	}

	h.Log.Debug("student dashboard served", zap.String("user", u.Name))

	uierrors.WriteJSON(w, http.StatusOK, data)
}
