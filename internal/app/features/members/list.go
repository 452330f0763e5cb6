// internal/app/features/members/list.go
package members

import (
	"context"
	"net/http"

	uierrors "github.com/YinkTech/peerreview/internal/app/features/errors"
	"github.com/YinkTech/peerreview/internal/app/features/shared/views"
	userstore "github.com/YinkTech/peerreview/internal/app/store/users"
	"github.com/YinkTech/peerreview/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeList serves GET /students?search=&sort=newest|oldest.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	search := query.Search(r, "search")
	sort := query.Get(r, "sort")
	if sort != userstore.SortOldest {
		sort = userstore.SortNewest
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Service.ListStudents(ctx, search, sort)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"search":   search,
		"sort":     sort,
		"students": views.FromUsers(list),
	})
}

// ServeUnassigned serves GET /students/unassigned. Students still waiting
// for their first assignment are included.
func (h *Handler) ServeUnassigned(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Service.ListUnassigned(ctx)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"students": views.FromUsers(list)})
}
