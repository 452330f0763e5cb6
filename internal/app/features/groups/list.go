// internal/app/features/groups/list.go
package groups

import (
	"context"
	"net/http"

	uierrors "github.com/YinkTech/peerreview/internal/app/features/errors"
	groupstore "github.com/YinkTech/peerreview/internal/app/store/groups"
	"github.com/YinkTech/peerreview/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
)

// recentLimit is how many groups the dashboard's "recent" panel shows.
const recentLimit = 2

// ServeGroupsList serves GET /groups?search=&sort=newest|oldest: the matching
// groups with member counts and averages computed from the current reviews.
func (h *Handler) ServeGroupsList(w http.ResponseWriter, r *http.Request) {
	opts := groupstore.ListOptions{
		Search: query.Search(r, "search"),
		Sort:   query.Get(r, "sort"),
	}
	if opts.Sort != groupstore.SortOldest {
		opts.Sort = groupstore.SortNewest
	}

	out, ok := h.listGroups(w, r, opts)
	if !ok {
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"search": opts.Search,
		"sort":   opts.Sort,
		"groups": out,
	})
}

// ServeRecent serves GET /groups/recent.
func (h *Handler) ServeRecent(w http.ResponseWriter, r *http.Request) {
	out, ok := h.listGroups(w, r, groupstore.ListOptions{Sort: groupstore.SortNewest, Limit: recentLimit})
	if !ok {
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"groups": out})
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request, opts groupstore.ListOptions) (any, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	out, err := h.Service.ListGroups(ctx, opts)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return nil, false
	}
	return out, true
}
