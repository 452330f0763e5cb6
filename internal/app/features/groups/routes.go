// internal/app/features/groups/routes.go
package groups

import (
	"github.com/YinkTech/peerreview/internal/app/system/auth"
	"github.com/YinkTech/peerreview/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the teacher group routes. Callers may add further routes
// to the returned router before mounting it at /groups.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleTeacher))

		// LIST
		pr.Get("/", h.ServeGroupsList)
		pr.Get("/recent", h.ServeRecent)

		// CREATE
		pr.Post("/", h.HandleCreateGroup)

		// VIEW
		pr.Get("/{id}", h.ServeGroupView)

		// DELETE
		pr.Delete("/{id}", h.HandleDeleteGroup)

		// AVERAGES
		pr.Post("/{id}/recompute", h.HandleRecompute)
	})

	return r
}
