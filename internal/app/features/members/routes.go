// internal/app/features/members/routes.go
package members

import (
	"github.com/YinkTech/peerreview/internal/app/system/auth"
	"github.com/YinkTech/peerreview/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all student routes under the path where the caller mounts it.
// Typically: r.Mount("/students", members.Routes(handler, sm))
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleTeacher))

		pr.Get("/", h.ServeList)
		pr.Get("/unassigned", h.ServeUnassigned)
		pr.Post("/{id}/assign", h.HandleAssign)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}
