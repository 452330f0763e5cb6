// internal/app/features/reviews/routes.go
package reviews

import (
	"github.com/YinkTech/peerreview/internal/app/system/auth"
	"github.com/YinkTech/peerreview/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes serves /reviews.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(sr chi.Router) {
		sr.Use(sm.RequireRole(models.RoleStudent))
		sr.Post("/", h.HandleSubmit)
		sr.Get("/today", h.ServeToday)
		sr.Get("/mine", h.ServeMine)
		sr.Get("/about-me", h.ServeAboutMe)
		sr.Get("/summary", h.ServeSummary)
	})

	r.Group(func(tr chi.Router) {
		tr.Use(sm.RequireRole(models.RoleTeacher))
		tr.Delete("/{id}", h.HandleDelete)
	})

	return r
}

// GroupRoutes adds the review endpoints that live under /groups to r.
func GroupRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Group(func(sr chi.Router) {
		sr.Use(sm.RequireRole(models.RoleStudent))
		sr.Get("/mine/teammates", h.ServeTeammates)
	})

	r.Group(func(tr chi.Router) {
		tr.Use(sm.RequireRole(models.RoleTeacher))
		tr.Get("/{id}/reviews", h.ServeGroupReviews)
		tr.Get("/{id}/reviews.csv", h.ServeGroupCSV)
	})
}
