// internal/app/features/reviews/student.go
package reviews

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/YinkTech/peerreview/internal/app/features/errors"
	"github.com/YinkTech/peerreview/internal/app/features/shared/views"
	reviewsvc "github.com/YinkTech/peerreview/internal/app/services/reviews"
	"github.com/YinkTech/peerreview/internal/app/system/auth"
	"github.com/YinkTech/peerreview/internal/app/system/authz"
	"github.com/YinkTech/peerreview/internal/app/system/timeouts"
	"github.com/YinkTech/peerreview/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type submitResponse struct {
	Review        models.Review        `json:"review"`
	ReviewedToday []primitive.ObjectID `json:"reviewed_today"`
}

// anonymousReview hides who wrote a review.
type anonymousReview struct {
	models.Review
	ReviewerID   *struct{} `json:"reviewer_id,omitempty"`
	ReviewerName *struct{} `json:"reviewer_name,omitempty"`
}

type teammate struct {
	views.Member
	ReviewedToday bool `json:"reviewed_today"`
}

// HandleSubmit serves POST /reviews.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var in reviewsvc.SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		uierrors.Error(w, http.StatusBadRequest, "Request body must be JSON.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sess, err := h.Reviews.LoadSession(ctx, reviewer(u))
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	rev, err := h.Reviews.SubmitReview(ctx, sess, in)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, submitResponse{Review: rev, ReviewedToday: sess.ReviewedToday()})
}

// ServeToday serves GET /reviews/today: the teammates the caller already
// reviewed today.
func (h *Handler) ServeToday(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ids, err := h.Reviews.ReviewedToday(ctx, u.UserID(), u.Group())
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"reviewed_today": ids})
}

// ServeMine serves GET /reviews/mine, newest first.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	out, err := h.Reviews.GetReviewsByUser(ctx, u.UserID(), u.Group())
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"reviews": out})
}

// ServeAboutMe serves GET /reviews/about-me with reviewer identity removed.
func (h *Handler) ServeAboutMe(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Reviews.GetUserReviews(ctx, u.UserID(), u.Group())
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	reviewsvc.SortNewestFirst(list)
	out := make([]anonymousReview, 0, len(list))
	for _, rev := range list {
		rev.ReviewerID = primitive.NilObjectID
		rev.ReviewerName = ""
		out = append(out, anonymousReview{Review: rev})
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"reviews": out})
}

// ServeSummary serves GET /reviews/summary: aggregates over the reviews
// about the caller in their current group.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Reviews.GetUserReviews(ctx, u.UserID(), u.Group())
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, reviewsvc.ComputeUserAggregates(list))
}

// ServeTeammates serves GET /groups/mine/teammates: everyone else in the
// caller's group, flagged when already reviewed today.
func (h *Handler) ServeTeammates(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	out := []teammate{}

	gid, ok := authz.StudentGroup(r)
	if !ok {
		uierrors.WriteJSON(w, http.StatusOK, map[string]any{"group_state": groupState(u), "teammates": out})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	members, err := h.Members.ListByGroup(ctx, gid)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	done, err := h.Reviews.ReviewedToday(ctx, u.UserID(), gid)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	reviewed := make(map[primitive.ObjectID]bool, len(done))
	for _, id := range done {
		reviewed[id] = true
	}

	self := u.UserID()
	for _, m := range members {
		if m.ID == self {
			continue
		}
		out = append(out, teammate{Member: views.FromMember(m), ReviewedToday: reviewed[m.ID]})
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"group_id":    gid.Hex(),
		"group_state": groupState(u),
		"teammates":   out,
	})
}

func groupState(u *auth.SessionUser) string {
	return reviewer(u).GroupState().String()
}
