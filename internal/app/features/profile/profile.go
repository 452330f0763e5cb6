// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/YinkTech/peerreview/internal/app/features/errors"
	"github.com/YinkTech/peerreview/internal/app/features/shared/views"
	userstore "github.com/YinkTech/peerreview/internal/app/store/users"
	"github.com/YinkTech/peerreview/internal/app/system/authz"
	"github.com/YinkTech/peerreview/internal/app/system/htmlsanitize"
	"github.com/YinkTech/peerreview/internal/app/system/inputval"
	"github.com/YinkTech/peerreview/internal/app/system/normalize"
	"github.com/YinkTech/peerreview/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

// updateInput is the PUT /profile body. Preferences left out of the body
// keep their stored values.
type updateInput struct {
	FullName    string           `json:"full_name" validate:"required,max=200" label:"Full name"`
	Bio         string           `json:"bio" validate:"max=1000" label:"Bio"`
	Preferences *preferenceInput `json:"preferences"`
}

type preferenceInput struct {
	EmailNotifications *bool `json:"email_notifications"`
	DarkMode           *bool `json:"dark_mode"`
}

// ServeProfile returns the signed-in user's profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.Error(w, http.StatusUnauthorized, "Please sign in.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		h.respondLookup(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, views.FromUser(*user))
}

// HandleUpdateProfile updates name, bio and preferences. Email and role
// cannot be changed here.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.Error(w, http.StatusUnauthorized, "Please sign in.")
		return
	}

	var in updateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		uierrors.Error(w, http.StatusBadRequest, "Request body must be JSON.")
		return
	}
	in.FullName = normalize.Name(in.FullName)
	in.Bio = htmlsanitize.PlainText(in.Bio)
	if err := inputval.Validate(in).Err(); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		h.respondLookup(w, r, err)
		return
	}

	prefs := user.Preferences
	if p := in.Preferences; p != nil {
		if p.EmailNotifications != nil {
			prefs.EmailNotifications = *p.EmailNotifications
		}
		if p.DarkMode != nil {
			prefs.DarkMode = *p.DarkMode
		}
	}

	upd := userstore.ProfileUpdate{FullName: in.FullName, Bio: in.Bio, Preferences: prefs}
	if err := h.Users.UpdateProfile(ctx, uid, upd); err != nil {
		h.respondLookup(w, r, err)
		return
	}
	h.AuditLog.ProfileUpdated(ctx, r, uid)

	user.FullName = in.FullName
	user.Bio = in.Bio
	user.Preferences = prefs
	uierrors.WriteJSON(w, http.StatusOK, views.FromUser(*user))
}

func (h *Handler) respondLookup(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.Error(w, http.StatusNotFound, "Profile not found.")
		return
	}
	h.ErrLog.Respond(w, r, err)
}
