// internal/app/features/shared/views/views.go
package views

import (
	"time"

	"github.com/YinkTech/peerreview/internal/domain/models"
)

// User is the JSON shape of a profile.
type User struct {
	ID          string             `json:"id"`
	Email       string             `json:"email"`
	FullName    string             `json:"full_name"`
	Bio         string             `json:"bio,omitempty"`
	Role        string             `json:"role"`
	GroupID     string             `json:"group_id,omitempty"`
	GroupState  string             `json:"group_state,omitempty"`
	Preferences models.Preferences `json:"preferences"`
	CreatedAt   time.Time          `json:"created_at"`
}

// FromUser converts a stored profile. Group fields are set for students only.
func FromUser(u models.User) User {
	v := User{
		ID:          u.ID.Hex(),
		Email:       u.Email,
		FullName:    u.FullName,
		Bio:         u.Bio,
		Role:        u.Role,
		Preferences: u.Preferences,
		CreatedAt:   u.CreatedAt,
	}
	if u.Role == models.RoleStudent {
		v.GroupState = u.GroupState().String()
		if u.GroupState() == models.Assigned {
			v.GroupID = u.GroupID.Hex()
		}
	}
	return v
}

// FromUsers converts a list, never returning nil.
func FromUsers(us []models.User) []User {
	out := make([]User, 0, len(us))
	for _, u := range us {
		out = append(out, FromUser(u))
	}
	return out
}

// Member is the short form used in teammate and member lists.
type Member struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// FromMember converts a stored profile to a Member.
func FromMember(u models.User) Member {
	return Member{ID: u.ID.Hex(), FullName: u.DisplayName(), Email: u.Email}
}
