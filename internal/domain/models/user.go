// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles. A user's role is fixed at signup.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// Preferences are per-user UI settings persisted on the profile.
type Preferences struct {
	EmailNotifications bool `bson:"email_notifications" json:"email_notifications"`
	DarkMode           bool `bson:"dark_mode" json:"dark_mode"`
}

// User is the profile record for students and teachers.
//
// NOTE:
//   - GroupID is the authoritative group membership. Groups do not embed
//     member lists; membership is derived by querying users.group_id.
//   - GroupPending marks a brand-new signup that has never been assigned.
//     It gates exactly like an unassigned user and is cleared on the first
//     assignment.
type User struct {
	ID           primitive.ObjectID  `bson:"_id" json:"id"`
	Email        string              `bson:"email" json:"email"`
	FullName     string              `bson:"full_name" json:"full_name"`
	FullNameCI   string              `bson:"full_name_ci" json:"-"`
	Bio          string              `bson:"bio,omitempty" json:"bio,omitempty"`
	Role         string              `bson:"role" json:"role"` // student | teacher
	GroupID      *primitive.ObjectID `bson:"group_id" json:"group_id"`
	GroupPending bool                `bson:"group_pending,omitempty" json:"group_pending,omitempty"`
	Preferences  Preferences         `bson:"preferences" json:"preferences"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// GroupState is the membership state of a student.
type GroupState int

const (
	Unassigned GroupState = iota
	PendingNew
	Assigned
)

func (s GroupState) String() string {
	switch s {
	case PendingNew:
		return "pending"
	case Assigned:
		return "assigned"
	default:
		return "unassigned"
	}
}

// GroupState reports the user's membership state.
func (u User) GroupState() GroupState {
	switch {
	case u.GroupID != nil && !u.GroupID.IsZero():
		return Assigned
	case u.GroupPending:
		return PendingNew
	default:
		return Unassigned
	}
}

// InGroup reports whether the user is assigned to exactly groupID.
func (u User) InGroup(groupID primitive.ObjectID) bool {
	return u.GroupState() == Assigned && *u.GroupID == groupID
}

// DisplayName is the full name, falling back to the email.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}
