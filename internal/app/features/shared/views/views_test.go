package views

import (
	"testing"

	"github.com/YinkTech/peerreview/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFromUser_GroupFields(t *testing.T) {
	g := primitive.NewObjectID()
	tests := []struct {
		name      string
		user      models.User
		wantGroup string
		wantState string
	}{
		{"assigned student", models.User{Role: models.RoleStudent, GroupID: &g}, g.Hex(), "assigned"},
		{"pending student", models.User{Role: models.RoleStudent, GroupPending: true}, "", "pending"},
		{"unassigned student", models.User{Role: models.RoleStudent}, "", "unassigned"},
		{"teacher", models.User{Role: models.RoleTeacher}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := FromUser(tt.user)
			if v.GroupID != tt.wantGroup || v.GroupState != tt.wantState {
				t.Errorf("group = %q state = %q, want %q %q", v.GroupID, v.GroupState, tt.wantGroup, tt.wantState)
			}
		})
	}
}

func TestFromUsers_NeverNil(t *testing.T) {
	if got := FromUsers(nil); got == nil || len(got) != 0 {
		t.Errorf("FromUsers(nil) = %#v", got)
	}
}

func TestFromMember_FallsBackToEmail(t *testing.T) {
	m := FromMember(models.User{ID: primitive.NewObjectID(), Email: "a@example.com"})
	if m.FullName != "a@example.com" {
		t.Errorf("FullName = %q", m.FullName)
	}
}
