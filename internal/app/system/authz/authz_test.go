package authz_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/YinkTech/peerreview/internal/app/system/auth"
	"github.com/YinkTech/peerreview/internal/app/system/authz"
	"github.com/YinkTech/peerreview/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func reqAs(u *auth.SessionUser) *http.Request {
	req := httptest.NewRequest("GET", "/test", nil)
	if u == nil {
		return req
	}
	return auth.WithTestUser(req, u)
}

func TestUserCtx(t *testing.T) {
	id := primitive.NewObjectID()
	role, name, uid, ok := authz.UserCtx(reqAs(&auth.SessionUser{ID: id.Hex(), Name: "Ada", Role: "Teacher"}))
	if !ok || role != "teacher" || name != "Ada" || uid != id {
		t.Errorf("UserCtx = %q %q %v %v", role, name, uid, ok)
	}

	role, _, uid, ok = authz.UserCtx(reqAs(nil))
	if ok || role != "visitor" || !uid.IsZero() {
		t.Errorf("no user: role=%q ok=%v", role, ok)
	}

	if _, _, _, ok := authz.UserCtx(reqAs(&auth.SessionUser{ID: "not-hex", Role: "teacher"})); ok {
		t.Error("malformed ID should fail closed")
	}
}

func TestRolePredicates(t *testing.T) {
	teacher := reqAs(&auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: models.RoleTeacher})
	student := reqAs(&auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: models.RoleStudent})
	visitor := reqAs(nil)

	tests := []struct {
		name string
		got  bool
		want bool
	}{
		{"teacher IsTeacher", authz.IsTeacher(teacher), true},
		{"teacher IsStudent", authz.IsStudent(teacher), false},
		{"student IsStudent", authz.IsStudent(student), true},
		{"student IsTeacher", authz.IsTeacher(student), false},
		{"visitor IsTeacher", authz.IsTeacher(visitor), false},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if role, ok := authz.Role(student); !ok || role != models.RoleStudent {
		t.Errorf("Role = %q, %v", role, ok)
	}
}

func TestStudentGroup(t *testing.T) {
	g := primitive.NewObjectID()

	assigned := reqAs(&auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: models.RoleStudent, GroupID: g.Hex()})
	pending := reqAs(&auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: models.RoleStudent, GroupPending: true})
	teacher := reqAs(&auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: models.RoleTeacher})

	if got, ok := authz.StudentGroup(assigned); !ok || got != g {
		t.Errorf("StudentGroup(assigned) = %v, %v", got, ok)
	}
	if _, ok := authz.StudentGroup(pending); ok {
		t.Error("pending student has no group")
	}
	if _, ok := authz.StudentGroup(teacher); ok {
		t.Error("teachers have no student group")
	}
}
