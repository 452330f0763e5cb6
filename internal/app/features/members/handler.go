// internal/app/features/members/handler.go
package members

import (
	"context"

	uierrors "github.com/YinkTech/peerreview/internal/app/features/errors"
	groupsvc "github.com/YinkTech/peerreview/internal/app/services/groups"
	"github.com/YinkTech/peerreview/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// StudentService is the student management API the handlers call.
// *groupsvc.Service satisfies it.
type StudentService interface {
	ListStudents(ctx context.Context, search, sort string) ([]models.User, error)
	ListUnassigned(ctx context.Context) ([]models.User, error)
	AssignStudent(ctx context.Context, studentID primitive.ObjectID, target string) error
	DeleteStudent(ctx context.Context, studentID primitive.ObjectID) (groupsvc.DeleteStudentResult, error)
}

// Handler serves the teacher's student roster under /students.
type Handler struct {
	Service StudentService
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(svc StudentService, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Service: svc,
		ErrLog:  errLog,
		Log:     logger,
	}
}
