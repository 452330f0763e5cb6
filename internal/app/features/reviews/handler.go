// internal/app/features/reviews/handler.go
package reviews

import (
	"context"
	"time"

	uierrors "github.com/YinkTech/peerreview/internal/app/features/errors"
	reviewsvc "github.com/YinkTech/peerreview/internal/app/services/reviews"
	"github.com/YinkTech/peerreview/internal/app/system/auditlog"
	"github.com/YinkTech/peerreview/internal/app/system/auth"
	"github.com/YinkTech/peerreview/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ReviewService is the review domain API the handlers call.
// *reviewsvc.Service satisfies it.
type ReviewService interface {
	LoadSession(ctx context.Context, u models.User) (*reviewsvc.Session, error)
	SubmitReview(ctx context.Context, sess *reviewsvc.Session, in reviewsvc.SubmitInput) (models.Review, error)
	ReviewedToday(ctx context.Context, reviewerID, groupID primitive.ObjectID) ([]primitive.ObjectID, error)
	GetGroupReviews(ctx context.Context, groupID primitive.ObjectID) ([]models.Review, error)
	GetUserReviews(ctx context.Context, userID, groupID primitive.ObjectID) ([]models.Review, error)
	GetReviewsByUser(ctx context.Context, reviewerID, groupID primitive.ObjectID) ([]models.Review, error)
	DeleteReview(ctx context.Context, id primitive.ObjectID) (models.Review, error)
}

// MemberLister lists the members of a group.
type MemberLister interface {
	ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.User, error)
}

// GroupReader loads a group. Returns mongo.ErrNoDocuments if missing.
type GroupReader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error)
}

type Handler struct {
	Reviews  ReviewService
	Members  MemberLister
	Groups   GroupReader
	Loc      *time.Location
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger

	now func() time.Time
}

func NewHandler(svc ReviewService, members MemberLister, groups GroupReader, loc *time.Location, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		Reviews:  svc,
		Members:  members,
		Groups:   groups,
		Loc:      loc,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
		now:      time.Now,
	}
}

// reviewer rebuilds the minimal profile the review service needs from the
// session user, which was loaded from the store for this request.
func reviewer(u *auth.SessionUser) models.User {
	m := models.User{
		ID:           u.UserID(),
		FullName:     u.Name,
		Email:        u.Email,
		Role:         u.Role,
		GroupPending: u.GroupPending,
	}
	if gid := u.Group(); !gid.IsZero() {
		m.GroupID = &gid
	}
	return m
}
