// internal/app/features/groups/handler.go
package groups

import (
	"context"

	uierrors "github.com/YinkTech/peerreview/internal/app/features/errors"
	groupsvc "github.com/YinkTech/peerreview/internal/app/services/groups"
	groupstore "github.com/YinkTech/peerreview/internal/app/store/groups"
	"github.com/YinkTech/peerreview/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// GroupService is the group management API the handlers call.
// *groupsvc.Service satisfies it.
type GroupService interface {
	CreateGroup(ctx context.Context, name string) (models.Group, error)
	DeleteGroup(ctx context.Context, groupID primitive.ObjectID) (groupsvc.DeleteGroupResult, error)
	RecomputeAverages(ctx context.Context, groupID primitive.ObjectID) (models.RubricAverages, error)
	ListGroups(ctx context.Context, opts groupstore.ListOptions) ([]groupsvc.GroupSummary, error)
	ListMembers(ctx context.Context, groupID primitive.ObjectID) ([]models.User, error)
}

// GroupReader loads a single group. Returns mongo.ErrNoDocuments if missing.
type GroupReader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error)
}

// Handler is the shared dependency container for the groups feature.
type Handler struct {
	Service GroupService
	Groups  GroupReader
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

// NewHandler constructs a new groups Handler. It is called from the
// bootstrap BuildHandler function once the services exist.
func NewHandler(svc GroupService, groups GroupReader, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Service: svc,
		Groups:  groups,
		ErrLog:  errLog,
		Log:     logger,
	}
}
