// internal/app/features/profile/handler.go
package profile

import (
	"context"

	uierrors "github.com/YinkTech/peerreview/internal/app/features/errors"
	userstore "github.com/YinkTech/peerreview/internal/app/store/users"
	"github.com/YinkTech/peerreview/internal/app/system/auditlog"
	"github.com/YinkTech/peerreview/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ProfileStore is the subset of the users store the profile pages use.
type ProfileStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd userstore.ProfileUpdate) error
}

// Handler owns all user profile handlers.
type Handler struct {
	Users    ProfileStore
	AuditLog *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

// NewHandler constructs a Handler bound to the given profile store and logger.
func NewHandler(users ProfileStore, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    users,
		AuditLog: audit,
		Log:      logger,
		ErrLog:   errLog,
	}
}
