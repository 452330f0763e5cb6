// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/YinkTech/peerreview/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination settings for a category.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls signup, login, logout and profile events.
	Auth string
	// Admin controls teacher actions and cascade inconsistencies.
	Admin string
}

// EventStore persists audit events. *audit.Store satisfies it.
type EventStore interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger records audit events to MongoDB and/or zap.
type Logger struct {
	store  EventStore
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store EventStore, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

type actorKey struct{}

// WithActor attaches the acting user to ctx so admin events recorded deeper
// in the call chain (services, cascades) name who triggered them.
func WithActor(ctx context.Context, actorID primitive.ObjectID) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFrom returns the actor attached by WithActor, if any.
func ActorFrom(ctx context.Context) *primitive.ObjectID {
	if id, ok := ctx.Value(actorKey{}).(primitive.ObjectID); ok {
		return &id
	}
	return nil
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op so tests and optional wiring can skip auditing.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = All
	}
	if setting == "" {
		setting = All
	}
	if setting == Off {
		return
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// Signup logs a new account.
func (l *Logger) Signup(ctx context.Context, r *http.Request, userID primitive.ObjectID, email, role string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSignup,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   map[string]string{"email": email, "role": role},
	})
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// LoginFailed logs a rejected login attempt.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, email, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailed,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		FailureReason: reason,
		Details:       map[string]string{"attempted_email": email},
	})
}

// Logout logs a user logout. userIDStr may be empty when the session had
// already expired.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	var userID *primitive.ObjectID
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		userID = &oid
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// ProfileUpdated logs a self-service profile change.
func (l *Logger) ProfileUpdated(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventProfileUpdated,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// --- Admin Events ---

// GroupCreated logs a group creation.
func (l *Logger) GroupCreated(ctx context.Context, groupID primitive.ObjectID, name string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventGroupCreated,
		ActorID:   ActorFrom(ctx),
		Success:   true,
		Details:   map[string]string{"group_id": groupID.Hex(), "group_name": name},
	})
}

// GroupDeleted logs a completed group deletion.
func (l *Logger) GroupDeleted(ctx context.Context, groupID primitive.ObjectID, name string, unassigned int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventGroupDeleted,
		ActorID:   ActorFrom(ctx),
		Success:   true,
		Details: map[string]string{
			"group_id":   groupID.Hex(),
			"group_name": name,
			"unassigned": strconv.Itoa(unassigned),
		},
	})
}

// StudentAssigned logs a student being placed in a group.
func (l *Logger) StudentAssigned(ctx context.Context, studentID, groupID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventStudentAssigned,
		UserID:    &studentID,
		ActorID:   ActorFrom(ctx),
		Success:   true,
		Details:   map[string]string{"group_id": groupID.Hex()},
	})
}

// StudentUnassigned logs a student's group being cleared.
func (l *Logger) StudentUnassigned(ctx context.Context, studentID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventStudentUnassigned,
		UserID:    &studentID,
		ActorID:   ActorFrom(ctx),
		Success:   true,
	})
}

// StudentDeleted logs a student account deletion.
func (l *Logger) StudentDeleted(ctx context.Context, studentID primitive.ObjectID, reviewsDeleted int64) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventStudentDeleted,
		UserID:    &studentID,
		ActorID:   ActorFrom(ctx),
		Success:   true,
		Details:   map[string]string{"reviews_deleted": strconv.FormatInt(reviewsDeleted, 10)},
	})
}

// ReviewDeleted logs a teacher removing a single review.
func (l *Logger) ReviewDeleted(ctx context.Context, reviewID, groupID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventReviewDeleted,
		ActorID:   ActorFrom(ctx),
		Success:   true,
		Details:   map[string]string{"review_id": reviewID.Hex(), "group_id": groupID.Hex()},
	})
}

// CascadeInconsistency logs a cascade that stopped partway. The records it
// already changed stay changed.
func (l *Logger) CascadeInconsistency(ctx context.Context, op, stage string, target primitive.ObjectID, applied, total int, cause error) {
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAdmin,
		EventType:     audit.EventCascadeInconsistency,
		ActorID:       ActorFrom(ctx),
		FailureReason: reason,
		Details: map[string]string{
			"op":      op,
			"stage":   stage,
			"target":  target.Hex(),
			"applied": strconv.Itoa(applied),
			"total":   strconv.Itoa(total),
		},
	})
}
