package groupsvc

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrStudentNotFound = errors.New("student not found")
	// ErrStoreUnavailable wraps every document store failure. Not retried.
	ErrStoreUnavailable = errors.New("group store unavailable")
)

// Cascade operations and the stage at which they can stop.
const (
	OpDeleteGroup   = "delete_group"
	OpDeleteStudent = "delete_student"

	StageUnassignMembers = "unassign_members"
	StageDeleteGroup     = "delete_group_record"
	StageDeleteReviews   = "delete_reviews"
	StageDeleteProfile   = "delete_profile"
	StageDeleteIdentity  = "delete_identity"
)

// CascadeError reports a multi-record operation that stopped partway.
// Applied of Total steps were committed and are not rolled back.
type CascadeError struct {
	Op      string
	Stage   string
	Target  primitive.ObjectID
	Applied int
	Total   int
	Err     error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("%s %s stopped at %s after %d of %d steps: %v",
		e.Op, e.Target.Hex(), e.Stage, e.Applied, e.Total, e.Err)
}

func (e *CascadeError) Unwrap() error { return e.Err }

// Partial reports whether some steps were committed before the failure.
func (e *CascadeError) Partial() bool { return e.Applied > 0 }

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
