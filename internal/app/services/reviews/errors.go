package reviewsvc

import "errors"

var (
	// ErrNoGroup: the reviewer is unassigned or still pending.
	ErrNoGroup = errors.New("You must be assigned to a group before submitting reviews.")
	// ErrGroupMismatch: the submitted group is not the reviewer's current group.
	ErrGroupMismatch = errors.New("You can only submit reviews for your current group.")
	// ErrNotTeammate: the reviewee is missing or in another group.
	ErrNotTeammate = errors.New("You can only review members of your own group.")
	// ErrSelfReview: reviewer and reviewee are the same user.
	ErrSelfReview = errors.New("You cannot review yourself.")
	// ErrDuplicateToday: the reviewer already reviewed this teammate today.
	ErrDuplicateToday = errors.New("You have already reviewed this teammate today.")
	// ErrReviewNotFound: no review with the given id.
	ErrReviewNotFound = errors.New("review not found")
	// ErrStoreUnavailable wraps every document store failure. Not retried.
	ErrStoreUnavailable = errors.New("review store unavailable")
)
