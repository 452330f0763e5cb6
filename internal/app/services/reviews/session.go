package reviewsvc

import (
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session is the per-request review context: who is reviewing, in which
// group, and which teammates they have already reviewed today. It is built
// fresh for each request (see Service.LoadSession) and updated in place by
// SubmitReview so a second submission for the same teammate in the same
// request cycle is refused without another store read.
type Session struct {
	UserID  primitive.ObjectID
	GroupID primitive.ObjectID // zero when unassigned or pending

	mu       sync.Mutex
	reviewed map[primitive.ObjectID]struct{}
}

// NewSession builds a Session with the given reviewed-today ids.
func NewSession(userID, groupID primitive.ObjectID, reviewedToday ...primitive.ObjectID) *Session {
	s := &Session{UserID: userID, GroupID: groupID, reviewed: make(map[primitive.ObjectID]struct{}, len(reviewedToday))}
	for _, id := range reviewedToday {
		s.reviewed[id] = struct{}{}
	}
	return s
}

// HasReviewed reports whether revieweeID is in the reviewed-today set.
func (s *Session) HasReviewed(revieweeID primitive.ObjectID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.reviewed[revieweeID]
	return ok
}

// MarkReviewed adds revieweeID to the reviewed-today set.
func (s *Session) MarkReviewed(revieweeID primitive.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reviewed == nil {
		s.reviewed = make(map[primitive.ObjectID]struct{})
	}
	s.reviewed[revieweeID] = struct{}{}
}

// ReviewedToday returns the reviewed-today set in a stable order.
func (s *Session) ReviewedToday() []primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]primitive.ObjectID, 0, len(s.reviewed))
	for id := range s.reviewed {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hex() < out[j].Hex() })
	return out
}
