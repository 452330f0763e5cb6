// Package reviewsvc gatekeeps review submission and serves review read
// models: the daily one-review-per-teammate rule, group and user queries,
// and rating aggregation.
package reviewsvc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	reviewstore "github.com/YinkTech/peerreview/internal/app/store/reviews"
	"github.com/YinkTech/peerreview/internal/app/system/htmlsanitize"
	"github.com/YinkTech/peerreview/internal/app/system/inputval"
	"github.com/YinkTech/peerreview/internal/app/system/normalize"
	"github.com/YinkTech/peerreview/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DayKeyLayout formats Review.DayKey.
const DayKeyLayout = "2006-01-02"

// ReviewStore is the review persistence the service needs.
type ReviewStore interface {
	Create(ctx context.Context, r models.Review) (models.Review, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Review, error)
	FindByPair(ctx context.Context, reviewerID, revieweeID primitive.ObjectID) ([]models.Review, error)
	FindByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Review, error)
	FindByGroupAndReviewee(ctx context.Context, groupID, revieweeID primitive.ObjectID) ([]models.Review, error)
	FindByGroupAndReviewer(ctx context.Context, groupID, reviewerID primitive.ObjectID) ([]models.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// UserReader loads user profiles.
type UserReader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// ChangeNotifier is told when a group's reviews change so cached averages
// can be refreshed. Trigger must not block.
type ChangeNotifier interface {
	Trigger(groupID primitive.ObjectID)
}

// Options tune a Service. Zero values select defaults.
type Options struct {
	Location *time.Location   // defines the reviewer's calendar day; default time.Local
	Now      func() time.Time // default time.Now
	Notifier ChangeNotifier
}

// Service implements review submission and queries.
type Service struct {
	reviews  ReviewStore
	users    UserReader
	loc      *time.Location
	now      func() time.Time
	notifier ChangeNotifier
	log      *zap.Logger
}

// New creates a Service.
func New(reviews ReviewStore, users UserReader, logger *zap.Logger, opts Options) *Service {
	s := &Service{
		reviews:  reviews,
		users:    users,
		loc:      opts.Location,
		now:      opts.Now,
		notifier: opts.Notifier,
		log:      logger,
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// SetNotifier installs the change notifier after construction.
func (s *Service) SetNotifier(n ChangeNotifier) { s.notifier = n }

// StartOfDay returns local midnight (in the service's zone) of t's day.
func (s *Service) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// SubmitInput is the form payload of a review. The reviewer comes from the
// Session, never from the payload.
type SubmitInput struct {
	ReviewedUserID string `json:"reviewed_user_id" validate:"required" label:"Teammate"`
	GroupID        string `json:"group_id" validate:"required" label:"Group"`
	Attendance     string `json:"attendance" validate:"required,oneof=yes no" label:"Attendance"`

	Punctuality string `json:"punctuality"`
	Environment string `json:"environment"`

	QualityOfContribution *int `json:"quality_of_contribution"`
	LevelOfParticipation  *int `json:"level_of_participation"`
	Collaboration         *int `json:"collaboration"`
	OverallContribution   *int `json:"overall_contribution"`

	AreasForImprovement string `json:"areas_for_improvement"`
	Suggestions         string `json:"suggestions"`
	Feedback            string `json:"feedback"`
}

// rubric is checked only when the reviewee attended.
type rubric struct {
	Punctuality           string `validate:"required,oneof=yes no" label:"Punctuality"`
	Environment           string `validate:"required,oneof=conducive somewhat_conducive not_conducive" label:"Learning environment"`
	QualityOfContribution *int   `validate:"required,min=1,max=5" label:"Quality of contribution"`
	LevelOfParticipation  *int   `validate:"required,min=1,max=5" label:"Level of participation"`
	Collaboration         *int   `validate:"required,min=1,max=5" label:"Collaboration"`
	OverallContribution   *int   `validate:"required,min=1,max=5" label:"Overall contribution"`
	AreasForImprovement   string `validate:"required" label:"Areas for improvement"`
	Suggestions           string `validate:"required" label:"Suggestions"`
}

func parseID(field, label, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(normalize.QueryParam(hex))
	if err != nil {
		return primitive.NilObjectID, inputval.Fail(field, label+" is invalid.")
	}
	return id, nil
}

// SubmitReview validates in, re-checks the reviewer's group against the
// store, enforces the one-review-per-teammate-per-day rule and inserts the
// review. On success the reviewee is added to sess's reviewed-today set.
//
// The daily check is a read followed by a write. Two concurrent submissions
// for the same pair can both pass the read unless the optional unique
// (reviewer, reviewee, day) index is installed; with it, the losing insert
// is reported as ErrDuplicateToday.
func (s *Service) SubmitReview(ctx context.Context, sess *Session, in SubmitInput) (models.Review, error) {
	if sess == nil || sess.UserID.IsZero() {
		return models.Review{}, inputval.Fail("reviewer", "Reviewer is required.")
	}
	in.Attendance = normalize.Choice(in.Attendance)
	if res := inputval.Validate(in); res.HasErrors() {
		return models.Review{}, res.Err()
	}
	revieweeID, err := parseID("reviewed_user_id", "Teammate", in.ReviewedUserID)
	if err != nil {
		return models.Review{}, err
	}
	groupID, err := parseID("group_id", "Group", in.GroupID)
	if err != nil {
		return models.Review{}, err
	}
	if revieweeID == sess.UserID {
		return models.Review{}, ErrSelfReview
	}

	reviewer, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Review{}, ErrNoGroup
		}
		return models.Review{}, storeErr("load reviewer", err)
	}
	switch {
	case reviewer.GroupState() != models.Assigned:
		return models.Review{}, ErrNoGroup
	case !reviewer.InGroup(groupID):
		return models.Review{}, ErrGroupMismatch
	}

	reviewee, err := s.users.GetByID(ctx, revieweeID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Review{}, ErrNotTeammate
		}
		return models.Review{}, storeErr("load reviewee", err)
	}
	if !reviewee.InGroup(groupID) {
		return models.Review{}, ErrNotTeammate
	}

	now := s.now()
	ts := now.UTC()
	rev := models.Review{
		ReviewerID:     reviewer.ID,
		ReviewerName:   reviewer.DisplayName(),
		ReviewedUserID: revieweeID,
		GroupID:        groupID,
		RubricVersion:  models.RubricExtendedV1,
		Attendance:     in.Attendance,
		Timestamp:      &ts,
		CreatedAt:      ts.Format(time.RFC3339Nano),
		DayKey:         now.In(s.loc).Format(DayKeyLayout),
	}

	if in.Attendance == models.Yes {
		r := rubric{
			Punctuality:           normalize.Choice(in.Punctuality),
			Environment:           normalize.Choice(in.Environment),
			QualityOfContribution: in.QualityOfContribution,
			LevelOfParticipation:  in.LevelOfParticipation,
			Collaboration:         in.Collaboration,
			OverallContribution:   in.OverallContribution,
			AreasForImprovement:   htmlsanitize.PlainText(in.AreasForImprovement),
			Suggestions:           htmlsanitize.PlainText(in.Suggestions),
		}
		if res := inputval.Validate(r); res.HasErrors() {
			return models.Review{}, res.Err()
		}
		rev.Punctuality = r.Punctuality
		rev.Environment = r.Environment
		rev.QualityOfContribution = r.QualityOfContribution
		rev.LevelOfParticipation = r.LevelOfParticipation
		rev.Collaboration = r.Collaboration
		rev.OverallContribution = r.OverallContribution
		rev.AreasForImprovement = r.AreasForImprovement
		rev.Suggestions = r.Suggestions
		rev.Feedback = htmlsanitize.PlainText(in.Feedback)
	}

	if sess.HasReviewed(revieweeID) {
		return models.Review{}, ErrDuplicateToday
	}
	dup, err := s.reviewedSince(ctx, reviewer.ID, revieweeID, s.StartOfDay(now))
	if err != nil {
		return models.Review{}, err
	}
	if dup {
		sess.MarkReviewed(revieweeID)
		s.log.Info("duplicate review refused",
			zap.String("reviewer_id", reviewer.ID.Hex()),
			zap.String("reviewee_id", revieweeID.Hex()))
		return models.Review{}, ErrDuplicateToday
	}

	created, err := s.reviews.Create(ctx, rev)
	if err != nil {
		if errors.Is(err, reviewstore.ErrDuplicateDay) {
			sess.MarkReviewed(revieweeID)
			return models.Review{}, ErrDuplicateToday
		}
		s.log.Error("review insert failed", zap.Error(err),
			zap.String("reviewer_id", reviewer.ID.Hex()))
		return models.Review{}, storeErr("insert review", err)
	}

	sess.MarkReviewed(revieweeID)
	if s.notifier != nil {
		s.notifier.Trigger(groupID)
	}
	s.log.Info("review submitted",
		zap.String("review_id", created.ID.Hex()),
		zap.String("group_id", groupID.Hex()),
		zap.String("attendance", created.Attendance))
	return created, nil
}

// reviewedSince reports whether reviewerID reviewed revieweeID at or after
// since.
func (s *Service) reviewedSince(ctx context.Context, reviewerID, revieweeID primitive.ObjectID, since time.Time) (bool, error) {
	existing, err := s.reviews.FindByPair(ctx, reviewerID, revieweeID)
	if err != nil {
		return false, storeErr("eligibility check", err)
	}
	for _, r := range existing {
		if !r.SubmittedAt().Before(since) {
			return true, nil
		}
	}
	return false, nil
}

// LoadSession builds the review Session for u, including the teammates u
// already reviewed today.
func (s *Service) LoadSession(ctx context.Context, u models.User) (*Session, error) {
	var groupID primitive.ObjectID
	if u.GroupState() == models.Assigned {
		groupID = *u.GroupID
	}
	ids, err := s.ReviewedToday(ctx, u.ID, groupID)
	if err != nil {
		return nil, err
	}
	return NewSession(u.ID, groupID, ids...), nil
}

// ReviewedToday returns the ids reviewerID reviewed in groupID since local
// midnight. Missing ids yield an empty result.
func (s *Service) ReviewedToday(ctx context.Context, reviewerID, groupID primitive.ObjectID) ([]primitive.ObjectID, error) {
	if reviewerID.IsZero() || groupID.IsZero() {
		return []primitive.ObjectID{}, nil
	}
	reviews, err := s.reviews.FindByGroupAndReviewer(ctx, groupID, reviewerID)
	if err != nil {
		return nil, storeErr("reviewed today", err)
	}
	since := s.StartOfDay(s.now())
	seen := make(map[primitive.ObjectID]bool)
	out := []primitive.ObjectID{}
	for _, r := range reviews {
		if r.SubmittedAt().Before(since) || seen[r.ReviewedUserID] {
			continue
		}
		seen[r.ReviewedUserID] = true
		out = append(out, r.ReviewedUserID)
	}
	return out, nil
}

// GetGroupReviews returns every review in groupID. A zero id yields an
// empty result.
func (s *Service) GetGroupReviews(ctx context.Context, groupID primitive.ObjectID) ([]models.Review, error) {
	if groupID.IsZero() {
		return []models.Review{}, nil
	}
	out, err := s.reviews.FindByGroup(ctx, groupID)
	if err != nil {
		return nil, storeErr("group reviews", err)
	}
	return out, nil
}

// GetUserReviews returns the reviews about userID in groupID. Missing ids
// yield an empty result.
func (s *Service) GetUserReviews(ctx context.Context, userID, groupID primitive.ObjectID) ([]models.Review, error) {
	if userID.IsZero() || groupID.IsZero() {
		return []models.Review{}, nil
	}
	out, err := s.reviews.FindByGroupAndReviewee(ctx, groupID, userID)
	if err != nil {
		return nil, storeErr("user reviews", err)
	}
	return out, nil
}

// GetReviewsByUser returns the reviews reviewerID wrote in groupID, newest
// first. Missing ids yield an empty result.
func (s *Service) GetReviewsByUser(ctx context.Context, reviewerID, groupID primitive.ObjectID) ([]models.Review, error) {
	if reviewerID.IsZero() || groupID.IsZero() {
		return []models.Review{}, nil
	}
	out, err := s.reviews.FindByGroupAndReviewer(ctx, groupID, reviewerID)
	if err != nil {
		return nil, storeErr("reviews by user", err)
	}
	SortNewestFirst(out)
	return out, nil
}

// SortNewestFirst orders reviews by SubmittedAt, newest first.
func SortNewestFirst(reviews []models.Review) {
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].SubmittedAt().After(reviews[j].SubmittedAt())
	})
}

// DeleteReview removes a single review and returns what was deleted.
func (s *Service) DeleteReview(ctx context.Context, id primitive.ObjectID) (models.Review, error) {
	rev, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Review{}, ErrReviewNotFound
		}
		return models.Review{}, storeErr("load review", err)
	}
	n, err := s.reviews.Delete(ctx, id)
	if err != nil {
		return models.Review{}, storeErr("delete review", err)
	}
	if n == 0 {
		return models.Review{}, ErrReviewNotFound
	}
	if s.notifier != nil {
		s.notifier.Trigger(rev.GroupID)
	}
	return rev, nil
}
