// Package groupsvc manages the group lifecycle and student membership.
// A student's users.group_id is the only authoritative membership record;
// member lists and counts are always derived from it.
package groupsvc

import (
	"context"
	"errors"
	"strings"
	"time"

	reviewsvc "github.com/YinkTech/peerreview/internal/app/services/reviews"
	groupstore "github.com/YinkTech/peerreview/internal/app/store/groups"
	"github.com/YinkTech/peerreview/internal/app/system/auditlog"
	"github.com/YinkTech/peerreview/internal/app/system/inputval"
	"github.com/YinkTech/peerreview/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Unassigned is the AssignStudent target that clears a student's group.
const Unassigned = "unassigned"

// GroupStore is the group persistence the service needs.
type GroupStore interface {
	Create(ctx context.Context, g models.Group) (models.Group, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error)
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	List(ctx context.Context, opts groupstore.ListOptions) ([]models.Group, error)
	ListIDs(ctx context.Context) ([]primitive.ObjectID, error)
	SetAverages(ctx context.Context, id primitive.ObjectID, avg models.RubricAverages, at time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// UserStore is the user persistence the service needs.
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.User, error)
	ListStudents(ctx context.Context, search, sort string) ([]models.User, error)
	ListUnassigned(ctx context.Context) ([]models.User, error)
	MemberCounts(ctx context.Context) (map[primitive.ObjectID]int, error)
	SetGroup(ctx context.Context, id primitive.ObjectID, groupID *primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// ReviewStore is the review persistence the service needs.
type ReviewStore interface {
	FindByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Review, error)
	DeleteByReviewer(ctx context.Context, reviewerID primitive.ObjectID) (int64, error)
}

// IdentityRemover deletes login accounts.
type IdentityRemover interface {
	DeleteAccount(ctx context.Context, userID primitive.ObjectID) error
}

// Service implements group and student management.
type Service struct {
	groups   GroupStore
	users    UserStore
	reviews  ReviewStore
	identity IdentityRemover
	audit    *auditlog.Logger
	log      *zap.Logger
	now      func() time.Time
}

// New creates a Service. audit may be nil.
func New(groups GroupStore, users UserStore, reviews ReviewStore, identity IdentityRemover, audit *auditlog.Logger, logger *zap.Logger) *Service {
	return &Service{
		groups:   groups,
		users:    users,
		reviews:  reviews,
		identity: identity,
		audit:    audit,
		log:      logger,
		now:      time.Now,
	}
}

// CreateGroup stores a group named by the trimmed name, with zero averages.
// The returned group is the persisted record.
func (s *Service) CreateGroup(ctx context.Context, name string) (models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Group{}, inputval.Fail("name", "Group name is required.")
	}
	g, err := s.groups.Create(ctx, models.Group{Name: name})
	if err != nil {
		s.log.Error("create group failed", zap.Error(err), zap.String("name", name))
		return models.Group{}, storeErr("create group", err)
	}
	s.audit.GroupCreated(ctx, g.ID, g.Name)
	return g, nil
}

// DeleteGroupResult describes a completed group deletion.
type DeleteGroupResult struct {
	Group      models.Group
	Unassigned int
}

// DeleteGroup clears the group of every member, one at a time, then deletes
// the group record. A failure after the first committed write returns a
// *CascadeError; the writes already made stay in place.
func (s *Service) DeleteGroup(ctx context.Context, groupID primitive.ObjectID) (DeleteGroupResult, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return DeleteGroupResult{}, ErrGroupNotFound
		}
		return DeleteGroupResult{}, storeErr("load group", err)
	}

	members, err := s.users.ListByGroup(ctx, groupID)
	if err != nil {
		return DeleteGroupResult{}, storeErr("list members", err)
	}

	for i, m := range members {
		if err := s.users.SetGroup(ctx, m.ID, nil); err != nil {
			return DeleteGroupResult{}, s.cascadeFailed(ctx, &CascadeError{
				Op: OpDeleteGroup, Stage: StageUnassignMembers, Target: groupID,
				Applied: i, Total: len(members) + 1, Err: err,
			})
		}
	}

	if _, err := s.groups.Delete(ctx, groupID); err != nil {
		return DeleteGroupResult{}, s.cascadeFailed(ctx, &CascadeError{
			Op: OpDeleteGroup, Stage: StageDeleteGroup, Target: groupID,
			Applied: len(members), Total: len(members) + 1, Err: err,
		})
	}

	s.audit.GroupDeleted(ctx, groupID, g.Name, len(members))
	s.log.Info("group deleted",
		zap.String("group_id", groupID.Hex()),
		zap.Int("unassigned", len(members)))
	return DeleteGroupResult{Group: g, Unassigned: len(members)}, nil
}

// cascadeFailed logs and audits ce. Failures before any committed write are
// plain store errors.
func (s *Service) cascadeFailed(ctx context.Context, ce *CascadeError) error {
	if !ce.Partial() {
		return storeErr(ce.Op, ce.Err)
	}
	s.log.Error("cascade stopped partway; records are inconsistent",
		zap.String("op", ce.Op),
		zap.String("stage", ce.Stage),
		zap.String("target", ce.Target.Hex()),
		zap.Int("applied", ce.Applied),
		zap.Int("total", ce.Total),
		zap.Error(ce.Err))
	s.audit.CascadeInconsistency(ctx, ce.Op, ce.Stage, ce.Target, ce.Applied, ce.Total, ce.Err)
	return ce
}

// AssignStudent sets the student's group to target, or clears it when
// target is Unassigned. Reassignment overwrites the previous group.
func (s *Service) AssignStudent(ctx context.Context, studentID primitive.ObjectID, target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return inputval.Fail("group", "Group is required.")
	}

	if strings.EqualFold(target, Unassigned) {
		if err := s.setGroup(ctx, studentID, nil); err != nil {
			return err
		}
		s.audit.StudentUnassigned(ctx, studentID)
		return nil
	}

	groupID, err := primitive.ObjectIDFromHex(target)
	if err != nil {
		return inputval.Fail("group", "Group is invalid.")
	}
	ok, err := s.groups.Exists(ctx, groupID)
	if err != nil {
		return storeErr("check group", err)
	}
	if !ok {
		return ErrGroupNotFound
	}
	if err := s.setGroup(ctx, studentID, &groupID); err != nil {
		return err
	}
	s.audit.StudentAssigned(ctx, studentID, groupID)
	return nil
}

func (s *Service) setGroup(ctx context.Context, studentID primitive.ObjectID, groupID *primitive.ObjectID) error {
	if err := s.users.SetGroup(ctx, studentID, groupID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrStudentNotFound
		}
		return storeErr("set group", err)
	}
	return nil
}

// DeleteStudentResult describes a student deletion.
type DeleteStudentResult struct {
	Student        models.User
	ReviewsDeleted int64
}

// DeleteStudent deletes the reviews the student wrote, then the profile,
// then the login account. Reviews about the student are kept. A failure to
// delete the login account is returned as a *CascadeError at
// StageDeleteIdentity alongside a populated result; nothing is rolled back.
func (s *Service) DeleteStudent(ctx context.Context, studentID primitive.ObjectID) (DeleteStudentResult, error) {
	u, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return DeleteStudentResult{}, ErrStudentNotFound
		}
		return DeleteStudentResult{}, storeErr("load student", err)
	}
	if u.Role != models.RoleStudent {
		return DeleteStudentResult{}, ErrStudentNotFound
	}

	const total = 3
	n, err := s.reviews.DeleteByReviewer(ctx, studentID)
	if err != nil {
		return DeleteStudentResult{}, s.cascadeFailed(ctx, &CascadeError{
			Op: OpDeleteStudent, Stage: StageDeleteReviews, Target: studentID,
			Applied: 0, Total: total, Err: err,
		})
	}
	res := DeleteStudentResult{Student: *u, ReviewsDeleted: n}

	if _, err := s.users.Delete(ctx, studentID); err != nil {
		return res, s.cascadeFailed(ctx, &CascadeError{
			Op: OpDeleteStudent, Stage: StageDeleteProfile, Target: studentID,
			Applied: 1, Total: total, Err: err,
		})
	}
	s.audit.StudentDeleted(ctx, studentID, n)

	if s.identity != nil {
		if err := s.identity.DeleteAccount(ctx, studentID); err != nil {
			return res, s.cascadeFailed(ctx, &CascadeError{
				Op: OpDeleteStudent, Stage: StageDeleteIdentity, Target: studentID,
				Applied: 2, Total: total, Err: err,
			})
		}
	}
	return res, nil
}

// RecomputeAverages recalculates and stores a group's cached averages.
func (s *Service) RecomputeAverages(ctx context.Context, groupID primitive.ObjectID) (models.RubricAverages, error) {
	reviews, err := s.reviews.FindByGroup(ctx, groupID)
	if err != nil {
		return models.RubricAverages{}, storeErr("load reviews", err)
	}
	avg := reviewsvc.ComputeGroupAverages(reviews)
	if err := s.groups.SetAverages(ctx, groupID, avg, s.now()); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.RubricAverages{}, ErrGroupNotFound
		}
		return models.RubricAverages{}, storeErr("store averages", err)
	}
	return avg, nil
}

// RecomputeAll refreshes every group's cached averages and returns how many
// succeeded. Failures are joined; one group failing does not stop the rest.
func (s *Service) RecomputeAll(ctx context.Context) (int, error) {
	ids, err := s.groups.ListIDs(ctx)
	if err != nil {
		return 0, storeErr("list groups", err)
	}
	var errs []error
	done := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := s.RecomputeAverages(ctx, id); err != nil {
			if errors.Is(err, ErrGroupNotFound) {
				continue
			}
			errs = append(errs, err)
			continue
		}
		done++
	}
	return done, errors.Join(errs...)
}

// GroupSummary is a group with its derived member count and the averages
// computed from its reviews at read time.
type GroupSummary struct {
	models.Group
	MemberCount  int                   `json:"member_count"`
	ReviewCount  int                   `json:"review_count"`
	LiveAverages models.RubricAverages `json:"live_averages"`
}

// ListGroups returns the groups matching opts with their derived counts.
func (s *Service) ListGroups(ctx context.Context, opts groupstore.ListOptions) ([]GroupSummary, error) {
	groups, err := s.groups.List(ctx, opts)
	if err != nil {
		return nil, storeErr("list groups", err)
	}
	counts, err := s.users.MemberCounts(ctx)
	if err != nil {
		return nil, storeErr("member counts", err)
	}

	out := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		reviews, err := s.reviews.FindByGroup(ctx, g.ID)
		if err != nil {
			return nil, storeErr("group reviews", err)
		}
		out = append(out, GroupSummary{
			Group:        g,
			MemberCount:  counts[g.ID],
			ReviewCount:  len(reviews),
			LiveAverages: reviewsvc.ComputeGroupAverages(reviews),
		})
	}
	return out, nil
}

// ListMembers returns the students in groupID.
func (s *Service) ListMembers(ctx context.Context, groupID primitive.ObjectID) ([]models.User, error) {
	if groupID.IsZero() {
		return []models.User{}, nil
	}
	out, err := s.users.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, storeErr("list members", err)
	}
	return out, nil
}

// ListStudents returns students matching search, sorted "newest" (default)
// or "oldest".
func (s *Service) ListStudents(ctx context.Context, search, sort string) ([]models.User, error) {
	out, err := s.users.ListStudents(ctx, search, sort)
	if err != nil {
		return nil, storeErr("list students", err)
	}
	return out, nil
}

// ListUnassigned returns students with no group.
func (s *Service) ListUnassigned(ctx context.Context) ([]models.User, error) {
	out, err := s.users.ListUnassigned(ctx)
	if err != nil {
		return nil, storeErr("list unassigned", err)
	}
	return out, nil
}
