// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Options selects optional schema behavior.
type Options struct {
	// UniqueReviewPerDay enforces at most one review per
	// (reviewer, reviewee, day_key) with a unique index. When false the same
	// keys are indexed without the constraint, so toggling the flag
	// reconciles the existing index in place.
	UniqueReviewPerDay bool
}

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, opts Options, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := ensurer{log: logger}

	var problems []string
	steps := []struct {
		name string
		fn   func() error
	}{
		{"users", func() error { return e.ensureUsers(ctx, db) }},
		{"groups", func() error { return e.ensureGroups(ctx, db) }},
		{"reviews", func() error { return e.ensureReviews(ctx, db, opts.UniqueReviewPerDay) }},
		{"credentials", func() error { return e.ensureCredentials(ctx, db) }},
		{"sessions", func() error { return e.ensureSessions(ctx, db) }},
		{"audit_events", func() error { return e.ensureAudit(ctx, db) }},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type ensurer struct {
	log *zap.Logger
}

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

// duplicateHint returns a query that finds the rows blocking a unique index.
func duplicateHint(coll, sig string) string {
	switch {
	case coll == "users" && strings.Contains(sig, "email:1"):
		return `db.users.aggregate([{ $group: { _id: "$email", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`
	case coll == "reviews" && strings.Contains(sig, "day_key:1"):
		return `db.reviews.aggregate([{ $group: { _id: { r: "$reviewer_id", u: "$reviewed_user_id", d: "$day_key" }, n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`
	}
	return ""
}

type desired struct {
	model  mongo.IndexModel
	name   string
	unique *bool
	sig    string
}

func describe(m mongo.IndexModel) desired {
	d := desired{model: m, sig: keySig(m.Keys.(bson.D))}
	if m.Options != nil {
		if m.Options.Name != nil {
			d.name = *m.Options.Name
		}
		d.unique = m.Options.Unique
	}
	return d
}

func (d desired) isUnique() bool { return d.unique != nil && *d.unique }

func (e ensurer) listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			e.log.Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// create builds the index and translates duplicate-key failures on unique
// indexes into an actionable message.
func (e ensurer) create(ctx context.Context, coll *mongo.Collection, d desired) error {
	if _, err := coll.Indexes().CreateOne(ctx, d.model); err != nil {
		if isDuplicateKeyErr(err) && d.isUnique() {
			msg := fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), d.name)
			if hint := duplicateHint(coll.Name(), d.sig); hint != "" {
				msg += "; find them with:\n" + hint
			}
			return errors.New(msg)
		}
		return fmt.Errorf("%s(%s): %w", coll.Name(), d.name, err)
	}
	return nil
}

// replace drops ex and creates d in its place.
func (e ensurer) replace(ctx context.Context, coll *mongo.Collection, ex existingIndex, d desired) error {
	if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
		e.log.Warn("drop existing index failed",
			zap.String("collection", coll.Name()),
			zap.String("name", ex.Name),
			zap.String("keys", d.sig),
			zap.Error(err))
		return fmt.Errorf("%s(%s): drop failed: %w", coll.Name(), d.name, err)
	}
	return e.create(ctx, coll, d)
}

func (e ensurer) ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		d := describe(m)
		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", d.sig),
			zap.Bool("unique", d.isUnique()),
		}
		e.log.Debug("ensuring index", fields...)

		ex, ok := e.listExisting(ctx, coll)[d.sig]
		switch {
		case ok && sameBoolPtr(d.unique, ex.Unique) && (d.name == "" || ex.Name == d.name):
			e.log.Debug("reusing existing index", append(fields, zap.Duration("took", time.Since(start)))...)
			continue

		case ok:
			// Same keys under another name, or the unique flag changed.
			if err := e.replace(ctx, coll, ex, d); err != nil {
				errs = append(errs, err.Error())
				continue
			}
			e.log.Info("index dropped and recreated",
				append(fields, zap.String("previous", ex.Name), zap.Duration("took", time.Since(start)))...)
			continue
		}

		err := e.create(ctx, coll, d)
		if err != nil && isOptionsConflictErr(err) {
			// Raced with another creator or a vendor-specific name clash.
			if ex, ok := e.listExisting(ctx, coll)[d.sig]; ok {
				if sameBoolPtr(d.unique, ex.Unique) {
					e.log.Info("reusing existing index (post-conflict)", fields...)
					continue
				}
				err = e.replace(ctx, coll, ex, d)
			}
		}
		if err != nil {
			e.log.Warn("index ensure failed", append(fields, zap.Error(err))...)
			errs = append(errs, err.Error())
			continue
		}
		e.log.Info("index ensured", append(fields, zap.Duration("took", time.Since(start)))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func (e ensurer) ensureUsers(ctx context.Context, db *mongo.Database) error {
	return e.ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Membership is derived from users.group_id; member lists sort by name.
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "full_name_ci", Value: 1}},
			Options: options.Index().SetName("idx_users_group_fullnameci"),
		},
		// Student directory, newest/oldest first.
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_users_role_created"),
		},
	})
}

func (e ensurer) ensureGroups(ctx context.Context, db *mongo.Database) error {
	return e.ensureIndexSet(ctx, db.Collection("groups"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_groups_created"),
		},
	})
}

func (e ensurer) ensureReviews(ctx context.Context, db *mongo.Database, uniquePerDay bool) error {
	pairDay := options.Index().SetName("idx_reviews_pair_day")
	if uniquePerDay {
		pairDay = options.Index().SetUnique(true).SetName("uniq_reviews_pair_day")
	}
	return e.ensureIndexSet(ctx, db.Collection("reviews"), []mongo.IndexModel{
		// Eligibility check: reviews by this reviewer of this teammate since midnight.
		{
			Keys: bson.D{
				{Key: "reviewer_id", Value: 1},
				{Key: "reviewed_user_id", Value: 1},
				{Key: "timestamp", Value: 1},
			},
			Options: options.Index().SetName("idx_reviews_pair_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "reviewer_id", Value: 1}},
			Options: options.Index().SetName("idx_reviews_group_reviewer"),
		},
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "reviewed_user_id", Value: 1}},
			Options: options.Index().SetName("idx_reviews_group_reviewee"),
		},
		{
			Keys: bson.D{
				{Key: "reviewer_id", Value: 1},
				{Key: "reviewed_user_id", Value: 1},
				{Key: "day_key", Value: 1},
			},
			Options: pairDay,
		},
	})
}

func (e ensurer) ensureCredentials(ctx context.Context, db *mongo.Database) error {
	return e.ensureIndexSet(ctx, db.Collection("credentials"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_credentials_email"),
		},
	})
}

func (e ensurer) ensureSessions(ctx context.Context, db *mongo.Database) error {
	return e.ensureIndexSet(ctx, db.Collection("sessions"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "closed_at", Value: 1}},
			Options: options.Index().SetName("idx_sessions_user_open"),
		},
		// Expired session records are removed by the server.
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_sessions_expires"),
		},
	})
}

func (e ensurer) ensureAudit(ctx context.Context, db *mongo.Database) error {
	return e.ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_category_type_timestamp"),
		},
	})
}
