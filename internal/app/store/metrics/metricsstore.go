package metricsstore

import (
	"context"
	"time"

	"github.com/YinkTech/peerreview/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of totals shown on the teacher dashboard.
type Counts struct {
	Groups       int64 `json:"groups"`
	Students     int64 `json:"students"`
	Unassigned   int64 `json:"unassigned"` // includes students still pending
	Teachers     int64 `json:"teachers"`
	Reviews      int64 `json:"reviews"`
	ReviewsToday int64 `json:"reviews_today"`
}

// FetchDashboardCounts returns the high-level counts used by the dashboard.
// ReviewsToday counts reviews with a server timestamp at or after since.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchDashboardCounts(ctx context.Context, db *mongo.Database, since time.Time) Counts {
	var out Counts

	count := func(coll string, filter bson.M) int64 {
		n, err := db.Collection(coll).CountDocuments(ctx, filter)
		if err != nil {
			return 0
		}
		return n
	}

	out.Groups = count("groups", bson.M{})
	out.Students = count("users", bson.M{"role": models.RoleStudent})
	out.Unassigned = count("users", bson.M{"role": models.RoleStudent, "group_id": nil})
	out.Teachers = count("users", bson.M{"role": models.RoleTeacher})
	out.Reviews = count("reviews", bson.M{})
	out.ReviewsToday = count("reviews", bson.M{"timestamp": bson.M{"$gte": since.UTC()}})

	return out
}
