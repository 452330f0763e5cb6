// internal/domain/models/review.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RubricExtendedV1 is the only rubric accepted for new submissions.
const RubricExtendedV1 = "extended-v1"

// Yes/no answers for attendance and punctuality.
const (
	Yes = "yes"
	No  = "no"
)

// Learning environment values.
const (
	EnvConducive         = "conducive"
	EnvSomewhatConducive = "somewhat_conducive"
	EnvNotConducive      = "not_conducive"
)

// Environments lists the environment enum in display order.
var Environments = []string{EnvConducive, EnvSomewhatConducive, EnvNotConducive}

// Review is one student's rating of a teammate for one day.
//
// When Attendance is "no" only the identity fields, attendance and the
// timestamps are stored; every rubric field stays nil/empty.
type Review struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	ReviewerID     primitive.ObjectID `bson:"reviewer_id" json:"reviewer_id"`
	ReviewerName   string             `bson:"reviewer_name" json:"reviewer_name,omitempty"`
	ReviewedUserID primitive.ObjectID `bson:"reviewed_user_id" json:"reviewed_user_id"`
	GroupID        primitive.ObjectID `bson:"group_id" json:"group_id"`
	RubricVersion  string             `bson:"rubric_version" json:"rubric_version"`

	Attendance  string `bson:"attendance" json:"attendance"`
	Punctuality string `bson:"punctuality,omitempty" json:"punctuality,omitempty"`
	Environment string `bson:"environment,omitempty" json:"environment,omitempty"`

	QualityOfContribution *int `bson:"quality_of_contribution,omitempty" json:"quality_of_contribution,omitempty"`
	LevelOfParticipation  *int `bson:"level_of_participation,omitempty" json:"level_of_participation,omitempty"`
	Collaboration         *int `bson:"collaboration,omitempty" json:"collaboration,omitempty"`
	OverallContribution   *int `bson:"overall_contribution,omitempty" json:"overall_contribution,omitempty"`

	AreasForImprovement string `bson:"areas_for_improvement,omitempty" json:"areas_for_improvement,omitempty"`
	Suggestions         string `bson:"suggestions,omitempty" json:"suggestions,omitempty"`
	Feedback            string `bson:"feedback,omitempty" json:"feedback,omitempty"`

	// Timestamp is server time. CreatedAt is the ISO-8601 client-side
	// fallback used when Timestamp is absent on legacy records.
	Timestamp *time.Time `bson:"timestamp,omitempty" json:"timestamp,omitempty"`
	CreatedAt string     `bson:"created_at" json:"created_at"`
	DayKey    string     `bson:"day_key" json:"day_key"`
}

// SubmittedAt returns the server timestamp, falling back to CreatedAt.
// The zero time is returned when neither parses.
func (r Review) SubmittedAt() time.Time {
	if r.Timestamp != nil && !r.Timestamp.IsZero() {
		return *r.Timestamp
	}
	t, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Absent reports whether the reviewee was marked absent.
func (r Review) Absent() bool {
	return r.Attendance == No
}
