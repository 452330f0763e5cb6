// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a teacher-defined set of students.
//
// NOTE:
//   - Members are not embedded; see User.GroupID.
//   - Averages is a denormalized snapshot refreshed from reviews and may lag
//     behind the live values computed at read time.
type Group struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Name     string             `bson:"name" json:"name"`
	NameCI   string             `bson:"name_ci" json:"-"`
	Averages RubricAverages     `bson:"averages" json:"averages"`

	AveragesUpdatedAt *time.Time `bson:"averages_updated_at,omitempty" json:"averages_updated_at,omitempty"`
	CreatedAt         time.Time  `bson:"created_at" json:"created_at"`
}

// RubricAverages holds one-decimal means of the numeric rubric fields.
type RubricAverages struct {
	QualityOfContribution float64 `bson:"quality_of_contribution" json:"quality_of_contribution"`
	LevelOfParticipation  float64 `bson:"level_of_participation" json:"level_of_participation"`
	Collaboration         float64 `bson:"collaboration" json:"collaboration"`
	OverallContribution   float64 `bson:"overall_contribution" json:"overall_contribution"`
}
