package reviewsvc

import (
	"math"

	"github.com/YinkTech/peerreview/internal/domain/models"
)

// UserAggregates summarizes a set of reviews about one user.
type UserAggregates struct {
	Total       int                   `json:"total"`
	Present     int                   `json:"present"`
	Absent      int                   `json:"absent"`
	Punctual    int                   `json:"punctual"`
	Unpunctual  int                   `json:"unpunctual"`
	Averages    models.RubricAverages `json:"averages"`
	Rated       int                   `json:"rated"` // reviews carrying at least one rating
	Environment map[string]int        `json:"environment"`
}

// round1 rounds to one decimal place.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *int) {
	if v == nil {
		return
	}
	m.sum += float64(*v)
	m.n++
}

func (m mean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return round1(m.sum / float64(m.n))
}

// ComputeGroupAverages returns the one-decimal mean of each numeric rubric
// field. Each field averages only the reviews that carry it, so absent
// (attendance "no") reviews never count as zero. A field with no ratings
// averages to 0.
func ComputeGroupAverages(reviews []models.Review) models.RubricAverages {
	var quality, participation, collaboration, overall mean
	for _, r := range reviews {
		quality.add(r.QualityOfContribution)
		participation.add(r.LevelOfParticipation)
		collaboration.add(r.Collaboration)
		overall.add(r.OverallContribution)
	}
	return models.RubricAverages{
		QualityOfContribution: quality.value(),
		LevelOfParticipation:  participation.value(),
		Collaboration:         collaboration.value(),
		OverallContribution:   overall.value(),
	}
}

// ComputeUserAggregates counts attendance, punctuality and environment
// answers and averages the numeric fields.
func ComputeUserAggregates(reviews []models.Review) UserAggregates {
	agg := UserAggregates{
		Total:       len(reviews),
		Environment: make(map[string]int, len(models.Environments)),
		Averages:    ComputeGroupAverages(reviews),
	}
	for _, env := range models.Environments {
		agg.Environment[env] = 0
	}

	for _, r := range reviews {
		switch {
		case r.Absent():
			agg.Absent++
		case r.Attendance == models.Yes:
			agg.Present++
		}
		switch r.Punctuality {
		case models.Yes:
			agg.Punctual++
		case models.No:
			agg.Unpunctual++
		}
		if r.Environment != "" {
			agg.Environment[r.Environment]++
		}
		if r.QualityOfContribution != nil || r.LevelOfParticipation != nil ||
			r.Collaboration != nil || r.OverallContribution != nil {
			agg.Rated++
		}
	}
	return agg
}
