package reviewsvc_test

import (
	"testing"

	reviewsvc "github.com/YinkTech/peerreview/internal/app/services/reviews"
	"github.com/YinkTech/peerreview/internal/domain/models"
)

func ip(v int) *int { return &v }

func rated(q, p, c, o int) models.Review {
	return models.Review{
		Attendance:            models.Yes,
		Punctuality:           models.Yes,
		Environment:           models.EnvConducive,
		QualityOfContribution: ip(q),
		LevelOfParticipation:  ip(p),
		Collaboration:         ip(c),
		OverallContribution:   ip(o),
	}
}

func TestComputeGroupAverages_ExcludesAbsentReviews(t *testing.T) {
	reviews := []models.Review{
		rated(5, 4, 3, 2),
		rated(3, 4, 3, 2),
		rated(4, 4, 3, 2),
		{Attendance: models.No},
	}

	got := reviewsvc.ComputeGroupAverages(reviews)
	if got.QualityOfContribution != 4.0 {
		t.Errorf("QualityOfContribution: got %v, want 4.0", got.QualityOfContribution)
	}
	if got.LevelOfParticipation != 4.0 || got.Collaboration != 3.0 || got.OverallContribution != 2.0 {
		t.Errorf("unexpected averages: %+v", got)
	}
}

func TestComputeGroupAverages_FieldsAreIndependent(t *testing.T) {
	partial := models.Review{Attendance: models.Yes, Collaboration: ip(1)}
	reviews := []models.Review{rated(5, 5, 5, 5), partial}

	got := reviewsvc.ComputeGroupAverages(reviews)
	if got.QualityOfContribution != 5.0 {
		t.Errorf("QualityOfContribution should ignore the partial review: got %v", got.QualityOfContribution)
	}
	if got.Collaboration != 3.0 {
		t.Errorf("Collaboration: got %v, want 3.0", got.Collaboration)
	}
}

func TestComputeGroupAverages_RoundsToOneDecimal(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{"thirds", []int{4, 4, 5}, 4.3},
		{"two thirds", []int{4, 5, 5}, 4.7},
		{"half up", []int{1, 2, 2, 2}, 1.8},
		{"single", []int{3}, 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reviews []models.Review
			for _, v := range tt.ratings {
				reviews = append(reviews, models.Review{OverallContribution: ip(v)})
			}
			got := reviewsvc.ComputeGroupAverages(reviews).OverallContribution
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeGroupAverages_Empty(t *testing.T) {
	if got := reviewsvc.ComputeGroupAverages(nil); got != (models.RubricAverages{}) {
		t.Errorf("expected zero averages, got %+v", got)
	}
}

func TestComputeUserAggregates(t *testing.T) {
	late := rated(2, 2, 2, 2)
	late.Punctuality = models.No
	late.Environment = models.EnvNotConducive

	reviews := []models.Review{
		rated(5, 4, 3, 2),
		late,
		{Attendance: models.No},
	}

	agg := reviewsvc.ComputeUserAggregates(reviews)

	if agg.Total != 3 || agg.Present != 2 || agg.Absent != 1 {
		t.Errorf("attendance counts: %+v", agg)
	}
	if agg.Punctual != 1 || agg.Unpunctual != 1 {
		t.Errorf("punctuality counts: punctual=%d unpunctual=%d", agg.Punctual, agg.Unpunctual)
	}
	if agg.Rated != 2 {
		t.Errorf("Rated: got %d, want 2", agg.Rated)
	}
	if agg.Averages.QualityOfContribution != 3.5 {
		t.Errorf("QualityOfContribution: got %v, want 3.5", agg.Averages.QualityOfContribution)
	}
	wantEnv := map[string]int{
		models.EnvConducive:         1,
		models.EnvSomewhatConducive: 0,
		models.EnvNotConducive:      1,
	}
	for k, v := range wantEnv {
		if agg.Environment[k] != v {
			t.Errorf("Environment[%s]: got %d, want %d", k, agg.Environment[k], v)
		}
	}
}
