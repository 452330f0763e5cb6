// internal/app/system/csvutil/reviews.go
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/YinkTech/peerreview/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewHeader is the fixed column order of a review export.
var ReviewHeader = []string{
	"Reviewer",
	"Reviewee",
	"Date",
	"Attendance",
	"Punctuality",
	"Environment",
	"Quality of Contribution",
	"Level of Participation",
	"Collaboration",
	"Overall Contribution",
	"Areas for Improvement",
	"Suggestions",
	"Feedback",
}

// ErrTooManyRows is returned when an export exceeds MaxExportRows.
var ErrTooManyRows = fmt.Errorf("export exceeds %d rows", MaxExportRows)

// WriteReviews writes reviews as CSV. names resolves user ids to display
// names; ids it does not know fall back to the stored reviewer name, then
// to the hex id. Dates are rendered in loc.
func WriteReviews(w io.Writer, reviews []models.Review, names map[primitive.ObjectID]string, loc *time.Location) error {
	if len(reviews) > MaxExportRows {
		return ErrTooManyRows
	}
	if loc == nil {
		loc = time.UTC
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ReviewHeader); err != nil {
		return err
	}
	for _, r := range reviews {
		reviewer := names[r.ReviewerID]
		if reviewer == "" {
			reviewer = r.ReviewerName
		}
		if reviewer == "" {
			reviewer = r.ReviewerID.Hex()
		}
		reviewee := names[r.ReviewedUserID]
		if reviewee == "" {
			reviewee = r.ReviewedUserID.Hex()
		}

		date := ""
		if t := r.SubmittedAt(); !t.IsZero() {
			date = t.In(loc).Format("2006-01-02 15:04")
		}

		row := []string{
			reviewer,
			reviewee,
			date,
			r.Attendance,
			r.Punctuality,
			r.Environment,
			rating(r.QualityOfContribution),
			rating(r.LevelOfParticipation),
			rating(r.Collaboration),
			rating(r.OverallContribution),
			r.AreasForImprovement,
			r.Suggestions,
			r.Feedback,
		}
		for i := range row {
			row[i] = safeCell(row[i])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func rating(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// safeCell neutralizes values a spreadsheet would evaluate as a formula.
func safeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

// ExportFilename returns "reviews-<slug>-<YYYY-MM-DD>.csv".
func ExportFilename(groupName string, day time.Time) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(groupName) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		slug = "group"
	}
	return "reviews-" + slug + "-" + day.Format("2006-01-02") + ".csv"
}
