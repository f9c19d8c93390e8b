package stats

import (
	"context"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/ttj/internal/certificate"
	"github.com/verte-zerg/ttj/internal/lesson"
	"github.com/verte-zerg/ttj/internal/model"
	"github.com/verte-zerg/ttj/internal/store"
)

// DefaultRecent is the number of recent tests shown on the dashboard.
const DefaultRecent = 10

// Report contains precomputed data for dashboard rendering.
type Report struct {
	User             model.User
	TestsTaken       int
	Best             *model.TestResult
	Recent           []model.TestResult // newest first
	Lessons          []lesson.LessonStatus
	CompletedLessons int
	Certificate      *model.Certificate
	Eligibility      certificate.Eligibility
}

// BuildReport loads and prepares data for the user's dashboard.
func BuildReport(ctx context.Context, st *store.Store, user model.User, recent int, log logrus.FieldLogger) (Report, error) {
	if recent <= 0 {
		recent = DefaultRecent
	}
	report := Report{User: user}

	var err error
	if report.TestsTaken, err = st.CountTestResults(ctx, user.ID); err != nil {
		return Report{}, err
	}
	if report.Best, err = st.BestTestResult(ctx, user.ID); err != nil {
		return Report{}, err
	}
	if report.Recent, err = st.RecentTestResults(ctx, user.ID, recent); err != nil {
		return Report{}, err
	}
	if report.Lessons, err = lesson.NewTracker(st, log).Overview(ctx, user.ID); err != nil {
		return Report{}, err
	}
	report.CompletedLessons = lo.CountBy(report.Lessons, func(s lesson.LessonStatus) bool {
		return s.Passed
	})
	if report.Certificate, err = st.ReadCertificate(ctx, user.ID); err != nil {
		return Report{}, err
	}
	if report.Certificate == nil {
		if report.Eligibility, err = certificate.NewEvaluator(st, log).Check(ctx, user.ID); err != nil {
			return Report{}, err
		}
	}
	return report, nil
}

// NetWPMTrend returns net WPM of the recent tests, oldest first.
func (r Report) NetWPMTrend() []float64 {
	last := len(r.Recent) - 1
	return lo.Map(r.Recent, func(_ model.TestResult, i int) float64 {
		return float64(r.Recent[last-i].NetWPM)
	})
}
