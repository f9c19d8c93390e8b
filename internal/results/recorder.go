// Package results records completed timed tests.
package results

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/ttj/internal/model"
)

// DefaultDuration is the timed test length used when none is chosen.
const DefaultDuration = 60

// Durations lists the selectable timed test lengths in seconds.
var Durations = []int{15, 30, 60, 120}

// ValidDuration reports whether seconds is a selectable test length.
func ValidDuration(seconds int) bool {
	return lo.Contains(Durations, seconds)
}

// ParseDuration validates a test length and reports the allowed values on failure.
func ParseDuration(seconds int) (int, error) {
	if !ValidDuration(seconds) {
		return 0, fmt.Errorf("duration must be one of %v seconds, got %d", Durations, seconds)
	}
	return seconds, nil
}

// Store is the persistence the recorder needs.
type Store interface {
	AppendTestResult(ctx context.Context, userID model.UserID, r model.TestResult) (model.TestResult, error)
}

// SaveOutcome is the result of Recorder.Save.
type SaveOutcome struct {
	Reason model.Reason
	Err    error
	Result model.TestResult
}

// OK reports whether the result was stored.
func (o SaveOutcome) OK() bool {
	return o.Reason == model.ReasonNone
}

// Recorder appends timed test results.
type Recorder struct {
	store Store
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewRecorder returns a recorder backed by st.
func NewRecorder(st Store, log logrus.FieldLogger) *Recorder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Recorder{store: st, log: log, now: time.Now}
}

// Save stores a finished test under the selected duration, not the measured elapsed time.
func (r *Recorder) Save(ctx context.Context, user *model.UserID, durationSeconds int, res model.TypingResult) SaveOutcome {
	if user == nil {
		return SaveOutcome{Reason: model.ReasonGuest}
	}
	row := model.TestResult{
		UserID:          *user,
		DurationSeconds: durationSeconds,
		GrossWPM:        res.GrossWPM,
		NetWPM:          res.NetWPM,
		Accuracy:        res.Accuracy,
		Errors:          res.Errors,
		CreatedAt:       r.now().UTC(),
	}
	saved, err := r.store.AppendTestResult(ctx, *user, row)
	if err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{"user": string(*user), "duration": durationSeconds}).Error("save test result")
		return SaveOutcome{Reason: model.ReasonDBError, Err: err}
	}
	return SaveOutcome{Result: saved}
}
