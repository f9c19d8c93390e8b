package lesson

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/ttj/internal/model"
	"github.com/verte-zerg/ttj/internal/store"
)

const (
	// PassAccuracy is the minimum accuracy for a task submission to count.
	PassAccuracy = 90.0
	// maxWriteAttempts bounds the read-merge-write loop under concurrent writers.
	maxWriteAttempts = 3
)

// ErrTooManyConflicts is attached to a db_error outcome when every write attempt lost the race.
var ErrTooManyConflicts = errors.New("lesson: progress kept changing during submit")

// Store is the persistence the tracker needs.
type Store interface {
	ReadLessonProgress(ctx context.Context, userID model.UserID, lessonID int) (*model.LessonProgress, error)
	WriteLessonProgress(ctx context.Context, userID model.UserID, lessonID int, p model.LessonProgress, expectedVersion int64) (int64, error)
	ListLessonProgress(ctx context.Context, userID model.UserID) (map[int]model.LessonProgress, error)
}

// Passes reports whether r counts as a pass for a task with the given reference text.
func Passes(task string, r model.TypingResult) bool {
	return r.Accuracy >= PassAccuracy && utf8.RuneCountInString(r.Input) == utf8.RuneCountInString(task)
}

// Merge folds a passing submission for taskIndex into prev and returns the new state.
// A nil prev means no prior record. prev is not modified.
func Merge(prev *model.LessonProgress, taskIndex, totalTasks int, r model.TypingResult) model.LessonProgress {
	if prev == nil {
		next := model.LessonProgress{
			CompletedTasks: map[int]struct{}{taskIndex: {}},
			BestNetWPM:     r.NetWPM,
			BestAccuracy:   r.Accuracy,
			TaskScores: map[int]model.TaskScore{
				taskIndex: {WPM: r.NetWPM, Accuracy: r.Accuracy, Input: r.Input},
			},
		}
		next.Completed = len(next.CompletedTasks) >= totalTasks
		return next
	}

	next := prev.Clone()
	next.CompletedTasks[taskIndex] = struct{}{}
	next.Completed = prev.Completed || len(next.CompletedTasks) >= totalTasks

	if r.Better(prev.BestNetWPM, prev.BestAccuracy) {
		next.BestNetWPM = r.NetWPM
		next.BestAccuracy = r.Accuracy
	}
	score, ok := prev.TaskScores[taskIndex]
	if !ok || r.Better(score.WPM, score.Accuracy) {
		next.TaskScores[taskIndex] = model.TaskScore{WPM: r.NetWPM, Accuracy: r.Accuracy, Input: r.Input}
	}
	return next
}

// SubmitOutcome is the result of Tracker.Submit.
type SubmitOutcome struct {
	Reason   model.Reason
	Err      error
	Progress model.LessonProgress
	// NewHighScore is set when the lesson best improved.
	NewHighScore bool
	// LessonCompleted is set when this submission completed the lesson.
	LessonCompleted bool
}

// OK reports whether the submission was stored.
func (o SubmitOutcome) OK() bool {
	return o.Reason == model.ReasonNone
}

// LessonStatus is the read view of one lesson for one user.
type LessonStatus struct {
	Lesson         Lesson
	Passed         bool
	CompletedTasks []int
	TaskScores     map[int]model.TaskScore
	BestNetWPM     int
	BestAccuracy   float64
}

// Tracker applies task submissions to stored lesson progress.
type Tracker struct {
	store Store
	log   logrus.FieldLogger
}

// NewTracker returns a tracker backed by st.
func NewTracker(st Store, log logrus.FieldLogger) *Tracker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Tracker{store: st, log: log}
}

// Submit records a finished task attempt. A nil user is a guest and nothing is stored.
func (t *Tracker) Submit(ctx context.Context, user *model.UserID, lessonID, taskIndex int, r model.TypingResult) SubmitOutcome {
	if user == nil {
		return SubmitOutcome{Reason: model.ReasonGuest}
	}
	l, ok := Lookup(lessonID)
	if !ok {
		return SubmitOutcome{Reason: model.ReasonInvalidTask, Err: fmt.Errorf("lesson %d not found", lessonID)}
	}
	task, ok := l.Task(taskIndex)
	if !ok {
		return SubmitOutcome{Reason: model.ReasonInvalidTask, Err: fmt.Errorf("lesson %d has no task %d", lessonID, taskIndex)}
	}
	if !Passes(task, r) {
		return SubmitOutcome{Reason: model.ReasonFailedCriteria}
	}

	log := t.log.WithFields(logrus.Fields{"user": string(*user), "lesson": lessonID, "task": taskIndex})
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		prev, err := t.store.ReadLessonProgress(ctx, *user, lessonID)
		if err != nil {
			log.WithError(err).Error("read lesson progress")
			return SubmitOutcome{Reason: model.ReasonDBError, Err: err}
		}
		next := Merge(prev, taskIndex, l.TotalTasks(), r)
		var expected int64
		if prev != nil {
			expected = prev.Version
		}
		version, err := t.store.WriteLessonProgress(ctx, *user, lessonID, next, expected)
		if errors.Is(err, store.ErrVersionConflict) {
			log.WithField("attempt", attempt).Debug("lesson progress changed, retrying merge")
			continue
		}
		if err != nil {
			log.WithError(err).Error("write lesson progress")
			return SubmitOutcome{Reason: model.ReasonDBError, Err: err}
		}
		next.Version = version

		out := SubmitOutcome{Progress: next}
		if prev == nil {
			out.NewHighScore = true
			out.LessonCompleted = next.Completed
		} else {
			out.NewHighScore = r.Better(prev.BestNetWPM, prev.BestAccuracy)
			out.LessonCompleted = next.Completed && !prev.Completed
		}
		log.WithFields(logrus.Fields{
			"net_wpm":   r.NetWPM,
			"accuracy":  r.Accuracy,
			"completed": next.Completed,
		}).Info("task submission stored")
		return out
	}
	log.Warn("lesson progress write kept conflicting")
	return SubmitOutcome{Reason: model.ReasonDBError, Err: ErrTooManyConflicts}
}

// Progress returns the user's status in a lesson. No record reads as not passed.
func (t *Tracker) Progress(ctx context.Context, userID model.UserID, lessonID int) (LessonStatus, error) {
	l, ok := Lookup(lessonID)
	if !ok {
		return LessonStatus{}, fmt.Errorf("lesson %d not found", lessonID)
	}
	p, err := t.store.ReadLessonProgress(ctx, userID, lessonID)
	if err != nil {
		return LessonStatus{}, err
	}
	return statusOf(l, p), nil
}

// Overview returns the status of every catalog lesson.
func (t *Tracker) Overview(ctx context.Context, userID model.UserID) ([]LessonStatus, error) {
	all, err := t.store.ListLessonProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	return lo.Map(All(), func(l Lesson, _ int) LessonStatus {
		p, ok := all[l.ID]
		if !ok {
			return statusOf(l, nil)
		}
		return statusOf(l, &p)
	}), nil
}

func statusOf(l Lesson, p *model.LessonProgress) LessonStatus {
	status := LessonStatus{
		Lesson:         l,
		CompletedTasks: []int{},
		TaskScores:     map[int]model.TaskScore{},
	}
	if p == nil {
		return status
	}
	status.Passed = p.Completed
	status.CompletedTasks = lo.Keys(p.CompletedTasks)
	sort.Ints(status.CompletedTasks)
	status.TaskScores = lo.Assign(p.TaskScores)
	status.BestNetWPM = p.BestNetWPM
	status.BestAccuracy = p.BestAccuracy
	return status
}

// NextTask returns the first task index not yet completed, or 0 when all are done.
func (s LessonStatus) NextTask() int {
	done := lo.SliceToMap(s.CompletedTasks, func(idx int) (int, struct{}) { return idx, struct{}{} })
	for idx := range s.Lesson.Tasks {
		if _, ok := done[idx]; !ok {
			return idx
		}
	}
	return 0
}
