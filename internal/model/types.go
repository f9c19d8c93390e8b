// Package model defines shared data structures.
package model

import "time"

// UserID identifies an authenticated user. Guests are represented by a nil *UserID.
type UserID string

// TypingResult is the metrics snapshot of a typing session at one instant.
type TypingResult struct {
	GrossWPM int
	NetWPM   int
	Accuracy float64
	Errors   int
	Duration float64 // seconds
	Input    string
}

// Better reports whether r strictly improves on (netWPM, accuracy):
// net WPM first, accuracy as tiebreak.
func (r TypingResult) Better(netWPM int, accuracy float64) bool {
	return Improves(r.NetWPM, r.Accuracy, netWPM, accuracy)
}

// Improves reports whether (wpm, acc) is strictly better than (bestWPM, bestAcc).
func Improves(wpm int, acc float64, bestWPM int, bestAcc float64) bool {
	if wpm != bestWPM {
		return wpm > bestWPM
	}
	return acc > bestAcc
}

// TaskScore is the best recorded attempt for a single lesson task.
type TaskScore struct {
	WPM      int
	Accuracy float64
	Input    string
}

// LessonProgress is the cumulative state of one user in one lesson.
type LessonProgress struct {
	CompletedTasks map[int]struct{}
	Completed      bool
	BestNetWPM     int
	BestAccuracy   float64
	TaskScores     map[int]TaskScore
	// Version is the optimistic concurrency token; zero means no stored row.
	Version   int64
	UpdatedAt time.Time
}

// Clone returns a deep copy of p.
func (p LessonProgress) Clone() LessonProgress {
	out := p
	out.CompletedTasks = make(map[int]struct{}, len(p.CompletedTasks))
	for idx := range p.CompletedTasks {
		out.CompletedTasks[idx] = struct{}{}
	}
	out.TaskScores = make(map[int]TaskScore, len(p.TaskScores))
	for idx, score := range p.TaskScores {
		out.TaskScores[idx] = score
	}
	return out
}

// TestResult is one completed timed test attempt.
type TestResult struct {
	ID              string
	UserID          UserID
	DurationSeconds int
	GrossWPM        int
	NetWPM          int
	Accuracy        float64
	Errors          int
	CreatedAt       time.Time
}

// QualifyingTest is a test attempt that met the certificate thresholds.
type QualifyingTest struct {
	NetWPM   int
	Accuracy float64
}

// Certificate is an issued proficiency certificate.
type Certificate struct {
	Code            string
	UserID          UserID
	UserName        string
	NetWPM          int
	Accuracy        float64
	DurationSeconds int
	IssuedAt        time.Time
}

// User is a local profile.
type User struct {
	ID        UserID
	Name      string
	CreatedAt time.Time
}
