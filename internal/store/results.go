package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/oklog/ulid/v2"

	"github.com/verte-zerg/ttj/internal/model"
)

// AppendTestResult stores a completed timed test. ID and CreatedAt are filled when empty.
func (s *Store) AppendTestResult(ctx context.Context, userID model.UserID, r model.TestResult) (model.TestResult, error) {
	if r.ID == "" {
		r.ID = ulid.Make().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UserID = userID
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO test_results (id, user_id, duration_seconds, gross_wpm, net_wpm, accuracy, errors, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(userID), r.DurationSeconds, r.GrossWPM, r.NetWPM, r.Accuracy, r.Errors, formatTime(r.CreatedAt))
	if err != nil {
		return model.TestResult{}, err
	}
	return r, nil
}

// QueryQualifyingTests returns attempts of the given duration that meet both thresholds,
// ordered by net WPM then accuracy, best first.
func (s *Store) QueryQualifyingTests(ctx context.Context, userID model.UserID, durationSeconds, minNetWPM int, minAccuracy float64) ([]model.QualifyingTest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT net_wpm, accuracy FROM test_results
		 WHERE user_id = ? AND duration_seconds = ? AND net_wpm >= ? AND accuracy >= ?
		 ORDER BY net_wpm DESC, accuracy DESC`,
		string(userID), durationSeconds, minNetWPM, minAccuracy)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.QualifyingTest
	for rows.Next() {
		var q model.QualifyingTest
		if err := rows.Scan(&q.NetWPM, &q.Accuracy); err != nil {
			return nil, err
		}
		result = append(result, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountTestResults returns how many timed tests the user has completed.
func (s *Store) CountTestResults(ctx context.Context, userID model.UserID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM test_results WHERE user_id = ?`, string(userID)).Scan(&count)
	return count, err
}

// BestTestResult returns the highest net WPM attempt of any duration, or nil when none exist.
func (s *Store) BestTestResult(ctx context.Context, userID model.UserID) (*model.TestResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, duration_seconds, gross_wpm, net_wpm, accuracy, errors, created_at
		 FROM test_results WHERE user_id = ?
		 ORDER BY net_wpm DESC, accuracy DESC, created_at ASC
		 LIMIT 1`,
		string(userID))
	r, err := scanTestResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// RecentTestResults returns up to limit attempts, newest first.
func (s *Store) RecentTestResults(ctx context.Context, userID model.UserID, limit int) ([]model.TestResult, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, duration_seconds, gross_wpm, net_wpm, accuracy, errors, created_at
		 FROM test_results WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		string(userID), limit)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.TestResult
	for rows.Next() {
		r, err := scanTestResult(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanTestResult(row rowScanner) (model.TestResult, error) {
	var (
		r         model.TestResult
		userID    string
		createdAt string
	)
	if err := row.Scan(&r.ID, &userID, &r.DurationSeconds, &r.GrossWPM, &r.NetWPM, &r.Accuracy, &r.Errors, &createdAt); err != nil {
		return model.TestResult{}, err
	}
	parsed, err := parseTime(createdAt)
	if err != nil {
		return model.TestResult{}, err
	}
	r.UserID = model.UserID(userID)
	r.CreatedAt = parsed
	return r, nil
}
