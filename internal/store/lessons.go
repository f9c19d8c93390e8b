package store

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/verte-zerg/ttj/internal/model"
)

// ReadLessonProgress returns the stored progress, or nil when the user has no record for the lesson.
func (s *Store) ReadLessonProgress(ctx context.Context, userID model.UserID, lessonID int) (*model.LessonProgress, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT lesson_id, completed, completed_tasks, best_net_wpm, best_accuracy, version, updated_at
		 FROM lesson_progress WHERE user_id = ? AND lesson_id = ?`,
		string(userID), lessonID)
	_, progress, err := scanProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	scores, err := s.taskScores(ctx, userID, []int{lessonID})
	if err != nil {
		return nil, err
	}
	if got, ok := scores[lessonID]; ok {
		progress.TaskScores = got
	}
	return progress, nil
}

// WriteLessonProgress stores p if the row is still at expectedVersion and returns the new version.
// An expectedVersion of zero means the row must not exist yet.
func (s *Store) WriteLessonProgress(ctx context.Context, userID model.UserID, lessonID int, p model.LessonProgress, expectedVersion int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer rollback(tx)

	updatedAt := formatTime(s.now())
	next := expectedVersion + 1
	if expectedVersion == 0 {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO lesson_progress (user_id, lesson_id, completed, completed_tasks, best_net_wpm, best_accuracy, version, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			string(userID), lessonID, boolToInt(p.Completed), encodeTasks(p.CompletedTasks),
			p.BestNetWPM, p.BestAccuracy, next, updatedAt)
		if isUniqueViolation(err, "lesson_progress.") {
			return 0, ErrVersionConflict
		}
		if err != nil {
			return 0, err
		}
	} else {
		res, err := tx.ExecContext(ctx,
			`UPDATE lesson_progress
			 SET completed = ?, completed_tasks = ?, best_net_wpm = ?, best_accuracy = ?, version = ?, updated_at = ?
			 WHERE user_id = ? AND lesson_id = ? AND version = ?`,
			boolToInt(p.Completed), encodeTasks(p.CompletedTasks), p.BestNetWPM, p.BestAccuracy,
			next, updatedAt, string(userID), lessonID, expectedVersion)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, ErrVersionConflict
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM lesson_task_scores WHERE user_id = ? AND lesson_id = ?`,
		string(userID), lessonID); err != nil {
		return 0, err
	}
	if len(p.TaskScores) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO lesson_task_scores (user_id, lesson_id, task_index, wpm, accuracy, user_input)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for idx, score := range p.TaskScores {
			if _, err := stmt.ExecContext(ctx, string(userID), lessonID, idx, score.WPM, score.Accuracy, score.Input); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return next, nil
}

// ListLessonProgress returns every stored lesson record of the user keyed by lesson ID.
func (s *Store) ListLessonProgress(ctx context.Context, userID model.UserID) (map[int]model.LessonProgress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lesson_id, completed, completed_tasks, best_net_wpm, best_accuracy, version, updated_at
		 FROM lesson_progress WHERE user_id = ? ORDER BY lesson_id`,
		string(userID))
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	result := map[int]model.LessonProgress{}
	var ids []int
	for rows.Next() {
		lessonID, progress, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		result[lessonID] = *progress
		ids = append(ids, lessonID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return result, nil
	}

	scores, err := s.taskScores(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	for lessonID, got := range scores {
		progress, ok := result[lessonID]
		if !ok {
			continue
		}
		progress.TaskScores = got
		result[lessonID] = progress
	}
	return result, nil
}

// CountCompletedLessons returns the number of distinct lessons the user has completed.
func (s *Store) CountCompletedLessons(ctx context.Context, userID model.UserID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lesson_progress WHERE user_id = ? AND completed = 1`,
		string(userID)).Scan(&count)
	return count, err
}

func (s *Store) taskScores(ctx context.Context, userID model.UserID, lessonIDs []int) (map[int]map[int]model.TaskScore, error) {
	placeholders := make([]string, len(lessonIDs))
	args := make([]any, 0, len(lessonIDs)+1)
	args = append(args, string(userID))
	for i, id := range lessonIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT lesson_id, task_index, wpm, accuracy, user_input
		 FROM lesson_task_scores
		 WHERE user_id = ? AND lesson_id IN (`+strings.Join(placeholders, ",")+`)`,
		args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	result := map[int]map[int]model.TaskScore{}
	for rows.Next() {
		var lessonID, idx int
		var score model.TaskScore
		if err := rows.Scan(&lessonID, &idx, &score.WPM, &score.Accuracy, &score.Input); err != nil {
			return nil, err
		}
		if _, ok := result[lessonID]; !ok {
			result[lessonID] = map[int]model.TaskScore{}
		}
		result[lessonID][idx] = score
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanProgress(row rowScanner) (int, *model.LessonProgress, error) {
	var (
		lessonID  int
		completed int
		tasks     string
		updatedAt string
		progress  model.LessonProgress
	)
	if err := row.Scan(&lessonID, &completed, &tasks, &progress.BestNetWPM, &progress.BestAccuracy, &progress.Version, &updatedAt); err != nil {
		return 0, nil, err
	}
	parsed, err := parseTime(updatedAt)
	if err != nil {
		return 0, nil, err
	}
	set, err := decodeTasks(tasks)
	if err != nil {
		return 0, nil, err
	}
	progress.Completed = completed != 0
	progress.CompletedTasks = set
	progress.TaskScores = map[int]model.TaskScore{}
	progress.UpdatedAt = parsed
	return lessonID, &progress, nil
}

func encodeTasks(set map[int]struct{}) string {
	indices := make([]int, 0, len(set))
	for idx := range set {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ",")
}

func decodeTasks(value string) (map[int]struct{}, error) {
	set := map[int]struct{}{}
	if value == "" {
		return set, nil
	}
	for _, part := range strings.Split(value, ",") {
		idx, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		set[idx] = struct{}{}
	}
	return set, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
