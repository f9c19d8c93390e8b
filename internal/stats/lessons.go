package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/ttj/internal/lesson"
)

// RenderLessons prints the lesson catalog with the user's progress, if any.
func RenderLessons(w io.Writer, statuses []lesson.LessonStatus) error {
	p := &printer{w: w}
	headers := []string{"#", "Lesson", "Focus", "Tasks", "Best", "Status"}
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		best := "-"
		if len(s.CompletedTasks) > 0 || s.BestNetWPM > 0 {
			best = fmt.Sprintf("%d WPM %.0f%%", s.BestNetWPM, s.BestAccuracy)
		}
		status := "not started"
		switch {
		case s.Passed:
			status = "completed"
		case len(s.CompletedTasks) > 0:
			status = "in progress"
		}
		rows = append(rows, []string{
			strconv.Itoa(s.Lesson.ID),
			s.Lesson.Title,
			s.Lesson.Focus,
			fmt.Sprintf("%d/%d", len(s.CompletedTasks), s.Lesson.TotalTasks()),
			best,
			status,
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{0: true, 3: true}) {
		p.line(line)
	}
	return p.err
}
