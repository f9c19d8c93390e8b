package stats

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"golang.org/x/term"

	"github.com/verte-zerg/ttj/internal/certificate"
	"github.com/verte-zerg/ttj/internal/metrics"
)

const (
	terminalWidthBackup = 80
	trendWindow         = 3
	trendLabel          = "Net WPM trend: "
)

// TerminalWidth returns the stdout width or a fallback when it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// RenderDashboard prints the report. A width of zero uses the terminal width.
func RenderDashboard(w io.Writer, r Report, width int) error {
	if width <= 0 {
		width = TerminalWidth()
	}
	p := &printer{w: w}

	p.linef("Dashboard for %s", r.User.Name)
	p.line("")
	p.linef("Tests taken: %d", r.TestsTaken)
	if r.Best != nil {
		level := metrics.Level(r.Best.NetWPM)
		p.linef("Best test: %d WPM (%s) at %.2f%% accuracy over %ds", r.Best.NetWPM, level.Label, r.Best.Accuracy, r.Best.DurationSeconds)
	} else {
		p.line("Best test: none yet")
	}
	p.linef("Lessons completed: %d/%d", r.CompletedLessons, len(r.Lessons))

	switch {
	case r.Certificate != nil:
		p.linef("Certificate: %s (%d WPM, %.2f%%)", r.Certificate.Code, r.Certificate.NetWPM, r.Certificate.Accuracy)
	case r.Eligibility.Eligible:
		p.line("Certificate: eligible, run `ttj certificate` to claim it")
	default:
		p.linef("Certificate: %s", EligibilityHint(r.Eligibility))
	}
	p.line("")

	if len(r.Recent) == 0 {
		p.line("No tests found.")
		return p.err
	}

	p.line("Recent Tests")
	headers := []string{"Date", "Duration", "Net WPM", "Gross WPM", "Accuracy", "Errors"}
	rows := make([][]string, 0, len(r.Recent))
	for _, t := range r.Recent {
		rows = append(rows, []string{
			t.CreatedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%ds", t.DurationSeconds),
			strconv.Itoa(t.NetWPM),
			strconv.Itoa(t.GrossWPM),
			fmt.Sprintf("%.2f%%", t.Accuracy),
			strconv.Itoa(t.Errors),
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}) {
		p.line(line)
	}

	if trend := r.NetWPMTrend(); len(trend) > 1 {
		avg := MovingAverage(trend, trendWindow)
		p.line("")
		p.line(trendLabel + Sparkline(Tail(avg, width-len(trendLabel))))
	}
	return p.err
}

// EligibilityHint describes what is still missing for a certificate.
func EligibilityHint(e certificate.Eligibility) string {
	switch {
	case e.LessonsMissing() > 0 && e.Best == nil:
		return fmt.Sprintf("complete %d more lesson(s) and pass a %ds test at %d WPM with %.0f%% accuracy",
			e.LessonsMissing(), certificate.QualifyingDuration, certificate.MinNetWPM, certificate.MinAccuracy)
	case e.LessonsMissing() > 0:
		return fmt.Sprintf("complete %d more lesson(s)", e.LessonsMissing())
	default:
		return fmt.Sprintf("pass a %ds test at %d WPM with %.0f%% accuracy",
			certificate.QualifyingDuration, certificate.MinNetWPM, certificate.MinAccuracy)
	}
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}

func (p *printer) linef(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}
