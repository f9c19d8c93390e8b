package tui

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/timer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/ttj/internal/lesson"
	"github.com/verte-zerg/ttj/internal/model"
	"github.com/verte-zerg/ttj/internal/results"
	"github.com/verte-zerg/ttj/internal/texts"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type fakeTracker struct {
	calls []int
	out   lesson.SubmitOutcome
}

func (f *fakeTracker) Submit(_ context.Context, _ *model.UserID, _ int, taskIndex int, _ model.TypingResult) lesson.SubmitOutcome {
	f.calls = append(f.calls, taskIndex)
	return f.out
}

type fakeRecorder struct {
	durations []int
	out       results.SaveOutcome
}

func (f *fakeRecorder) Save(_ context.Context, user *model.UserID, duration int, _ model.TypingResult) results.SaveOutcome {
	f.durations = append(f.durations, duration)
	if user == nil {
		return results.SaveOutcome{Reason: model.ReasonGuest}
	}
	return f.out
}

func newTestModel(t *testing.T, cfg Config) (*Model, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg.Log = log
	cfg.Now = c.Now
	cfg.TickInterval = -1
	if cfg.Prompts == nil {
		cfg.Prompts = texts.NewSeededPicker([]string{"abc def", "ghi jkl"}, 1)
	}
	m := NewModel(cfg)
	t.Cleanup(m.Close)
	return m, c
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m *Model, msg tea.Msg) tea.Cmd {
	_, cmd := m.Update(msg)
	return cmd
}

// collect runs cmd and expands batches into their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, collect(c)...)
	}
	return out
}

func savedFrom(t *testing.T, cmd tea.Cmd) savedMsg {
	t.Helper()
	for _, msg := range collect(cmd) {
		if saved, ok := msg.(savedMsg); ok {
			return saved
		}
	}
	t.Fatalf("expected a save message")
	return savedMsg{}
}

func typeAll(m *Model, c *clock, text string) tea.Cmd {
	r := []rune(text)
	send(m, runes(string(r[:1])))
	c.Advance(30 * time.Second)
	return send(m, runes(string(r[1:])))
}

func TestPracticeCompletesAndRestarts(t *testing.T) {
	m, c := newTestModel(t, Config{Mode: ModePractice})
	ref := string(m.reference)
	gen := m.gen

	if cmd := typeAll(m, c, ref); cmd != nil {
		t.Fatalf("practice should not persist anything")
	}
	if !m.finished {
		t.Fatalf("expected session to finish")
	}
	if m.final.Accuracy != 100 || m.final.Input != ref {
		t.Fatalf("unexpected final result: %+v", m.final)
	}
	if !strings.Contains(m.View(), "WPM") {
		t.Fatalf("expected result card in view")
	}

	send(m, runes("x"))
	if !m.finished {
		t.Fatalf("typing after completion must not restart")
	}
	send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.finished || m.gen != gen+1 || m.ctrl.Input() != "" {
		t.Fatalf("expected a fresh session after enter")
	}
	if string(m.reference) == ref {
		t.Fatalf("expected a different prompt")
	}
}

func TestPasteAndBackspaceIgnored(t *testing.T) {
	m, _ := newTestModel(t, Config{Mode: ModePractice})
	send(m, runes("a"))
	send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("bc def"), Paste: true})
	if m.ctrl.Input() != "a" {
		t.Fatalf("paste must not change input, got %q", m.ctrl.Input())
	}
	if m.status != "Pasting is disabled." {
		t.Fatalf("unexpected status: %q", m.status)
	}
	send(m, tea.KeyMsg{Type: tea.KeyBackspace})
	if m.ctrl.Input() != "a" {
		t.Fatalf("backspace must not change input, got %q", m.ctrl.Input())
	}
}

func TestStaleSessionEventsIgnored(t *testing.T) {
	m, _ := newTestModel(t, Config{Mode: ModePractice})
	old := m.gen
	send(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	send(m, sessionMsg{gen: old, kind: eventProgress, result: model.TypingResult{NetWPM: 99}})
	if m.live.NetWPM != 0 {
		t.Fatalf("stale event updated live metrics")
	}
	send(m, sessionMsg{gen: m.gen, kind: eventProgress, result: model.TypingResult{NetWPM: 12}})
	if m.live.NetWPM != 12 {
		t.Fatalf("expected current event to update live metrics")
	}
}

func TestLessonPassSubmitsAndAdvances(t *testing.T) {
	l, _ := lesson.Lookup(1)
	user := model.UserID("u")
	tracker := &fakeTracker{out: lesson.SubmitOutcome{NewHighScore: true}}
	m, c := newTestModel(t, Config{Mode: ModeLesson, User: &user, Lesson: l, TaskIndex: 0, Tracker: tracker})

	cmd := typeAll(m, c, l.Tasks[0])
	if !m.finished || !m.passed || !m.saving {
		t.Fatalf("expected a passing attempt being saved")
	}
	saved := savedFrom(t, cmd)
	if len(tracker.calls) != 1 || tracker.calls[0] != 0 {
		t.Fatalf("unexpected submit calls: %v", tracker.calls)
	}
	send(m, saved)
	if m.saving || !strings.Contains(m.status, "New high score!") {
		t.Fatalf("unexpected status after save: %q", m.status)
	}
	send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.taskIndex != 1 || string(m.reference) != l.Tasks[1] {
		t.Fatalf("expected task 2, got index %d", m.taskIndex)
	}
}

func TestLessonFailureRetriesSameTask(t *testing.T) {
	l, _ := lesson.Lookup(2)
	user := model.UserID("u")
	tracker := &fakeTracker{}
	m, c := newTestModel(t, Config{Mode: ModeLesson, User: &user, Lesson: l, TaskIndex: 1, Tracker: tracker})

	task := []rune(l.Tasks[1])
	wrong := string(task[0]) + strings.Repeat("~", len(task)-1)
	if cmd := typeAll(m, c, wrong); cmd != nil {
		t.Fatalf("failed attempt must not be submitted")
	}
	if m.passed || !strings.Contains(m.status, "below 90%") {
		t.Fatalf("unexpected state: passed=%v status=%q", m.passed, m.status)
	}
	if len(tracker.calls) != 0 {
		t.Fatalf("unexpected submit")
	}
	send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.taskIndex != 1 || m.finished {
		t.Fatalf("expected retry of the same task")
	}
}

func TestTimedTestTimeoutSavesSelectedDuration(t *testing.T) {
	recorder := &fakeRecorder{}
	m, c := newTestModel(t, Config{Mode: ModeTest, DurationSeconds: 30, Recorder: recorder})
	if !strings.Contains(m.View(), "00:30") {
		t.Fatalf("expected countdown in view")
	}

	if cmd := send(m, runes("a")); cmd == nil {
		t.Fatalf("expected the countdown to start on first input")
	}
	c.Advance(30 * time.Second)
	cmd := send(m, timer.TimeoutMsg{ID: m.timer.ID()})
	if !m.finished {
		t.Fatalf("expected timeout to finish the test")
	}
	if !m.ctrl.Disabled() {
		t.Fatalf("expected input to be disabled after timeout")
	}
	saved := savedFrom(t, cmd)
	if len(recorder.durations) != 1 || recorder.durations[0] != 30 {
		t.Fatalf("unexpected saves: %v", recorder.durations)
	}
	send(m, saved)
	if !strings.Contains(m.status, "not saved") {
		t.Fatalf("expected guest notice, got %q", m.status)
	}
}

func TestTimedTestIgnoresTimeoutBeforeStart(t *testing.T) {
	m, _ := newTestModel(t, Config{Mode: ModeTest, DurationSeconds: 15, Recorder: &fakeRecorder{}})
	send(m, timer.TimeoutMsg{ID: m.timer.ID()})
	if m.finished {
		t.Fatalf("timeout before the first keystroke must be ignored")
	}
}

func TestFormatClock(t *testing.T) {
	if got := formatClock(75 * time.Second); got != "01:15" {
		t.Fatalf("unexpected clock: %s", got)
	}
	if got := formatClock(-time.Second); got != "00:00" {
		t.Fatalf("unexpected clock: %s", got)
	}
}
