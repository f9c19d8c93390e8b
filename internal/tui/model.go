// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/timer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/ttj/internal/lesson"
	"github.com/verte-zerg/ttj/internal/metrics"
	"github.com/verte-zerg/ttj/internal/model"
	"github.com/verte-zerg/ttj/internal/results"
	"github.com/verte-zerg/ttj/internal/session"
	"github.com/verte-zerg/ttj/internal/texts"
)

// Mode selects what the typing screen is used for.
type Mode int

const (
	// ModePractice types random prompts without saving.
	ModePractice Mode = iota
	// ModeLesson types lesson tasks and records passes.
	ModeLesson
	// ModeTest runs a countdown and saves the result.
	ModeTest
)

const (
	eventBuffer  = 32
	maxTextLines = 5
	// testRunesPerSecond sizes timed test text so it outlasts the countdown.
	testRunesPerSecond = 15
)

// TaskSubmitter records lesson task attempts.
type TaskSubmitter interface {
	Submit(ctx context.Context, user *model.UserID, lessonID, taskIndex int, r model.TypingResult) lesson.SubmitOutcome
}

// TestSaver records timed test results.
type TestSaver interface {
	Save(ctx context.Context, user *model.UserID, durationSeconds int, r model.TypingResult) results.SaveOutcome
}

// Config wires a Model.
type Config struct {
	Mode Mode
	// User is nil for a guest.
	User *model.UserID

	Prompts *texts.Picker

	Lesson    lesson.Lesson
	TaskIndex int
	Tracker   TaskSubmitter

	DurationSeconds int
	Recorder        TestSaver

	Log logrus.FieldLogger
	// Now and TickInterval are passed to every session controller.
	Now          func() time.Time
	TickInterval time.Duration
}

type eventKind int

const (
	eventStart eventKind = iota
	eventProgress
	eventComplete
)

type sessionMsg struct {
	gen    int
	kind   eventKind
	result model.TypingResult
}

type savedMsg struct {
	gen     int
	ok      bool
	passed  bool
	message string
}

// events forwards controller callbacks into the Bubble Tea loop. Sends never
// block because callbacks run under the controller lock.
type events struct {
	gen int
	ch  chan sessionMsg
}

func (e events) send(msg sessionMsg) {
	select {
	case e.ch <- msg:
	default:
	}
}

func (e events) OnStart() {
	e.send(sessionMsg{gen: e.gen, kind: eventStart})
}

func (e events) OnProgress(r model.TypingResult) {
	e.send(sessionMsg{gen: e.gen, kind: eventProgress, result: r})
}

func (e events) OnComplete(r model.TypingResult) {
	e.send(sessionMsg{gen: e.gen, kind: eventComplete, result: r})
}

type keyMap struct {
	Quit      key.Binding
	Next      key.Binding
	Restart   key.Binding
	RetrySave key.Binding
}

var keys = keyMap{
	Quit:      key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	Next:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "next")),
	Restart:   key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "restart")),
	RetrySave: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "retry save")),
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	cfg Config
	log logrus.FieldLogger

	width  int
	height int

	gen       int
	events    chan sessionMsg
	ctrl      *session.Controller
	reference []rune
	taskIndex int

	timer   timer.Model
	started bool

	live     model.TypingResult
	finished bool
	final    model.TypingResult
	passed   bool

	saving     bool
	saveFailed bool
	status     string
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	titleStyle       = lipgloss.NewStyle().Bold(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	resultStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
)

// NewModel constructs a typing TUI model.
func NewModel(cfg Config) *Model {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.DurationSeconds <= 0 {
		cfg.DurationSeconds = results.DefaultDuration
	}
	if cfg.Prompts == nil {
		cfg.Prompts = texts.NewPicker(texts.Builtin())
	}
	m := &Model{
		cfg:       cfg,
		log:       log,
		events:    make(chan sessionMsg, eventBuffer),
		taskIndex: cfg.TaskIndex,
	}
	m.resetSession()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.waitForEvent()
}

// Close stops the active session timer.
func (m *Model) Close() {
	if m.ctrl != nil {
		m.ctrl.Close()
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case sessionMsg:
		if msg.gen == m.gen && !m.finished && msg.kind == eventProgress {
			m.live = msg.result
		}
		return m, m.waitForEvent()
	case savedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.saving = false
		m.saveFailed = !msg.ok
		m.passed = msg.passed
		m.status = msg.message
		return m, nil
	case timer.TimeoutMsg:
		if msg.ID != m.timer.ID() || m.finished || !m.started {
			return m, nil
		}
		m.ctrl.SetDisabled(true)
		return m, m.finish(m.ctrl.Result())
	case timer.TickMsg, timer.StartStopMsg:
		var cmd tea.Cmd
		m.timer, cmd = m.timer.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Quit):
		m.Close()
		return tea.Quit
	case key.Matches(msg, keys.Restart):
		m.resetSession()
		return nil
	case m.finished && key.Matches(msg, keys.Next):
		if m.saving {
			return nil
		}
		m.advance()
		return nil
	case m.finished && m.saveFailed && key.Matches(msg, keys.RetrySave):
		return m.persist(m.final)
	}
	if m.finished {
		return nil
	}

	if msg.Paste {
		if !m.ctrl.Paste(string(msg.Runes)) {
			m.status = "Pasting is disabled."
		}
		return nil
	}
	switch msg.Type {
	case tea.KeySpace:
		return m.handleRunes([]rune{' '})
	case tea.KeyRunes:
		return m.handleRunes(msg.Runes)
	default:
		// Backspace, delete and navigation keys never edit the input.
		return nil
	}
}

func (m *Model) handleRunes(runes []rune) tea.Cmd {
	wasIdle := m.ctrl.State() == session.Idle
	if m.ctrl.TypeRunes(runes) == 0 {
		return nil
	}
	m.status = ""
	var cmds []tea.Cmd
	if wasIdle && m.cfg.Mode == ModeTest {
		m.started = true
		cmds = append(cmds, m.timer.Init())
	}
	if m.ctrl.State() == session.Complete {
		cmds = append(cmds, m.finish(m.ctrl.Result()))
	} else {
		m.live = m.ctrl.Result()
	}
	return tea.Batch(cmds...)
}

func (m *Model) finish(r model.TypingResult) tea.Cmd {
	m.finished = true
	m.final = r
	m.live = r
	m.ctrl.Close()

	var cmds []tea.Cmd
	if m.cfg.Mode == ModeTest {
		cmds = append(cmds, m.timer.Stop())
	}
	if m.cfg.Mode == ModeLesson {
		task, _ := m.cfg.Lesson.Task(m.taskIndex)
		m.passed = lesson.Passes(task, r)
		if !m.passed {
			m.status = fmt.Sprintf("Accuracy %.2f%% is below %.0f%%. Press enter to retry.", r.Accuracy, lesson.PassAccuracy)
			return tea.Batch(cmds...)
		}
	}
	cmds = append(cmds, m.persist(r))
	return tea.Batch(cmds...)
}

// persist saves the finished attempt off the UI loop.
func (m *Model) persist(r model.TypingResult) tea.Cmd {
	gen := m.gen
	user := m.cfg.User
	switch m.cfg.Mode {
	case ModeLesson:
		if m.cfg.Tracker == nil {
			return nil
		}
		m.saving = true
		lessonID, taskIndex, tracker := m.cfg.Lesson.ID, m.taskIndex, m.cfg.Tracker
		return func() tea.Msg {
			out := tracker.Submit(context.Background(), user, lessonID, taskIndex, r)
			return lessonSavedMsg(gen, out)
		}
	case ModeTest:
		if m.cfg.Recorder == nil {
			return nil
		}
		m.saving = true
		duration, recorder := m.cfg.DurationSeconds, m.cfg.Recorder
		return func() tea.Msg {
			out := recorder.Save(context.Background(), user, duration, r)
			return testSavedMsg(gen, out)
		}
	default:
		return nil
	}
}

func lessonSavedMsg(gen int, out lesson.SubmitOutcome) savedMsg {
	switch out.Reason {
	case model.ReasonNone:
		parts := []string{"Task passed!"}
		if out.NewHighScore {
			parts = append(parts, "New high score!")
		}
		if out.LessonCompleted {
			parts = append(parts, "Lesson complete!")
		}
		return savedMsg{gen: gen, ok: true, passed: true, message: strings.Join(parts, " ")}
	case model.ReasonGuest:
		return savedMsg{gen: gen, ok: true, passed: true, message: "Task passed. " + capitalize(out.Reason.Message()) + "."}
	case model.ReasonFailedCriteria:
		return savedMsg{gen: gen, ok: true, message: capitalize(out.Reason.Message()) + "."}
	default:
		return savedMsg{gen: gen, passed: true, message: capitalize(out.Reason.Message()) + " (ctrl+s)."}
	}
}

func testSavedMsg(gen int, out results.SaveOutcome) savedMsg {
	switch out.Reason {
	case model.ReasonNone:
		return savedMsg{gen: gen, ok: true, message: "Test result saved!"}
	case model.ReasonGuest:
		return savedMsg{gen: gen, ok: true, message: capitalize(out.Reason.Message()) + "."}
	default:
		return savedMsg{gen: gen, message: capitalize(out.Reason.Message()) + " (ctrl+s)."}
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// advance moves past a finished attempt: the next task after a lesson pass,
// otherwise a fresh session.
func (m *Model) advance() {
	if m.cfg.Mode == ModeLesson && m.passed {
		m.taskIndex = (m.taskIndex + 1) % max(1, m.cfg.Lesson.TotalTasks())
	}
	m.resetSession()
}

func (m *Model) resetSession() {
	if m.ctrl != nil {
		m.ctrl.Close()
	}
	m.gen++
	m.finished = false
	m.final = model.TypingResult{}
	m.live = model.TypingResult{}
	m.passed = false
	m.saving = false
	m.saveFailed = false
	m.status = ""
	m.started = false

	reference := m.nextReference()
	m.reference = []rune(reference)
	m.ctrl = session.New(session.Options{
		Reference:    reference,
		Now:          m.cfg.Now,
		TickInterval: m.cfg.TickInterval,
	}, events{gen: m.gen, ch: m.events})
	m.timer = timer.NewWithInterval(time.Duration(m.cfg.DurationSeconds)*time.Second, time.Second)
}

func (m *Model) nextReference() string {
	switch m.cfg.Mode {
	case ModeLesson:
		if task, ok := m.cfg.Lesson.Task(m.taskIndex); ok {
			return task
		}
		m.taskIndex = 0
		task, _ := m.cfg.Lesson.Task(0)
		return task
	case ModeTest:
		return m.cfg.Prompts.Join(m.cfg.DurationSeconds * testRunesPerSecond)
	default:
		return m.cfg.Prompts.Next()
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	ch := m.events
	return func() tea.Msg {
		return <-ch
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if len(m.reference) == 0 {
		return ""
	}
	contentWidth := 0
	if m.width > 0 {
		contentWidth = max(1, int(float64(m.width)*0.70))
	}

	sections := []string{titleStyle.Render(m.title()), ""}
	if m.finished {
		sections = append(sections, m.renderResult())
	} else {
		input := []rune(m.ctrl.Input())
		cursorIndex := -1
		if len(input) < len(m.reference) {
			cursorIndex = len(input)
		}
		styled := buildStyledRunes(m.reference, input, cursorIndex)
		lines := visibleWindow(wrapLines(styled, contentWidth), cursorIndex, maxTextLines)
		sections = append(sections, renderLines(lines))
	}
	if m.status != "" {
		sections = append(sections, "", statusStyle.Render(m.status))
	}
	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return content + "\n\n" + footer
	}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) title() string {
	switch m.cfg.Mode {
	case ModeLesson:
		return fmt.Sprintf("%s · Task %d/%d", m.cfg.Lesson.Title, m.taskIndex+1, m.cfg.Lesson.TotalTasks())
	case ModeTest:
		remaining := m.timer.Timeout
		if !m.started {
			remaining = time.Duration(m.cfg.DurationSeconds) * time.Second
		}
		return fmt.Sprintf("Timed test · %s", formatClock(remaining))
	default:
		return "Practice"
	}
}

func (m *Model) renderResult() string {
	r := m.final
	level := metrics.Level(r.NetWPM)
	lines := []string{
		fmt.Sprintf("%d WPM  %s %s", r.NetWPM, lipgloss.NewStyle().Foreground(lipgloss.Color(level.Color)).Render(level.Icon), level.Label),
		fmt.Sprintf("Gross %d WPM · Accuracy %.2f%% · Errors %d · Time %s", r.GrossWPM, r.Accuracy, r.Errors, formatClock(secondsDuration(r.Duration))),
	}
	return resultStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderFooter() string {
	r := m.live
	segments := []string{
		fmt.Sprintf("WPM %d", r.NetWPM),
		fmt.Sprintf("Accuracy %.2f%%", r.Accuracy),
		fmt.Sprintf("Errors %d", r.Errors),
		fmt.Sprintf("Time %s", formatClock(secondsDuration(r.Duration))),
	}
	if m.finished {
		segments = append(segments, keys.Next.Help().Key+" "+keys.Next.Help().Desc)
	}
	segments = append(segments, keys.Quit.Help().Key+" "+keys.Quit.Help().Desc)
	return footerStyle.Render(strings.Join(segments, "  "))
}

func secondsDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
