// Package session drives a single typing attempt from raw input events to metrics.
package session

import (
	"sync"
	"time"

	"github.com/verte-zerg/ttj/internal/metrics"
	"github.com/verte-zerg/ttj/internal/model"
)

// DefaultTickInterval is the period of progress events while the user pauses.
const DefaultTickInterval = time.Second

// State is the lifecycle stage of a Controller.
type State int

const (
	// Idle means no input has been accepted yet.
	Idle State = iota
	// Running means the clock is started and the text is not finished.
	Running
	// Complete is terminal.
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Observer receives session events. Calls are serialized and made while the
// controller is locked, so implementations must not call back into it.
type Observer interface {
	OnStart()
	OnProgress(model.TypingResult)
	OnComplete(model.TypingResult)
}

// Funcs adapts optional callbacks to Observer.
type Funcs struct {
	Start    func()
	Progress func(model.TypingResult)
	Complete func(model.TypingResult)
}

// OnStart implements Observer.
func (f Funcs) OnStart() {
	if f.Start != nil {
		f.Start()
	}
}

// OnProgress implements Observer.
func (f Funcs) OnProgress(r model.TypingResult) {
	if f.Progress != nil {
		f.Progress(r)
	}
}

// OnComplete implements Observer.
func (f Funcs) OnComplete(r model.TypingResult) {
	if f.Complete != nil {
		f.Complete(r)
	}
}

// Options configures a Controller.
type Options struct {
	Reference    string
	Disabled     bool
	InitialInput string
	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time
	// TickInterval is the progress timer period. Zero selects
	// DefaultTickInterval; a negative value disables the timer.
	TickInterval time.Duration
}

// Controller owns the input and timing of one typing attempt.
// Restarting means discarding the controller and creating a new one.
type Controller struct {
	mu sync.Mutex

	reference []rune
	input     []rune
	disabled  bool
	state     State
	startedAt time.Time
	endedAt   time.Time

	now      func() time.Time
	interval time.Duration
	obs      Observer

	stop   chan struct{}
	closed bool
}

// New constructs a controller in the Idle state.
func New(opts Options, obs Observer) *Controller {
	if obs == nil {
		obs = Funcs{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	interval := opts.TickInterval
	if interval == 0 {
		interval = DefaultTickInterval
	}
	c := &Controller{
		reference: []rune(opts.Reference),
		disabled:  opts.Disabled,
		now:       now,
		interval:  interval,
		obs:       obs,
	}
	initial := []rune(opts.InitialInput)
	if len(initial) <= len(c.reference) {
		c.input = initial
	}
	if len(c.reference) > 0 && len(c.input) == len(c.reference) {
		at := now()
		c.state = Complete
		c.startedAt = at
		c.endedAt = at
	}
	return c
}

// Reference returns the text being typed.
func (c *Controller) Reference() string {
	return string(c.reference)
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Input returns the accepted input so far.
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.input)
}

// Disabled reports whether input is currently suppressed.
func (c *Controller) Disabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disabled
}

// SetDisabled suppresses or re-enables input acceptance.
func (c *Controller) SetDisabled(disabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled = disabled
}

// Propose offers the full new input value. Values that overtype the
// reference, delete characters, rewrite earlier characters, or change
// nothing are ignored and leave state untouched. It reports whether the
// value was accepted.
func (c *Controller) Propose(value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disabled || c.state == Complete {
		return false
	}
	proposed := []rune(value)
	if len(proposed) > len(c.reference) || len(proposed) <= len(c.input) {
		return false
	}
	if !extends(proposed, c.input) {
		return false
	}

	now := c.now()
	if c.state == Idle {
		c.state = Running
		c.startedAt = now
		c.obs.OnStart()
		c.startTimerLocked()
	}
	c.input = proposed

	if len(c.input) == len(c.reference) {
		c.state = Complete
		c.endedAt = now
		c.stopTimerLocked()
		c.obs.OnComplete(c.resultLocked(now))
		return true
	}
	c.obs.OnProgress(c.resultLocked(now))
	return true
}

// TypeRune appends a single character.
func (c *Controller) TypeRune(r rune) bool {
	return c.Propose(c.Input() + string(r))
}

// TypeRunes appends characters one at a time and reports how many were accepted.
func (c *Controller) TypeRunes(runes []rune) int {
	accepted := 0
	for _, r := range runes {
		if !c.TypeRune(r) {
			break
		}
		accepted++
	}
	return accepted
}

// Paste is always rejected so that every character carries keystroke timing.
func (c *Controller) Paste(string) bool {
	return false
}

// Tick emits a progress event if the session is running. The internal
// timer calls it; callers with their own event loop may call it directly.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Running || c.closed {
		return
	}
	c.obs.OnProgress(c.resultLocked(c.now()))
}

// Result returns the metrics as of now, or as of completion.
func (c *Controller) Result() model.TypingResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resultLocked(c.now())
}

// StartedAt returns the instant of the first accepted character.
func (c *Controller) StartedAt() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startedAt, c.state != Idle
}

// Close stops the timer. The controller must not be reused afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.stopTimerLocked()
}

func (c *Controller) resultLocked(now time.Time) model.TypingResult {
	switch c.state {
	case Idle:
		return metrics.Compute(string(c.reference), string(c.input), now, now)
	case Complete:
		return metrics.Compute(string(c.reference), string(c.input), c.startedAt, c.endedAt)
	default:
		return metrics.Compute(string(c.reference), string(c.input), c.startedAt, now)
	}
}

func (c *Controller) startTimerLocked() {
	if c.interval < 0 || c.closed || c.stop != nil {
		return
	}
	stop := make(chan struct{})
	c.stop = stop
	interval := c.interval
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.Tick()
			}
		}
	}()
}

func (c *Controller) stopTimerLocked() {
	if c.stop == nil {
		return
	}
	close(c.stop)
	c.stop = nil
}

func extends(proposed, current []rune) bool {
	for i, r := range current {
		if proposed[i] != r {
			return false
		}
	}
	return true
}
