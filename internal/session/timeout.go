package session

import "time"

// Inactivity defaults
const (
	DefaultTimeout = 15 * time.Minute
	DefaultWarning = 2 * time.Minute
	TickInterval   = time.Second
)

// State of an inactivity tracker
type State int

const (
	Active State = iota
	Warning
	Expired
)

func (s State) String() string {
	switch s {
	case Warning:
		return "warning"
	case Expired:
		return "expired"
	}
	return "active"
}

// Tracker measures inactivity against a timeout. It enters Warning once
// less than the warning window remains and Expired at the timeout.
// Hosts call Check on every tick and Touch on user input.
type Tracker struct {
	timeout time.Duration
	warning time.Duration
	last    time.Time
	now     func() time.Time
}

// NewTracker creates a tracker. Non-positive durations use the defaults and
// a warning window not shorter than the timeout is halved to fit.
func NewTracker(timeout, warning time.Duration, now func() time.Time) *Tracker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if warning <= 0 {
		warning = DefaultWarning
	}
	if warning >= timeout {
		warning = timeout / 2
	}
	if now == nil {
		now = time.Now
	}
	return &Tracker{timeout: timeout, warning: warning, last: now(), now: now}
}

// Touch records activity. An expired session stays expired.
func (t *Tracker) Touch() {
	if t.Check() == Expired {
		return
	}
	t.last = t.now()
}

// Continue restarts the timeout after the user dismisses a warning
func (t *Tracker) Continue() {
	t.last = t.now()
}

// Remaining returns the time left before expiry, never negative
func (t *Tracker) Remaining() time.Duration {
	left := t.timeout - t.now().Sub(t.last)
	if left < 0 {
		return 0
	}
	return left
}

// Check returns the current state
func (t *Tracker) Check() State {
	left := t.Remaining()
	switch {
	case left <= 0:
		return Expired
	case left <= t.warning:
		return Warning
	}
	return Active
}

// Timeout returns the configured timeout
func (t *Tracker) Timeout() time.Duration { return t.timeout }

// WarningWindow returns how long before expiry the warning starts
func (t *Tracker) WarningWindow() time.Duration { return t.warning }
