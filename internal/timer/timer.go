// Package timer provides the per-question countdown and the single periodic
// tick source that drives every countdown.
package timer

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// State of a Countdown.
type State int

const (
	Running State = iota
	Suspended
	Expired
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Expired:
		return "expired"
	}
	return "unknown"
}

// Countdown counts whole seconds down for one question. It is driven by Tick
// and is not safe for concurrent use; the owner serializes calls.
type Countdown struct {
	remaining int
	state     State
	onExpire  func()
}

// NewCountdown starts a running countdown. onExpire runs exactly once, from
// the Tick that reaches zero.
func NewCountdown(seconds int, onExpire func()) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{
		remaining: seconds,
		state:     Running,
		onExpire:  onExpire,
	}
}

// Tick advances a running countdown by one second and reports whether it
// expired on this tick. Ticks in any other state are ignored.
func (c *Countdown) Tick() bool {
	if c.state != Running {
		return false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining > 0 {
		return false
	}
	c.state = Expired
	if c.onExpire != nil {
		c.onExpire()
	}
	return true
}

// Suspend freezes a running countdown. Once suspended it never expires.
func (c *Countdown) Suspend() bool {
	if c.state != Running {
		return false
	}
	c.state = Suspended
	return true
}

func (c *Countdown) Remaining() int { return c.remaining }

func (c *Countdown) State() State { return c.state }

// Run calls fn once per interval on clock until ctx is done. It is the only
// periodic scheduling source for countdowns.
func Run(ctx context.Context, clock clockwork.Clock, interval time.Duration, fn func()) {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			fn()
		}
	}
}
