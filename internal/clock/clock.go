// Package clock provides a swappable notion of "now" and "ticker" so that
// time-driven components (the periodic exporting reader in particular) can
// be tested without sleeping in real time.
package clock

import "time"

// Clock lets tests substitute a fixed instant and a controlled ticker
// channel for time.Now and time.NewTicker.
type Clock struct {
	Instant  time.Time
	TickerCh chan time.Time
}

// instance is the process-wide override. Nil means "use real time".
var instance *Clock

// Set installs c as the process-wide clock override. Passing nil restores
// real time. Intended for use from tests only.
func Set(c *Clock) { instance = c }

// Now returns the overridden instant if one is installed, else time.Now().
func Now() time.Time {
	if instance == nil {
		return time.Now()
	}
	return instance.Instant
}

// NewTicker returns a real ticker unless an override with a TickerCh is
// installed, in which case it returns a ticker driven by that channel.
func NewTicker(d time.Duration) *time.Ticker {
	if instance == nil || instance.TickerCh == nil {
		return time.NewTicker(d)
	}
	return &time.Ticker{C: instance.TickerCh}
}
