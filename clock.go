package main

// SessionClock is the simulation time of one run. It only advances while
// unfrozen; an open upgrade round freezes the whole session.
type SessionClock struct {
	elapsed float64
	frozen  int // nesting depth, > 0 means frozen
}

// Freeze stops the clock. Calls nest.
func (c *SessionClock) Freeze() {
	c.frozen++
}

// Unfreeze undoes one Freeze
func (c *SessionClock) Unfreeze() {
	if c.frozen > 0 {
		c.frozen--
	}
}

// Frozen reports whether time is stopped
func (c *SessionClock) Frozen() bool {
	return c.frozen > 0
}

// Advance moves time forward by dt seconds and returns the simulated step,
// which is zero while frozen
func (c *SessionClock) Advance(dt float64) float64 {
	if c.frozen > 0 || dt <= 0 {
		return 0
	}
	c.elapsed += dt
	return dt
}

// Elapsed returns the simulated seconds since the run started
func (c *SessionClock) Elapsed() float64 {
	return c.elapsed
}

// Reset puts the clock back to zero, unfrozen
func (c *SessionClock) Reset() {
	c.elapsed = 0
	c.frozen = 0
}
