package game

// Countdown is a whole-second countdown driven by external ticks.
// 0 <= remaining <= limit holds at all times.
type Countdown struct {
	limit     int
	remaining int
	fired     bool
}

func NewCountdown(limit int) *Countdown {
	c := &Countdown{}
	c.Reset(limit)
	return c
}

// Reset rearms the countdown with a new limit.
func (c *Countdown) Reset(limit int) {
	if limit < 0 {
		limit = 0
	}
	c.limit = limit
	c.remaining = limit
	c.fired = false
}

// Tick decrements by one and reports expiry. It returns true exactly once
// per Reset.
func (c *Countdown) Tick() bool {
	if c.fired {
		return false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining == 0 {
		c.fired = true
		return true
	}
	return false
}

func (c *Countdown) Remaining() int { return c.remaining }
func (c *Countdown) Limit() int     { return c.limit }
func (c *Countdown) Elapsed() int   { return c.limit - c.remaining }
func (c *Countdown) Expired() bool  { return c.fired }
