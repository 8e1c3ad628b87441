package bot

import (
	"time"

	"golang.org/x/time/rate"
)

var epoch = time.Unix(0, 0)

// Clock is the agent's game time. It only moves when Advance is called, so cooldowns follow
// simulated ticks rather than the wall clock.
type Clock struct {
	elapsed  time.Duration
	limiters map[string]*limiter
}

type limiter struct {
	delay time.Duration
	rl    *rate.Limiter
}

func NewClock() *Clock {
	return &Clock{limiters: make(map[string]*limiter)}
}

// Advance moves game time forward by dt seconds. Negative values are ignored.
func (c *Clock) Advance(dt float64) {
	if dt > 0 {
		c.elapsed += time.Duration(dt * float64(time.Second))
	}
}

func (c *Clock) Now() time.Time         { return epoch.Add(c.elapsed) }
func (c *Clock) Seconds() float64       { return c.elapsed.Seconds() }
func (c *Clock) Elapsed() time.Duration { return c.elapsed }

// TimedActionDelay reports whether the action named key may run now and, if so, starts its
// cooldown of delay. A zero delay always allows the action.
func (c *Clock) TimedActionDelay(key string, delay time.Duration) bool {
	now := c.Now()
	l, ok := c.limiters[key]
	if !ok {
		l = &limiter{delay: delay, rl: rate.NewLimiter(every(delay), 1)}
		c.limiters[key] = l
	} else if l.delay != delay {
		l.delay = delay
		l.rl.SetLimitAt(now, every(delay))
	}
	return l.rl.AllowN(now, 1)
}

// Reset clears the cooldown of key so the next TimedActionDelay call succeeds.
func (c *Clock) Reset(key string) {
	delete(c.limiters, key)
}

func every(d time.Duration) rate.Limit {
	if d <= 0 {
		return rate.Inf
	}
	return rate.Every(d)
}
