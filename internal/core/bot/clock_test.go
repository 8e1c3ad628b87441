package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockCooldown(t *testing.T) {
	c := NewClock()
	c.Advance(0.1)

	assert.True(t, c.TimedActionDelay("fire", 200*time.Millisecond))
	assert.False(t, c.TimedActionDelay("fire", 200*time.Millisecond))

	c.Advance(0.1)
	assert.False(t, c.TimedActionDelay("fire", 200*time.Millisecond))

	c.Advance(0.15)
	assert.True(t, c.TimedActionDelay("fire", 200*time.Millisecond))

	// keys are independent
	assert.True(t, c.TimedActionDelay("ship", 200*time.Millisecond))
}

func TestClockZeroDelayAndReset(t *testing.T) {
	c := NewClock()
	assert.True(t, c.TimedActionDelay("free", 0))
	assert.True(t, c.TimedActionDelay("free", 0))

	assert.True(t, c.TimedActionDelay("slow", time.Hour))
	assert.False(t, c.TimedActionDelay("slow", time.Hour))
	c.Reset("slow")
	assert.True(t, c.TimedActionDelay("slow", time.Hour))
}

func TestClockAdvance(t *testing.T) {
	c := NewClock()
	c.Advance(0.5)
	c.Advance(-1)
	c.Advance(0)
	c.Advance(0.25)

	assert.InDelta(t, 0.75, c.Seconds(), 1e-9)
	assert.Equal(t, 750*time.Millisecond, c.Elapsed())
	assert.Equal(t, time.Unix(0, 0).Add(750*time.Millisecond), c.Now())
}
