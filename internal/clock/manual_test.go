package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualRunsDueTasksInOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var order []string

	m.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	m.AfterFunc(time.Second, func() { order = append(order, "a") })
	m.AfterFunc(5*time.Second, func() { order = append(order, "late") })

	m.Advance(3 * time.Second)

	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 1, m.Pending())
	assert.Equal(t, time.Unix(3, 0), m.Now())
}

func TestManualEveryRepeatsUntilStopped(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	ticks := 0
	task := m.Every(time.Second, func() { ticks++ })

	m.Advance(3 * time.Second)
	require.Equal(t, 3, ticks)

	assert.True(t, task.Stop())
	assert.False(t, task.Stop())

	m.Advance(5 * time.Second)
	assert.Equal(t, 3, ticks)
	assert.Zero(t, m.Pending())
}

func TestManualCallbackCanScheduleAndCancel(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var fired []int
	var second Task

	m.AfterFunc(time.Second, func() {
		fired = append(fired, 1)
		second.Stop()
		m.AfterFunc(time.Second, func() { fired = append(fired, 3) })
	})
	second = m.AfterFunc(1500*time.Millisecond, func() { fired = append(fired, 2) })

	m.Advance(2 * time.Second)

	assert.Equal(t, []int{1, 3}, fired)
}

func TestRealEveryStops(t *testing.T) {
	ticks := make(chan struct{}, 16)
	task := Real().Every(5*time.Millisecond, func() { ticks <- struct{}{} })

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("ticker never fired")
	}
	assert.True(t, task.Stop())
	assert.False(t, task.Stop())
}
