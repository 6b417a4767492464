package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfiler_TickBeforeIntervalReturnsNil(t *testing.T) {
	p := NewProfiler()
	assert.Nil(t, p.Tick())
	assert.Nil(t, p.Tick())
}

func TestProfiler_TickEmitsAfterInterval(t *testing.T) {
	p := NewProfiler()
	p.SetInterval(100 * time.Millisecond)

	p.Tick()
	time.Sleep(120 * time.Millisecond)
	sample := p.Tick()
	require.NotNil(t, sample)
	assert.Greater(t, sample.FPS, 0.0)
	assert.Greater(t, sample.SysMB, 0.0)

	// the window resets after a sample
	assert.Nil(t, p.Tick())
}
