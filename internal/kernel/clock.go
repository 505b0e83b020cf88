package kernel

import (
	"sync/atomic"
	"time"
)

// Clock supplies the kernel tick. Implementations must be safe for
// concurrent use; TickCount is read on every record.
type Clock interface {
	// TickCount returns the current tick. The counter is 32-bit and wraps.
	TickCount() uint32

	// TickRateHz returns ticks per second.
	TickRateHz() uint32
}

// DefaultTickRateHz matches the usual 1 kHz tick configuration.
const DefaultTickRateHz = 1000

// WallClock derives ticks from wall time at a fixed rate.
type WallClock struct {
	start time.Time
	hz    uint32
}

// NewWallClock creates a WallClock ticking at hz. Zero selects
// DefaultTickRateHz.
func NewWallClock(hz uint32) *WallClock {
	if hz == 0 {
		hz = DefaultTickRateHz
	}
	return &WallClock{start: time.Now(), hz: hz}
}

// TickCount returns elapsed ticks since construction, wrapping at 32 bits
// like the counter it stands in for.
func (c *WallClock) TickCount() uint32 {
	elapsed := time.Since(c.start)
	return uint32(elapsed * time.Duration(c.hz) / time.Second)
}

// TickRateHz returns the configured rate.
func (c *WallClock) TickRateHz() uint32 {
	return c.hz
}

// ManualClock is a hand-driven clock for tests and deterministic runs.
type ManualClock struct {
	tick uint32
	hz   uint32
}

// NewManualClock creates a ManualClock at hz. Zero selects
// DefaultTickRateHz.
func NewManualClock(hz uint32) *ManualClock {
	if hz == 0 {
		hz = DefaultTickRateHz
	}
	return &ManualClock{hz: hz}
}

// TickCount returns the current tick.
func (c *ManualClock) TickCount() uint32 {
	return atomic.LoadUint32(&c.tick)
}

// TickRateHz returns the configured rate.
func (c *ManualClock) TickRateHz() uint32 {
	return c.hz
}

// Advance moves the clock forward by ticks.
func (c *ManualClock) Advance(ticks uint32) {
	atomic.AddUint32(&c.tick, ticks)
}

// Set jumps the clock to an absolute tick.
func (c *ManualClock) Set(tick uint32) {
	atomic.StoreUint32(&c.tick, tick)
}
