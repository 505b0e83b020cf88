package trace

import (
	"runtime"
	"sync/atomic"
)

// critSection is a single lock word guarding the recorder's buffer state.
// It offers two acquisition disciplines over the same word: task context
// may yield while waiting, interrupt context spins without yielding.
// Either discipline excludes both.
//
// Holders keep the scope bounded: no blocking, no allocation, no I/O.
// Hold times are a handful of scalar writes, or one bounded buffer copy
// on the drain path.
type critSection struct {
	locked uint32
}

// enterTask acquires the section from task context, yielding the
// processor between attempts.
func (c *critSection) enterTask() {
	for !atomic.CompareAndSwapUint32(&c.locked, 0, 1) {
		runtime.Gosched()
	}
}

// enterISR acquires the section from interrupt context. It spins without
// yielding; interrupt-discipline callers must not touch the scheduler.
func (c *critSection) enterISR() {
	for !atomic.CompareAndSwapUint32(&c.locked, 0, 1) {
	}
}

func (c *critSection) exit() {
	atomic.StoreUint32(&c.locked, 0)
}
