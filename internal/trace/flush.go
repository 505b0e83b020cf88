package trace

import "sync/atomic"

// Flush drains buffered entries to the sink.
//
// In ModeDouble one cycle swaps the active ring under exclusion, snapshots
// and resets the retired ring, then formats and writes outside the lock.
// If the newly active ring gained entries while the dump was being written
// the cycle repeats, until a drain finds nothing. In ModeSingle there is
// one ring, records arriving during the drain are dropped, and no chaining
// happens because the ring is empty when the drain ends.
//
// A drain that finds no entries writes nothing, though it still counts as
// a flush. Flush is safe for concurrent use; cycles are serialized. Call
// it from task context only.
func (r *Recorder) Flush() {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	if r.mode == ModeSingle {
		r.flushSingle()
		return
	}
	for r.flushSwap() {
	}
}

// ForceFlush is an alias for Flush, kept for call sites that drain on
// demand rather than on a schedule.
func (r *Recorder) ForceFlush() {
	r.Flush()
}

// flushSwap runs one ModeDouble drain cycle and reports whether the ring
// now active already holds entries and the cycle should repeat.
func (r *Recorder) flushSwap() bool {
	r.crit.enterTask()
	retired := &r.rings[r.active]
	r.active ^= 1

	r.flushSeq++
	st := dumpStats{
		Seq:        r.flushSeq,
		Total:      r.totalWritten,
		Overwrites: retired.overwrites,
		Entries:    retired.count,
		Capacity:   retired.capacity(),
	}
	r.scratch = retired.snapshotInto(r.scratch[:0])
	retired.reset()
	r.crit.exit()

	if len(r.scratch) == 0 {
		return false
	}

	r.emit(st, r.scratch)

	// The other ring may have filled while the dump was being written.
	r.crit.enterTask()
	pending := r.rings[r.active].count
	atomic.StoreUint32(&r.flushReq, 0)
	r.crit.exit()

	return pending > 0
}

// flushSingle runs the one-ring drain. The draining flag goes up before
// the exclusion scope so racing recorders bail out early, and stays up
// until the dump has been written.
func (r *Recorder) flushSingle() {
	atomic.StoreUint32(&r.draining, 1)

	r.crit.enterTask()
	ring := &r.rings[0]
	r.flushSeq++
	st := dumpStats{
		Seq:        r.flushSeq,
		Total:      r.totalWritten,
		Overwrites: ring.overwrites,
		Entries:    ring.count,
		Capacity:   ring.capacity(),
	}
	r.scratch = ring.snapshotInto(r.scratch[:0])
	ring.resetEntries()
	r.crit.exit()

	if len(r.scratch) == 0 {
		atomic.StoreUint32(&r.draining, 0)
		return
	}

	r.emit(st, r.scratch)

	r.crit.enterTask()
	atomic.StoreUint32(&r.flushReq, 0)
	r.crit.exit()

	atomic.StoreUint32(&r.draining, 0)
}
