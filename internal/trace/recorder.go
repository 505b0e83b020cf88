package trace

import (
	"io"
	"sync"
	"sync/atomic"
)

// Recorder is one instance of the tracing subsystem: fixed ring buffers,
// the counters around them and the exclusion word guarding them. Construct
// with New; the zero value is not usable.
//
// Record and RecordFromISR never block, never allocate and never touch the
// sink. All sink I/O happens on the Flush path, outside the exclusion
// scope.
type Recorder struct {
	kernel    Kernel
	sink      io.Writer
	mode      BufferMode
	watermark uint32

	crit critSection

	rings  [2]ring
	active uint32 // index of the ring accepting writes; always 0 in ModeSingle

	totalWritten uint32 // guarded by crit
	flushSeq     uint32 // guarded by crit

	excluded uint64 // TaskRef whose records are suppressed; atomic
	flushReq uint32 // watermark crossed since the last completed drain; atomic
	draining uint32 // ModeSingle: a drain is in progress; atomic

	flushMu sync.Mutex // serializes whole flush cycles
	scratch []Entry    // snapshot area, owned by the flush path
}

// Record appends one entry from task context.
//
// The call returns without recording when the calling task is the
// registered excluded task, or, in ModeSingle, when a drain is in
// progress. Both conditions are checked before and after entering the
// exclusion scope.
func (r *Recorder) Record(kind Kind, object ObjectRef, value uint32) {
	task := r.kernel.CurrentTask()
	if task != 0 && task == r.excludedTask() {
		return
	}
	if r.mode == ModeSingle && atomic.LoadUint32(&r.draining) == 1 {
		return
	}

	e := r.newEntry(kind, object, value)
	e.Origin = OriginTask
	e.Task = task

	r.crit.enterTask()
	if task != 0 && task == r.excludedTask() {
		r.crit.exit()
		return
	}
	if r.mode == ModeSingle && atomic.LoadUint32(&r.draining) == 1 {
		r.crit.exit()
		return
	}
	r.commit(e)
	r.crit.exit()
}

// RecordFromISR appends one entry from interrupt context. The exclusion
// spin never yields and no task identity is consulted; the entry carries a
// zero task handle.
func (r *Recorder) RecordFromISR(kind Kind, object ObjectRef, value uint32) {
	if r.mode == ModeSingle && atomic.LoadUint32(&r.draining) == 1 {
		return
	}

	e := r.newEntry(kind, object, value)
	e.Origin = OriginISR

	r.crit.enterISR()
	if r.mode == ModeSingle && atomic.LoadUint32(&r.draining) == 1 {
		r.crit.exit()
		return
	}
	r.commit(e)
	r.crit.exit()
}

// newEntry reads the clock and fills the fields common to both record
// paths. Clock reads happen outside the exclusion scope; entry order is
// defined by buffer position, not by tick.
func (r *Recorder) newEntry(kind Kind, object ObjectRef, value uint32) Entry {
	tick := r.kernel.TickCount()
	return Entry{
		Tick:   tick,
		TimeUS: ticksToMicros(tick, r.kernel.TickRateHz()),
		Object: object,
		Value:  value,
		Kind:   kind,
	}
}

// commit appends e to the active ring and updates the counters. The caller
// holds the critical section.
func (r *Recorder) commit(e Entry) {
	n, overwrote := r.rings[r.active].append(e)
	if !overwrote && n >= r.watermark {
		atomic.StoreUint32(&r.flushReq, 1)
	}
	r.totalWritten++
}

// SetExcludedTask registers the task whose records are suppressed. A
// flusher task registers itself before its first drain so flushing never
// traces its own activity.
func (r *Recorder) SetExcludedTask(task TaskRef) {
	atomic.StoreUint64(&r.excluded, uint64(task))
}

func (r *Recorder) excludedTask() TaskRef {
	return TaskRef(atomic.LoadUint64(&r.excluded))
}

// FlushRequested reports whether a ring has crossed the watermark since
// the last completed drain. The flag is advisory: the recorder raises it,
// an external flusher acts on it.
func (r *Recorder) FlushRequested() bool {
	return atomic.LoadUint32(&r.flushReq) == 1
}

// Capacity returns the per-ring entry capacity.
func (r *Recorder) Capacity() int {
	return len(r.rings[0].entries)
}

// Mode returns the buffering strategy the recorder was built with.
func (r *Recorder) Mode() BufferMode {
	return r.mode
}

// Reset returns the recorder to its just-constructed state: empty rings,
// zero counters, no flush request, no excluded task.
func (r *Recorder) Reset() {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	r.crit.enterTask()
	r.rings[0].reset()
	r.rings[1].reset()
	r.active = 0
	r.totalWritten = 0
	r.flushSeq = 0
	atomic.StoreUint32(&r.flushReq, 0)
	atomic.StoreUint32(&r.draining, 0)
	atomic.StoreUint64(&r.excluded, 0)
	r.crit.exit()
}
