package kernel

import (
	"fmt"
	"sync"
	"time"

	"ticktrace/internal/trace"
)

// Kernel hosts tasks and queues and feeds their events to a bound
// recorder. It implements trace.Kernel, so the same instance is handed to
// trace.New and then given the resulting recorder via Bind.
type Kernel struct {
	clock Clock
	rec   *trace.Recorder

	mu      sync.Mutex
	nextRef uint64
	nextObj uint64
	byGID   map[uint64]trace.TaskRef
	tasks   map[trace.TaskRef]*Task
	names   map[trace.TaskRef]string // survives task deletion; dumps resolve late
}

// New creates a Kernel on the given clock. Bind a recorder before
// spawning tasks:
//
//	k := kernel.New(kernel.NewWallClock(1000))
//	rec, err := trace.New(trace.Config{Kernel: k, Sink: out})
//	...
//	k.Bind(rec)
func New(clock Clock) *Kernel {
	return &Kernel{
		clock: clock,
		byGID: map[uint64]trace.TaskRef{},
		tasks: map[trace.TaskRef]*Task{},
		names: map[trace.TaskRef]string{},
	}
}

// Bind attaches the recorder all kernel events go to. Call it once,
// before any task is spawned. A kernel without a recorder runs fine and
// records nothing.
func (k *Kernel) Bind(rec *trace.Recorder) {
	k.rec = rec
}

// TickCount implements trace.Kernel.
func (k *Kernel) TickCount() uint32 {
	return k.clock.TickCount()
}

// TickRateHz implements trace.Kernel.
func (k *Kernel) TickRateHz() uint32 {
	return k.clock.TickRateHz()
}

// CurrentTask implements trace.Kernel: it resolves the calling goroutine
// to its task handle, zero when the caller is not a spawned task.
func (k *Kernel) CurrentTask() trace.TaskRef {
	gid := goroutineID()
	k.mu.Lock()
	ref := k.byGID[gid]
	k.mu.Unlock()
	return ref
}

// TaskName implements trace.Kernel. Names of deleted tasks remain
// resolvable so late flushes still render them.
func (k *Kernel) TaskName(ref trace.TaskRef) string {
	k.mu.Lock()
	name, ok := k.names[ref]
	k.mu.Unlock()
	if !ok {
		return fmt.Sprintf("task-%d", ref)
	}
	return name
}

// Task returns the live task for ref, nil when it exited or never existed.
func (k *Kernel) Task(ref trace.TaskRef) *Task {
	k.mu.Lock()
	t := k.tasks[ref]
	k.mu.Unlock()
	return t
}

// record forwards a task-context event to the bound recorder.
// Never call it while holding k.mu: the recorder calls CurrentTask back.
func (k *Kernel) record(kind trace.Kind, object trace.ObjectRef, value uint32) {
	if k.rec != nil {
		k.rec.Record(kind, object, value)
	}
}

// recordISR forwards an interrupt-context event to the bound recorder.
func (k *Kernel) recordISR(kind trace.Kind, object trace.ObjectRef, value uint32) {
	if k.rec != nil {
		k.rec.RecordFromISR(kind, object, value)
	}
}

// ticksToDuration converts a tick span to wall time at the clock's rate.
func (k *Kernel) ticksToDuration(ticks uint32) time.Duration {
	hz := k.clock.TickRateHz()
	if hz == 0 {
		return 0
	}
	return time.Duration(ticks) * time.Second / time.Duration(hz)
}

// bind registers the calling goroutine as ref.
func (k *Kernel) bind(ref trace.TaskRef) {
	gid := goroutineID()
	k.mu.Lock()
	k.byGID[gid] = ref
	k.mu.Unlock()
}

// unbind removes the calling goroutine's task binding.
func (k *Kernel) unbind() {
	gid := goroutineID()
	k.mu.Lock()
	delete(k.byGID, gid)
	k.mu.Unlock()
}
