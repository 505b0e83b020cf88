package kernel

import (
	"sync/atomic"
	"time"

	"ticktrace/internal/trace"
)

// Task is a named goroutine registered with the kernel. Delays and
// deletion are cooperative; the task function checks the return values of
// Delay/DelayUntil (false once killed) or Killed directly.
type Task struct {
	k      *Kernel
	ref    trace.TaskRef
	name   string
	stop   chan struct{} // closed by Delete
	done   chan struct{} // closed when the goroutine exits
	killed uint32
}

// Spawn registers a task, records its creation from the calling context
// and starts fn on its own goroutine.
func (k *Kernel) Spawn(name string, fn func(*Task)) *Task {
	k.mu.Lock()
	k.nextRef++
	ref := trace.TaskRef(k.nextRef)
	t := &Task{
		k:    k,
		ref:  ref,
		name: name,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	k.tasks[ref] = t
	k.names[ref] = name
	k.mu.Unlock()

	k.record(trace.KindTaskCreate, trace.ObjectName(name), 0)

	go func() {
		k.bind(ref)
		defer close(t.done)
		defer k.unbind()
		fn(t)
		// A function that returns deletes its own task, recorded from the
		// task's context. Delete is a no-op if someone killed it first.
		t.Delete()
	}()
	return t
}

// Ref returns the task's handle.
func (t *Task) Ref() trace.TaskRef { return t.ref }

// Name returns the task's display name.
func (t *Task) Name() string { return t.name }

// Killed reports whether Delete has been called.
func (t *Task) Killed() bool {
	select {
	case <-t.stop:
		return true
	default:
		return false
	}
}

// Join blocks until the task's goroutine has exited.
func (t *Task) Join() {
	<-t.done
}

// Done returns a channel closed when the task's goroutine has exited,
// for use in select statements; Join is its blocking form.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Delete kills the task: the deletion is recorded from the calling
// context, the registry slot is released, and any delay or blocked
// receive the task sits in returns false. Deleting twice, or deleting a
// task that already returned, is a no-op.
func (t *Task) Delete() {
	if !atomic.CompareAndSwapUint32(&t.killed, 0, 1) {
		return
	}
	close(t.stop)

	t.k.mu.Lock()
	delete(t.k.tasks, t.ref)
	t.k.mu.Unlock()

	t.k.record(trace.KindTaskDelete, trace.ObjectName(t.name), 0)
}

// Delay suspends the task for ticks. It returns false when the task was
// killed while sleeping; the task function should return promptly then.
func (t *Task) Delay(ticks uint32) bool {
	t.k.record(trace.KindTaskDelay, trace.ObjectRef{}, ticks)
	t.k.record(trace.KindTaskSwitchedOut, trace.ObjectRef{}, 0)

	if !t.sleep(t.k.ticksToDuration(ticks)) {
		return false
	}

	t.k.record(trace.KindTaskSwitchedIn, trace.ObjectRef{}, 0)
	return true
}

// DelayUntil suspends the task until *wake + increment ticks and advances
// *wake, holding a fixed cadence independent of how long the task ran.
// It returns false when the task was killed while sleeping.
func (t *Task) DelayUntil(wake *uint32, increment uint32) bool {
	target := *wake + increment
	t.k.record(trace.KindTaskDelayUntil, trace.ObjectRef{}, increment)
	t.k.record(trace.KindTaskSwitchedOut, trace.ObjectRef{}, 0)

	now := t.k.clock.TickCount()
	// Signed difference rides out tick wraparound.
	if delta := int32(target - now); delta > 0 {
		if !t.sleep(t.k.ticksToDuration(uint32(delta))) {
			return false
		}
	}
	*wake = target

	t.k.record(trace.KindTaskSwitchedIn, trace.ObjectRef{}, 0)
	return true
}

// sleep waits d or until the task is killed, reporting survival.
func (t *Task) sleep(d time.Duration) bool {
	if d <= 0 {
		return !t.Killed()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-t.stop:
		return false
	}
}
