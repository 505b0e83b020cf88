package kernel

import (
	"time"

	"ticktrace/internal/trace"
)

// Forever blocks a Receive until an item arrives or the task is killed.
const Forever = ^uint32(0)

// queue objects get synthetic addresses in a fixed range so dumps stay
// readable and stable across runs.
const objBase = 0x3ffb0000

// Queue is a bounded FIFO of byte payloads. Every operation records its
// outcome the way a scheduler hook would: sends and receives trace the
// queue's address, blocking receives bracket the wait with switched-out
// and switched-in events.
type Queue struct {
	k    *Kernel
	ref  trace.ObjectRef
	name string
	ch   chan []byte
}

// NewQueue creates a queue holding up to capacity items.
func (k *Kernel) NewQueue(name string, capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	k.mu.Lock()
	k.nextObj++
	addr := uint64(objBase + k.nextObj*0x40)
	k.mu.Unlock()

	return &Queue{
		k:    k,
		ref:  trace.ObjectAddr(addr),
		name: name,
		ch:   make(chan []byte, capacity),
	}
}

// Name returns the queue's display name.
func (q *Queue) Name() string { return q.name }

// Addr returns the queue's synthetic address as it appears in dumps.
func (q *Queue) Addr() uint64 { return q.ref.Addr }

// Len returns the number of queued items.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the queue's capacity.
func (q *Queue) Cap() int { return cap(q.ch) }

// Send offers item without blocking, like a zero-timeout queue send.
// A full queue fails the send; either outcome is recorded.
func (q *Queue) Send(item []byte) bool {
	select {
	case q.ch <- item:
		q.k.record(trace.KindQueueSend, q.ref, 0)
		return true
	default:
		q.k.record(trace.KindQueueSendFailed, q.ref, 0)
		return false
	}
}

// SendFromISR is Send for interrupt context: never blocks, records the
// FromISR event kinds.
func (q *Queue) SendFromISR(item []byte) bool {
	select {
	case q.ch <- item:
		q.k.recordISR(trace.KindQueueSendFromISR, q.ref, 0)
		return true
	default:
		q.k.recordISR(trace.KindQueueSendFromISRFailed, q.ref, 0)
		return false
	}
}

// TryReceive takes an item without blocking; an empty queue fails the
// receive. Either outcome is recorded.
func (q *Queue) TryReceive() ([]byte, bool) {
	select {
	case item := <-q.ch:
		q.k.record(trace.KindQueueReceive, q.ref, 0)
		return item, true
	default:
		q.k.record(trace.KindQueueReceiveFailed, q.ref, 0)
		return nil, false
	}
}

// ReceiveFromISR is TryReceive for interrupt context.
func (q *Queue) ReceiveFromISR() ([]byte, bool) {
	select {
	case item := <-q.ch:
		q.k.recordISR(trace.KindQueueReceiveFromISR, q.ref, 0)
		return item, true
	default:
		q.k.recordISR(trace.KindQueueReceiveFromISRFailed, q.ref, 0)
		return nil, false
	}
}

// Receive blocks until an item arrives, ticks elapse, or the calling task
// is killed. Pass Forever to wait indefinitely. A timeout records a
// failed receive; a kill records nothing, the task is gone.
func (q *Queue) Receive(ticks uint32) ([]byte, bool) {
	// Fast path: an immediate item needs no switch events.
	select {
	case item := <-q.ch:
		q.k.record(trace.KindQueueReceive, q.ref, 0)
		return item, true
	default:
	}
	if ticks == 0 {
		q.k.record(trace.KindQueueReceiveFailed, q.ref, 0)
		return nil, false
	}

	var stop <-chan struct{}
	if t := q.k.Task(q.k.CurrentTask()); t != nil {
		stop = t.stop
	}

	q.k.record(trace.KindTaskSwitchedOut, trace.ObjectRef{}, 0)

	var timeout <-chan time.Time
	if ticks != Forever {
		timer := time.NewTimer(q.k.ticksToDuration(ticks))
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case item := <-q.ch:
		q.k.record(trace.KindTaskSwitchedIn, trace.ObjectRef{}, 0)
		q.k.record(trace.KindQueueReceive, q.ref, 0)
		return item, true
	case <-timeout:
		q.k.record(trace.KindTaskSwitchedIn, trace.ObjectRef{}, 0)
		q.k.record(trace.KindQueueReceiveFailed, q.ref, 0)
		return nil, false
	case <-stop:
		return nil, false
	}
}
