package kernel

import (
	"sync"
	"time"

	"ticktrace/internal/trace"
)

// Ticker plays the part of the timer interrupt: it periodically records
// the tick housekeeping event from interrupt context, carrying the
// current tick count as its value.
type Ticker struct {
	k       *Kernel
	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// StartTicker starts a ticker recording every `every` ticks. Returns nil
// when the interval is zero.
func (k *Kernel) StartTicker(every uint32) *Ticker {
	if every == 0 {
		return nil
	}

	t := &Ticker{
		k:      k,
		stopCh: make(chan struct{}),
	}
	t.mu.Lock()
	t.started = true
	t.mu.Unlock()

	interval := k.ticksToDuration(every)
	if interval <= 0 {
		interval = time.Millisecond
	}
	t.wg.Add(1)
	go t.run(interval)
	return t
}

func (t *Ticker) run(interval time.Duration) {
	defer t.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.k.recordISR(trace.KindTaskTick, trace.ObjectRef{}, t.k.clock.TickCount())
		case <-t.stopCh:
			return
		}
	}
}

// Stop halts the ticker and waits for its goroutine to finish.
func (t *Ticker) Stop() {
	if t == nil {
		return
	}

	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return
	}
	t.started = false
	t.mu.Unlock()

	close(t.stopCh)
	t.wg.Wait()
}
