package trace

import (
	"bytes"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
)

// fakeKernel is a scriptable Kernel for tests. Tick advances only when the
// test says so; task identity comes from the cur hook.
type fakeKernel struct {
	tick  uint32
	rate  uint32
	cur   func() TaskRef
	names map[TaskRef]string
}

func newFakeKernel() *fakeKernel {
	return &fakeKernel{rate: 1000, names: map[TaskRef]string{}}
}

func (k *fakeKernel) TickCount() uint32  { return atomic.LoadUint32(&k.tick) }
func (k *fakeKernel) TickRateHz() uint32 { return k.rate }

func (k *fakeKernel) CurrentTask() TaskRef {
	if k.cur == nil {
		return 0
	}
	return k.cur()
}

func (k *fakeKernel) TaskName(task TaskRef) string {
	if name, ok := k.names[task]; ok {
		return name
	}
	return fmt.Sprintf("task%d", task)
}

func (k *fakeKernel) advance(ticks uint32) {
	atomic.AddUint32(&k.tick, ticks)
}

func newTestRecorder(t *testing.T, cfg Config) (*Recorder, *fakeKernel, *bytes.Buffer) {
	t.Helper()
	k := newFakeKernel()
	var sink bytes.Buffer
	cfg.Kernel = k
	cfg.Sink = &sink
	rec, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rec, k, &sink
}

func TestNewDefaults(t *testing.T) {
	rec, _, _ := newTestRecorder(t, Config{})
	if rec.Capacity() != DefaultCapacity {
		t.Fatalf("default capacity = %d, want %d", rec.Capacity(), DefaultCapacity)
	}
	if rec.Mode() != ModeDouble {
		t.Fatalf("default mode = %v, want double", rec.Mode())
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNoKernel) {
		t.Fatalf("nil kernel: got %v, want ErrNoKernel", err)
	}
	k := newFakeKernel()
	if _, err := New(Config{Kernel: k, Capacity: -1}); err == nil {
		t.Fatalf("negative capacity accepted")
	}
	if _, err := New(Config{Kernel: k, Capacity: 4, Watermark: 5}); err == nil {
		t.Fatalf("watermark above capacity accepted")
	}
	if _, err := New(Config{Kernel: k, Mode: BufferMode(9)}); err == nil {
		t.Fatalf("unknown mode accepted")
	}
}

func TestRecordStoresKernelFacts(t *testing.T) {
	rec, k, _ := newTestRecorder(t, Config{Capacity: 8})
	k.cur = func() TaskRef { return 3 }
	k.tick = 5

	rec.Record(KindQueueSend, ObjectAddr(0xbeef), 7)

	rec.crit.enterTask()
	e := rec.rings[0].entries[0]
	rec.crit.exit()

	if e.Kind != KindQueueSend || e.Tick != 5 || e.TimeUS != 5000 {
		t.Fatalf("entry = %+v, want send at tick 5 / 5000us", e)
	}
	if e.Task != 3 || e.Origin != OriginTask || e.Object.Addr != 0xbeef || e.Value != 7 {
		t.Fatalf("entry fields = %+v", e)
	}
}

func TestRecordFromISRHasNoTask(t *testing.T) {
	rec, k, _ := newTestRecorder(t, Config{Capacity: 8})
	k.cur = func() TaskRef { return 3 }

	rec.RecordFromISR(KindQueueSendFromISR, ObjectAddr(1), 0)

	rec.crit.enterTask()
	e := rec.rings[0].entries[0]
	rec.crit.exit()

	if e.Task != 0 {
		t.Fatalf("isr entry carries task %d, want 0", e.Task)
	}
	if e.Origin != OriginISR {
		t.Fatalf("isr entry origin = %v, want ISR", e.Origin)
	}
}

func TestStatsBelowCapacity(t *testing.T) {
	rec, _, _ := newTestRecorder(t, Config{Capacity: 8})
	for i := 0; i < 5; i++ {
		rec.Record(KindQueueSend, ObjectAddr(1), 0)
	}
	st := rec.Stats()
	if st.TotalWritten != 5 || st.Entries != 5 || st.Overwrites != 0 {
		t.Fatalf("stats = %+v, want total 5, entries 5, overwrites 0", st)
	}
}

func TestStatsAfterOverwrite(t *testing.T) {
	rec, _, _ := newTestRecorder(t, Config{Capacity: 4, Mode: ModeSingle})
	for i := 0; i < 9; i++ {
		rec.Record(KindQueueSend, ObjectAddr(1), 0)
	}
	st := rec.Stats()
	if st.Entries != 4 {
		t.Fatalf("entries = %d, want capacity 4", st.Entries)
	}
	if st.Overwrites != 5 {
		t.Fatalf("overwrites = %d, want 5", st.Overwrites)
	}
	if st.TotalWritten != 9 {
		t.Fatalf("total = %d, want 9", st.TotalWritten)
	}
}

func TestExcludedTaskNeverRecorded(t *testing.T) {
	rec, k, _ := newTestRecorder(t, Config{Capacity: 8})
	var current TaskRef = 42
	k.cur = func() TaskRef { return current }

	rec.SetExcludedTask(42)
	rec.Record(KindQueueSend, ObjectAddr(1), 0)
	if st := rec.Stats(); st.TotalWritten != 0 {
		t.Fatalf("excluded task was recorded: %+v", st)
	}

	current = 7
	rec.Record(KindQueueSend, ObjectAddr(1), 0)
	if st := rec.Stats(); st.TotalWritten != 1 {
		t.Fatalf("non-excluded task not recorded: %+v", st)
	}
}

func TestWatermarkRaisedAtThreshold(t *testing.T) {
	// Capacity 4 defaults to a watermark of 3 (three quarters, rounded up).
	rec, _, _ := newTestRecorder(t, Config{Capacity: 4})

	rec.Record(KindQueueSend, ObjectAddr(1), 0)
	rec.Record(KindQueueSend, ObjectAddr(1), 0)
	if rec.FlushRequested() {
		t.Fatalf("flush requested below watermark")
	}
	rec.Record(KindQueueReceive, ObjectAddr(1), 0)
	if !rec.FlushRequested() {
		t.Fatalf("flush not requested at watermark")
	}

	// The flag is sticky until a drain completes.
	rec.Record(KindQueueSend, ObjectAddr(1), 0)
	if !rec.FlushRequested() {
		t.Fatalf("flush request lost before drain")
	}
	rec.Flush()
	if rec.FlushRequested() {
		t.Fatalf("flush request survived the drain")
	}
}

func TestCustomWatermark(t *testing.T) {
	rec, _, _ := newTestRecorder(t, Config{Capacity: 10, Watermark: 2})
	rec.Record(KindQueueSend, ObjectAddr(1), 0)
	if rec.FlushRequested() {
		t.Fatalf("flush requested after one entry")
	}
	rec.Record(KindQueueSend, ObjectAddr(1), 0)
	if !rec.FlushRequested() {
		t.Fatalf("flush not requested at custom watermark")
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	rec, k, sink := newTestRecorder(t, Config{Capacity: 4})
	k.cur = func() TaskRef { return 42 }
	rec.SetExcludedTask(9)

	for i := 0; i < 4; i++ {
		rec.Record(KindQueueSend, ObjectAddr(1), 0)
	}
	rec.Flush()
	sink.Reset()

	rec.Reset()
	st := rec.Stats()
	if st.TotalWritten != 0 || st.Entries != 0 || st.Overwrites != 0 || st.Flushes != 0 {
		t.Fatalf("stats after reset = %+v", st)
	}
	if rec.FlushRequested() {
		t.Fatalf("flush request survived reset")
	}

	// Exclusion registration is cleared too.
	rec.SetExcludedTask(42)
	rec.Reset()
	rec.Record(KindQueueSend, ObjectAddr(1), 0)
	if st := rec.Stats(); st.TotalWritten != 1 {
		t.Fatalf("exclusion survived reset: %+v", st)
	}
}

func TestTicksToMicros(t *testing.T) {
	tests := []struct {
		tick, rate, want uint32
	}{
		{5, 1000, 5000},
		{0, 1000, 0},
		{100, 0, 0},
		{1_000_000, 1_000_000, 1_000_000},
		// 4295 ticks at 1 kHz overflow 32 bits of microseconds; the value
		// truncates like every other counter.
		{4295, 1000, 32704},
	}
	for _, tt := range tests {
		if got := ticksToMicros(tt.tick, tt.rate); got != tt.want {
			t.Fatalf("ticksToMicros(%d, %d) = %d, want %d", tt.tick, tt.rate, got, tt.want)
		}
	}
}
