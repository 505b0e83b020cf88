package kernel

import (
	"bytes"
	"strings"
	"testing"

	"ticktrace/internal/trace"
)

// testHost wires a kernel, a manual clock and a recorder draining into an
// in-memory sink.
type testHost struct {
	k     *Kernel
	clock *ManualClock
	rec   *trace.Recorder
	sink  *bytes.Buffer
}

func newTestHost(t *testing.T) *testHost {
	t.Helper()
	clock := NewManualClock(1000)
	k := New(clock)
	var sink bytes.Buffer
	rec, err := trace.New(trace.Config{Capacity: 256, Kernel: k, Sink: &sink})
	if err != nil {
		t.Fatalf("trace.New: %v", err)
	}
	k.Bind(rec)
	return &testHost{k: k, clock: clock, rec: rec, sink: &sink}
}

// dump drains the recorder and returns everything written so far.
func (h *testHost) dump() string {
	h.rec.Flush()
	return h.sink.String()
}

func TestCurrentTaskOutsideTasks(t *testing.T) {
	h := newTestHost(t)
	if ref := h.k.CurrentTask(); ref != 0 {
		t.Fatalf("unregistered goroutine resolved to task %d", ref)
	}
}

func TestSpawnedTaskSeesOwnRef(t *testing.T) {
	h := newTestHost(t)
	got := make(chan trace.TaskRef, 1)
	task := h.k.Spawn("Bus", func(task *Task) {
		got <- h.k.CurrentTask()
	})
	task.Join()
	if ref := <-got; ref != task.Ref() {
		t.Fatalf("task resolved to %d, want %d", ref, task.Ref())
	}
	// The binding is gone once the goroutine exited.
	if h.k.Task(task.Ref()) != nil {
		t.Fatalf("exited task still registered")
	}
}

func TestTaskNameResolution(t *testing.T) {
	h := newTestHost(t)
	task := h.k.Spawn("Cycle", func(task *Task) {})
	task.Join()

	if name := h.k.TaskName(task.Ref()); name != "Cycle" {
		t.Fatalf("TaskName = %q, want Cycle", name)
	}
	if name := h.k.TaskName(999); name != "task-999" {
		t.Fatalf("unknown ref name = %q", name)
	}
}

func TestSpawnAndReturnRecordLifecycle(t *testing.T) {
	h := newTestHost(t)
	task := h.k.Spawn("Bus", func(task *Task) {})
	task.Join()

	out := h.dump()
	if !strings.Contains(out, "EVT_TASK_CREATE,") {
		t.Fatalf("no create event:\n%s", out)
	}
	// Lifecycle rows carry the task name as their object.
	if !strings.Contains(out, ",Bus,0,TASK\n") {
		t.Fatalf("create row lacks name object:\n%s", out)
	}
	if !strings.Contains(out, "EVT_TASK_DELETE,") {
		t.Fatalf("no delete event after return:\n%s", out)
	}
	if strings.Count(out, "EVT_TASK_DELETE,") != 1 {
		t.Fatalf("delete recorded more than once:\n%s", out)
	}
}

func TestDeleteRecordsFromCallerContext(t *testing.T) {
	h := newTestHost(t)
	victim := h.k.Spawn("printer", func(task *Task) {
		task.Delay(60_000)
	})

	killed := make(chan struct{})
	killer := h.k.Spawn("Killer", func(task *Task) {
		victim.Delete()
		close(killed)
	})
	<-killed
	victim.Join()
	killer.Join()

	out := h.dump()
	if !strings.Contains(out, "EVT_TASK_DELETE") {
		t.Fatalf("no delete row:\n%s", out)
	}
	// The deletion is attributed to the killer, with the victim's name as
	// the object.
	if !strings.Contains(out, "Killer,printer,0,TASK") {
		t.Fatalf("delete row not from killer context:\n%s", out)
	}
}

func TestEntriesCarryManualClockTicks(t *testing.T) {
	h := newTestHost(t)
	h.clock.Set(42)

	q := h.k.NewQueue("jobs", 4)
	q.Send([]byte("x"))

	out := h.dump()
	if !strings.Contains(out, "EVT_QUEUE_SEND,42,42000,") {
		t.Fatalf("send row lacks manual tick facts:\n%s", out)
	}
}
