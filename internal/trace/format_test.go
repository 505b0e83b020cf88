package trace

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteRowLifecycleRendersName(t *testing.T) {
	k := newFakeKernel()
	k.names[2] = "Killer"

	var buf bytes.Buffer
	e := Entry{
		Tick:   10,
		TimeUS: 10000,
		Object: ObjectName("Bus"),
		Kind:   KindTaskDelete,
		Origin: OriginTask,
		Task:   2,
	}
	writeRow(&buf, &e, k)

	want := "EVT_TASK_DELETE,10,10000,Killer,Bus,0,TASK\n"
	if buf.String() != want {
		t.Fatalf("row = %q, want %q", buf.String(), want)
	}
}

func TestWriteRowAddressRendersHex(t *testing.T) {
	k := newFakeKernel()
	var buf bytes.Buffer
	e := Entry{
		Object: ObjectAddr(0x3ffb1234),
		Value:  64,
		Kind:   KindQueueSendFromISR,
		Origin: OriginISR,
	}
	writeRow(&buf, &e, k)

	want := "EVT_QUEUE_SEND_FROM_ISR,0,0,ISR,0x3ffb1234,64,ISR\n"
	if buf.String() != want {
		t.Fatalf("row = %q, want %q", buf.String(), want)
	}
}

func TestWriteRowZeroAddress(t *testing.T) {
	k := newFakeKernel()
	var buf bytes.Buffer
	e := Entry{Kind: KindTaskDelay, Value: 20, Origin: OriginTask, Task: 1}
	writeRow(&buf, &e, k)

	if !strings.Contains(buf.String(), ",0x0,20,") {
		t.Fatalf("zero object address rendered wrong: %q", buf.String())
	}
}

func TestWriteDumpUtilizationPrecision(t *testing.T) {
	k := newFakeKernel()
	var buf bytes.Buffer
	entries := []Entry{{Kind: KindQueueSend, Origin: OriginTask}}
	writeDump(&buf, dumpStats{Seq: 1, Total: 1, Entries: 1, Capacity: 3}, entries, k)

	if !strings.Contains(buf.String(), "# Buffer utilization: 1/3 (33.3%)\n") {
		t.Fatalf("utilization line wrong:\n%s", buf.String())
	}
}

func TestWriteDumpEndsWithRuleAndBlankLine(t *testing.T) {
	k := newFakeKernel()
	var buf bytes.Buffer
	writeDump(&buf, dumpStats{Seq: 1, Entries: 0, Capacity: 4}, nil, k)

	if !strings.HasSuffix(buf.String(), dumpRule+"\n\n") {
		t.Fatalf("dump does not end with rule and blank line:\n%q", buf.String())
	}
}
