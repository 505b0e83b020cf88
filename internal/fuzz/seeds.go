package fuzztests

import (
	"bytes"
	"testing"

	"ticktrace/internal/trace"
)

const (
	maxSeedBytes = 64 << 10 // seed corpus cap
	maxFuzzInput = 1 << 16  // 64 KiB
)

type seedKernel struct{}

func (seedKernel) TickCount() uint32             { return 42 }
func (seedKernel) TickRateHz() uint32            { return 1000 }
func (seedKernel) CurrentTask() trace.TaskRef    { return 7 }
func (seedKernel) TaskName(trace.TaskRef) string { return "Bus" }

// addCorpusSeeds feeds the harness realistic inputs: a live recorder dump
// plus hand-written fragments with console noise, truncation, and header
// damage.
func addCorpusSeeds(f *testing.F) {
	if out := recordedDump(); len(out) > 0 {
		f.Add(clampSeed(out))
	}
	f.Add([]byte{})
	for _, s := range staticSeeds {
		f.Add(clampSeed([]byte(s)))
	}
}

// recordedDump runs a real recorder so the corpus always contains the
// current dump format.
func recordedDump() []byte {
	var sink bytes.Buffer
	rec, err := trace.New(trace.Config{Capacity: 8, Kernel: seedKernel{}, Sink: &sink})
	if err != nil {
		return nil
	}
	rec.Record(trace.KindTaskCreate, trace.ObjectName("Bus"), 0)
	rec.Record(trace.KindQueueSend, trace.ObjectAddr(0x3ffb0040), 1)
	rec.RecordFromISR(trace.KindQueueSendFromISR, trace.ObjectAddr(0x3ffb0040), 2)
	rec.Record(trace.KindTaskSwitchedOut, trace.ObjectRef{}, 0)
	rec.Flush()
	rec.Record(trace.KindQueueReceive, trace.ObjectAddr(0x3ffb0040), 1)
	rec.Flush()
	return sink.Bytes()
}

var staticSeeds = []string{
	"EVT_QUEUE_SEND,3,3000,Bus,0x3ffb0040,1,TASK\n",
	"# TRACE STATISTICS (Flush #1)\n# Total events recorded: 1\n",
	"I (5230) trace: === TRACE DUMP START ===\nEVT_TASK_DELETE,9,9000,Killer,printer,0,TASK\n",
	"eventtype,tick,timestamp,taskid,object,value,src\n",
	"# Buffer utilization: 3/4 (75.0%)\n",
	"traceTASK_SWITCHED_IN,1,1000,Bus,0x0,0,TASK\n",
	"EVT_QUEUE_SEND,notanumber,3000,Bus,0x3ffb0040,1,TASK\n",
	"UNKNOWN,1,1000,Bus,0x0,0,TASK\n",
	"EVT_QUEUE_SEND,3,3000,Bus,0x3ffb0040,1\n",
	"# TRACE STATISTICS (Flush #\n",
	"\x00\x01\x02,,,,,,\n",
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
