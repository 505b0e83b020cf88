// Package trace implements a compact, interrupt-safe event tracer built
// around fixed-capacity ring buffers.
//
// A Recorder accepts events from two kinds of callers: ordinary tasks
// (Record) and interrupt handlers (RecordFromISR). Both paths are bounded:
// they spin on a single exclusion word, copy a fixed-size Entry into the
// active ring and leave. Nothing on the record path blocks, allocates or
// performs I/O, and a full ring overwrites its oldest entry rather than
// growing.
//
// # Buffer modes
//
//   - ModeDouble (default): two rings and an active selector. A flush
//     swaps the selector under exclusion, drains the retired ring and
//     formats it outside the lock while recording continues into the
//     other ring. If the other ring filled meanwhile, the flush chains.
//   - ModeSingle: one ring. A flush raises a draining flag first; records
//     arriving while the flag is up are silently dropped.
//
// # Flushing
//
// Crossing the watermark (three quarters of capacity by default) raises
// an advisory flush-request flag. The recorder never drains on its own: a
// host task polls FlushRequested or flushes on a schedule, and registers
// itself with SetExcludedTask so the act of flushing is not traced.
// Dumps are text: a statistics block followed by CSV rows, written to the
// configured sink in a single call.
//
// # Kernel
//
// The recorder learns about time and task identity only through the
// Kernel interface. Hosts inject an implementation at construction:
//
//	rec, err := trace.New(trace.Config{Kernel: k, Sink: out})
//	...
//	rec.Record(trace.KindQueueSend, trace.ObjectAddr(q), 0)
//	rec.Flush()
package trace
