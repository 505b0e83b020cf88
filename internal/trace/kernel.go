package trace

// Kernel supplies the scheduler facts a recorder needs. The recorder never
// reaches into the host scheduler directly; everything it learns about
// time and task identity comes through this interface.
//
// Implementations must be safe for concurrent use and must be cheap:
// TickCount and CurrentTask are called on the record hot path, outside the
// recorder's exclusion scope but potentially from interrupt-discipline
// callers.
type Kernel interface {
	// TickCount returns the current kernel tick.
	TickCount() uint32

	// TickRateHz returns the tick rate in Hz. Used to derive microsecond
	// timestamps from ticks.
	TickRateHz() uint32

	// CurrentTask returns the handle of the calling task, or zero when the
	// caller is not a registered task.
	CurrentTask() TaskRef

	// TaskName resolves a task handle to its display name. Called at export
	// time only, never on the record path.
	TaskName(task TaskRef) string
}

// ticksToMicros converts a tick count to microseconds at the given rate.
// Widened to 64-bit for the multiply, truncated like the counters it
// accompanies.
func ticksToMicros(tick, rateHz uint32) uint32 {
	if rateHz == 0 {
		return 0
	}
	return uint32(uint64(tick) * 1_000_000 / uint64(rateHz))
}
