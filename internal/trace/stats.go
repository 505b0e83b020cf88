package trace

// Stats is a point-in-time view of a recorder's counters. All counters are
// 32-bit and wrap around rather than saturate.
type Stats struct {
	// TotalWritten counts entries accepted since construction or Reset,
	// including entries later overwritten or drained.
	TotalWritten uint32

	// Overwrites counts appends that displaced the oldest entry. In
	// ModeSingle it accumulates for the life of the recorder; in
	// ModeDouble each ring's share resets when that ring is drained.
	Overwrites uint32

	// Entries is the number of live entries across all rings.
	Entries uint32

	// Flushes counts drain cycles, including cycles that found nothing.
	Flushes uint32
}

// Stats returns a consistent snapshot of the recorder's counters.
func (r *Recorder) Stats() Stats {
	r.crit.enterTask()
	st := Stats{
		TotalWritten: r.totalWritten,
		Overwrites:   r.rings[0].overwrites + r.rings[1].overwrites,
		Entries:      r.rings[0].count + r.rings[1].count,
		Flushes:      r.flushSeq,
	}
	r.crit.exit()
	return st
}
