package testkit

import (
	"fmt"

	"ticktrace/internal/dump"
	"ticktrace/internal/trace"
)

// CheckDumpInvariants runs a minimal set of invariants on a parsed dump:
// 1) Len matches the per-block record counts
// 2) every record carries a known kind and a valid origin
// 3) line numbers are positive and strictly increasing in input order
func CheckDumpInvariants(d *dump.Dump) error {
	if d == nil {
		return fmt.Errorf("nil dump")
	}
	total := 0
	lastLine := 0
	for bi := range d.Blocks {
		b := &d.Blocks[bi]
		total += len(b.Records)
		for ri := range b.Records {
			rec := &b.Records[ri]
			if rec.Kind == trace.KindUnknown {
				return fmt.Errorf("block %d record %d has unknown kind", bi, ri)
			}
			if _, ok := trace.KindFromName(rec.Kind.String()); !ok {
				return fmt.Errorf("kind %v does not round-trip through its name", rec.Kind)
			}
			if rec.Origin != trace.OriginTask && rec.Origin != trace.OriginISR {
				return fmt.Errorf("block %d record %d has invalid origin %v", bi, ri, rec.Origin)
			}
			if rec.Line <= lastLine {
				return fmt.Errorf("line numbers not increasing: %d after %d", rec.Line, lastLine)
			}
			lastLine = rec.Line
		}
	}
	if got := d.Len(); got != total {
		return fmt.Errorf("Len() = %d, want %d", got, total)
	}
	return nil
}
