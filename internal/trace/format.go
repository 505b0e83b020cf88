package trace

import (
	"bytes"
	"fmt"
)

const dumpRule = "# ========================================"

// csvHeader is the column row every dump carries.
const csvHeader = "eventtype,tick,timestamp,taskid,object,value,src"

// dumpStats carries the counter values captured together with a snapshot,
// inside the same exclusion scope.
type dumpStats struct {
	Seq        uint32
	Total      uint32
	Overwrites uint32
	Entries    uint32
	Capacity   uint32
}

// emit formats a drained snapshot and hands it to the sink in a single
// Write. Write errors are swallowed: the sink is best-effort and a failing
// dump must not disturb the recorder's host.
func (r *Recorder) emit(st dumpStats, entries []Entry) {
	var buf bytes.Buffer
	writeDump(&buf, st, entries, r.kernel)
	_, _ = r.sink.Write(buf.Bytes())
}

// writeDump renders the statistics block, the column header and one row
// per entry, closed by a rule and a blank line.
func writeDump(buf *bytes.Buffer, st dumpStats, entries []Entry, kernel Kernel) {
	fmt.Fprintf(buf, "%s\n", dumpRule)
	fmt.Fprintf(buf, "# TRACE STATISTICS (Flush #%d)\n", st.Seq)
	fmt.Fprintf(buf, "# Total events recorded: %d\n", st.Total)
	fmt.Fprintf(buf, "# Buffer overwrites: %d\n", st.Overwrites)
	fmt.Fprintf(buf, "# Entries in this dump: %d\n", st.Entries)
	fmt.Fprintf(buf, "# Buffer utilization: %d/%d (%.1f%%)\n",
		st.Entries, st.Capacity, 100*float64(st.Entries)/float64(st.Capacity))
	fmt.Fprintf(buf, "%s\n", dumpRule)
	fmt.Fprintf(buf, "%s\n", csvHeader)

	for i := range entries {
		writeRow(buf, &entries[i], kernel)
	}

	fmt.Fprintf(buf, "%s\n\n", dumpRule)
}

// writeRow renders one CSV row. Task names resolve here, at export time,
// never on the record path. Lifecycle entries render their object as a
// name, everything else as an address.
func writeRow(buf *bytes.Buffer, e *Entry, kernel Kernel) {
	task := "ISR"
	if e.Task != 0 {
		task = kernel.TaskName(e.Task)
	}

	var object string
	if e.Kind.IsLifecycle() {
		object = e.Object.Name
	} else {
		object = fmt.Sprintf("%#x", e.Object.Addr)
	}

	fmt.Fprintf(buf, "%s,%d,%d,%s,%s,%d,%s\n",
		e.Kind, e.Tick, e.TimeUS, task, object, e.Value, e.Origin)
}
