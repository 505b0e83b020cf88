// Package dump reads trace dumps back into structured form. It accepts
// the exact output of the trace package but stays tolerant of surrounding
// noise (console log prefixes, partial files), skipping what it cannot
// recognize instead of failing.
package dump

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"ticktrace/internal/trace"
)

// ErrNoDumps reports an input that contained no recognizable trace output.
var ErrNoDumps = errors.New("no trace dumps in input")

const csvHeader = "eventtype,tick,timestamp,taskid,object,value,src"

// Record is one parsed event row.
type Record struct {
	Kind   trace.Kind
	Tick   uint32
	TimeUS uint32
	Task   string // task name, or "ISR" for unattributed rows
	Object string // object name or hex address, as printed
	Value  uint32
	Origin trace.Origin
	Line   int // 1-based line number in the input
}

// Block is one flush's worth of output: the statistics header and the
// rows that followed it.
type Block struct {
	Seq         uint32 // flush sequence number, 0 for a headerless block
	Total       uint32 // events recorded since start, at drain time
	Overwrites  uint32
	Entries     uint32 // entry count the header claimed
	Capacity    uint32 // buffer capacity, from the utilization line
	Utilization float64
	Records     []Record
}

// Dump is the parsed form of a trace log.
type Dump struct {
	Blocks  []Block
	Skipped int // lines recognized as neither header material nor rows
}

// Len returns the total number of rows across all blocks.
func (d *Dump) Len() int {
	n := 0
	for i := range d.Blocks {
		n += len(d.Blocks[i].Records)
	}
	return n
}

// Records returns all rows across all blocks in input order.
func (d *Dump) Records() []Record {
	out := make([]Record, 0, d.Len())
	for i := range d.Blocks {
		out = append(out, d.Blocks[i].Records...)
	}
	return out
}

// ReadFile parses the trace log at path.
func ReadFile(path string) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace log: %w", err)
	}
	defer f.Close()

	d, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return d, nil
}

// Read parses a trace log. Unrecognized lines are counted in Skipped,
// never fatal; the only errors are read errors.
func Read(r io.Reader) (*Dump, error) {
	d := &Dump{}
	var cur *Block

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		switch {
		case s == "" || s == csvHeader:
			continue
		case strings.HasPrefix(s, "#"):
			if b, ok := parseHeaderLine(s, cur); ok {
				if b != nil {
					d.Blocks = append(d.Blocks, Block{Seq: b.Seq})
					cur = &d.Blocks[len(d.Blocks)-1]
				}
				continue
			}
			d.Skipped++
		default:
			rec, ok := parseRow(s, line)
			if !ok {
				d.Skipped++
				continue
			}
			if cur == nil {
				// Rows before any statistics header land in an
				// implicit block so truncated logs still parse.
				d.Blocks = append(d.Blocks, Block{})
				cur = &d.Blocks[len(d.Blocks)-1]
			}
			cur.Records = append(cur.Records, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read trace log: %w", err)
	}
	return d, nil
}

// parseHeaderLine handles "#" lines. It returns a new block to open when
// the line is a statistics banner, nil when the line updated or was part
// of the current block, and ok=false for unrecognized comment lines.
func parseHeaderLine(s string, cur *Block) (*Block, bool) {
	body := strings.TrimSpace(strings.TrimPrefix(s, "#"))
	switch {
	case body == "" || strings.HasPrefix(body, "===="):
		return nil, true
	case strings.HasPrefix(body, "TRACE STATISTICS"):
		var seq uint32
		if _, err := fmt.Sscanf(body, "TRACE STATISTICS (Flush #%d)", &seq); err != nil {
			return nil, false
		}
		return &Block{Seq: seq}, true
	}
	if cur == nil {
		return nil, false
	}
	if rest, ok := strings.CutPrefix(body, "Total events recorded:"); ok {
		return nil, parseCounter(rest, &cur.Total)
	}
	if rest, ok := strings.CutPrefix(body, "Buffer overwrites:"); ok {
		return nil, parseCounter(rest, &cur.Overwrites)
	}
	if rest, ok := strings.CutPrefix(body, "Entries in this dump:"); ok {
		return nil, parseCounter(rest, &cur.Entries)
	}
	if rest, ok := strings.CutPrefix(body, "Buffer utilization:"); ok {
		return nil, parseUtilization(rest, cur)
	}
	return nil, false
}

func parseCounter(s string, dst *uint32) bool {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return false
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return false
	}
	*dst = v
	return true
}

// parseUtilization reads the tail of the utilization line, for example
// "78/768 (10.2%)". The capacity is the authoritative piece; the percent
// is kept as printed.
func parseUtilization(s string, b *Block) bool {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return false
	}
	used, capacity, ok := strings.Cut(fields[0], "/")
	if !ok {
		return false
	}
	if !parseCounter(used, &b.Entries) || !parseCounter(capacity, &b.Capacity) {
		return false
	}
	if len(fields) > 1 {
		pct := strings.TrimSuffix(strings.TrimPrefix(fields[1], "("), "%)")
		if f, err := strconv.ParseFloat(pct, 64); err == nil {
			b.Utilization = f
		}
	}
	return true
}

// parseRow reads one CSV row. Lines whose first field is not a known
// event name are not rows (this also drops repeated column headers).
func parseRow(s string, line int) (Record, bool) {
	fields := strings.Split(s, ",")
	if len(fields) != 7 {
		return Record{}, false
	}
	kind, ok := trace.KindFromName(strings.TrimSpace(fields[0]))
	if !ok || kind == trace.KindUnknown {
		// "UNKNOWN" names a kind but not an event; such rows are noise.
		return Record{}, false
	}
	rec := Record{
		Kind:   kind,
		Task:   strings.TrimSpace(fields[3]),
		Object: strings.TrimSpace(fields[4]),
		Line:   line,
	}
	if !parseCounter(fields[1], &rec.Tick) ||
		!parseCounter(fields[2], &rec.TimeUS) ||
		!parseCounter(fields[5], &rec.Value) {
		return Record{}, false
	}
	switch strings.TrimSpace(fields[6]) {
	case trace.OriginTask.String():
		rec.Origin = trace.OriginTask
	case trace.OriginISR.String():
		rec.Origin = trace.OriginISR
	default:
		return Record{}, false
	}
	return rec, true
}
