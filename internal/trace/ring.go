package trace

// ring is a fixed-capacity circular store of entries. It never grows:
// appending to a full ring reuses the oldest slot and counts an overwrite.
//
// ring has no locking of its own. Every method must be called inside the
// owning recorder's exclusion scope.
type ring struct {
	entries    []Entry
	wr         uint32 // next write slot
	count      uint32 // live entries, <= capacity
	overwrites uint32 // appends that displaced the oldest entry
}

func (r *ring) init(capacity uint32) {
	r.entries = make([]Entry, capacity)
	r.wr = 0
	r.count = 0
	r.overwrites = 0
}

func (r *ring) capacity() uint32 {
	return uint32(len(r.entries))
}

// append stores e, advancing the write cursor. It returns the live count
// after the append and whether the oldest entry was displaced.
func (r *ring) append(e Entry) (n uint32, overwrote bool) {
	c := r.capacity()
	r.entries[r.wr] = e
	r.wr = (r.wr + 1) % c

	if r.count < c {
		r.count++
		return r.count, false
	}
	r.overwrites++
	return r.count, true
}

// snapshotInto appends the live entries to dst in append order, oldest
// first. The oldest entry sits count slots behind the write cursor.
func (r *ring) snapshotInto(dst []Entry) []Entry {
	c := r.capacity()
	n := r.count

	var start uint32
	if r.wr >= n {
		start = r.wr - n
	} else {
		start = c + r.wr - n
	}

	for i := uint32(0); i < n; i++ {
		dst = append(dst, r.entries[(start+i)%c])
	}
	return dst
}

// resetEntries forgets the stored entries but keeps the overwrite counter.
func (r *ring) resetEntries() {
	r.wr = 0
	r.count = 0
}

// reset forgets entries and counters both.
func (r *ring) reset() {
	r.resetEntries()
	r.overwrites = 0
}
