package trace

// TaskRef is an opaque task handle assigned by the kernel.
// The zero value means "no task" and is what interrupt-context
// entries carry.
type TaskRef uint64

// ObjectRef identifies the kernel object an entry refers to: a queue,
// a synchronization primitive, or (for lifecycle events) a task name.
// Which field is meaningful depends on the entry kind; the exporter
// renders the name for lifecycle kinds and the address otherwise.
type ObjectRef struct {
	Addr uint64
	Name string
}

// ObjectAddr builds an ObjectRef for an addressable kernel object.
func ObjectAddr(addr uint64) ObjectRef {
	return ObjectRef{Addr: addr}
}

// ObjectName builds an ObjectRef carrying a display name.
func ObjectName(name string) ObjectRef {
	return ObjectRef{Name: name}
}

// Entry is a single recorded trace event. Entries are fixed-size plain
// records; they are written once inside an exclusion scope and never
// mutated afterwards.
type Entry struct {
	Tick   uint32    // kernel tick at record time
	TimeUS uint32    // microseconds derived from the tick
	Object ObjectRef // referenced kernel object
	Value  uint32    // kind-specific payload
	Kind   Kind
	Origin Origin
	Task   TaskRef // recording task, zero for interrupt context
}
