// Package kernel is a small cooperative host for the tracer: a tick clock,
// a registry of named tasks bound to goroutines, and queues whose
// operations record trace events at the points where a real scheduler's
// hooks would fire.
//
// Tasks are goroutines spawned through Kernel.Spawn; their identity is
// resolved from the goroutine id on every record. Interrupt handlers are
// plain goroutines outside the registry that call the FromISR entry
// points. Deletion is cooperative: Task.Delete marks the task and wakes
// it from any delay or blocked receive; the goroutine observes the kill
// and returns.
//
// The kernel records switched-out/switched-in pairs when a task blocks
// and resumes. A preemptive scheduler would emit them on every context
// switch; blocking points are where a cooperative host can see them.
package kernel
