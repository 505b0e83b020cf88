package trace

// Kind represents the type of trace event.
//
// The enumeration is closed: recorders store the kind verbatim and the
// exporter renders it through the name table below. The zero value is
// KindUnknown.
type Kind uint8

const (
	KindUnknown Kind = iota

	// Queue operations, task context.
	KindQueueSend
	KindQueueSendFailed
	KindQueueSendFromISR
	KindQueueSendFromISRFailed

	KindQueueReceive
	KindQueueReceiveFailed
	KindQueueReceiveFromISR
	KindQueueReceiveFromISRFailed

	// Housekeeping.
	KindTaskTick // value = new tick count

	KindTaskCreate
	KindTaskCreateFailed
	KindTaskDelete

	KindTaskDelay      // value = ticks to delay
	KindTaskDelayUntil // value = ticks to wait

	// Context switches.
	KindTaskSwitchedIn
	KindTaskSwitchedOut

	// Internal control markers.
	KindFlushRequest
	KindExportCSV

	kindMax
)

// String returns the exported name of the kind. Switched-in/out keep their
// macro-style names because downstream log consumers match on them.
func (k Kind) String() string {
	switch k {
	case KindQueueSend:
		return "EVT_QUEUE_SEND"
	case KindQueueSendFailed:
		return "EVT_QUEUE_SEND_FAILED"
	case KindQueueSendFromISR:
		return "EVT_QUEUE_SEND_FROM_ISR"
	case KindQueueSendFromISRFailed:
		return "EVT_QUEUE_SEND_FROM_ISR_FAILED"
	case KindQueueReceive:
		return "EVT_QUEUE_RECEIVE"
	case KindQueueReceiveFailed:
		return "EVT_QUEUE_RECEIVE_FAILED"
	case KindQueueReceiveFromISR:
		return "EVT_QUEUE_RECEIVE_FROM_ISR"
	case KindQueueReceiveFromISRFailed:
		return "EVT_QUEUE_RECEIVE_FROM_ISR_FAILED"
	case KindTaskTick:
		return "EVT_TASK_INCREMENT_TICK"
	case KindTaskCreate:
		return "EVT_TASK_CREATE"
	case KindTaskCreateFailed:
		return "EVT_TASK_CREATE_FAILED"
	case KindTaskDelete:
		return "EVT_TASK_DELETE"
	case KindTaskDelay:
		return "EVT_TASK_DELAY"
	case KindTaskDelayUntil:
		return "EVT_TASK_DELAY_UNTIL"
	case KindTaskSwitchedIn:
		return "traceTASK_SWITCHED_IN"
	case KindTaskSwitchedOut:
		return "traceTASK_SWITCHED_OUT"
	case KindFlushRequest:
		return "EVT_TRACE_FLUSH_REQUEST"
	case KindExportCSV:
		return "EVT_TRACE_EXPORT_CSV"
	default:
		return "UNKNOWN"
	}
}

// KindFromName converts an exported event name back to its Kind.
// It is the inverse of String, including the switched-in/out quirk names.
func KindFromName(s string) (Kind, bool) {
	switch s {
	case "EVT_QUEUE_SEND":
		return KindQueueSend, true
	case "EVT_QUEUE_SEND_FAILED":
		return KindQueueSendFailed, true
	case "EVT_QUEUE_SEND_FROM_ISR":
		return KindQueueSendFromISR, true
	case "EVT_QUEUE_SEND_FROM_ISR_FAILED":
		return KindQueueSendFromISRFailed, true
	case "EVT_QUEUE_RECEIVE":
		return KindQueueReceive, true
	case "EVT_QUEUE_RECEIVE_FAILED":
		return KindQueueReceiveFailed, true
	case "EVT_QUEUE_RECEIVE_FROM_ISR":
		return KindQueueReceiveFromISR, true
	case "EVT_QUEUE_RECEIVE_FROM_ISR_FAILED":
		return KindQueueReceiveFromISRFailed, true
	case "EVT_TASK_INCREMENT_TICK":
		return KindTaskTick, true
	case "EVT_TASK_CREATE":
		return KindTaskCreate, true
	case "EVT_TASK_CREATE_FAILED":
		return KindTaskCreateFailed, true
	case "EVT_TASK_DELETE":
		return KindTaskDelete, true
	case "EVT_TASK_DELAY":
		return KindTaskDelay, true
	case "EVT_TASK_DELAY_UNTIL":
		return KindTaskDelayUntil, true
	case "EVT_TASK_SWITCHED_IN", "traceTASK_SWITCHED_IN":
		return KindTaskSwitchedIn, true
	case "EVT_TASK_SWITCHED_OUT", "traceTASK_SWITCHED_OUT":
		return KindTaskSwitchedOut, true
	case "EVT_TRACE_FLUSH_REQUEST":
		return KindFlushRequest, true
	case "EVT_TRACE_EXPORT_CSV":
		return KindExportCSV, true
	case "UNKNOWN":
		return KindUnknown, true
	default:
		return KindUnknown, false
	}
}

// Kinds lists every known kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, int(kindMax)-1)
	for k := KindUnknown + 1; k < kindMax; k++ {
		out = append(out, k)
	}
	return out
}

// IsLifecycle reports whether the kind is a task lifecycle event.
// Lifecycle entries carry a task name in their object reference and the
// exporter renders it as a string instead of an address.
func (k Kind) IsLifecycle() bool {
	switch k {
	case KindTaskCreate, KindTaskCreateFailed, KindTaskDelete:
		return true
	default:
		return false
	}
}

// Origin indicates the execution context an entry was recorded from.
type Origin uint8

const (
	// OriginTask marks entries recorded from ordinary task context.
	OriginTask Origin = iota + 1
	// OriginISR marks entries recorded from interrupt context.
	OriginISR
)

// String returns the string representation of Origin.
func (o Origin) String() string {
	switch o {
	case OriginTask:
		return "TASK"
	case OriginISR:
		return "ISR"
	default:
		return "unknown"
	}
}
