package dump

import "ticktrace/internal/trace"

// QueueTraffic tallies the four queue outcomes for one object.
type QueueTraffic struct {
	Sends           int
	SendFailures    int
	Receives        int
	ReceiveFailures int
}

// Summary aggregates a parsed dump. Tick fields follow input order, not
// numeric order, since the tick counter may wrap mid-log.
type Summary struct {
	Blocks     int
	Records    int
	Skipped    int
	FirstTick  uint32
	LastTick   uint32
	FinalTotal uint32 // "Total events recorded" from the last block header

	ByKind map[trace.Kind]int
	ByTask map[string]int
	Queues map[string]QueueTraffic // keyed by the object column
}

// Summarize walks a dump once and tallies it.
func Summarize(d *Dump) *Summary {
	s := &Summary{
		Blocks:  len(d.Blocks),
		Skipped: d.Skipped,
		ByKind:  map[trace.Kind]int{},
		ByTask:  map[string]int{},
		Queues:  map[string]QueueTraffic{},
	}
	for i := range d.Blocks {
		b := &d.Blocks[i]
		if b.Seq != 0 || b.Total != 0 {
			s.FinalTotal = b.Total
		}
		for j := range b.Records {
			rec := &b.Records[j]
			if s.Records == 0 {
				s.FirstTick = rec.Tick
			}
			s.LastTick = rec.Tick
			s.Records++

			s.ByKind[rec.Kind]++
			s.ByTask[rec.Task]++
			s.tallyQueue(rec)
		}
	}
	return s
}

func (s *Summary) tallyQueue(rec *Record) {
	q := s.Queues[rec.Object]
	switch rec.Kind {
	case trace.KindQueueSend, trace.KindQueueSendFromISR:
		q.Sends++
	case trace.KindQueueSendFailed, trace.KindQueueSendFromISRFailed:
		q.SendFailures++
	case trace.KindQueueReceive, trace.KindQueueReceiveFromISR:
		q.Receives++
	case trace.KindQueueReceiveFailed, trace.KindQueueReceiveFromISRFailed:
		q.ReceiveFailures++
	default:
		return
	}
	s.Queues[rec.Object] = q
}
