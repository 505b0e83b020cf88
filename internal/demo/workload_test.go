package demo

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ticktrace/internal/dump"
	"ticktrace/internal/trace"
)

// shortConfig shrinks the stock workload to a few hundred milliseconds.
func shortConfig() Config {
	cfg := Default()
	cfg.Producers = []ProducerSection{
		{Name: "Bus", PeriodMS: 30},
		{Name: "Cycle", PeriodMS: 50},
	}
	cfg.Queue.Capacity = 8
	cfg.Run.DurationMS = 350
	cfg.Run.FlushPeriodMS = 100
	cfg.Run.TickerTicks = 20
	cfg.ISR.SensorPeriodMS = 40
	return cfg
}

func TestRunProducesParsableTrace(t *testing.T) {
	var out, info bytes.Buffer
	frames := make(chan Frame, 64)

	res, err := Run(context.Background(), Options{
		Config: shortConfig(),
		Out:    &out,
		Info:   &info,
		Frames: frames,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Produced["Bus"] == 0 || res.Produced["Cycle"] == 0 {
		t.Fatalf("producers idle: %+v", res.Produced)
	}
	if res.Consumed == 0 {
		t.Fatalf("consumer idle")
	}
	if res.CodecErrors != 0 {
		t.Fatalf("%d codec errors", res.CodecErrors)
	}
	// The final drain leaves nothing buffered.
	if res.Stats.Entries != 0 {
		t.Fatalf("%d entries left after final drain", res.Stats.Entries)
	}
	if res.Stats.Flushes == 0 {
		t.Fatalf("no flushes recorded")
	}

	d, err := dump.Read(&out)
	if err != nil {
		t.Fatalf("parse trace: %v", err)
	}
	if d.Len() == 0 {
		t.Fatalf("empty trace")
	}
	s := dump.Summarize(d)
	if s.ByTask["Bus"] == 0 || s.ByTask["printer"] == 0 {
		t.Fatalf("task counts = %v", s.ByTask)
	}
	// Teardown deletes the producers, the consumer, the killer itself and
	// the flusher.
	if s.ByKind[trace.KindTaskDelete] < 5 {
		t.Fatalf("delete events = %d, want >= 5", s.ByKind[trace.KindTaskDelete])
	}
	if s.ByKind[trace.KindQueueSendFromISR] == 0 {
		t.Fatalf("sensor interrupt left no trace")
	}
	if s.ByKind[trace.KindTaskTick] == 0 {
		t.Fatalf("tick hook left no trace")
	}

	if !strings.Contains(info.String(), "=== TRACE DUMP START ===") {
		t.Fatalf("no dump markers on info stream")
	}

	select {
	case f := <-frames:
		if f.QueueCap != 8 {
			t.Fatalf("frame queue cap = %d", f.QueueCap)
		}
	default:
		t.Fatalf("no frames sampled")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := shortConfig()
	cfg.Run.DurationMS = 60_000

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(80 * time.Millisecond)
		cancel()
	}()

	var out bytes.Buffer
	start := time.Now()
	res, err := Run(ctx, Options{Config: cfg, Out: &out})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res == nil {
		t.Fatalf("canceled run returned no result")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("cancel did not stop the run promptly")
	}
	if out.Len() == 0 {
		t.Fatalf("canceled run drained nothing")
	}
}

func TestRunRejectsBadOptions(t *testing.T) {
	if _, err := Run(context.Background(), Options{Config: Default()}); err == nil {
		t.Fatalf("nil sink accepted")
	}

	cfg := Default()
	cfg.Producers = nil
	var out bytes.Buffer
	if _, err := Run(context.Background(), Options{Config: cfg, Out: &out}); !errors.Is(err, ErrNoProducers) {
		t.Fatalf("err = %v, want ErrNoProducers", err)
	}
}
