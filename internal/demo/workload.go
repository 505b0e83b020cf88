package demo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"ticktrace/internal/kernel"
	"ticktrace/internal/trace"
)

// frameInterval is how often the sampler publishes a Frame.
const frameInterval = 100 * time.Millisecond

// Options bundles what Run needs beyond the config.
type Options struct {
	Config Config
	Out    io.Writer    // trace dump sink, required
	Info   io.Writer    // dump markers; nil keeps the console quiet
	Frames chan<- Frame // optional UI feed; sends never block
}

// Frame is one sample of the running workload.
type Frame struct {
	Elapsed      time.Duration
	Stats        trace.Stats
	BufferCap    int // recorder ring capacity, for utilization math
	QueueLen     int
	QueueCap     int
	FlushPending bool
	Produced     map[string]uint64 // successful sends per producer
	Consumed     uint64
	CodecErrors  uint64
}

// Result summarizes a finished run. Stats holds the counters after the
// final drain, so Entries is normally zero.
type Result struct {
	Duration    time.Duration
	Produced    map[string]uint64
	Consumed    uint64
	CodecErrors uint64
	Stats       trace.Stats
}

type workload struct {
	cfg  Config
	k    *kernel.Kernel
	rec  *trace.Recorder
	q    *kernel.Queue
	info io.Writer

	counts    []atomic.Uint64 // successful sends, indexed like cfg.Producers
	consumed  atomic.Uint64
	codecErrs atomic.Uint64
}

// Run executes the workload until its deadline or until ctx is canceled,
// whichever comes first, and leaves all buffers drained. On early
// cancellation the Result covers the partial run alongside ctx's error.
func Run(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Out == nil {
		return nil, errors.New("dump sink is required")
	}
	mode, err := trace.ParseBufferMode(cfg.Trace.Mode)
	if err != nil {
		return nil, err
	}
	hz, err := safecast.Conv[uint32](cfg.Clock.TickRateHz)
	if err != nil {
		return nil, fmt.Errorf("invalid tick rate %d: %w", cfg.Clock.TickRateHz, err)
	}

	k := kernel.New(kernel.NewWallClock(hz))
	rec, err := trace.New(trace.Config{
		Capacity:  cfg.Trace.Capacity,
		Watermark: cfg.Trace.Watermark,
		Mode:      mode,
		Kernel:    k,
		Sink:      opts.Out,
	})
	if err != nil {
		return nil, err
	}
	k.Bind(rec)

	w := &workload{
		cfg:    cfg,
		k:      k,
		rec:    rec,
		q:      k.NewQueue(cfg.Queue.Name, cfg.Queue.Capacity),
		info:   opts.Info,
		counts: make([]atomic.Uint64, len(cfg.Producers)),
	}

	victims := make([]*kernel.Task, 0, len(cfg.Producers)+1)
	for i, p := range cfg.Producers {
		period, err := cfg.ticks(p.PeriodMS)
		if err != nil {
			return nil, err
		}
		victims = append(victims, k.Spawn(p.Name, w.producer(i, period)))
	}
	timeout, err := cfg.consumerTimeout()
	if err != nil {
		return nil, err
	}
	victims = append(victims, k.Spawn(cfg.Consumer.Name, w.consumer(timeout)))

	flushTicks, err := cfg.ticks(cfg.Run.FlushPeriodMS)
	if err != nil {
		return nil, err
	}
	flusher := k.Spawn("Flush", w.flusher(flushTicks))

	durationTicks, err := cfg.ticks(cfg.Run.DurationMS)
	if err != nil {
		return nil, err
	}
	killer := k.Spawn("Killer", func(t *kernel.Task) {
		if !t.Delay(durationTicks) {
			return
		}
		for _, v := range victims {
			v.Delete()
		}
	})

	var ticker *kernel.Ticker
	if cfg.Run.TickerTicks > 0 {
		every, err := safecast.Conv[uint32](cfg.Run.TickerTicks)
		if err != nil {
			return nil, fmt.Errorf("invalid ticker interval %d: %w", cfg.Run.TickerTicks, err)
		}
		ticker = k.StartTicker(every)
	}

	start := time.Now()
	auxCtx, stopAux := context.WithCancel(ctx)
	defer stopAux()
	g, gctx := errgroup.WithContext(auxCtx)

	if cfg.ISR.SensorPeriodMS > 0 {
		period := time.Duration(cfg.ISR.SensorPeriodMS) * time.Millisecond
		g.Go(func() error {
			w.sensorISR(gctx, period)
			return nil
		})
	}
	if opts.Frames != nil {
		g.Go(func() error {
			w.sample(gctx, opts.Frames, start)
			return nil
		})
	}
	g.Go(func() error {
		// Releases the sensor and sampler once the run is over, however
		// it ended.
		defer stopAux()
		select {
		case <-killer.Done():
			return nil
		case <-ctx.Done():
			// Early shutdown: do the killer's job, then take it down too.
			killer.Delete()
			for _, v := range victims {
				v.Delete()
			}
			return ctx.Err()
		}
	})

	runErr := g.Wait()
	for _, v := range victims {
		v.Join()
	}
	killer.Join()
	ticker.Stop()

	// The flusher held the last word in the buffers; retire it and drain
	// whatever the teardown recorded.
	flusher.Delete()
	flusher.Join()
	w.export()

	res := &Result{
		Duration:    time.Since(start),
		Produced:    make(map[string]uint64, len(cfg.Producers)),
		Consumed:    w.consumed.Load(),
		CodecErrors: w.codecErrs.Load(),
		Stats:       rec.Stats(),
	}
	for i, p := range cfg.Producers {
		res.Produced[p.Name] = w.counts[i].Load()
	}
	return res, runErr
}

// producer emits one msgpack item per period, dropping when the queue is
// full. The failed send stays visible in the trace.
func (w *workload) producer(slot int, period uint32) func(*kernel.Task) {
	return func(t *kernel.Task) {
		wake := w.k.TickCount()
		var seq uint64
		for t.DelayUntil(&wake, period) {
			seq++
			b, err := encodeItem(&Item{Seq: seq, Source: t.Name(), Tick: w.k.TickCount()})
			if err != nil {
				w.codecErrs.Add(1)
				continue
			}
			if w.q.Send(b) {
				w.counts[slot].Add(1)
			}
		}
	}
}

// consumer drains the queue until killed. Timeouts loop back into the
// receive, leaving a failed-receive event behind each round.
func (w *workload) consumer(timeout uint32) func(*kernel.Task) {
	return func(t *kernel.Task) {
		for {
			b, ok := w.q.Receive(timeout)
			if !ok {
				if t.Killed() {
					return
				}
				if timeout == 0 {
					// Pace the poll so an empty queue does not flood the
					// trace with failed receives.
					if !t.Delay(1) {
						return
					}
				}
				continue
			}
			if _, err := decodeItem(b); err != nil {
				w.codecErrs.Add(1)
				continue
			}
			w.consumed.Add(1)
		}
	}
}

// flusher drains the buffers every period, or as soon as the recorder
// raises the flush request. It excludes itself first so its own delays
// never show up in the dumps it writes.
func (w *workload) flusher(period uint32) func(*kernel.Task) {
	return func(t *kernel.Task) {
		w.rec.SetExcludedTask(t.Ref())

		step := period / 8
		if step == 0 {
			step = 1
		}
		waited := uint32(0)
		for {
			if !t.Delay(step) {
				return
			}
			waited += step
			if waited < period && !w.rec.FlushRequested() {
				continue
			}
			waited = 0
			w.export()
		}
	}
}

// export drains the recorder, bracketed by console markers.
func (w *workload) export() {
	if w.info != nil {
		fmt.Fprintln(w.info, "=== TRACE DUMP START ===")
	}
	w.rec.Flush()
	if w.info != nil {
		fmt.Fprintln(w.info, "=== TRACE DUMP END ===")
	}
}

// sensorISR feeds the queue from outside any task, the way a device
// interrupt would.
func (w *workload) sensorISR(ctx context.Context, period time.Duration) {
	tick := time.NewTicker(period)
	defer tick.Stop()
	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			seq++
			b, err := encodeItem(&Item{Seq: seq, Source: "sensor", Tick: w.k.TickCount()})
			if err != nil {
				w.codecErrs.Add(1)
				continue
			}
			w.q.SendFromISR(b)
		}
	}
}

// sample publishes frames at a fixed rate, dropping them when the
// receiver lags.
func (w *workload) sample(ctx context.Context, frames chan<- Frame, start time.Time) {
	tick := time.NewTicker(frameInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			select {
			case frames <- w.frame(start):
			default:
			}
		}
	}
}

func (w *workload) frame(start time.Time) Frame {
	f := Frame{
		Elapsed:      time.Since(start),
		Stats:        w.rec.Stats(),
		BufferCap:    w.rec.Capacity(),
		QueueLen:     w.q.Len(),
		QueueCap:     w.q.Cap(),
		FlushPending: w.rec.FlushRequested(),
		Produced:     make(map[string]uint64, len(w.cfg.Producers)),
		Consumed:     w.consumed.Load(),
		CodecErrors:  w.codecErrs.Load(),
	}
	for i, p := range w.cfg.Producers {
		f.Produced[p.Name] = w.counts[i].Load()
	}
	return f
}
