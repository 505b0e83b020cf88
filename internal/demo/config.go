// Package demo runs a small task workload against the tracer: periodic
// producers feeding a queue, a consumer draining it, a flusher exporting
// the buffers and a deadline that tears the workload down. It exists so
// the subsystem can be exercised end to end from the CLI.
package demo

import (
	"errors"
	"fmt"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"

	"ticktrace/internal/kernel"
	"ticktrace/internal/trace"
)

var (
	// ErrNoProducers indicates a workload with an empty [[producer]] list.
	ErrNoProducers = errors.New("no producer tasks configured")
	// ErrUnnamedTask indicates a task section with an empty name.
	ErrUnnamedTask = errors.New("task name must not be empty")
)

// TraceSection configures the recorder under [trace]. Zero values defer
// to the recorder's own defaults.
type TraceSection struct {
	Capacity  int    `toml:"capacity"`
	Watermark int    `toml:"watermark"`
	Mode      string `toml:"mode"`
}

// ClockSection configures the tick source under [clock].
type ClockSection struct {
	TickRateHz int `toml:"tick_rate_hz"`
}

// QueueSection configures the shared queue under [queue].
type QueueSection struct {
	Name     string `toml:"name"`
	Capacity int    `toml:"capacity"`
}

// ProducerSection configures one periodic producer under [[producer]].
type ProducerSection struct {
	Name     string `toml:"name"`
	PeriodMS int    `toml:"period_ms"`
}

// ConsumerSection configures the consumer under [consumer]. A negative
// timeout blocks indefinitely.
type ConsumerSection struct {
	Name      string `toml:"name"`
	TimeoutMS int    `toml:"timeout_ms"`
}

// RunSection configures the run under [run]: how long the workload
// lives, how often the flusher drains, and the housekeeping tick
// interval (0 disables the tick ISR).
type RunSection struct {
	DurationMS    int `toml:"duration_ms"`
	FlushPeriodMS int `toml:"flush_period_ms"`
	TickerTicks   int `toml:"ticker_ticks"`
}

// ISRSection configures the synthetic sensor interrupt under [isr].
// A zero period disables it.
type ISRSection struct {
	SensorPeriodMS int `toml:"sensor_period_ms"`
}

// Config is the demo workload configuration, loadable from TOML.
type Config struct {
	Trace     TraceSection      `toml:"trace"`
	Clock     ClockSection      `toml:"clock"`
	Queue     QueueSection      `toml:"queue"`
	Producers []ProducerSection `toml:"producer"`
	Consumer  ConsumerSection   `toml:"consumer"`
	Run       RunSection        `toml:"run"`
	ISR       ISRSection        `toml:"isr"`
}

// Default returns the stock workload: two producers on a 100-slot queue,
// a blocking consumer, a 2s flush cadence and a 15s run.
func Default() Config {
	return Config{
		Trace: TraceSection{Mode: "double"},
		Clock: ClockSection{TickRateHz: 1000},
		Queue: QueueSection{Name: "bus", Capacity: 100},
		Producers: []ProducerSection{
			{Name: "Bus", PeriodMS: 200},
			{Name: "Cycle", PeriodMS: 300},
		},
		Consumer: ConsumerSection{Name: "printer", TimeoutMS: -1},
		Run:      RunSection{DurationMS: 15000, FlushPeriodMS: 2000, TickerTicks: 100},
		ISR:      ISRSection{SensorPeriodMS: 250},
	}
}

// Load reads a TOML config over the defaults, so a file only has to name
// what it changes.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the pieces the recorder cannot check itself.
func (c Config) Validate() error {
	if len(c.Producers) == 0 {
		return ErrNoProducers
	}
	for _, p := range c.Producers {
		if p.Name == "" {
			return fmt.Errorf("[[producer]]: %w", ErrUnnamedTask)
		}
		if p.PeriodMS <= 0 {
			return fmt.Errorf("producer %q: invalid period %dms", p.Name, p.PeriodMS)
		}
	}
	if c.Consumer.Name == "" {
		return fmt.Errorf("[consumer]: %w", ErrUnnamedTask)
	}
	if c.Queue.Capacity <= 0 {
		return fmt.Errorf("invalid queue capacity %d", c.Queue.Capacity)
	}
	if c.Clock.TickRateHz <= 0 {
		return fmt.Errorf("invalid tick rate %dHz", c.Clock.TickRateHz)
	}
	if c.Run.DurationMS <= 0 {
		return fmt.Errorf("invalid run duration %dms", c.Run.DurationMS)
	}
	if c.Run.FlushPeriodMS <= 0 {
		return fmt.Errorf("invalid flush period %dms", c.Run.FlushPeriodMS)
	}
	if c.Run.TickerTicks < 0 {
		return fmt.Errorf("invalid ticker interval %d", c.Run.TickerTicks)
	}
	if c.ISR.SensorPeriodMS < 0 {
		return fmt.Errorf("invalid sensor period %dms", c.ISR.SensorPeriodMS)
	}
	if _, err := trace.ParseBufferMode(c.Trace.Mode); err != nil {
		return err
	}
	return nil
}

// ticks converts a millisecond setting to ticks at the configured rate,
// rounding down but never below one tick.
func (c Config) ticks(ms int) (uint32, error) {
	n, err := safecast.Conv[uint32](ms * c.Clock.TickRateHz / 1000)
	if err != nil {
		return 0, fmt.Errorf("interval %dms out of range: %w", ms, err)
	}
	if n == 0 {
		n = 1
	}
	return n, nil
}

// consumerTimeout maps the consumer timeout to receive ticks, negative
// meaning block forever.
func (c Config) consumerTimeout() (uint32, error) {
	if c.Consumer.TimeoutMS < 0 {
		return kernel.Forever, nil
	}
	if c.Consumer.TimeoutMS == 0 {
		return 0, nil
	}
	return c.ticks(c.Consumer.TimeoutMS)
}
