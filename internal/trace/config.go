package trace

import (
	"errors"
	"fmt"
	"io"
	"os"

	"fortio.org/safecast"
)

// DefaultCapacity is the per-ring entry capacity used when Config.Capacity
// is zero.
const DefaultCapacity = 768

var (
	// ErrNoKernel indicates that Config.Kernel was nil.
	ErrNoKernel = errors.New("kernel is required")
)

// Config holds recorder configuration.
type Config struct {
	// Capacity is the number of entries each ring holds. Zero selects
	// DefaultCapacity.
	Capacity int

	// Watermark is the live-entry count at which the recorder raises its
	// flush request. Zero selects three quarters of capacity, rounded up.
	Watermark int

	// Mode selects the buffering strategy. Zero selects ModeDouble.
	Mode BufferMode

	// Kernel supplies ticks and task identity. Required.
	Kernel Kernel

	// Sink receives flushed dumps. Nil selects os.Stdout.
	Sink io.Writer
}

// New creates a Recorder based on Config.
func New(cfg Config) (*Recorder, error) {
	if cfg.Kernel == nil {
		return nil, ErrNoKernel
	}
	if cfg.Sink == nil {
		cfg.Sink = os.Stdout
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Mode == 0 {
		cfg.Mode = ModeDouble
	}
	switch cfg.Mode {
	case ModeSingle, ModeDouble:
	default:
		return nil, fmt.Errorf("unknown buffer mode: %v", cfg.Mode)
	}

	capacity, err := safecast.Conv[uint32](cfg.Capacity)
	if err != nil || capacity == 0 {
		return nil, fmt.Errorf("invalid capacity %d", cfg.Capacity)
	}

	if cfg.Watermark == 0 {
		cfg.Watermark = (cfg.Capacity*3 + 3) / 4
	}
	watermark, err := safecast.Conv[uint32](cfg.Watermark)
	if err != nil || watermark > capacity {
		return nil, fmt.Errorf("invalid watermark %d for capacity %d", cfg.Watermark, cfg.Capacity)
	}

	r := &Recorder{
		kernel:    cfg.Kernel,
		sink:      cfg.Sink,
		mode:      cfg.Mode,
		watermark: watermark,
		scratch:   make([]Entry, 0, capacity),
	}
	r.rings[0].init(capacity)
	if cfg.Mode == ModeDouble {
		r.rings[1].init(capacity)
	}
	return r, nil
}
