package trace

import (
	"fmt"
	"strings"
)

// BufferMode determines how entries are buffered between flushes.
type BufferMode uint8

const (
	// ModeSingle keeps one ring; records arriving while a drain is in
	// progress are silently dropped.
	ModeSingle BufferMode = iota + 1
	// ModeDouble keeps two rings; a drain swaps the active ring so
	// recording continues without loss.
	ModeDouble
)

// String returns the string representation of BufferMode.
func (m BufferMode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeDouble:
		return "double"
	default:
		return "unknown"
	}
}

// ParseBufferMode converts a string to BufferMode.
func ParseBufferMode(s string) (BufferMode, error) {
	switch strings.ToLower(s) {
	case "single":
		return ModeSingle, nil
	case "double":
		return ModeDouble, nil
	default:
		return ModeDouble, fmt.Errorf("invalid buffer mode: %q (expected: single|double)", s)
	}
}
