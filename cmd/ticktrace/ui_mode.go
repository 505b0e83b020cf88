package main

import (
	"fmt"
	"os"
	"strings"
)

type uiMode int

const (
	uiModeAuto uiMode = iota
	uiModeOn
	uiModeOff
)

func readUIMode(raw string) (uiMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return uiModeAuto, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", raw)
	}
}

// shouldUseTUI decides whether the live monitor runs. Auto mode draws only
// when stdout is a terminal.
func shouldUseTUI(mode uiMode) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return isTerminal(os.Stdout)
	}
}
