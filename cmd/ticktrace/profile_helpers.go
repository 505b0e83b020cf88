package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ticktrace/internal/prof"
)

// setupProfiling starts the profilers requested via persistent flags and
// returns a cleanup that stops them and writes the heap profile. The cleanup
// is safe to call when no profiling was requested.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	cpuProfile, err := cmd.Root().PersistentFlags().GetString("cpu-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	memProfile, err := cmd.Root().PersistentFlags().GetString("mem-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}

	cpuStarted := false
	if cpuProfile != "" {
		if err := prof.StartCPU(cpuProfile); err != nil {
			return nil, err
		}
		cpuStarted = true
	}

	cleanup := func() {
		if cpuStarted {
			prof.StopCPU()
		}
		if memProfile != "" {
			if err := prof.WriteMem(memProfile); err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
		}
	}
	return cleanup, nil
}
