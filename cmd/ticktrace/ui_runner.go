package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"ticktrace/internal/demo"
	"ticktrace/internal/ui"
)

type demoOutcome struct {
	res *demo.Result
	err error
}

// runDemoWithUI drives the workload under the live monitor. The workload
// runs in a goroutine and feeds frames to the bubbletea model; quitting the
// UI cancels the workload, which still drains its buffers before returning.
func runDemoWithUI(ctx context.Context, title string, opts demo.Options) (*demo.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan demo.Frame, 16)
	outcome := make(chan demoOutcome, 1)
	go func() {
		runOpts := opts
		runOpts.Frames = frames
		res, err := demo.Run(ctx, runOpts)
		outcome <- demoOutcome{res: res, err: err}
		close(frames)
	}()

	program := tea.NewProgram(ui.NewMonitorModel(title, frames), tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	cancel()

	out := <-outcome
	if uiErr != nil {
		return out.res, uiErr
	}
	return out.res, out.err
}
