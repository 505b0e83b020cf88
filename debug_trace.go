package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"ticktrace/internal/demo"
	"ticktrace/internal/dump"
)

// Scratch harness for eyeballing recorder output while changing the dump
// format. Runs a short workload with a small ring so overwrites show up,
// then parses its own output back.
func main() {
	cfg := demo.Default()
	cfg.Run.DurationMS = 1200
	cfg.Run.FlushPeriodMS = 400
	cfg.Trace.Capacity = 64
	cfg.Trace.Watermark = 48

	var buf bytes.Buffer
	res, err := demo.Run(context.Background(), demo.Options{Config: cfg, Out: &buf})
	if err != nil {
		fmt.Printf("run error: %v\n", err)
		os.Exit(1)
	}
	os.Stdout.Write(buf.Bytes())
	fmt.Printf("recorded=%d flushes=%d overwrites=%d in %s\n",
		res.Stats.TotalWritten, res.Stats.Flushes, res.Stats.Overwrites,
		res.Duration.Round(time.Millisecond))

	d, err := dump.Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		fmt.Printf("parse error: %v\n", err)
		os.Exit(1)
	}
	s := dump.Summarize(d)
	tasks := make([]string, 0, len(s.ByTask))
	for name := range s.ByTask {
		tasks = append(tasks, name)
	}
	sort.Strings(tasks)
	for _, name := range tasks {
		fmt.Printf("task %-12s %d events\n", name, s.ByTask[name])
	}
}
