package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ticktrace/internal/dump"
	"ticktrace/internal/observ"
	"ticktrace/internal/trace"
)

var parseFormat string

var parseCmd = &cobra.Command{
	Use:   "parse <trace-log>",
	Short: "Summarize an exported trace log",
	Long: `Read a captured trace log, skip any console noise around the dumps,
and report per-event, per-task, and per-queue tallies. Pass - to read stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVar(&parseFormat, "format", "pretty", "output format (pretty|json)")
}

type parseQueuePayload struct {
	Sends           int `json:"sends"`
	SendFailures    int `json:"send_failures"`
	Receives        int `json:"receives"`
	ReceiveFailures int `json:"receive_failures"`
}

type parsePayload struct {
	Blocks     int                          `json:"blocks"`
	Records    int                          `json:"records"`
	Skipped    int                          `json:"skipped,omitempty"`
	FirstTick  uint32                       `json:"first_tick"`
	LastTick   uint32                       `json:"last_tick"`
	FinalTotal uint32                       `json:"final_total"`
	Events     map[string]int               `json:"events"`
	Tasks      map[string]int               `json:"tasks"`
	Queues     map[string]parseQueuePayload `json:"queues,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	path := args[0]

	format := strings.ToLower(parseFormat)
	switch format {
	case "pretty", "json":
		// supported
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", parseFormat)
	}

	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	useColor, err := resolveColor(cmd, os.Stdout)
	if err != nil {
		return err
	}
	color.NoColor = !useColor

	var timer *observ.Timer
	if showTimings {
		timer = observ.NewTimer()
	}

	phase := -1
	if timer != nil {
		phase = timer.Begin("read_log")
	}
	var d *dump.Dump
	if path == "-" {
		d, err = dump.Read(os.Stdin)
	} else {
		d, err = dump.ReadFile(path)
	}
	if err != nil {
		return err
	}
	if timer != nil {
		timer.End(phase, fmt.Sprintf("%d records", d.Len()))
	}

	if len(d.Blocks) == 0 {
		return fmt.Errorf("%s: %w", path, dump.ErrNoDumps)
	}

	if timer != nil {
		phase = timer.Begin("summarize")
	}
	s := dump.Summarize(d)
	if timer != nil {
		timer.End(phase, "")
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		if err := renderSummaryJSON(out, s); err != nil {
			return err
		}
	} else {
		renderSummaryPretty(out, s, quiet)
	}

	if timer != nil {
		fmt.Fprint(os.Stderr, timer.Summary())
	}
	return nil
}

func renderSummaryPretty(out io.Writer, s *dump.Summary, quiet bool) {
	head := color.New(color.FgCyan, color.Bold).SprintFunc()
	num := color.New(color.FgCyan).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(out, "%s records in %s blocks, ticks %d..%d, %s events recorded in total\n",
		num(s.Records), num(s.Blocks), s.FirstTick, s.LastTick, num(s.FinalTotal))
	if s.Skipped > 0 {
		fmt.Fprintf(out, "skipped %s non-trace lines\n", warn(s.Skipped))
	}
	if quiet {
		return
	}

	fmt.Fprintf(out, "\n%s\n", head("events"))
	for _, k := range trace.Kinds() {
		if n := s.ByKind[k]; n > 0 {
			fmt.Fprintf(out, "  %-34s %6d\n", k.String(), n)
		}
	}

	fmt.Fprintf(out, "\n%s\n", head("tasks"))
	tasks := make([]string, 0, len(s.ByTask))
	for name := range s.ByTask {
		tasks = append(tasks, name)
	}
	sort.Strings(tasks)
	for _, name := range tasks {
		fmt.Fprintf(out, "  %-16s %6d\n", name, s.ByTask[name])
	}

	if len(s.Queues) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s\n", head("queues"))
	objects := make([]string, 0, len(s.Queues))
	for obj := range s.Queues {
		objects = append(objects, obj)
	}
	sort.Strings(objects)
	for _, obj := range objects {
		q := s.Queues[obj]
		fmt.Fprintf(out, "  %-16s sends %d (%d failed), receives %d (%d failed)\n",
			obj, q.Sends, q.SendFailures, q.Receives, q.ReceiveFailures)
	}
}

func renderSummaryJSON(out io.Writer, s *dump.Summary) error {
	payload := parsePayload{
		Blocks:     s.Blocks,
		Records:    s.Records,
		Skipped:    s.Skipped,
		FirstTick:  s.FirstTick,
		LastTick:   s.LastTick,
		FinalTotal: s.FinalTotal,
		Events:     make(map[string]int, len(s.ByKind)),
		Tasks:      s.ByTask,
	}
	for k, n := range s.ByKind {
		payload.Events[k.String()] = n
	}
	if len(s.Queues) > 0 {
		payload.Queues = make(map[string]parseQueuePayload, len(s.Queues))
		for obj, q := range s.Queues {
			payload.Queues[obj] = parseQueuePayload{
				Sends:           q.Sends,
				SendFailures:    q.SendFailures,
				Receives:        q.Receives,
				ReceiveFailures: q.ReceiveFailures,
			}
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
