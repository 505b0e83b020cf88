package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rs/xid"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	configsembed "ticktrace/configs"
	"ticktrace/internal/demo"
	"ticktrace/internal/observ"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the traced producer/consumer workload",
	Long:  "Spawn the demo tasks, record their scheduler and queue events, and export the trace dumps.",
	Args:  cobra.NoArgs,
	RunE:  runDemo,
}

func init() {
	demoCmd.Flags().String("config", "", "TOML workload config (built-in defaults when omitted)")
	demoCmd.Flags().String("write-config", "", "write the annotated example config to the given path and exit")
	demoCmd.Flags().Int("duration", 0, "override the run duration in milliseconds")
	demoCmd.Flags().String("out", "", "dump destination: a file path, or - for stdout")
	demoCmd.Flags().String("ui", "auto", "live monitor (auto|on|off)")
	demoCmd.Flags().String("mode", "", "override the buffer mode (single|double)")
	demoCmd.Flags().Int("capacity", 0, "override the ring capacity")
	demoCmd.Flags().Int("watermark", 0, "override the flush watermark")
}

func runDemo(cmd *cobra.Command, args []string) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	writeConfig, err := cmd.Flags().GetString("write-config")
	if err != nil {
		return fmt.Errorf("failed to get write-config flag: %w", err)
	}
	durationMS, err := cmd.Flags().GetInt("duration")
	if err != nil {
		return fmt.Errorf("failed to get duration flag: %w", err)
	}
	outFlag, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	modeFlag, err := cmd.Flags().GetString("mode")
	if err != nil {
		return fmt.Errorf("failed to get mode flag: %w", err)
	}
	capacityFlag, err := cmd.Flags().GetInt("capacity")
	if err != nil {
		return fmt.Errorf("failed to get capacity flag: %w", err)
	}
	watermarkFlag, err := cmd.Flags().GetInt("watermark")
	if err != nil {
		return fmt.Errorf("failed to get watermark flag: %w", err)
	}

	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	useColor, err := resolveColor(cmd, os.Stderr)
	if err != nil {
		return err
	}
	color.NoColor = !useColor

	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}

	if writeConfig != "" {
		if err := os.WriteFile(writeConfig, configsembed.Example(), 0o644); err != nil {
			return fmt.Errorf("failed to write example config: %w", err)
		}
		if !quiet {
			fmt.Fprintf(os.Stderr, "wrote %s\n", writeConfig)
		}
		return nil
	}

	var timer *observ.Timer
	if showTimings {
		timer = observ.NewTimer()
	}

	phase := -1
	if timer != nil {
		phase = timer.Begin("load_config")
	}
	cfg := demo.Default()
	if configPath != "" {
		cfg, err = demo.Load(configPath)
		if err != nil {
			return err
		}
	}
	if durationMS > 0 {
		cfg.Run.DurationMS = durationMS
	}
	if modeFlag != "" {
		cfg.Trace.Mode = modeFlag
	}
	if capacityFlag > 0 {
		cfg.Trace.Capacity = capacityFlag
	}
	if watermarkFlag > 0 {
		cfg.Trace.Watermark = watermarkFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if timer != nil {
		timer.End(phase, configPath)
	}

	cleanup, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	useTUI := shouldUseTUI(mode)

	// The monitor owns stdout, so dumps move to a file when it is active.
	var sink io.Writer
	dumpPath := ""
	switch {
	case outFlag == "-":
		if mode == uiModeOn {
			return errors.New("--ui on draws to stdout; give --out a file instead of -")
		}
		useTUI = false
		sink = os.Stdout
	case outFlag != "":
		dumpPath = outFlag
	case useTUI:
		dumpPath = "ticktrace_" + xid.New().String() + ".log"
	default:
		sink = os.Stdout
	}
	if dumpPath != "" {
		f, err := os.Create(dumpPath)
		if err != nil {
			return fmt.Errorf("failed to create dump file: %w", err)
		}
		atexit.Register(func() { _ = f.Close() })
		sink = f
	}

	var info io.Writer
	if !quiet && !useTUI {
		info = os.Stderr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := demo.Options{Config: cfg, Out: sink, Info: info}

	if timer != nil {
		phase = timer.Begin("run_workload")
	}
	var res *demo.Result
	if useTUI {
		res, err = runDemoWithUI(ctx, "ticktrace demo", opts)
	} else {
		res, err = demo.Run(ctx, opts)
	}
	if timer != nil {
		timer.End(phase, cfg.Trace.Mode)
	}

	interrupted := errors.Is(err, context.Canceled)
	if err != nil && !interrupted {
		return err
	}

	if !quiet {
		if interrupted {
			fmt.Fprintln(os.Stderr, "interrupted, buffers drained")
		}
		if res != nil {
			printDemoSummary(os.Stderr, res, dumpPath)
		}
	}
	if timer != nil {
		fmt.Fprint(os.Stderr, timer.Summary())
	}
	return nil
}

func printDemoSummary(out io.Writer, res *demo.Result, dumpPath string) {
	num := color.New(color.FgCyan).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(out, "recorded %s events in %s flushes over %s\n",
		num(res.Stats.TotalWritten), num(res.Stats.Flushes), res.Duration.Round(time.Millisecond))
	if res.Stats.Overwrites > 0 {
		fmt.Fprintf(out, "overwrites: %s (raise capacity or flush more often)\n", warn(res.Stats.Overwrites))
	}

	names := make([]string, 0, len(res.Produced))
	for name := range res.Produced {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-12s sent %s\n", name, num(res.Produced[name]))
	}
	fmt.Fprintf(out, "  %-12s received %s\n", "consumer", num(res.Consumed))
	if res.CodecErrors > 0 {
		fmt.Fprintf(out, "codec errors: %s\n", warn(res.CodecErrors))
	}
	if dumpPath != "" {
		fmt.Fprintf(out, "dump written to %s\n", dumpPath)
	}
}
