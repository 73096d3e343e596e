package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"strada/internal/observ"
	"strada/internal/scenario"
	"strada/internal/trace"
	"strada/internal/ui"
	"strada/rt"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [scenario...]",
	Short: "Run built-in runtime scenarios",
	Long: `Run executes the named scenarios (all of them by default) against the
runtime. A scenario fails when it returns a wrong result, throws an
uncaught exception, trips a refcount fault or leaks values.`,
	RunE: runScenarios,
}

func init() {
	runCmd.Flags().Int("jobs", 1, "scenarios to run at once (leaks are checked per scenario only with 1)")
	runCmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
	runCmd.Flags().Bool("memprof", false, "print the runtime memory profile after the run")
	runCmd.Flags().String("snapshot", "", "write the run results as a value snapshot to file")
}

func runScenarios(cmd *cobra.Command, args []string) (err error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rt.Configure(cfg.RuntimeOptions())

	finishTrace, err := setupTracing(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { finishTrace(err != nil) }()

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	memprof, err := cmd.Flags().GetBool("memprof")
	if err != nil {
		return fmt.Errorf("failed to get memprof flag: %w", err)
	}
	snapshotPath, err := cmd.Flags().GetString("snapshot")
	if err != nil {
		return fmt.Errorf("failed to get snapshot flag: %w", err)
	}
	root := cmd.Root().PersistentFlags()
	quiet, err := root.GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := root.GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	colorValue, err := root.GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	colored, err := useColor(colorValue)
	if err != nil {
		return err
	}
	color.NoColor = !colored

	selected, err := scenario.Resolve(args)
	if err != nil {
		return err
	}

	timer := observ.NewTimer()
	req := &scenario.Request{Scenarios: selected, Jobs: jobs, Timer: timer}
	span := trace.BeginContext(cmd.Context(), trace.ScopeRuntime, "run").
		WithExtra("scenarios", strconv.Itoa(len(selected))).
		WithExtra("jobs", strconv.Itoa(max(jobs, 1)))
	ctx := trace.WithSpan(cmd.Context(), span)
	rt.ResetMemStats()

	var results []scenario.Result
	var runErr error
	if !quiet && shouldUseTUI(mode) {
		results, runErr = runScenariosWithUI(ctx, "strada scenarios", req)
	} else {
		results, runErr = scenario.Run(ctx, req)
	}
	span.End(fmt.Sprintf("%d scenarios", len(results)))

	out := cmd.OutOrStdout()
	printResults(out, results, quiet)

	if memprof {
		fmt.Fprintln(out)
		fmt.Fprint(out, ui.RenderMemStats(rt.ReadMemStats(), colored))
	}
	if snapshotPath != "" {
		if err := writeResultSnapshot(snapshotPath, results); err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintf(out, "snapshot written to %s\n", snapshotPath)
		}
	}
	if showTimings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	if runErr != nil {
		return fmt.Errorf("%d of %d scenarios failed: %w", countFailed(results), len(results), runErr)
	}
	return nil
}

func printResults(out io.Writer, results []scenario.Result, quiet bool) {
	ok := color.New(color.FgGreen, color.Bold)
	fail := color.New(color.FgRed, color.Bold)
	dim := color.New(color.Faint)
	for _, r := range results {
		if !quiet && r.Output != "" {
			dim.Fprintf(out, "--- %s\n", r.Name)
			fmt.Fprint(out, r.Output)
		}
		elapsed := r.Elapsed.Round(time.Microsecond).String()
		if r.Err != nil {
			fmt.Fprintf(out, "%s %s (%s): %v\n", fail.Sprint("FAIL"), r.Name, elapsed, r.Err)
			continue
		}
		if !quiet {
			fmt.Fprintf(out, "%s   %s (%s)\n", ok.Sprint("ok"), r.Name, elapsed)
		}
	}
}

func countFailed(results []scenario.Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
