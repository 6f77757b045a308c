package cmd

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

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/uamp-sim/uamp-sim/sim"
	"github.com/uamp-sim/uamp-sim/sim/monitor"
	"github.com/uamp-sim/uamp-sim/sim/record"
	"github.com/uamp-sim/uamp-sim/sim/trace"

	// Concrete modules register their factories in init().
	_ "github.com/uamp-sim/uamp-sim/sim/modules"
)

// recordAuto is the value of a bare --record flag: pick a fresh database name.
const recordAuto = "auto"

// exitConfigError is the exit status for configuration errors.
const exitConfigError = 2

// runOptions holds the flags of the run command.
type runOptions struct {
	tracePath   string // CSV trace to replay
	configPath  string // YAML module configuration
	verbose     bool   // echo every dispatched event
	debug       bool   // start in the interactive debugger
	logLevel    string // logrus level
	threshold   int    // queue refill threshold and batch size
	recordPath  string // SQLite dispatch log, empty when off
	monitorPort int    // HTTP monitor port, negative when off
	metricsOut  string // metrics JSON file, empty when stdout only
}

var (
	runOpts     runOptions
	summaryPath string // trace to summarize
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "uamp-sim",
	Short: "Trace-driven discrete-event simulator for mobile device energy",
}

// runCmd replays a trace through the configured modules
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation over a pre-recorded trace",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(runOpts.logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", runOpts.logLevel)
		}
		logrus.SetLevel(level)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = runSimulation(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), runOpts)
		switch {
		case err == nil:
			logrus.Info("Simulation complete.")
		case errors.Is(err, sim.ErrTerminated):
			logrus.Info("Simulation terminated from the debug prompt.")
		case errors.Is(err, sim.ErrConfig):
			logrus.Errorf("Configuration error: %v", err)
			atexit.Exit(exitConfigError)
		default:
			logrus.Fatalf("Simulation failed: %v", err)
		}
	},
}

// summarizeCmd prints statistics about a trace without simulating it
var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Print statistics about a trace file",
	Run: func(cmd *cobra.Command, args []string) {
		if err := summarizeTrace(cmd.OutOrStdout(), summaryPath); err != nil {
			logrus.Fatalf("Failed to summarize trace: %v", err)
		}
	},
}

// runSimulation builds the simulator from opts, replays the trace and
// reports metrics. The returned error may wrap sim.ErrConfig or sim.ErrTerminated.
func runSimulation(ctx context.Context, in io.Reader, out io.Writer, opts runOptions) error {
	cfg, err := sim.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	s := sim.NewSimulator(sim.Options{
		Verbose:        opts.verbose,
		Debug:          opts.debug,
		QueueThreshold: opts.threshold,
		DebugIn:        in,
		Out:            out,
	})
	if err := s.Build(cfg); err != nil {
		return err
	}
	logrus.Infof("Run %s: modules %v, trace %s", s.Metrics().RunID, cfg.ModuleNames(), opts.tracePath)

	var rec *record.Recorder
	if opts.recordPath != "" {
		path := opts.recordPath
		if path == recordAuto {
			path = ""
		}
		if rec, err = record.New(path, s.Metrics().RunID); err != nil {
			return err
		}
		s.AcceptHook(rec)
	}

	if opts.monitorPort >= 0 {
		mon := monitor.NewMonitor().WithPortNumber(opts.monitorPort)
		mon.RegisterSimulator(s)
		if _, err := mon.StartServer(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = mon.Shutdown(shutdownCtx)
		}()
	}

	reader := trace.NewReader(opts.tracePath)
	defer func() { _ = reader.Close() }()

	runErr := s.Run(ctx, reader)
	if rec != nil {
		if err := rec.Close(); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("closing recording database: %w", err))
		}
	}
	if runErr != nil && !errors.Is(runErr, sim.ErrTerminated) {
		return runErr
	}

	if err := s.Metrics().SaveResults(out, opts.metricsOut); err != nil {
		return err
	}
	return runErr
}

// summarizeTrace writes a human-readable summary of the trace at path.
func summarizeTrace(w io.Writer, path string) error {
	summary, err := trace.Summarize(trace.NewReader(path))
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "=== Trace Summary ===\n")
	_, _ = fmt.Fprintf(w, "Events:   %d\n", summary.TotalEvents)
	_, _ = fmt.Fprintf(w, "Span:     %d .. %d (%.3fs)\n", summary.FirstTimestamp, summary.LastTimestamp, summary.DurationSeconds())

	types := make([]string, 0, len(summary.TypeDistribution))
	for t := range summary.TypeDistribution {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		_, _ = fmt.Fprintf(w, "  %-22s %d\n", t, summary.TypeDistribution[sim.EventType(t)])
	}

	fields := make([]string, 0, len(summary.Fields))
	for f := range summary.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		_, _ = fmt.Fprintf(w, "Field %-16s set in %d rows\n", f, summary.Fields[f])
	}
	return nil
}

// Execute runs the CLI root command
func Execute() {
	// logrus.Fatal goes through atexit so the recorder can flush.
	logrus.StandardLogger().ExitFunc = atexit.Exit
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&runOpts.tracePath, "trace", "", "Path to the CSV trace to replay")
	runCmd.Flags().StringVar(&runOpts.configPath, "sim_config", "", "Path to the YAML simulation config")
	runCmd.Flags().BoolVarP(&runOpts.verbose, "verbose", "v", false, "Echo every dispatched event")
	runCmd.Flags().BoolVarP(&runOpts.debug, "debug", "D", false, "Start in the interactive debugger")
	runCmd.Flags().StringVar(&runOpts.logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().IntVar(&runOpts.threshold, "threshold", sim.DefaultQueueThreshold, "Queue size below which trace events are pulled, and the batch size")
	runCmd.Flags().StringVar(&runOpts.recordPath, "record", "", "Record dispatched events to this SQLite database (bare flag picks a name)")
	runCmd.Flags().Lookup("record").NoOptDefVal = recordAuto
	runCmd.Flags().IntVar(&runOpts.monitorPort, "monitor-port", -1, "Serve progress over HTTP on this port (0 picks a free port, negative disables)")
	runCmd.Flags().StringVar(&runOpts.metricsOut, "metrics-out", "", "Also write the run metrics as JSON to this file")
	_ = runCmd.MarkFlagRequired("trace")
	_ = runCmd.MarkFlagRequired("sim_config")

	summarizeCmd.Flags().StringVar(&summaryPath, "trace", "", "Path to the CSV trace to summarize")
	_ = summarizeCmd.MarkFlagRequired("trace")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(summarizeCmd)
}
