package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/dramperf/config"
	"github.com/sarchlab/dramperf/stats"
	"github.com/sarchlab/dramperf/system"
	"github.com/sarchlab/dramperf/timing/simtime"
	"github.com/sarchlab/dramperf/trace"
)

var (
	tracePath     string  // CSV trace to replay
	saveTracePath string  // Where to write the replayed trace
	statsDBPath   string  // SQLite file receiving the metrics
	accesses      int     // Synthetic accesses per core
	interarrival  string  // Synthetic mean inter-arrival time
	writeFraction float64 // Synthetic write probability
	footprint     uint64  // Synthetic per-core address range
	accessSize    uint64  // Synthetic access size
)

// runOptions collects what a simulation run needs besides the configuration.
type runOptions struct {
	tracePath string
	saveTrace string
	statsDB   string
	generator trace.Generator
}

// runCmd replays a trace and prints every core's summary
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a memory trace against the DRAM models",
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := loadTree()
		if err != nil {
			return err
		}

		mean, err := simtime.ParseTime(interarrival)
		if err != nil {
			return fmt.Errorf("invalid inter-arrival time: %w", err)
		}

		gen := trace.DefaultGenerator()
		gen.AccessesPerCore = accesses
		gen.MeanInterarrival = mean
		gen.WriteFraction = writeFraction
		gen.Footprint = footprint
		gen.Size = accessSize

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return runSimulation(ctx, cmd.OutOrStdout(), tree, runOptions{
			tracePath: tracePath,
			saveTrace: saveTracePath,
			statsDB:   statsDBPath,
			generator: gen,
		})
	},
}

func runSimulation(
	ctx context.Context,
	w io.Writer,
	tree *config.Tree,
	opts runOptions,
) error {
	log := logrus.StandardLogger()
	registry := stats.NewRegistry()

	sysOpts := []system.Option{
		system.WithStats(registry),
		system.WithLogger(log),
	}
	if log.IsLevelEnabled(logrus.TraceLevel) {
		sysOpts = append(sysOpts, system.WithAccessHook(system.NewAccessLogger(log)))
	}

	sys, err := system.Build(tree, sysOpts...)
	if err != nil {
		return err
	}

	t, err := loadTrace(opts, len(sys.Cores))
	if err != nil {
		return err
	}

	if opts.saveTrace != "" {
		if err := saveTrace(opts.saveTrace, t); err != nil {
			return err
		}
	}

	log.Infof("replaying %d accesses on %d cores", len(t), len(sys.Cores))

	sys.Enable()
	if err := sys.Run(ctx, t); err != nil {
		return err
	}
	sys.Disable()

	if err := sys.OutputSummary(w); err != nil {
		return err
	}

	if opts.statsDB != "" {
		return exportStats(opts.statsDB, registry)
	}

	return nil
}

func loadTrace(opts runOptions, cores int) (trace.Trace, error) {
	if opts.tracePath == "" {
		gen := opts.generator
		gen.Cores = cores
		return gen.Generate(), nil
	}

	f, err := os.Open(opts.tracePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	return trace.ReadCSV(f)
}

func saveTrace(path string, t trace.Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}

	if err := trace.WriteCSV(f, t); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func exportStats(path string, registry *stats.Registry) error {
	exporter, err := stats.NewSQLiteExporter(path)
	if err != nil {
		return err
	}

	if err := exporter.Export(registry); err != nil {
		return err
	}

	if err := exporter.Close(); err != nil {
		return err
	}

	logrus.Infof("wrote %d metrics of run %s to %s",
		registry.Len(), exporter.RunID(), exporter.Name())

	return nil
}

func init() {
	runCmd.Flags().StringVar(&tracePath, "trace", "", "CSV trace to replay (default: synthetic Poisson traffic)")
	runCmd.Flags().StringVar(&saveTracePath, "save-trace", "", "Write the replayed trace to this CSV file")
	runCmd.Flags().StringVar(&statsDBPath, "stats-db", "", "Export metrics to this SQLite file")
	runCmd.Flags().IntVar(&accesses, "accesses", 10000, "Synthetic accesses per core")
	runCmd.Flags().StringVar(&interarrival, "interarrival", "20ns", "Synthetic mean time between two accesses of a core")
	runCmd.Flags().Float64Var(&writeFraction, "write-fraction", 0.3, "Synthetic fraction of writes")
	runCmd.Flags().Uint64Var(&footprint, "footprint", 64*1024*1024, "Synthetic per-core address range in bytes")
	runCmd.Flags().Uint64Var(&accessSize, "size", 64, "Synthetic access size in bytes")
}
