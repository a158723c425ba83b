// Package benchmarks provides workload benchmark infrastructure for comparing
// and calibrating the DRAM timing models.
package benchmarks

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/dramperf/config"
	"github.com/sarchlab/dramperf/system"
	"github.com/sarchlab/dramperf/timing/queuemodel"
	"github.com/sarchlab/dramperf/timing/shmem"
	"github.com/sarchlab/dramperf/timing/simtime"
	"github.com/sarchlab/dramperf/trace"
)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// Cores is the number of cores that issued traffic
	Cores int `json:"cores"`

	// Accesses is the number of accesses replayed
	Accesses uint64 `json:"accesses"`

	// LLCHits is the number of accesses served by the last-level cache
	LLCHits uint64 `json:"llc_hits"`

	// DramAccesses is the number of demand accesses that reached DRAM
	DramAccesses uint64 `json:"dram_accesses"`

	// Writebacks is the number of dirty blocks written to DRAM
	Writebacks uint64 `json:"writebacks"`

	// AverageLatency is the mean DRAM access latency over all controllers
	AverageLatency simtime.Time `json:"average_latency"`

	// AverageQueueDelay is the mean queueing delay over all controllers
	AverageQueueDelay simtime.Time `json:"average_queue_delay"`

	// QueueUtilizationPercent is the mean estimator utilization, when the
	// estimator reports one
	QueueUtilizationPercent float64 `json:"queue_utilization_percent,omitempty"`

	// AnalyticalPercent is the share of requests the estimator answered
	// analytically, when the estimator reports one
	AnalyticalPercent float64 `json:"analytical_percent,omitempty"`

	// SimulatedTime is the latest simulation-role time over all cores
	SimulatedTime simtime.Time `json:"simulated_time"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single workload.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Overrides are path=value configuration assignments applied on top of
	// the harness overrides
	Overrides []string

	// Workload generates the traffic. Its core count follows the system.
	Workload trace.Generator
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Overrides are path=value configuration assignments applied to every
	// benchmark
	Overrides []string

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Logger receives the models' log output (default: the standard logger)
	Logger logrus.FieldLogger
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Output: os.Stdout,
		Logger: logrus.StandardLogger(),
	}
}

// Harness runs workload benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results. It stops at the first
// benchmark that fails.
func (h *Harness) RunAll(ctx context.Context) ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result, err := h.runBenchmark(ctx, bench)
		if err != nil {
			return results, fmt.Errorf("benchmark %s: %w", bench.Name, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// runBenchmark executes a single benchmark on a fresh system.
func (h *Harness) runBenchmark(ctx context.Context, bench Benchmark) (BenchmarkResult, error) {
	tree := config.New()
	for _, o := range append(append([]string{}, h.config.Overrides...), bench.Overrides...) {
		if err := tree.Override(o); err != nil {
			return BenchmarkResult{}, err
		}
	}

	sys, err := system.Build(tree, system.WithLogger(h.config.Logger))
	if err != nil {
		return BenchmarkResult{}, err
	}

	gen := bench.Workload
	gen.Cores = len(sys.Cores)
	t := gen.Generate()

	// Run simulation and measure time
	sys.Enable()
	start := time.Now()
	if err := sys.Run(ctx, t); err != nil {
		return BenchmarkResult{}, err
	}
	wallTime := time.Since(start)

	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
		Cores:       len(sys.Cores),
		WallTime:    wallTime,
	}

	var (
		numDram, withDiag      uint64
		totalLatency, totalQ   simtime.Time
		utilization, analytics float64
	)

	for _, c := range sys.Cores {
		cs := c.Stats()
		result.Accesses += cs.Accesses
		result.LLCHits += cs.LLCHits
		result.DramAccesses += cs.DramAccesses
		result.Writebacks += cs.Writebacks

		ds := c.Dram.Stats()
		numDram += ds.NumAccesses
		totalLatency += ds.TotalAccessLatency
		totalQ += ds.TotalQueueingDelay

		if diag, ok := c.Dram.QueueModel().(queuemodel.Diagnostics); ok {
			withDiag++
			utilization += diag.QueueUtilization()
			analytics += diag.FracRequestsUsingAnalyticalModel()
		}

		result.SimulatedTime = simtime.Max(result.SimulatedTime,
			c.Shmem.GetElapsedTime(shmem.RoleSim))
	}

	result.AverageLatency = totalLatency.Div(numDram)
	result.AverageQueueDelay = totalQ.Div(numDram)
	if withDiag > 0 {
		result.QueueUtilizationPercent = 100 * utilization / float64(withDiag)
		result.AnalyticalPercent = 100 * analytics / float64(withDiag)
	}

	return result, nil
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== dramperf Workload Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Cores: %d\n", r.Cores)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Traffic ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Accesses:       %d\n", r.Accesses)
		_, _ = fmt.Fprintf(h.config.Output, "  DRAM Accesses:  %d\n", r.DramAccesses)
		if r.LLCHits > 0 || r.Writebacks > 0 {
			_, _ = fmt.Fprintf(h.config.Output, "  LLC Hits:       %d\n", r.LLCHits)
			_, _ = fmt.Fprintf(h.config.Output, "  Writebacks:     %d\n", r.Writebacks)
		}
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Average Latency:     %v\n", r.AverageLatency)
		_, _ = fmt.Fprintf(h.config.Output, "  Average Queue Delay: %v\n", r.AverageQueueDelay)
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Time:      %v\n", r.SimulatedTime)

		if r.QueueUtilizationPercent > 0 || r.AnalyticalPercent > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- Queue Model ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Utilization:     %.1f%%\n", r.QueueUtilizationPercent)
			_, _ = fmt.Fprintf(h.config.Output, "  Analytical Used: %.1f%%\n", r.AnalyticalPercent)
		}

		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cores,accesses,dram_accesses,llc_hits,writebacks,avg_latency_ns,avg_queue_delay_ns,queue_utilization,analytical,simulated_time_ns")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%d,%d,%.3f,%.3f,%.1f,%.1f,%.3f\n",
			r.Name,
			r.Cores,
			r.Accesses,
			r.DramAccesses,
			r.LLCHits,
			r.Writebacks,
			r.AverageLatency.Nanoseconds(),
			r.AverageQueueDelay.Nanoseconds(),
			r.QueueUtilizationPercent,
			r.AnalyticalPercent,
			r.SimulatedTime.Nanoseconds(),
		)
	}
}
