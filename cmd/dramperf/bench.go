package main

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/dramperf/benchmarks"
)

var (
	benchCSV   bool // Output results in CSV format
	benchJSON  bool // Output results in JSON format
	benchQuick bool // Run the reduced workload set
)

// benchCmd runs the workload benchmark harness
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run the workload benchmarks against the DRAM models",
	Long: `Run the workload benchmarks against the DRAM models.

Every workload runs on a fresh system built from the defaults, the --set
overrides and the workload's own overrides. --config is not read.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if benchCSV && benchJSON {
			return fmt.Errorf("--csv and --json are mutually exclusive")
		}

		config := benchmarks.DefaultConfig()
		config.Overrides = overrides
		config.Output = cmd.OutOrStdout()
		config.Logger = logrus.StandardLogger()

		harness := benchmarks.NewHarness(config)
		if benchQuick {
			harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
		} else {
			harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
		}

		results, err := harness.RunAll(cmd.Context())
		if err != nil {
			return err
		}

		switch {
		case benchCSV:
			harness.PrintCSV(results)
		case benchJSON:
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		default:
			harness.PrintResults(results)
		}

		return nil
	},
}

func init() {
	benchCmd.Flags().BoolVar(&benchCSV, "csv", false, "Output results in CSV format")
	benchCmd.Flags().BoolVar(&benchJSON, "json", false, "Output results in JSON format")
	benchCmd.Flags().BoolVar(&benchQuick, "quick", false, "Run only the core workloads")
}
