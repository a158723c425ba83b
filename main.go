// Package main provides the entry point for dramperf.
// dramperf models per-core DRAM access latency and the elapsed time of the
// application and simulation roles of each core.
//
// For the full CLI, use: go run ./cmd/dramperf
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("dramperf - per-core DRAM timing models")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: dramperf <command> [options]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  run       Replay a memory trace against the DRAM models")
	fmt.Println("  config    Print the effective configuration")
	fmt.Println("  bench     Run the workload benchmarks against the DRAM models")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/dramperf --help' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/dramperf' instead.")
	}
}
