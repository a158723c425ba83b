// Command dramperf replays memory access traces against per-core DRAM timing
// models and reports the access latency each core observed.
package main

import (
	"github.com/tebeka/atexit"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
