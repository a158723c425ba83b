package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/dramperf/config"
)

var (
	configPath string   // YAML or JSON configuration file
	envFiles   []string // .env files loaded before reading the environment
	overrides  []string // path=value assignments applied last
	logLevel   string   // Log verbosity level
	cpuProfile string   // Write a CPU profile to this file
	memProfile string   // Write a heap profile to this file at exit
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:          "dramperf",
	Short:        "Per-core DRAM timing and elapsed-time models",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		return startProfiling()
	},
}

// startProfiling starts the requested profiles. They are written out by the
// exit handlers, so a failed run still leaves a profile behind.
func startProfiling() error {
	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile: %w", err)
		}

		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}

		atexit.Register(func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		})
	}

	if memProfile != "" {
		path := memProfile
		atexit.Register(func() {
			f, err := os.Create(path)
			if err != nil {
				logrus.Errorf("failed to create memory profile: %v", err)
				return
			}
			defer func() { _ = f.Close() }()

			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				logrus.Errorf("failed to write memory profile: %v", err)
			}
		})
	}

	return nil
}

// loadTree builds the effective configuration: the file, then DRAMPERF_
// variables, then command line overrides.
func loadTree() (*config.Tree, error) {
	if err := config.LoadEnv(envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}

	tree := config.New()
	if configPath != "" {
		var err error
		tree, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
	}

	if n := tree.ApplyProcessEnv(); n > 0 {
		logrus.Debugf("applied %d environment overrides", n)
	}

	for _, o := range overrides {
		if err := tree.Override(o); err != nil {
			return nil, err
		}
	}

	return tree, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML or JSON configuration file")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil, "Env files to load (default .env)")
	rootCmd.PersistentFlags().StringArrayVar(&overrides, "set", nil, "Override a configuration value, e.g. perf_model/dram/access_cost=80ns")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&cpuProfile, "cpuprofile", "", "Write a CPU profile to this file")
	rootCmd.PersistentFlags().StringVar(&memProfile, "memprofile", "", "Write a heap profile to this file at exit")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(benchCmd)
}
