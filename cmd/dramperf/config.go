package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/dramperf/config"
	"github.com/sarchlab/dramperf/system"
	"github.com/sarchlab/dramperf/timing/cache"
	"github.com/sarchlab/dramperf/timing/dram"
)

// configCmd prints the configuration a run would use
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := loadTree()
		if err != nil {
			return err
		}

		return printConfig(cmd.OutOrStdout(), tree)
	},
}

func printConfig(w io.Writer, tree *config.Tree) error {
	dramConfig, err := dram.ConfigFromTree(tree)
	if err != nil {
		return err
	}

	llc := cache.DefaultLLCConfig()
	if err := tree.Decode(system.LLCPath, &llc); err != nil {
		return err
	}

	totalCores := tree.GetInt(system.TotalCoresPath, 1)
	doc := map[string]any{
		"general": map[string]any{
			"total_cores":       totalCores,
			"application_cores": tree.GetInt(system.ApplicationCoresPath, totalCores),
		},
		"perf_model": map[string]any{
			"dram": dramConfig,
			"llc": map[string]any{
				"enabled":       tree.GetBool(system.LLCEnabledPath, false),
				"size":          llc.Size,
				"associativity": llc.Associativity,
				"block_size":    llc.BlockSize,
			},
		},
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	_, err = w.Write(data)
	return err
}
