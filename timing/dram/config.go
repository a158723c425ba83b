package dram

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/dramperf/config"
	"github.com/sarchlab/dramperf/timing/queuemodel"
	"github.com/sarchlab/dramperf/timing/simtime"
)

// Configuration paths read by the summaries and by ConfigFromTree.
const (
	SectionPath           = "perf_model/dram"
	QueueModelEnabledPath = "perf_model/dram/queue_model/enabled"
	QueueModelTypePath    = "perf_model/dram/queue_model/type"
)

// QueueModelConfig selects the contention estimator.
type QueueModelConfig struct {
	// Enabled turns queueing delay on. When false every access costs only
	// its service time plus the fixed access cost.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Type is the estimator kind, one of queuemodel.Kinds().
	Type string `json:"type" yaml:"type"`

	// MaxListSize bounds the history kept by the history_list estimator.
	MaxListSize int `json:"max_list_size" yaml:"max_list_size"`

	// Window is the observation window of the windowed_mg1 estimator.
	Window simtime.Time `json:"window" yaml:"window"`
}

// Config holds the parameters of one DRAM controller.
type Config struct {
	// AccessCost is the fixed latency added to every access. Default: 100ns.
	AccessCost simtime.Time `json:"access_cost" yaml:"access_cost"`

	// Bandwidth is the per-controller bandwidth in bits per cycle.
	// Default: 64.
	Bandwidth float64 `json:"bandwidth" yaml:"bandwidth"`

	// FrequencyGHz is the clock the bandwidth is expressed against.
	// Default: 1GHz.
	FrequencyGHz float64 `json:"frequency" yaml:"frequency"`

	// BlockSize is the cache block size in bytes. It only sizes the queue
	// model. Default: 64.
	BlockSize uint64 `json:"block_size" yaml:"block_size"`

	QueueModel QueueModelConfig `json:"queue_model" yaml:"queue_model"`
}

// DefaultConfig returns the baseline controller configuration.
func DefaultConfig() *Config {
	return &Config{
		AccessCost:   100 * simtime.Nanosecond,
		Bandwidth:    64,
		FrequencyGHz: 1,
		BlockSize:    64,
		QueueModel: QueueModelConfig{
			Enabled:     true,
			Type:        queuemodel.KindHistoryList,
			MaxListSize: 100,
			Window:      1 * simtime.Microsecond,
		},
	}
}

// ConfigFromTree overlays the perf_model/dram section of tree on the
// defaults.
func ConfigFromTree(tree *config.Tree) (*Config, error) {
	c := DefaultConfig()
	if err := tree.Decode(SectionPath, c); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadConfig loads a controller configuration from a YAML or JSON file.
func LoadConfig(path string) (*Config, error) {
	tree, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load dram config: %w", err)
	}

	return ConfigFromTree(tree)
}

// SaveConfig writes the configuration to a JSON file nested under
// perf_model/dram, so that LoadConfig reads it back.
func (c *Config) SaveConfig(path string) error {
	doc := map[string]any{
		"perf_model": map[string]any{
			"dram": c,
		},
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize dram config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write dram config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration can build a controller.
func (c *Config) Validate() error {
	if c.AccessCost < 0 {
		return fmt.Errorf("access_cost must be >= 0")
	}
	if c.Bandwidth < 0 {
		return fmt.Errorf("bandwidth must be >= 0")
	}
	if c.FrequencyGHz <= 0 {
		return fmt.Errorf("frequency must be > 0")
	}
	if c.BlockSize == 0 {
		return fmt.Errorf("block_size must be > 0")
	}
	if c.QueueModel.Enabled {
		if !knownKind(c.QueueModel.Type) {
			return fmt.Errorf("queue_model.type %q: %w",
				c.QueueModel.Type, queuemodel.ErrUnknownKind)
		}
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Freq returns the configured clock.
func (c *Config) Freq() sim.Freq {
	return sim.Freq(c.FrequencyGHz) * sim.GHz
}

// BandwidthConverter returns the bandwidth model described by c.
func (c *Config) BandwidthConverter() simtime.Bandwidth {
	return simtime.NewBandwidth(c.Bandwidth, c.Freq())
}

func knownKind(kind string) bool {
	for _, k := range queuemodel.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}
