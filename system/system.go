// Package system assembles the per-core memory timing models of a simulated
// machine from a configuration tree and replays a memory trace against them.
package system

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/dramperf/config"
	"github.com/sarchlab/dramperf/stats"
	"github.com/sarchlab/dramperf/timing/cache"
	"github.com/sarchlab/dramperf/timing/core"
	"github.com/sarchlab/dramperf/timing/dram"
	"github.com/sarchlab/dramperf/timing/shmem"
	"github.com/sarchlab/dramperf/trace"
)

// Configuration paths read by Build.
const (
	TotalCoresPath       = "general/total_cores"
	ApplicationCoresPath = "general/application_cores"
	LLCPath              = "perf_model/llc"
	LLCEnabledPath       = "perf_model/llc/enabled"
)

// ErrInvalidTopology is returned when the core counts do not describe a
// machine.
var ErrInvalidTopology = errors.New("invalid core topology")

// System is the set of per-core memory models of one machine.
type System struct {
	Cores []*core.Core

	applicationCores int
	log              logrus.FieldLogger
}

type options struct {
	sink  stats.Sink
	log   logrus.FieldLogger
	hooks []sim.Hook
}

// Option configures Build.
type Option func(*options)

// WithStats registers every model's counters with sink.
func WithStats(sink stats.Sink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithAccessHook attaches h to every DRAM controller.
func WithAccessHook(h sim.Hook) Option {
	return func(o *options) {
		o.hooks = append(o.hooks, h)
	}
}

// Build creates one DRAM controller and one elapsed-time tracker per core.
// Cores start disabled.
func Build(tree *config.Tree, opts ...Option) (*System, error) {
	o := options{
		sink: stats.Discard,
		log:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	totalCores := tree.GetInt(TotalCoresPath, 1)
	appCores := tree.GetInt(ApplicationCoresPath, totalCores)
	if totalCores < 1 || appCores < 0 || appCores > totalCores {
		return nil, fmt.Errorf("%w: %d application cores of %d",
			ErrInvalidTopology, appCores, totalCores)
	}

	dramConfig, err := dram.ConfigFromTree(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to read dram config: %w", err)
	}

	llcConfig, llcEnabled, err := llcFromTree(tree)
	if err != nil {
		return nil, err
	}

	s := &System{
		applicationCores: appCores,
		log:              o.log,
	}

	for id := 0; id < totalCores; id++ {
		d, err := dram.MakeBuilder().
			WithConfig(dramConfig).
			WithCoreID(id).
			WithApplicationCores(appCores).
			WithStats(o.sink).
			WithLogger(o.log).
			Build(fmt.Sprintf("DRAM[%d]", id))
		if err != nil {
			return nil, err
		}

		for _, h := range o.hooks {
			d.AcceptHook(h)
		}

		var coreOpts []core.Option
		if llcEnabled {
			coreOpts = append(coreOpts, core.WithLLC(cache.New(llcConfig)))
		}

		s.Cores = append(s.Cores,
			core.NewCore(id, d, shmem.NewPerfModel(id, o.sink), coreOpts...))
	}

	o.log.WithFields(logrus.Fields{
		"total_cores":       totalCores,
		"application_cores": appCores,
		"queue_model":       dramConfig.QueueModel.Type,
		"llc":               llcEnabled,
	}).Debug("system built")

	return s, nil
}

func llcFromTree(tree *config.Tree) (cache.Config, bool, error) {
	c := cache.DefaultLLCConfig()
	enabled := tree.GetBool(LLCEnabledPath, false)
	if !enabled {
		return c, false, nil
	}

	if err := tree.Decode(LLCPath, &c); err != nil {
		return c, false, fmt.Errorf("failed to read llc config: %w", err)
	}

	if c.Size <= 0 || c.BlockSize <= 0 || c.Associativity <= 0 ||
		c.Size%(c.Associativity*c.BlockSize) != 0 {
		return c, false, fmt.Errorf("llc: size %d is not a multiple of %d ways of %dB",
			c.Size, c.Associativity, c.BlockSize)
	}

	return c, true, nil
}

// ApplicationCores returns how many cores run application code.
func (s *System) ApplicationCores() int {
	return s.applicationCores
}

// Enable turns on every core's models.
func (s *System) Enable() {
	for _, c := range s.Cores {
		c.Enable()
	}
}

// Disable turns off every core's models.
func (s *System) Disable() {
	for _, c := range s.Cores {
		c.Disable()
	}
}

// Run replays t. Every core replays the records it issued on its own
// goroutines; records from unknown requesters are dropped.
func (s *System) Run(ctx context.Context, t trace.Trace) error {
	if !t.IsSorted() {
		t = append(trace.Trace(nil), t...)
		t.Sort()
	}

	streams, leftover := t.ByRequester(len(s.Cores))
	if len(leftover) > 0 {
		s.log.WithField("records", len(leftover)).
			Warn("dropping records from requesters without a core")
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, c := range s.Cores {
		stream := streams[i]
		g.Go(func() error {
			if err := c.Run(ctx, stream); err != nil {
				return fmt.Errorf("core %d: %w", c.ID, err)
			}
			c.Finish()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	s.log.WithField("records", len(t)-len(leftover)).Info("trace replayed")

	return nil
}

// OutputSummary writes the summary of every core. The queue model block
// follows the configuration each controller was built with.
func (s *System) OutputSummary(w io.Writer) error {
	for _, c := range s.Cores {
		if err := c.OutputSummary(w, nil); err != nil {
			return err
		}
	}

	return nil
}
