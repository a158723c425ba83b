// Package core provides the per-core memory timing model.
// It ties a core's DRAM controller, its elapsed-time tracker and an optional
// last-level cache filter together, and replays the core's access stream with
// the application role and the simulation role running concurrently.
package core

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/dramperf/config"
	"github.com/sarchlab/dramperf/timing/cache"
	"github.com/sarchlab/dramperf/timing/dram"
	"github.com/sarchlab/dramperf/timing/shmem"
	"github.com/sarchlab/dramperf/timing/simtime"
	"github.com/sarchlab/dramperf/trace"
)

// Stats holds memory statistics for the core.
type Stats struct {
	// Accesses is the number of accesses issued by the application role.
	Accesses uint64
	// LLCHits is the number of accesses served by the last-level cache.
	LLCHits uint64
	// DramAccesses is the number of demand accesses sent to DRAM.
	DramAccesses uint64
	// Writebacks is the number of dirty blocks written to DRAM.
	Writebacks uint64
}

// Core represents the memory side of one simulated core.
type Core struct {
	// ID is the core's requester identity.
	ID int
	// Dram is the core's DRAM controller.
	Dram *dram.PerfModel
	// Shmem tracks the elapsed time of the core's two roles.
	Shmem *shmem.PerfModel

	llc        *cache.Cache
	queueDepth int

	// Owned by the simulation role while Run is active.
	stats Stats
}

// Option configures a Core.
type Option func(*Core)

// WithLLC places a last-level cache in front of DRAM. Only misses and dirty
// evictions reach the controller.
func WithLLC(c *cache.Cache) Option {
	return func(core *Core) {
		core.llc = c
	}
}

// WithQueueDepth bounds how many accesses the application role may issue
// ahead of the simulation role.
func WithQueueDepth(n int) Option {
	return func(core *Core) {
		core.queueDepth = n
	}
}

// NewCore creates a new Core around its DRAM controller and tracker.
func NewCore(id int, d *dram.PerfModel, s *shmem.PerfModel, opts ...Option) *Core {
	c := &Core{
		ID:         id,
		Dram:       d,
		Shmem:      s,
		queueDepth: 64,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// LLC returns the last-level cache, or nil.
func (c *Core) LLC() *cache.Cache {
	return c.llc
}

// Enable turns on DRAM modeling and latency tracking.
func (c *Core) Enable() {
	c.Dram.Enable()
	c.Shmem.Enable()
}

// Disable turns off DRAM modeling and latency tracking.
func (c *Core) Disable() {
	c.Dram.Disable()
	c.Shmem.Disable()
}

// Stats returns memory statistics for the core.
func (c *Core) Stats() Stats {
	return c.stats
}

// Issue is the application role's side of an access: the role has advanced
// to the access's arrival time.
func (c *Core) Issue(arrival simtime.Time) {
	c.Shmem.SetElapsedTime(shmem.RoleUser, arrival)
}

// Service is the simulation role's side of an access. It returns the DRAM
// latency the access sees, which is zero on a last-level cache hit.
func (c *Core) Service(rec trace.Record) simtime.Time {
	c.stats.Accesses++

	size := rec.Size
	if c.llc != nil {
		res := c.llc.Access(rec.Addr, rec.Write)
		if res.Hit {
			c.stats.LLCHits++
			c.Shmem.UpdateElapsedTime(shmem.RoleSim, rec.Arrival)
			return simtime.Zero
		}

		size = uint64(c.llc.Config().BlockSize)
		if res.Writeback {
			c.writeback(rec.Arrival, size)
		}
	}

	c.stats.DramAccesses++
	latency := c.Dram.ComputeAccessLatency(rec.Arrival, size, rec.Requester)

	c.Shmem.UpdateElapsedTime(shmem.RoleSim, rec.Arrival+latency)
	if c.Shmem.IsEnabled() {
		c.Shmem.IncrTotalMemoryAccessLatency(latency)
	}

	return latency
}

func (c *Core) writeback(at simtime.Time, size uint64) {
	c.stats.Writebacks++
	c.Dram.ComputeAccessLatency(at, size, c.ID)
}

// Run replays stream, which must be in arrival order. The application role
// issues accesses on one goroutine while the simulation role times them on
// another.
func (c *Core) Run(ctx context.Context, stream trace.Trace) error {
	g, ctx := errgroup.WithContext(ctx)
	issued := make(chan trace.Record, c.queueDepth)

	g.Go(func() error {
		defer close(issued)

		for _, rec := range stream {
			c.Issue(rec.Arrival)

			select {
			case issued <- rec:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		return nil
	})

	g.Go(func() error {
		for rec := range issued {
			c.Service(rec)
		}
		return nil
	})

	return g.Wait()
}

// Finish writes every dirty last-level cache block back to DRAM at the
// simulation role's current time.
func (c *Core) Finish() {
	if c.llc == nil {
		return
	}

	now := c.Shmem.GetElapsedTime(shmem.RoleSim)
	size := uint64(c.llc.Config().BlockSize)
	for range c.llc.Flush() {
		c.writeback(now, size)
	}
}

// OutputSummary writes the core's DRAM and elapsed-time summaries.
func (c *Core) OutputSummary(w io.Writer, cfg config.Reader) error {
	if _, err := fmt.Fprintf(w, "Core %d:\n", c.ID); err != nil {
		return err
	}

	if err := c.Dram.OutputSummary(w, cfg); err != nil {
		return err
	}

	return c.Shmem.OutputSummary(w)
}
