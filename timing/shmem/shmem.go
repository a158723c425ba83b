// Package shmem tracks, for one simulated core, how far in simulated time the
// application role and the simulation role have progressed.
//
// The two roles run concurrently and each reads the other's progress. All
// per-role state sits behind a reader/writer lock: queries share the lock and
// every update takes it exclusively.
package shmem

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/sarchlab/dramperf/stats"
	"github.com/sarchlab/dramperf/timing/simtime"
	"github.com/sarchlab/dramperf/timing/summary"
)

// Role identifies one of the two execution roles of a core.
type Role int

// Roles of a core.
const (
	// RoleUser is the application role that runs the functional model.
	RoleUser Role = iota
	// RoleSim is the simulation role that advances the timing model.
	RoleSim

	NumRoles
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleSim:
		return "sim"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Stats holds the memory access counters of a tracker.
type Stats struct {
	NumMemoryAccesses        uint64
	TotalMemoryAccessLatency simtime.Time
}

// AverageMemoryAccessLatency returns the mean latency, or zero if nothing was
// recorded.
func (s Stats) AverageMemoryAccessLatency() simtime.Time {
	return s.TotalMemoryAccessLatency.Div(s.NumMemoryAccesses)
}

// PerfModel is the per-core elapsed-time tracker. It is safe for concurrent
// use.
type PerfModel struct {
	lock sync.RWMutex

	elapsedTime [NumRoles]simtime.Time

	numMemoryAccesses        uint64
	totalMemoryAccessLatency simtime.Time

	enabled     atomic.Bool
	everEnabled atomic.Bool
}

// NewPerfModel creates a tracker with both roles at time zero. If sink is not
// nil the access counters are registered under ("shmem", coreID).
func NewPerfModel(coreID int, sink stats.Sink) *PerfModel {
	m := &PerfModel{}

	if sink != nil {
		sink.RegisterMetric("shmem", coreID, "num-memory-accesses",
			stats.MetricFunc(func() float64 {
				return float64(m.Stats().NumMemoryAccesses)
			}))
		sink.RegisterMetric("shmem", coreID, "total-memory-access-latency",
			stats.MetricFunc(func() float64 {
				return float64(m.Stats().TotalMemoryAccessLatency)
			}))
	}

	return m
}

func mustBeValid(role Role) {
	if role < 0 || role >= NumRoles {
		panic(fmt.Sprintf("shmem: invalid role %d", int(role)))
	}
}

// SetElapsedTime overwrites the progress of role.
func (m *PerfModel) SetElapsedTime(role Role, t simtime.Time) {
	mustBeValid(role)

	m.lock.Lock()
	defer m.lock.Unlock()

	m.elapsedTime[role] = t
}

// GetElapsedTime returns the progress of role.
func (m *PerfModel) GetElapsedTime(role Role) simtime.Time {
	mustBeValid(role)

	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.elapsedTime[role]
}

// IncrElapsedTime advances role by d.
func (m *PerfModel) IncrElapsedTime(role Role, d simtime.Time) {
	mustBeValid(role)

	m.lock.Lock()
	defer m.lock.Unlock()

	m.elapsedTime[role] += d
}

// UpdateElapsedTime moves role forward to t. A t earlier than the current
// progress is ignored, so a role never appears to go back in time.
func (m *PerfModel) UpdateElapsedTime(role Role, t simtime.Time) {
	mustBeValid(role)

	m.lock.Lock()
	defer m.lock.Unlock()

	m.elapsedTime[role] = simtime.Max(m.elapsedTime[role], t)
}

// IncrTotalMemoryAccessLatency records one memory access of the given
// latency.
func (m *PerfModel) IncrTotalMemoryAccessLatency(latency simtime.Time) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.numMemoryAccesses++
	m.totalMemoryAccessLatency += latency
}

// Stats returns the memory access counters.
func (m *PerfModel) Stats() Stats {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return Stats{
		NumMemoryAccesses:        m.numMemoryAccesses,
		TotalMemoryAccessLatency: m.totalMemoryAccessLatency,
	}
}

// Enable marks the tracker as in use. The flag is informational; callers
// consult it, the tracker does not enforce it.
func (m *PerfModel) Enable() {
	m.enabled.Store(true)
	m.everEnabled.Store(true)
}

// Disable marks the tracker as not in use.
func (m *PerfModel) Disable() {
	m.enabled.Store(false)
}

// IsEnabled tells whether the tracker is in use.
func (m *PerfModel) IsEnabled() bool {
	return m.enabled.Load()
}

// OutputSummary writes the memory access statistics. A tracker that was never
// enabled prints the NA form.
func (m *PerfModel) OutputSummary(w io.Writer) error {
	if !m.everEnabled.Load() {
		return DummyOutputSummary(w)
	}

	s := m.Stats()
	_, err := summary.New("Shmem Perf Model summary:").
		Line(2, "num memory accesses", s.NumMemoryAccesses).
		Line(2, "average memory access latency", s.AverageMemoryAccessLatency()).
		WriteTo(w)

	return err
}

// DummyOutputSummary writes the summary of a tracker that never ran.
func DummyOutputSummary(w io.Writer) error {
	_, err := summary.New("Shmem Perf Model summary:").
		Line(2, "num memory accesses", summary.NA).
		Line(2, "average memory access latency", summary.NA).
		WriteTo(w)

	return err
}
