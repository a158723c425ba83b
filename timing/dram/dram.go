// Package dram models the latency of main-memory accesses at a single DRAM
// controller.
//
// Each access costs its bandwidth-derived service time, a fixed access cost,
// and, when a queue model is configured, the queueing delay caused by other
// in-flight requests. There is one controller per core.
package dram

import (
	"io"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/dramperf/config"
	"github.com/sarchlab/dramperf/timing/queuemodel"
	"github.com/sarchlab/dramperf/timing/simtime"
	"github.com/sarchlab/dramperf/timing/summary"
)

// HookPosAccess marks a serviced DRAM access. The hook item is an AccessInfo.
var HookPosAccess = &sim.HookPos{Name: "DRAMAccess"}

// AccessInfo describes one serviced access.
type AccessInfo struct {
	Arrival     simtime.Time
	Size        uint64
	Requester   int
	ServiceTime simtime.Time
	QueueDelay  simtime.Time
	Latency     simtime.Time
}

// Stats holds the access counters of a controller.
type Stats struct {
	NumAccesses        uint64
	TotalAccessLatency simtime.Time
	TotalQueueingDelay simtime.Time
}

// AverageAccessLatency returns the mean access latency, or zero if there were
// no accesses.
func (s Stats) AverageAccessLatency() simtime.Time {
	return s.TotalAccessLatency.Div(s.NumAccesses)
}

// AverageQueueingDelay returns the mean queueing delay, or zero if there were
// no accesses.
func (s Stats) AverageQueueingDelay() simtime.Time {
	return s.TotalQueueingDelay.Div(s.NumAccesses)
}

// PerfModel is the timing model of one DRAM controller. It is not safe for
// concurrent use.
type PerfModel struct {
	*sim.HookableBase

	name             string
	coreID           int
	applicationCores int

	accessCost simtime.Time
	bandwidth  simtime.Converter
	queueType  string
	queueModel queuemodel.Estimator

	enabled     bool
	everEnabled bool

	numAccesses        uint64
	totalAccessLatency simtime.Time
	totalQueueingDelay simtime.Time
}

// Name returns the name of the controller.
func (m *PerfModel) Name() string {
	return m.name
}

// CoreID returns the core that owns the controller.
func (m *PerfModel) CoreID() int {
	return m.coreID
}

// QueueModel returns the estimator, or nil when queueing is disabled.
func (m *PerfModel) QueueModel() queuemodel.Estimator {
	return m.queueModel
}

// Enable starts modeling accesses.
func (m *PerfModel) Enable() {
	m.enabled = true
	m.everEnabled = true
}

// Disable makes every access free until the model is enabled again.
func (m *PerfModel) Disable() {
	m.enabled = false
}

// IsEnabled tells whether accesses are being modeled.
func (m *PerfModel) IsEnabled() bool {
	return m.enabled
}

// ComputeAccessLatency returns the latency of an access of sizeBytes bytes
// arriving at arrival from requester. Accesses are expected in arrival order.
//
// A disabled model, or a requester that is not an application core, costs
// nothing and leaves the counters untouched.
func (m *PerfModel) ComputeAccessLatency(
	arrival simtime.Time,
	sizeBytes uint64,
	requester int,
) simtime.Time {
	if !m.enabled || requester < 0 || requester >= m.applicationCores {
		return simtime.Zero
	}

	serviceTime := m.bandwidth.RoundedLatency(8 * sizeBytes) // bytes to bits

	queueDelay := simtime.Zero
	if m.queueModel != nil {
		queueDelay = m.queueModel.ComputeQueueDelay(arrival, serviceTime, requester)
	}

	latency := queueDelay + serviceTime + m.accessCost

	m.numAccesses++
	m.totalAccessLatency += latency
	m.totalQueueingDelay += queueDelay

	if m.NumHooks() > 0 {
		m.InvokeHook(sim.HookCtx{
			Domain: m,
			Pos:    HookPosAccess,
			Item: AccessInfo{
				Arrival:     arrival,
				Size:        sizeBytes,
				Requester:   requester,
				ServiceTime: serviceTime,
				QueueDelay:  queueDelay,
				Latency:     latency,
			},
		})
	}

	return latency
}

// Stats returns the access counters.
func (m *PerfModel) Stats() Stats {
	return Stats{
		NumAccesses:        m.numAccesses,
		TotalAccessLatency: m.totalAccessLatency,
		TotalQueueingDelay: m.totalQueueingDelay,
	}
}

// ResetStats clears the access counters.
func (m *PerfModel) ResetStats() {
	m.numAccesses = 0
	m.totalAccessLatency = 0
	m.totalQueueingDelay = 0
}

// OutputSummary writes the controller statistics. A model that was never
// enabled prints the NA form. cfg tells which queue model was configured; a
// nil cfg falls back to the kind the model was built with.
func (m *PerfModel) OutputSummary(w io.Writer, cfg config.Reader) error {
	if !m.everEnabled {
		return DummyOutputSummary(w, m.readerOrSelf(cfg))
	}

	s := m.Stats()
	r := summary.New("Dram Perf Model summary:").
		Line(2, "num dram accesses", s.NumAccesses).
		Line(2, "average dram access latency", s.AverageAccessLatency()).
		Line(2, "average dram queueing delay", s.AverageQueueingDelay())

	queueType := m.readerOrSelf(cfg).GetString(QueueModelTypePath, "")
	diag, ok := m.queueModel.(queuemodel.Diagnostics)
	if m.queueModel != nil && ok && queueType == queuemodel.KindHistoryList {
		r.Section(1, "Queue Model").
			Line(2, "Queue Utilization(%)", summary.Percent(diag.QueueUtilization())).
			Line(2, "Analytical Model Used(%)",
				summary.Percent(diag.FracRequestsUsingAnalyticalModel()))
	}

	_, err := r.WriteTo(w)
	return err
}

// DummyOutputSummary writes the summary of a controller that does not exist
// or never ran, with every value shown as NA.
func DummyOutputSummary(w io.Writer, cfg config.Reader) error {
	r := summary.New("Dram Perf Model summary:").
		Line(2, "num dram accesses", summary.NA).
		Line(2, "average dram access latency", summary.NA).
		Line(2, "average dram queueing delay", summary.NA)

	enabled := cfg != nil && cfg.GetBool(QueueModelEnabledPath, false)
	queueType := ""
	if cfg != nil {
		queueType = cfg.GetString(QueueModelTypePath, "")
	}

	if enabled && queueType == queuemodel.KindHistoryList {
		r.Section(1, "Queue Model").
			Line(2, "Queue Utilization(%)", summary.NA).
			Line(2, "Analytical Model Used(%)", summary.NA)
	}

	_, err := r.WriteTo(w)
	return err
}

func (m *PerfModel) readerOrSelf(cfg config.Reader) config.Reader {
	if cfg != nil {
		return cfg
	}
	return builtConfig{m}
}

// builtConfig answers configuration queries from the parameters the model
// was built with.
type builtConfig struct {
	m *PerfModel
}

func (c builtConfig) GetString(path string, def string) string {
	if path == QueueModelTypePath && c.m.queueModel != nil {
		return c.m.queueType
	}
	return def
}

func (c builtConfig) GetBool(path string, def bool) bool {
	if path == QueueModelEnabledPath {
		return c.m.queueModel != nil
	}
	return def
}
