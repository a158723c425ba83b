package dram

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/dramperf/stats"
	"github.com/sarchlab/dramperf/timing/queuemodel"
	"github.com/sarchlab/dramperf/timing/simtime"
)

// Builder can build DRAM performance models.
type Builder struct {
	coreID           int
	applicationCores int
	accessCost       simtime.Time
	bandwidth        simtime.Converter
	queueEnabled     bool
	queueType        string
	maxListSize      int
	window           simtime.Time
	blockSize        uint64
	estimator        queuemodel.Estimator
	sink             stats.Sink
	log              logrus.FieldLogger
}

// MakeBuilder creates a builder with the default configuration for a single
// core system.
func MakeBuilder() Builder {
	return Builder{
		applicationCores: 1,
		sink:             stats.Discard,
		log:              logrus.StandardLogger(),
	}.WithConfig(DefaultConfig())
}

// WithConfig copies every controller parameter from c.
func (b Builder) WithConfig(c *Config) Builder {
	b.accessCost = c.AccessCost
	b.bandwidth = c.BandwidthConverter()
	b.queueEnabled = c.QueueModel.Enabled
	b.queueType = c.QueueModel.Type
	b.maxListSize = c.QueueModel.MaxListSize
	b.window = c.QueueModel.Window
	b.blockSize = c.BlockSize
	return b
}

// WithCoreID sets the core that owns the controller.
func (b Builder) WithCoreID(id int) Builder {
	b.coreID = id
	return b
}

// WithApplicationCores sets how many cores run application code. Requests
// from any other requester id are not modeled.
func (b Builder) WithApplicationCores(n int) Builder {
	b.applicationCores = n
	return b
}

// WithAccessCost sets the fixed cost of every access.
func (b Builder) WithAccessCost(t simtime.Time) Builder {
	b.accessCost = t
	return b
}

// WithBandwidth sets the bandwidth model.
func (b Builder) WithBandwidth(bw simtime.Converter) Builder {
	b.bandwidth = bw
	return b
}

// WithQueueModel enables or disables queueing and selects the estimator kind.
func (b Builder) WithQueueModel(enabled bool, kind string) Builder {
	b.queueEnabled = enabled
	b.queueType = kind
	return b
}

// WithEstimator injects a ready-made estimator, bypassing the factory.
func (b Builder) WithEstimator(e queuemodel.Estimator) Builder {
	b.estimator = e
	b.queueEnabled = e != nil
	return b
}

// WithBlockSize sets the cache block size in bytes.
func (b Builder) WithBlockSize(n uint64) Builder {
	b.blockSize = n
	return b
}

// WithStats sets the sink the model registers its counters with.
func (b Builder) WithStats(sink stats.Sink) Builder {
	b.sink = sink
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(log logrus.FieldLogger) Builder {
	b.log = log
	return b
}

// Build creates a PerfModel. The model starts disabled.
func (b Builder) Build(name string) (*PerfModel, error) {
	if b.bandwidth == nil {
		return nil, fmt.Errorf("dram %s: bandwidth model is required", name)
	}

	m := &PerfModel{
		HookableBase:     sim.NewHookableBase(),
		name:             name,
		coreID:           b.coreID,
		applicationCores: b.applicationCores,
		accessCost:       b.accessCost,
		bandwidth:        b.bandwidth,
		queueType:        b.queueType,
		queueModel:       b.estimator,
	}

	if m.queueModel == nil && b.queueEnabled {
		minProcessingTime := b.bandwidth.RoundedLatency(8 * b.blockSize) // bytes to bits

		e, err := queuemodel.New("dram-queue", b.coreID, b.queueType, minProcessingTime,
			queuemodel.WithStats(b.sink),
			queuemodel.WithLogger(b.log),
			queuemodel.WithMaxListSize(b.maxListSize),
			queuemodel.WithWindow(b.window),
		)
		if err != nil {
			return nil, fmt.Errorf("dram %s: %w", name, err)
		}
		m.queueModel = e
	}

	b.sink.RegisterMetric("dram", b.coreID, "total-access-latency",
		stats.Time(&m.totalAccessLatency))
	b.sink.RegisterMetric("dram", b.coreID, "total-queueing-delay",
		stats.Time(&m.totalQueueingDelay))
	b.sink.RegisterMetric("dram", b.coreID, "num-accesses",
		stats.Uint64(&m.numAccesses))

	b.log.WithFields(logrus.Fields{
		"name":       name,
		"core":       b.coreID,
		"accessCost": b.accessCost,
		"queueing":   m.queueModel != nil,
	}).Debug("dram perf model created")

	return m, nil
}
