package queuemodel

import (
	"github.com/sarchlab/dramperf/stats"
	"github.com/sarchlab/dramperf/timing/simtime"
)

// Basic is a first-come first-served single server. A request waits until
// every earlier request has been serviced.
type Basic struct {
	freeAt simtime.Time

	numRequests     uint64
	totalQueueDelay simtime.Time
}

func newBasic() *Basic {
	return &Basic{}
}

// ComputeQueueDelay implements Estimator.
func (b *Basic) ComputeQueueDelay(
	arrival, serviceTime simtime.Time,
	_ int,
) simtime.Time {
	delay := simtime.Zero
	if b.freeAt > arrival {
		delay = b.freeAt - arrival
	}

	b.freeAt = simtime.Max(arrival, b.freeAt) + serviceTime

	b.numRequests++
	b.totalQueueDelay += delay

	return delay
}

func (b *Basic) registerStats(sink stats.Sink, name string, coreID int) {
	sink.RegisterMetric(name, coreID, "num-requests", stats.Uint64(&b.numRequests))
	sink.RegisterMetric(name, coreID, "total-queue-delay", stats.Time(&b.totalQueueDelay))
}
