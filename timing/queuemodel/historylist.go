package queuemodel

import (
	"container/list"
	"math"

	"github.com/sarchlab/dramperf/stats"
	"github.com/sarchlab/dramperf/timing/simtime"
)

const (
	defaultMaxListSize = 100

	// maxAnalyticalUtilization keeps the M/D/1 formula finite when the
	// observed load saturates the server.
	maxAnalyticalUtilization = 0.99

	forever = simtime.Time(math.MaxInt64)
)

type freeInterval struct {
	start simtime.Time
	end   simtime.Time
}

// HistoryList tracks the periods in which the server is idle. A request that
// arrives inside the tracked history is placed in the first idle gap wide
// enough to hold it, so the delay is exact even when requests arrive out of
// order. Requests older than the history horizon, the end of the newest gap
// dropped to keep the list bounded, fall back to an M/D/1 estimate driven by
// the observed utilization.
type HistoryList struct {
	minProcessingTime simtime.Time
	maxListSize       int

	free    *list.List
	horizon simtime.Time

	numRequests           uint64
	numAnalyticalRequests uint64
	totalQueueDelay       simtime.Time

	busyTime      simtime.Time
	firstArrival  simtime.Time
	lastDeparture simtime.Time
	observed      bool
}

func newHistoryList(minProcessingTime simtime.Time, maxListSize int) *HistoryList {
	if maxListSize < 1 {
		maxListSize = defaultMaxListSize
	}

	h := &HistoryList{
		minProcessingTime: minProcessingTime,
		maxListSize:       maxListSize,
		free:              list.New(),
	}
	h.free.PushBack(&freeInterval{start: 0, end: forever})

	return h
}

// ComputeQueueDelay implements Estimator.
func (h *HistoryList) ComputeQueueDelay(
	arrival, serviceTime simtime.Time,
	_ int,
) simtime.Time {
	var delay simtime.Time

	if arrival < h.horizon {
		delay = h.analyticalDelay(serviceTime)
		h.numAnalyticalRequests++
	} else {
		delay = h.exactDelay(arrival, serviceTime)
	}

	h.observe(arrival, delay, serviceTime)

	return delay
}

func (h *HistoryList) exactDelay(arrival, serviceTime simtime.Time) simtime.Time {
	for e := h.free.Front(); e != nil; e = e.Next() {
		gap := e.Value.(*freeInterval)
		if gap.end <= arrival {
			continue
		}

		start := simtime.Max(gap.start, arrival)
		if gap.end != forever && start+serviceTime > gap.end {
			continue
		}

		h.allocate(e, start, start+serviceTime)

		return start - arrival
	}

	panic("history list lost its unbounded tail interval")
}

// allocate removes [start, end) from the gap held by e, keeping the pieces on
// either side that can still hold a request.
func (h *HistoryList) allocate(e *list.Element, start, end simtime.Time) {
	gap := e.Value.(*freeInterval)

	if h.usable(gap.start, start) {
		h.free.InsertBefore(&freeInterval{start: gap.start, end: start}, e)
	}

	gap.start = end
	if gap.end != forever && !h.usable(gap.start, gap.end) {
		h.free.Remove(e)
	}

	for h.free.Len() > h.maxListSize {
		dropped := h.free.Remove(h.free.Front()).(*freeInterval)
		h.horizon = simtime.Max(h.horizon, dropped.end)
	}
}

func (h *HistoryList) usable(start, end simtime.Time) bool {
	length := end - start
	if length <= 0 {
		return false
	}
	return length >= h.minProcessingTime
}

func (h *HistoryList) analyticalDelay(serviceTime simtime.Time) simtime.Time {
	rho := math.Min(h.QueueUtilization(), maxAnalyticalUtilization)
	wait := rho * float64(serviceTime) / (2 * (1 - rho))
	return simtime.Time(math.Round(wait))
}

func (h *HistoryList) observe(arrival, delay, serviceTime simtime.Time) {
	if !h.observed || arrival < h.firstArrival {
		h.firstArrival = arrival
	}
	h.observed = true

	h.lastDeparture = simtime.Max(h.lastDeparture, arrival+delay+serviceTime)
	h.busyTime += serviceTime
	h.numRequests++
	h.totalQueueDelay += delay
}

// QueueUtilization returns the fraction of the observed span during which the
// server was busy.
func (h *HistoryList) QueueUtilization() float64 {
	span := h.lastDeparture - h.firstArrival
	if !h.observed || span <= 0 {
		return 0
	}
	return math.Min(float64(h.busyTime)/float64(span), 1)
}

// FracRequestsUsingAnalyticalModel returns the share of requests whose delay
// was approximated rather than computed from the history.
func (h *HistoryList) FracRequestsUsingAnalyticalModel() float64 {
	if h.numRequests == 0 {
		return 0
	}
	return float64(h.numAnalyticalRequests) / float64(h.numRequests)
}

// NumFreeIntervals returns how many idle gaps are currently remembered.
func (h *HistoryList) NumFreeIntervals() int {
	return h.free.Len()
}

func (h *HistoryList) registerStats(sink stats.Sink, name string, coreID int) {
	sink.RegisterMetric(name, coreID, "num-requests", stats.Uint64(&h.numRequests))
	sink.RegisterMetric(name, coreID, "num-requests-analytical",
		stats.Uint64(&h.numAnalyticalRequests))
	sink.RegisterMetric(name, coreID, "total-queue-delay", stats.Time(&h.totalQueueDelay))
	sink.RegisterMetric(name, coreID, "utilization",
		stats.MetricFunc(h.QueueUtilization))
}
