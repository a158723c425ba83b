package queuemodel

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sarchlab/dramperf/stats"
	"github.com/sarchlab/dramperf/timing/simtime"
)

const defaultWindow = 1 * simtime.Microsecond

// WindowedMG1 estimates delay with the Pollaczek-Khinchine formula over the
// requests seen in a sliding window that ends at the current arrival.
type WindowedMG1 struct {
	window simtime.Time

	arrivals []simtime.Time
	services []float64

	numRequests     uint64
	totalQueueDelay simtime.Time
}

func newWindowedMG1(window simtime.Time) *WindowedMG1 {
	if window <= 0 {
		window = defaultWindow
	}
	return &WindowedMG1{window: window}
}

// ComputeQueueDelay implements Estimator.
func (w *WindowedMG1) ComputeQueueDelay(
	arrival, serviceTime simtime.Time,
	_ int,
) simtime.Time {
	w.evict(arrival - w.window)

	delay := w.estimate()

	w.arrivals = append(w.arrivals, arrival)
	w.services = append(w.services, float64(serviceTime))

	w.numRequests++
	w.totalQueueDelay += delay

	return delay
}

func (w *WindowedMG1) evict(before simtime.Time) {
	i := 0
	for i < len(w.arrivals) && w.arrivals[i] < before {
		i++
	}

	if i > 0 {
		w.arrivals = w.arrivals[i:]
		w.services = w.services[i:]
	}
}

func (w *WindowedMG1) estimate() simtime.Time {
	if len(w.services) < 2 {
		return simtime.Zero
	}

	lambda := float64(len(w.services)) / float64(w.window)
	mean, variance := stat.MeanVariance(w.services, nil)
	secondMoment := variance + mean*mean

	rho := math.Min(lambda*mean, maxAnalyticalUtilization)
	wait := lambda * secondMoment / (2 * (1 - rho))

	return simtime.Time(math.Round(wait))
}

// Utilization returns the offered load in the current window.
func (w *WindowedMG1) Utilization() float64 {
	if len(w.services) == 0 {
		return 0
	}
	return float64(len(w.services)) / float64(w.window) * stat.Mean(w.services, nil)
}

func (w *WindowedMG1) registerStats(sink stats.Sink, name string, coreID int) {
	sink.RegisterMetric(name, coreID, "num-requests", stats.Uint64(&w.numRequests))
	sink.RegisterMetric(name, coreID, "total-queue-delay", stats.Time(&w.totalQueueDelay))
}
