// Package queuemodel provides the pluggable estimators that add contention
// delay to memory requests.
//
// An estimator sees every request of one controller, in arrival order, and
// returns how long that request waits before it can be serviced. Estimators
// are stateful and not safe for concurrent use.
package queuemodel

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/dramperf/stats"
	"github.com/sarchlab/dramperf/timing/simtime"
)

// Kinds understood by New.
const (
	KindBasic       = "basic"
	KindHistoryList = "history_list"
	KindWindowedMG1 = "windowed_mg1"
)

// ErrUnknownKind is returned by New for an unrecognized estimator kind.
var ErrUnknownKind = errors.New("unknown queue model type")

// Estimator computes the queueing delay of a request.
type Estimator interface {
	// ComputeQueueDelay returns the extra wait of a request that arrives at
	// arrival and needs serviceTime once it reaches the head of the queue.
	ComputeQueueDelay(arrival, serviceTime simtime.Time, requester int) simtime.Time
}

// Diagnostics is implemented by estimators that mix an exact and an
// analytical method and can report how they were used.
type Diagnostics interface {
	// QueueUtilization is the fraction of observed time the server was busy.
	QueueUtilization() float64

	// FracRequestsUsingAnalyticalModel is the fraction of requests whose
	// delay came from the analytical approximation.
	FracRequestsUsingAnalyticalModel() float64
}

type options struct {
	sink        stats.Sink
	log         logrus.FieldLogger
	maxListSize int
	window      simtime.Time
}

// Option customizes an estimator built by New.
type Option func(*options)

// WithStats registers estimator counters with the sink.
func WithStats(sink stats.Sink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithLogger sets the logger used during construction.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithMaxListSize bounds the number of free intervals a history-list
// estimator remembers.
func WithMaxListSize(n int) Option {
	return func(o *options) {
		o.maxListSize = n
	}
}

// WithWindow sets the observation window of the windowed M/G/1 estimator.
func WithWindow(w simtime.Time) Option {
	return func(o *options) {
		o.window = w
	}
}

// Kinds lists the estimator kinds New accepts.
func Kinds() []string {
	return []string{KindBasic, KindHistoryList, KindWindowedMG1}
}

// New creates the estimator named by kind for the controller identified by
// name and coreID. minProcessingTime is the service time of a single cache
// block and is used by estimators that size internal structures by it.
func New(
	name string,
	coreID int,
	kind string,
	minProcessingTime simtime.Time,
	opts ...Option,
) (Estimator, error) {
	o := options{
		sink:        stats.Discard,
		log:         logrus.StandardLogger(),
		maxListSize: defaultMaxListSize,
		window:      defaultWindow,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		e        Estimator
		register func(stats.Sink, string, int)
	)

	switch kind {
	case KindBasic:
		b := newBasic()
		e, register = b, b.registerStats
	case KindHistoryList:
		h := newHistoryList(minProcessingTime, o.maxListSize)
		e, register = h, h.registerStats
	case KindWindowedMG1:
		w := newWindowedMG1(o.window)
		e, register = w, w.registerStats
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	register(o.sink, name, coreID)

	o.log.WithFields(logrus.Fields{
		"name":    name,
		"core":    coreID,
		"kind":    kind,
		"minProc": minProcessingTime,
	}).Debug("queue model created")

	return e, nil
}
