// Package trace describes the memory access streams replayed against the DRAM
// models, and reads, writes and generates them.
package trace

import (
	"sort"

	"github.com/sarchlab/dramperf/timing/simtime"
)

// Record is one memory access issued by a core.
type Record struct {
	Arrival   simtime.Time
	Requester int
	Addr      uint64
	Size      uint64
	Write     bool
}

// Trace is a list of records ordered by arrival time.
type Trace []Record

// Sort orders the trace by arrival time, keeping the original order of
// records that arrive together.
func (t Trace) Sort() {
	sort.SliceStable(t, func(i, j int) bool {
		return t[i].Arrival < t[j].Arrival
	})
}

// IsSorted tells whether the trace is in arrival order.
func (t Trace) IsSorted() bool {
	return sort.SliceIsSorted(t, func(i, j int) bool {
		return t[i].Arrival < t[j].Arrival
	})
}

// ByRequester splits the trace into one stream per requester in
// [0, numRequesters). Records from other requesters go to the returned
// leftover trace.
func (t Trace) ByRequester(numRequesters int) ([]Trace, Trace) {
	streams := make([]Trace, numRequesters)
	var leftover Trace

	for _, r := range t {
		if r.Requester < 0 || r.Requester >= numRequesters {
			leftover = append(leftover, r)
			continue
		}
		streams[r.Requester] = append(streams[r.Requester], r)
	}

	return streams, leftover
}
