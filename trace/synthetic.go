package trace

import (
	"fmt"
	"math"

	"github.com/iti/rngstream"

	"github.com/sarchlab/dramperf/timing/simtime"
)

// Generator produces Poisson memory traffic, one independent random stream
// per core.
type Generator struct {
	// Cores is the number of requesters.
	Cores int
	// AccessesPerCore is how many records each core issues.
	AccessesPerCore int
	// MeanInterarrival is the mean gap between two accesses of one core.
	MeanInterarrival simtime.Time
	// Size is the access size in bytes.
	Size uint64
	// WriteFraction is the probability that an access is a write.
	WriteFraction float64
	// Footprint is the size of the address range each core touches.
	Footprint uint64
}

// DefaultGenerator returns a generator for a 4-core system issuing 64B
// accesses every 20ns on average.
func DefaultGenerator() Generator {
	return Generator{
		Cores:            4,
		AccessesPerCore:  10000,
		MeanInterarrival: 20 * simtime.Nanosecond,
		Size:             64,
		WriteFraction:    0.3,
		Footprint:        64 * 1024 * 1024,
	}
}

// Generate returns the merged, arrival-ordered trace of all cores.
func (g Generator) Generate() Trace {
	t := make(Trace, 0, g.Cores*g.AccessesPerCore)

	for core := 0; core < g.Cores; core++ {
		rng := rngstream.New(fmt.Sprintf("core%d", core))
		base := uint64(core) * g.Footprint
		now := simtime.Zero

		for i := 0; i < g.AccessesPerCore; i++ {
			now += sampleExp(rng.RandU01(), g.MeanInterarrival)

			addr := base
			if g.Footprint >= g.Size && g.Size > 0 {
				blocks := g.Footprint / g.Size
				addr += uint64(rng.RandU01()*float64(blocks)) % blocks * g.Size
			}

			t = append(t, Record{
				Arrival:   now,
				Requester: core,
				Addr:      addr,
				Size:      g.Size,
				Write:     rng.RandU01() < g.WriteFraction,
			})
		}
	}

	t.Sort()

	return t
}

// sampleExp draws an exponential variate with the given mean from a uniform
// sample in (0, 1).
func sampleExp(u01 float64, mean simtime.Time) simtime.Time {
	if u01 <= 0 {
		u01 = math.SmallestNonzeroFloat64
	}
	return simtime.Time(math.Round(-math.Log(u01) * float64(mean)))
}
