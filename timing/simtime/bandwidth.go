package simtime

import (
	"math"

	"github.com/sarchlab/akita/v4/sim"
)

// Converter turns a payload size in bits into the time needed to transfer it.
type Converter interface {
	RoundedLatency(bits uint64) Time
}

// Bandwidth is a link or controller bandwidth expressed in bits per cycle of
// a clock domain.
type Bandwidth struct {
	bitsPerCycle float64
	freq         sim.Freq
	period       Time
}

// NewBandwidth creates a Bandwidth. A bitsPerCycle of zero models unlimited
// bandwidth.
func NewBandwidth(bitsPerCycle float64, freq sim.Freq) Bandwidth {
	return Bandwidth{
		bitsPerCycle: bitsPerCycle,
		freq:         freq,
		period:       FromCycles(1, freq),
	}
}

// BitsPerCycle returns the configured bandwidth.
func (b Bandwidth) BitsPerCycle() float64 {
	return b.bitsPerCycle
}

// Freq returns the clock the bandwidth is expressed against.
func (b Bandwidth) Freq() sim.Freq {
	return b.freq
}

// RoundedLatency returns the whole number of cycles needed to move the given
// number of bits, expressed as Time.
func (b Bandwidth) RoundedLatency(bits uint64) Time {
	if b.bitsPerCycle <= 0 || bits == 0 {
		return Zero
	}

	cycles := uint64(math.Ceil(float64(bits) / b.bitsPerCycle))

	return Time(cycles) * b.period
}
