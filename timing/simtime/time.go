// Package simtime provides the exact simulated-time type used by the memory
// timing models, together with bandwidth-to-latency conversion.
//
// Akita schedules events with floating-point seconds (sim.VTimeInSec). Latency
// bookkeeping sums millions of small values, so the models keep time as an
// integer number of femtoseconds and convert at the boundary.
package simtime

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sarchlab/akita/v4/sim"
)

// Time is a simulated duration or timestamp in femtoseconds.
type Time int64

// Units of simulated time.
const (
	Femtosecond Time = 1
	Picosecond       = 1000 * Femtosecond
	Nanosecond       = 1000 * Picosecond
	Microsecond      = 1000 * Nanosecond
	Millisecond      = 1000 * Microsecond
	Second           = 1000 * Millisecond
)

// Zero is the zero duration.
const Zero Time = 0

var units = []struct {
	suffix string
	value  Time
}{
	{"s", Second},
	{"ms", Millisecond},
	{"us", Microsecond},
	{"ns", Nanosecond},
	{"ps", Picosecond},
	{"fs", Femtosecond},
}

// FromVTime converts an Akita timestamp to Time, rounding to the nearest
// femtosecond.
func FromVTime(t sim.VTimeInSec) Time {
	return Time(math.Round(float64(t) * float64(Second)))
}

// FromCycles returns the duration of n cycles at the given frequency.
func FromCycles(n uint64, freq sim.Freq) Time {
	return Time(n) * FromVTime(freq.Period())
}

// VTime converts t to an Akita timestamp.
func (t Time) VTime() sim.VTimeInSec {
	return sim.VTimeInSec(float64(t) / float64(Second))
}

// Femtoseconds returns t as an integer femtosecond count.
func (t Time) Femtoseconds() int64 {
	return int64(t)
}

// Nanoseconds returns t in nanoseconds.
func (t Time) Nanoseconds() float64 {
	return float64(t) / float64(Nanosecond)
}

// Div returns the integer mean of t over n samples. Dividing by zero yields
// Zero.
func (t Time) Div(n uint64) Time {
	if n == 0 {
		return Zero
	}
	return t / Time(n)
}

// Max returns the later of a and b.
func Max(a, b Time) Time {
	if a > b {
		return a
	}
	return b
}

// Min returns the earlier of a and b.
func Min(a, b Time) Time {
	if a < b {
		return a
	}
	return b
}

// String renders t in the largest unit that keeps the magnitude at or above
// one, e.g. "150ns" or "1.5us".
func (t Time) String() string {
	if t == 0 {
		return "0s"
	}

	abs := t
	if abs < 0 {
		abs = -abs
	}

	for _, u := range units {
		if abs >= u.value {
			v := float64(t) / float64(u.value)
			return strconv.FormatFloat(v, 'f', -1, 64) + u.suffix
		}
	}

	return strconv.FormatInt(int64(t), 10) + "fs"
}

// ParseTime parses strings such as "100ns", "1.5us" or "250". A bare number is
// taken as nanoseconds.
func ParseTime(s string) (Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time value")
	}

	for _, u := range units {
		if u.suffix == "s" {
			continue
		}
		if num, ok := strings.CutSuffix(s, u.suffix); ok {
			return parseScaled(num, u.value, s)
		}
	}

	if num, ok := strings.CutSuffix(s, "µs"); ok {
		return parseScaled(num, Microsecond, s)
	}

	if num, ok := strings.CutSuffix(s, "s"); ok {
		return parseScaled(num, Second, s)
	}

	return parseScaled(s, Nanosecond, s)
}

func parseScaled(num string, unit Time, orig string) (Time, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time value %q: %w", orig, err)
	}
	return Time(math.Round(v * float64(unit))), nil
}

// MarshalText implements encoding.TextMarshaler.
func (t Time) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Time) UnmarshalText(text []byte) error {
	v, err := ParseTime(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
