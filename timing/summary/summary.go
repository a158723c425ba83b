// Package summary renders the indented plain-text performance summaries the
// timing models print at the end of a simulation.
package summary

import (
	"fmt"
	"io"
	"strings"
)

// NA is printed in place of values that were never measured.
const NA = "NA"

// Report accumulates summary lines and writes them in one call.
type Report struct {
	b strings.Builder
}

// New starts a report with a header line.
func New(title string) *Report {
	r := &Report{}
	fmt.Fprintf(&r.b, "%s \n", title)
	return r
}

// Section writes a sub-heading at the given indentation depth.
func (r *Report) Section(depth int, name string) *Report {
	fmt.Fprintf(&r.b, "%s%s:\n", indent(depth), name)
	return r
}

// Line writes "label: value" at the given indentation depth.
func (r *Report) Line(depth int, label string, value any) *Report {
	fmt.Fprintf(&r.b, "%s%s: %v\n", indent(depth), label, value)
	return r
}

// String returns the rendered report.
func (r *Report) String() string {
	return r.b.String()
}

// WriteTo writes the report to w.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, r.b.String())
	return int64(n), err
}

// Percent renders a fraction as a percentage with up to six significant
// digits.
func Percent(frac float64) string {
	return fmt.Sprintf("%g", float32(frac*100))
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}
