package trace

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/dramperf/timing/simtime"
)

var header = []string{"arrival", "requester", "addr", "size", "op"}

// ReadCSV parses a trace with the columns arrival, requester, addr, size and
// op. Arrival carries a unit ("120ns"); addr may be hex ("0x1000"); op is "R"
// or "W". A header row is optional. The result is sorted by arrival.
func ReadCSV(r io.Reader) (Trace, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(header)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var t Trace
	for line := 1; ; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read trace: %w", err)
		}

		if line == 1 && strings.EqualFold(fields[0], header[0]) {
			continue
		}

		rec, err := parseRecord(fields)
		if err != nil {
			return nil, fmt.Errorf("trace line %d: %w", line, err)
		}
		t = append(t, rec)
	}

	t.Sort()

	return t, nil
}

func parseRecord(fields []string) (Record, error) {
	var (
		rec Record
		err error
	)

	rec.Arrival, err = simtime.ParseTime(fields[0])
	if err != nil {
		return rec, err
	}

	rec.Requester, err = strconv.Atoi(fields[1])
	if err != nil {
		return rec, fmt.Errorf("invalid requester %q: %w", fields[1], err)
	}

	rec.Addr, err = strconv.ParseUint(fields[2], 0, 64)
	if err != nil {
		return rec, fmt.Errorf("invalid address %q: %w", fields[2], err)
	}

	rec.Size, err = strconv.ParseUint(fields[3], 0, 64)
	if err != nil {
		return rec, fmt.Errorf("invalid size %q: %w", fields[3], err)
	}
	if rec.Size == 0 {
		return rec, fmt.Errorf("size must be > 0")
	}

	switch strings.ToUpper(fields[4]) {
	case "R":
	case "W":
		rec.Write = true
	default:
		return rec, fmt.Errorf("invalid op %q", fields[4])
	}

	return rec, nil
}

// WriteCSV writes the trace in the format ReadCSV accepts.
func WriteCSV(w io.Writer, t Trace) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range t {
		op := "R"
		if r.Write {
			op = "W"
		}

		err := writer.Write([]string{
			r.Arrival.String(),
			strconv.Itoa(r.Requester),
			fmt.Sprintf("0x%x", r.Addr),
			strconv.FormatUint(r.Size, 10),
			op,
		})
		if err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
