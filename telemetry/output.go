package telemetry

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// Output appends frame stats records to a CSV file. A nil Output is
// valid and drops everything, so callers need no enabled checks.
type Output struct {
	file          *os.File
	headerWritten bool
}

// NewOutput creates the CSV file. Returns nil when path is empty.
func NewOutput(path string) (*Output, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating perf csv: %w", err)
	}
	return &Output{file: f}, nil
}

// WritePerf appends one stats record. The first write includes headers.
func (o *Output) WritePerf(stats FrameStats, windowEnd int64) error {
	if o == nil {
		return nil
	}

	records := []FrameStatsCSV{stats.ToCSV(windowEnd)}
	if !o.headerWritten {
		if err := gocsv.Marshal(records, o.file); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		o.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, o.file); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (o *Output) Close() error {
	if o == nil || o.file == nil {
		return nil
	}
	return o.file.Close()
}
