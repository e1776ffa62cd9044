// Package resample aligns the mixed-cadence raw recording onto a uniform
// grid. The DAS alternates between roughly 1-minute and 15-minute sampling;
// the high-frequency stretches are thinned to one row per grid bucket so
// every retained timestamp carries comparable information.
package resample

import (
	"math/rand"
	"time"

	"github.com/oceanlens/enginewatch/pkg/frame"
)

type Report struct {
	RowsBefore        int `json:"rows_before"`
	RowsAfter         int `json:"rows_after"`
	HighFrequencyRows int `json:"high_frequency_rows"`
	LowFrequencyRows  int `json:"low_frequency_rows"`
	Buckets           int `json:"buckets"`
}

// Apply selects the configured channels, drops empty and duplicate rows,
// partitions rows by inferred cadence (inter-row gap below cadenceGap is
// high-frequency), thins the high-frequency partition to one seeded random
// row per interval bucket, re-joins, drops rows missing any required
// channel, and sorts by time. Empty buckets are dropped, not filled.
func Apply(raw *frame.Frame, channels []string, interval, cadenceGap time.Duration, required []string, seed int64) (*frame.Frame, Report, error) {
	report := Report{RowsBefore: raw.Len()}

	f, err := raw.Select(channels)
	if err != nil {
		return nil, report, err
	}
	f = f.DropAllMissing(nil).DropDuplicates()
	f.SortByTime()

	highFreq, lowFreq := splitByCadence(f, cadenceGap)
	report.HighFrequencyRows = highFreq.Len()
	report.LowFrequencyRows = lowFreq.Len()

	resampled, buckets := thinToGrid(highFreq, interval, seed)
	report.Buckets = buckets

	joined, err := lowFreq.Concat(resampled)
	if err != nil {
		return nil, report, err
	}
	joined = joined.DropAnyMissing(required)
	joined.SortByTime()

	report.RowsAfter = joined.Len()
	return joined, report, nil
}

// splitByCadence partitions rows by the gap to the previous row. The first
// row has no gap and belongs to neither partition, matching the reference
// behavior of an undefined leading difference.
func splitByCadence(f *frame.Frame, cadenceGap time.Duration) (high, low *frame.Frame) {
	times := f.Times()
	highKeep := make([]bool, f.Len())
	lowKeep := make([]bool, f.Len())
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		switch {
		case gap < cadenceGap:
			highKeep[i] = true
		case gap > cadenceGap:
			lowKeep[i] = true
		}
	}
	return f.Filter(highKeep), f.Filter(lowKeep)
}

// thinToGrid keeps one pseudo-random row per interval bucket, stamped with
// the bucket start so the result sits on the grid. Rows must be sorted by
// time. The draw order is bucket order, so a fixed seed gives a
// reproducible thinning for identical input.
func thinToGrid(f *frame.Frame, interval time.Duration, seed int64) (*frame.Frame, int) {
	rng := rand.New(rand.NewSource(seed))
	times := f.Times()
	out := frame.New(f.Columns())

	buckets := 0
	start := 0
	for start < len(times) {
		bucket := times[start].Truncate(interval)
		end := start
		for end < len(times) && times[end].Truncate(interval).Equal(bucket) {
			end++
		}
		out.AppendRow(bucket, f.Row(start+rng.Intn(end-start)))
		buckets++
		start = end
	}
	return out, buckets
}
