package resample

import (
	"testing"
	"time"

	"github.com/oceanlens/enginewatch/pkg/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildMixedCadence(t *testing.T) *frame.Frame {
	t.Helper()
	f := frame.New([]string{"power", "rpm"})
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	// One-minute cadence from 10:00 to 10:14.
	for i := 0; i <= 14; i++ {
		f.AppendRow(base.Add(time.Duration(i)*time.Minute), []float64{float64(1000 + i), 55})
	}
	// Fifteen-minute cadence afterwards.
	f.AppendRow(base.Add(30*time.Minute), []float64{2000, 56})
	f.AppendRow(base.Add(45*time.Minute), []float64{2001, 57})
	return f
}

func TestApplySplitsAndThins(t *testing.T) {
	f := buildMixedCadence(t)

	out, report, err := Apply(f, []string{"power", "rpm"}, 5*time.Minute, 250*time.Second, nil, 42)
	require.NoError(t, err)

	// The leading row has no gap and belongs to neither cadence.
	assert.Equal(t, 17, report.RowsBefore)
	assert.Equal(t, 14, report.HighFrequencyRows)
	assert.Equal(t, 2, report.LowFrequencyRows)

	// 10:01-10:04, 10:05-10:09, 10:10-10:14 -> three buckets.
	assert.Equal(t, 3, report.Buckets)
	assert.Equal(t, 5, report.RowsAfter)
	require.Equal(t, 5, out.Len())

	// Thinned rows are stamped with their bucket start.
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, base, out.Time(0))
	assert.Equal(t, base.Add(5*time.Minute), out.Time(1))
	assert.Equal(t, base.Add(10*time.Minute), out.Time(2))
	assert.Equal(t, base.Add(30*time.Minute), out.Time(3))
	assert.Equal(t, base.Add(45*time.Minute), out.Time(4))
}

func TestApplyDeterministicForSeed(t *testing.T) {
	a, _, err := Apply(buildMixedCadence(t), []string{"power", "rpm"}, 5*time.Minute, 250*time.Second, nil, 42)
	require.NoError(t, err)
	b, _, err := Apply(buildMixedCadence(t), []string{"power", "rpm"}, 5*time.Minute, 250*time.Second, nil, 42)
	require.NoError(t, err)
	assert.Equal(t, a.Col("power"), b.Col("power"))
}

func TestApplyDropsRowsMissingRequiredChannels(t *testing.T) {
	f := frame.New([]string{"power", "rpm"})
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	f.AppendRow(base, []float64{1000, 55})
	// Gap above the cadence threshold puts these on the low-frequency path.
	f.AppendRow(base.Add(15*time.Minute), []float64{1001, nan()})
	f.AppendRow(base.Add(30*time.Minute), []float64{1002, 56})

	out, _, err := Apply(f, []string{"power", "rpm"}, 5*time.Minute, 250*time.Second, []string{"rpm"}, 42)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, 1002.0, out.Value("power", 0))
}

func TestApplyMissingChannelFails(t *testing.T) {
	f := frame.New([]string{"power"})
	f.AppendRow(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), []float64{1})
	_, _, err := Apply(f, []string{"power", "rpm"}, 5*time.Minute, 250*time.Second, nil, 42)
	assert.Error(t, err)
}

func nan() float64 {
	var zero float64
	return zero / zero
}
