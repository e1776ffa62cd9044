package steady

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultParams() Params {
	return Params{
		DistanceThreshold: 700,
		Alpha:             1, // no smoothing, crisp regime edges
		WindowLength:      20,
		Step:              1,
		Workers:           2,
	}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSmoothRecursive(t *testing.T) {
	out := Smooth([]float64{1, 3}, 0.5)
	assert.Equal(t, []float64{1, 2}, out)
}

func TestSmoothCarriesOverMissing(t *testing.T) {
	out := Smooth([]float64{math.NaN(), 2, math.NaN(), 4}, 0.5)
	assert.True(t, math.IsNaN(out[0]), "leading missing stays missing")
	assert.Equal(t, 2.0, out[1])
	assert.Equal(t, 2.0, out[2], "missing carries the previous smoothed value")
	assert.Equal(t, 3.0, out[3])
}

func TestExtractFlatSeriesIsOneRegime(t *testing.T) {
	labels := Extract(repeat(3000, 60), defaultParams())
	require.Len(t, labels, 60)
	for i, l := range labels {
		assert.Equal(t, 1, l, "sample %d", i)
	}
}

func TestExtractStepZeroesTransitionBand(t *testing.T) {
	series := append(repeat(1000, 40), repeat(5000, 40)...)
	labels := Extract(series, defaultParams())
	require.Len(t, labels, 80)

	// Samples covered only by windows on one side of the step keep their
	// regime; samples whose covering windows disagree are zeroed.
	for i := 0; i <= 30; i++ {
		assert.Equal(t, 1, labels[i], "sample %d", i)
	}
	for i := 31; i <= 58; i++ {
		assert.Equal(t, 0, labels[i], "sample %d", i)
	}
	for i := 59; i < 80; i++ {
		assert.Equal(t, 1, labels[i], "sample %d", i)
	}
}

func TestExtractStepBandIsBounded(t *testing.T) {
	series := append(repeat(1000, 40), repeat(5000, 40)...)
	labels := Extract(series, defaultParams())

	zeros := 0
	for _, l := range labels {
		if l == 0 {
			zeros++
		}
	}
	assert.LessOrEqual(t, zeros, 2*defaultParams().WindowLength)
}

func TestExtractAlternatingStatesStaySteady(t *testing.T) {
	// Rapid oscillation between two levels exchanges many transitions, so
	// the two states form one regime.
	series := make([]float64, 60)
	for i := range series {
		if i%2 == 0 {
			series[i] = 1000
		} else {
			series[i] = 5000
		}
	}
	labels := Extract(series, defaultParams())
	for i, l := range labels {
		assert.Equal(t, 1, l, "sample %d", i)
	}
}

func TestExtractMissingSampleIsCarriedForward(t *testing.T) {
	series := repeat(3000, 60)
	series[30] = math.NaN()
	p := defaultParams()
	p.Alpha = 0.2 // smoothing carries the NaN forward as the previous value

	labels := Extract(series, p)
	// With smoothing the NaN is filled by carry-forward, so the series
	// stays flat and steady.
	for i, l := range labels {
		assert.Equal(t, 1, l, "sample %d", i)
	}
}

func TestExtractLeadingMissingIsUnlabeled(t *testing.T) {
	series := repeat(3000, 40)
	series[0] = math.NaN()
	labels := Extract(series, defaultParams())
	assert.Equal(t, 0, labels[0], "window containing the unfillable leading NaN is degenerate")
}

func TestExtractShortSeries(t *testing.T) {
	labels := Extract(repeat(3000, 5), defaultParams())
	assert.Equal(t, make([]int, 5), labels)
}

func TestClusterScalarsSeparatesDistantLevels(t *testing.T) {
	values := []float64{1000, 1001, 999, 5000, 5002}
	states := clusterScalars(values, 700)
	assert.Equal(t, []int{0, 0, 0, 1, 1}, states)
}

func TestClusterScalarsMergesNearbyLevels(t *testing.T) {
	values := []float64{1000, 1010, 1005, 995}
	states := clusterScalars(values, 700)
	assert.Equal(t, []int{0, 0, 0, 0}, states)
}
