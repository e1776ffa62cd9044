package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oceanlens/enginewatch/pkg/config"
	"github.com/oceanlens/enginewatch/pkg/frame"
	"github.com/oceanlens/enginewatch/pkg/model"
	"github.com/oceanlens/enginewatch/pkg/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// channelValue picks an in-range level for a channel so nothing trips the
// physical validation or the operational floors.
func channelValue(channel string, i int) float64 {
	switch channel {
	case model.ChanShaftPower:
		return 4000 + 2*float64(i)
	case model.ChanExhCyl1:
		return 300 + float64(i%3)
	}
	r := model.PhysicalRanges[channel]
	return (r.Min+r.Max)/2 + float64(i%3)*0.01
}

// buildRaw emits an hour of telemetry on a five-minute cadence across the
// full channel set.
func buildRaw(rows int) *frame.Frame {
	channels := model.FeatureChannels()
	f := frame.New(channels)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		values := make([]float64, len(channels))
		for j, c := range channels {
			values[j] = channelValue(c, i)
		}
		f.AppendRow(base.Add(time.Duration(i)*5*time.Minute), values)
	}
	return f
}

func writeReference(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reference.csv")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	channels := model.FeatureChannels()
	w := csv.NewWriter(file)
	require.NoError(t, w.Write(append(append([]string{}, channels...), "Anomaly Reason")))
	for i := 0; i < 8; i++ {
		record := make([]string, 0, len(channels)+1)
		for _, c := range channels {
			v := channelValue(c, i)
			if i < 3 && c == model.ChanShaftPower {
				v = 8500 // labeled fault rows run far off the training band
			}
			record = append(record, fmt.Sprintf("%g", v))
		}
		annotation := ""
		if i < 3 {
			annotation = "scavenge fire"
		}
		require.NoError(t, w.Write(append(record, annotation)))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return path
}

func testConfig() *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{
			Outlier: config.OutlierConfig{PCAComponents: 2},
			Train:   config.TrainConfig{LatentDim: 2},
		},
	}
}

func TestRunEndToEnd(t *testing.T) {
	tracker, err := tracking.NewFileTracker(t.TempDir())
	require.NoError(t, err)

	res, err := Run(context.Background(), testConfig(), buildRaw(60), tracker)
	require.NoError(t, err)

	require.NotNil(t, res.Scaler)
	require.NotNil(t, res.Model)
	assert.GreaterOrEqual(t, res.Retained.Len(), 10)
	assert.Nil(t, res.Evaluation, "no reference configured")

	require.NotNil(t, res.Fit)
	assert.Len(t, res.Fit.TrainLoss, 2)
	assert.Len(t, res.Fit.ValidLoss, 2)

	assert.FileExists(t, filepath.Join(tracker.Dir(), "artifacts", ScalerArtifact))
	assert.FileExists(t, filepath.Join(tracker.Dir(), "artifacts", ModelArtifact))

	// The retained rows artifact must feed a standalone evaluate run, so it
	// has to parse back into the same frame shape.
	retainedFile, err := os.Open(filepath.Join(tracker.Dir(), "artifacts", RetainedArtifact))
	require.NoError(t, err)
	defer retainedFile.Close()
	reparsed, err := frame.ParseCSV(retainedFile, model.ChanDataTime)
	require.NoError(t, err)
	assert.Equal(t, res.Retained.Len(), reparsed.Len())
	assert.ElementsMatch(t, res.Retained.Columns(), reparsed.Columns())
	assert.FileExists(t, filepath.Join(tracker.Dir(), "params.json"))

	metricsFile := filepath.Join(tracker.Dir(), "metrics.json")
	require.FileExists(t, metricsFile)
	raw, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "valid_err_mean")
	assert.Contains(t, string(raw), "valid_err_p95")
	assert.FileExists(t, filepath.Join(tracker.Dir(), "artifacts", "resample_report.json"))
	assert.FileExists(t, filepath.Join(tracker.Dir(), "artifacts", "outlier_report.json"))
}

func TestRunWithEvaluation(t *testing.T) {
	tracker, err := tracking.NewFileTracker(t.TempDir())
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Pipeline.Evaluation.ReferencePath = writeReference(t)

	res, err := Run(context.Background(), cfg, buildRaw(60), tracker)
	require.NoError(t, err)

	require.NotNil(t, res.Evaluation)
	assert.Equal(t, 3, res.Evaluation.AnomalyRows)
	assert.GreaterOrEqual(t, res.Evaluation.PRAUC, 0.0)
	assert.LessOrEqual(t, res.Evaluation.PRAUC, 1.0)

	assert.FileExists(t, filepath.Join(tracker.Dir(), "artifacts", "evaluation.txt"))
	assert.FileExists(t, filepath.Join(tracker.Dir(), "artifacts", "pr_curve.csv"))
	assert.FileExists(t, filepath.Join(tracker.Dir(), "artifacts", "evaluation_report.json"))
}

func TestRunFailsWithTooFewRows(t *testing.T) {
	tracker, err := tracking.NewFileTracker(t.TempDir())
	require.NoError(t, err)

	_, err = Run(context.Background(), testConfig(), buildRaw(5), tracker)
	assert.Error(t, err)
}

func TestRunMissingChannelFails(t *testing.T) {
	tracker, err := tracking.NewFileTracker(t.TempDir())
	require.NoError(t, err)

	f := frame.New([]string{model.ChanShaftPower})
	f.AppendRow(time.Now(), []float64{4000})
	_, err = Run(context.Background(), testConfig(), f, tracker)
	assert.Error(t, err)
}
