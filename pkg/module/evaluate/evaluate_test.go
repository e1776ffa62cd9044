package evaluate

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/oceanlens/enginewatch/pkg/frame"
	"github.com/oceanlens/enginewatch/pkg/module/scale"
	"github.com/oceanlens/enginewatch/pkg/module/train"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// constantModel reconstructs every cell to a fixed value, which makes the
// per-row reconstruction error trivially predictable.
type constantModel struct {
	value float64
}

func (c constantModel) Fit(ctx context.Context, x, valid *mat.Dense) (*train.FitReport, error) {
	return nil, nil
}

func (c constantModel) Reconstruct(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, c.value)
		}
	}
	return out, nil
}

func identityScaler(columns ...string) *scale.MinMaxScaler {
	s := &scale.MinMaxScaler{Columns: columns}
	for range columns {
		s.Min = append(s.Min, 0)
		s.Max = append(s.Max, 1)
	}
	return s
}

func singleColumnFrame(col string, values ...float64) *frame.Frame {
	f := frame.New([]string{col})
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i, v := range values {
		f.AppendRow(base.Add(time.Duration(i)*time.Minute), []float64{v})
	}
	return f
}

func TestPrecisionRecallCurvePerfectSeparation(t *testing.T) {
	yTrue := []bool{false, false, true, true}
	scores := []float64{0.1, 0.2, 0.3, 0.4}

	precisions, recalls, thresholds := PrecisionRecallCurve(yTrue, scores)
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.4}, thresholds)
	require.Len(t, precisions, 5, "curve carries the terminal point")

	assert.Equal(t, 0.5, precisions[0])
	assert.Equal(t, 1.0, recalls[0])
	assert.Equal(t, 1.0, precisions[2])
	assert.Equal(t, 1.0, recalls[2])
	assert.Equal(t, 1.0, precisions[3])
	assert.Equal(t, 0.5, recalls[3])
	assert.Equal(t, 1.0, precisions[4])
	assert.Equal(t, 0.0, recalls[4])

	assert.InDelta(t, 1.0, trapezoidAUC(recalls, precisions), 1e-12,
		"a perfectly separating score gets full area")
}

func TestPrecisionRecallCurveDeduplicatesScores(t *testing.T) {
	yTrue := []bool{true, false, true}
	scores := []float64{0.2, 0.2, 0.5}
	_, _, thresholds := PrecisionRecallCurve(yTrue, scores)
	assert.Equal(t, []float64{0.2, 0.5}, thresholds)
}

func TestRunSelectsBestThreshold(t *testing.T) {
	ref := &Reference{
		Frame:   singleColumnFrame("v", 1.0, 0.9, 0.5),
		Anomaly: []bool{true, true, false},
	}
	normals := singleColumnFrame("v", 0.5, 0.5, 0.5)

	cfg := Config{NormalSampleSize: 3000, Seed: 42}
	report, err := Run(context.Background(), cfg, ref, normals, identityScaler("v"), constantModel{value: 0.5})
	require.NoError(t, err)

	assert.Equal(t, 2, report.AnomalyRows)
	assert.Equal(t, 3, report.NormalRows)
	assert.InDelta(t, 1.0, report.PRAUC, 1e-12)

	// Scores: anomalies 0.5 and 0.4, normals 0. The best sweep point is the
	// lowest threshold catching both anomalies with no false positives;
	// the production rule is strictly greater-than, so the boundary anomaly
	// falls below it.
	assert.InDelta(t, 0.4, report.Best.Threshold, 1e-12)
	assert.Equal(t, 1, report.Best.TP)
	assert.Equal(t, 1, report.Best.FN)
	assert.Equal(t, 0, report.Best.FP)
	assert.Equal(t, 3, report.Best.TN)
	assert.InDelta(t, 1.0, report.Best.Precision, 1e-6)
	assert.InDelta(t, 0.5, report.Best.Recall, 1e-6)
	assert.Nil(t, report.Baseline)
}

func TestRunBaselineComparison(t *testing.T) {
	ref := &Reference{
		Frame:   singleColumnFrame("v", 1.0, 0.9, 0.5),
		Anomaly: []bool{true, true, false},
	}
	normals := singleColumnFrame("v", 0.5, 0.5, 0.5)

	cfg := Config{NormalSampleSize: 3000, Seed: 42, BaselineThreshold: 0.45}
	report, err := Run(context.Background(), cfg, ref, normals, identityScaler("v"), constantModel{value: 0.5})
	require.NoError(t, err)

	require.NotNil(t, report.Baseline)
	assert.Equal(t, 1, report.Baseline.TP)
	assert.Equal(t, 1, report.Baseline.FN)
	assert.Equal(t, 0, report.Baseline.FP)
	assert.Equal(t, 3, report.Baseline.TN)
}

func TestRunRequiresAnomalies(t *testing.T) {
	ref := &Reference{
		Frame:   singleColumnFrame("v", 0.5),
		Anomaly: []bool{false},
	}
	normals := singleColumnFrame("v", 0.5)

	_, err := Run(context.Background(), Config{NormalSampleSize: 10}, ref, normals, identityScaler("v"), constantModel{value: 0.5})
	assert.Error(t, err)
}

func TestRunFailsOnMissingTrainingColumn(t *testing.T) {
	ref := &Reference{
		Frame:   singleColumnFrame("v", 1.0),
		Anomaly: []bool{true},
	}
	normals := frame.New([]string{"v", "w"})
	normals.AppendRow(time.Now(), []float64{0.5, 0.5})

	_, err := Run(context.Background(), Config{NormalSampleSize: 10}, ref, normals, identityScaler("v", "w"), constantModel{value: 0.5})
	assert.Error(t, err, "reference must cover the whole training schema")
}

func TestRunDropsExtraReferenceColumns(t *testing.T) {
	refFrame := frame.New([]string{"v", "extra"})
	refFrame.AppendRow(time.Now(), []float64{1.0, 7})
	ref := &Reference{Frame: refFrame, Anomaly: []bool{true}}
	normals := singleColumnFrame("v", 0.5, 0.5)

	report, err := Run(context.Background(), Config{NormalSampleSize: 10}, ref, normals, identityScaler("v"), constantModel{value: 0.5})
	require.NoError(t, err)
	assert.Equal(t, []string{"extra"}, report.DroppedColumns)
}

func TestLoadReference(t *testing.T) {
	data := strings.Join([]string{
		"short,Anomaly Reason,other",
		"1.5,scavenge fire,2",
		"2.5,,3",
		"garbage,  ,4",
	}, "\n")

	ref, err := LoadReference(strings.NewReader(data), map[string]string{"short": "LONG"}, "Anomaly Reason")
	require.NoError(t, err)

	assert.Equal(t, []string{"LONG", "other"}, ref.Frame.Columns())
	require.Equal(t, 3, ref.Frame.Len())
	assert.Equal(t, []bool{true, false, false}, ref.Anomaly, "whitespace-only annotation is not an anomaly")
	assert.Equal(t, 1.5, ref.Frame.Value("LONG", 0))
	assert.True(t, math.IsNaN(ref.Frame.Value("LONG", 2)), "unparseable cell becomes missing, not an error")
}

func TestLoadReferenceMissingAnomalyColumn(t *testing.T) {
	_, err := LoadReference(strings.NewReader("a,b\n1,2\n"), nil, "Anomaly Reason")
	assert.Error(t, err)
}

func TestReportCurveCSV(t *testing.T) {
	r := &Report{
		Thresholds: []float64{0.1, 0.2},
		Precisions: []float64{0.5, 1, 1},
		Recalls:    []float64{1, 0.5, 0},
	}
	csv := r.CurveCSV()
	assert.Equal(t, "threshold,precision,recall\n0.1,0.5,1\n0.2,1,0.5\n,1,0\n", csv)
}
