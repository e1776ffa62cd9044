// Package evaluate scores the trained reconstruction model against a
// labeled reference dataset and selects the decision threshold maximizing
// F1 over the precision-recall curve.
package evaluate

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/oceanlens/enginewatch/pkg/errors"
	"github.com/oceanlens/enginewatch/pkg/frame"
	"github.com/oceanlens/enginewatch/pkg/logger/log"
	"github.com/oceanlens/enginewatch/pkg/module/scale"
	"github.com/oceanlens/enginewatch/pkg/module/train"
)

var timeZero = time.Time{}

func parseNumeric(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

type Config struct {
	AnomalyColumn     string
	DropColumns       []string
	NormalSampleSize  int
	BaselineThreshold float64 // zero means no baseline comparison
	Seed              int64
}

// Metrics is one operating point of the detector.
type Metrics struct {
	Threshold float64 `json:"threshold"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Accuracy  float64 `json:"accuracy"`
	TN        int     `json:"tn"`
	FP        int     `json:"fp"`
	FN        int     `json:"fn"`
	TP        int     `json:"tp"`
}

type Report struct {
	PRAUC          float64  `json:"pr_auc"`
	Best           Metrics  `json:"best"`
	Baseline       *Metrics `json:"baseline,omitempty"`
	AnomalyRows    int      `json:"anomaly_rows"`
	NormalRows     int      `json:"normal_rows"`
	DroppedColumns []string `json:"dropped_columns"`

	// Full curve, for artifact export. Thresholds has one fewer entry
	// than Precisions/Recalls.
	Thresholds []float64 `json:"-"`
	Precisions []float64 `json:"-"`
	Recalls    []float64 `json:"-"`
}

// Run builds the test set from the reference anomalies plus a seeded sample
// of retained normal rows, aligns columns to the training schema, scores
// reconstruction error with the training-time scaler and model, and sweeps
// the precision-recall curve for the best-F1 threshold.
func Run(ctx context.Context, cfg Config, ref *Reference, normals *frame.Frame, scaler *scale.MinMaxScaler, model train.Reconstructor) (*Report, error) {
	report := &Report{}

	anomalies := ref.Frame.Filter(ref.Anomaly)
	if anomalies.Len() == 0 {
		return nil, errors.NewError().
			WithCode(errors.CodeInvalidData).
			WithMessage("reference dataset contains no labeled anomalies")
	}
	report.AnomalyRows = anomalies.Len()

	sampled := normals.Sample(cfg.NormalSampleSize, cfg.Seed)
	report.NormalRows = sampled.Len()

	anomalies.Drop(cfg.DropColumns...)

	// Column alignment: the reference must cover the full training schema;
	// anything beyond it is dropped with a warning, since discarding
	// features silently could mask evaluation regressions.
	trainingCols := normals.Columns()
	missing := []string{}
	for _, c := range trainingCols {
		if !anomalies.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewError().
			WithCode(errors.CodeSchemaMismatch).
			WithMessagef("reference dataset lacks training columns: %s", strings.Join(missing, ", "))
	}
	for _, c := range anomalies.Columns() {
		found := false
		for _, tc := range trainingCols {
			if c == tc {
				found = true
				break
			}
		}
		if !found {
			report.DroppedColumns = append(report.DroppedColumns, c)
		}
	}
	if len(report.DroppedColumns) > 0 {
		log.Warnf("evaluation drops %d reference columns outside the training schema: %s",
			len(report.DroppedColumns), strings.Join(report.DroppedColumns, ", "))
	}

	aligned, err := anomalies.Select(trainingCols)
	if err != nil {
		return nil, err
	}
	testSet, err := aligned.Concat(sampled)
	if err != nil {
		return nil, err
	}
	yTrue := make([]bool, testSet.Len())
	for i := 0; i < aligned.Len(); i++ {
		yTrue[i] = true
	}

	x, err := testSet.Matrix(trainingCols)
	if err != nil {
		return nil, err
	}
	scaled, err := scaler.Transform(x)
	if err != nil {
		return nil, err
	}
	recon, err := model.Reconstruct(scaled)
	if err != nil {
		return nil, err
	}
	scores := train.ReconstructionErrors(scaled, recon, false)

	report.Precisions, report.Recalls, report.Thresholds = PrecisionRecallCurve(yTrue, scores)
	report.PRAUC = trapezoidAUC(report.Recalls, report.Precisions)

	bestIdx, bestF1 := -1, -1.0
	for i := range report.Thresholds {
		p, r := report.Precisions[i], report.Recalls[i]
		f1 := 2 * p * r / (p + r + 1e-12)
		if f1 > bestF1 {
			bestF1, bestIdx = f1, i
		}
	}
	if bestIdx < 0 {
		return nil, errors.NewError().
			WithCode(errors.CodeInvalidData).
			WithMessage("precision-recall sweep produced no thresholds")
	}
	report.Best = metricsAt(yTrue, scores, report.Thresholds[bestIdx])

	if cfg.BaselineThreshold > 0 {
		baseline := metricsAt(yTrue, scores, cfg.BaselineThreshold)
		report.Baseline = &baseline
	}
	return report, nil
}

// PrecisionRecallCurve sweeps every distinct score as a candidate decision
// threshold (prediction: score >= threshold), ascending. The returned
// precision and recall slices carry one extra terminal point (1, 0), so
// len(precisions) == len(thresholds)+1.
func PrecisionRecallCurve(yTrue []bool, scores []float64) (precisions, recalls, thresholds []float64) {
	uniq := map[float64]bool{}
	for _, s := range scores {
		uniq[s] = true
	}
	thresholds = make([]float64, 0, len(uniq))
	for s := range uniq {
		thresholds = append(thresholds, s)
	}
	sort.Float64s(thresholds)

	totalPos := 0
	for _, y := range yTrue {
		if y {
			totalPos++
		}
	}
	for _, t := range thresholds {
		tp, fp := 0, 0
		for i, s := range scores {
			if s >= t {
				if yTrue[i] {
					tp++
				} else {
					fp++
				}
			}
		}
		precision := 1.0
		if tp+fp > 0 {
			precision = float64(tp) / float64(tp+fp)
		}
		recall := 0.0
		if totalPos > 0 {
			recall = float64(tp) / float64(totalPos)
		}
		precisions = append(precisions, precision)
		recalls = append(recalls, recall)
	}
	precisions = append(precisions, 1)
	recalls = append(recalls, 0)
	return precisions, recalls, thresholds
}

// metricsAt evaluates the operating point where prediction is
// score > threshold, the decision rule applied in production.
func metricsAt(yTrue []bool, scores []float64, threshold float64) Metrics {
	m := Metrics{Threshold: threshold}
	for i, s := range scores {
		pred := s > threshold
		switch {
		case pred && yTrue[i]:
			m.TP++
		case pred && !yTrue[i]:
			m.FP++
		case !pred && yTrue[i]:
			m.FN++
		default:
			m.TN++
		}
	}
	m.Precision = float64(m.TP) / (float64(m.TP+m.FP) + 1e-12)
	m.Recall = float64(m.TP) / (float64(m.TP+m.FN) + 1e-12)
	m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall + 1e-12)
	total := m.TP + m.TN + m.FP + m.FN
	if total > 0 {
		m.Accuracy = float64(m.TP+m.TN) / float64(total)
	}
	return m
}

func trapezoidAUC(x, y []float64) float64 {
	auc := 0.0
	for i := 0; i+1 < len(x); i++ {
		auc += math.Abs(x[i+1]-x[i]) * (y[i] + y[i+1]) / 2
	}
	return auc
}

// TextSummary renders the operating points as a small human-readable
// report for the tracking sink.
func (r *Report) TextSummary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "pr_auc: %.4f\n", r.PRAUC)
	fmt.Fprintf(&sb, "best threshold=%.6f precision=%.4f recall=%.4f f1=%.4f accuracy=%.4f\n",
		r.Best.Threshold, r.Best.Precision, r.Best.Recall, r.Best.F1, r.Best.Accuracy)
	fmt.Fprintf(&sb, "confusion tn=%d fp=%d fn=%d tp=%d\n", r.Best.TN, r.Best.FP, r.Best.FN, r.Best.TP)
	if r.Baseline != nil {
		fmt.Fprintf(&sb, "baseline threshold=%.6f precision=%.4f recall=%.4f f1=%.4f accuracy=%.4f\n",
			r.Baseline.Threshold, r.Baseline.Precision, r.Baseline.Recall, r.Baseline.F1, r.Baseline.Accuracy)
	}
	return sb.String()
}

// CurveCSV renders the swept curve as CSV rows for artifact export.
func (r *Report) CurveCSV() string {
	var sb strings.Builder
	sb.WriteString("threshold,precision,recall\n")
	for i := range r.Thresholds {
		fmt.Fprintf(&sb, "%g,%g,%g\n", r.Thresholds[i], r.Precisions[i], r.Recalls[i])
	}
	fmt.Fprintf(&sb, ",%g,%g\n", r.Precisions[len(r.Precisions)-1], r.Recalls[len(r.Recalls)-1])
	return sb.String()
}
