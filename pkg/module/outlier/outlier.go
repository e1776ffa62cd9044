// Package outlier drops rows that are operationally implausible or that a
// low-rank reconstruction flags as multivariate outliers. The percentile
// cutoff is computed from the batch being filtered, so it is a per-run
// calibration, not a fixed global threshold.
package outlier

import (
	"math"
	"sort"

	"github.com/oceanlens/enginewatch/pkg/errors"
	"github.com/oceanlens/enginewatch/pkg/frame"
	"github.com/oceanlens/enginewatch/pkg/model"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

type Config struct {
	PowerThreshold    float64
	Cyl1TempThreshold float64
	PCAComponents     int
	Percentile        float64
}

type Report struct {
	RowsBefore              int       `json:"rows_before"`
	RowsAfterThresholds     int       `json:"rows_after_thresholds"`
	RowsAfter               int       `json:"rows_after"`
	PercentileCutoff        float64   `json:"percentile_cutoff"`
	ExplainedVarianceRatios []float64 `json:"explained_variance_ratios"`
}

// Filter applies the operational floors, drops incomplete rows, and removes
// rows whose PCA reconstruction residual in standardized space exceeds the
// configured percentile of this batch's residual distribution.
func Filter(f *frame.Frame, cfg Config) (*frame.Frame, Report, error) {
	report := Report{RowsBefore: f.Len()}

	keep := make([]bool, f.Len())
	power := f.Col(model.ChanShaftPower)
	cyl1 := f.Col(model.ChanExhCyl1)
	if power == nil || cyl1 == nil {
		return nil, report, errors.NewError().
			WithCode(errors.CodeSchemaMismatch).
			WithMessage("shaft power or cylinder 1 exhaust channel missing")
	}
	for i := range keep {
		keep[i] = power[i] > cfg.PowerThreshold && cyl1[i] > cfg.Cyl1TempThreshold
	}
	f = f.Filter(keep).DropAnyMissing(nil)
	report.RowsAfterThresholds = f.Len()

	comps := cfg.PCAComponents
	if f.Len() <= comps || len(f.Columns()) < comps {
		// Too few rows to fit the low-rank model; keep what survived the
		// operational floors.
		report.RowsAfter = f.Len()
		return f, report, nil
	}

	x, err := f.Matrix(nil)
	if err != nil {
		return nil, report, err
	}
	standardized, ok := standardize(x)
	if !ok {
		report.RowsAfter = f.Len()
		return f, report, nil
	}

	residuals, ratios, err := pcaResiduals(standardized, comps)
	if err != nil {
		return nil, report, err
	}
	report.ExplainedVarianceRatios = ratios

	sorted := append([]float64{}, residuals...)
	sort.Float64s(sorted)
	cutoff := stat.Quantile(cfg.Percentile, stat.Empirical, sorted, nil)
	report.PercentileCutoff = cutoff

	keep = make([]bool, len(residuals))
	for i, r := range residuals {
		keep[i] = r <= cutoff
	}
	out := f.Filter(keep)
	report.RowsAfter = out.Len()
	return out, report, nil
}

// standardize centers and scales each column to unit variance. Columns with
// zero variance are left centered. Returns false for a degenerate matrix.
func standardize(x *mat.Dense) (*mat.Dense, bool) {
	rows, cols := x.Dims()
	if rows < 2 {
		return nil, false
	}
	out := mat.NewDense(rows, cols, nil)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		mean, std := stat.MeanStdDev(col, nil)
		for i := 0; i < rows; i++ {
			v := col[i] - mean
			if std > 0 {
				v /= std
			}
			out.Set(i, j, v)
		}
	}
	return out, true
}

// pcaResiduals fits a top-k principal subspace via SVD and returns the
// per-row mean squared reconstruction residual together with the explained
// variance ratio of each retained component.
func pcaResiduals(x *mat.Dense, k int) ([]float64, []float64, error) {
	rows, cols := x.Dims()
	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return nil, nil, errors.NewError().
			WithCode(errors.CodeInternalError).
			WithMessage("SVD factorization failed")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)
	if k > len(values) {
		k = len(values)
	}

	total := 0.0
	for _, s := range values {
		total += s * s
	}
	ratios := make([]float64, k)
	for i := 0; i < k; i++ {
		if total > 0 {
			ratios[i] = values[i] * values[i] / total
		}
	}

	// Reconstruct from the leading k components: X_hat = U_k S_k V_k^T.
	uk := u.Slice(0, rows, 0, k).(*mat.Dense)
	vk := v.Slice(0, cols, 0, k).(*mat.Dense)
	scaled := mat.NewDense(rows, k, nil)
	scaled.Copy(uk)
	for j := 0; j < k; j++ {
		for i := 0; i < rows; i++ {
			scaled.Set(i, j, scaled.At(i, j)*values[j])
		}
	}
	var reconstructed mat.Dense
	reconstructed.Mul(scaled, vk.T())

	residuals := make([]float64, rows)
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			d := x.At(i, j) - reconstructed.At(i, j)
			sum += d * d
		}
		residuals[i] = sum / float64(cols)
	}
	for i, r := range residuals {
		if math.IsNaN(r) {
			residuals[i] = math.Inf(1)
		}
	}
	return residuals, ratios, nil
}
