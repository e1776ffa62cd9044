// Package pipeline wires the processing stages end to end: resampling,
// range validation, steady-state extraction, outlier filtering, scaling,
// model training and evaluation. Every stage result is recorded against the
// run tracker.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/oceanlens/enginewatch/pkg/artifacts"
	"github.com/oceanlens/enginewatch/pkg/config"
	"github.com/oceanlens/enginewatch/pkg/errors"
	"github.com/oceanlens/enginewatch/pkg/frame"
	"github.com/oceanlens/enginewatch/pkg/logger/log"
	"github.com/oceanlens/enginewatch/pkg/metrics"
	"github.com/oceanlens/enginewatch/pkg/model"
	"github.com/oceanlens/enginewatch/pkg/module/evaluate"
	"github.com/oceanlens/enginewatch/pkg/module/outlier"
	"github.com/oceanlens/enginewatch/pkg/module/ranges"
	"github.com/oceanlens/enginewatch/pkg/module/resample"
	"github.com/oceanlens/enginewatch/pkg/module/scale"
	"github.com/oceanlens/enginewatch/pkg/module/steady"
	"github.com/oceanlens/enginewatch/pkg/module/train"
	"github.com/oceanlens/enginewatch/pkg/tracking"
)

const (
	ScalerArtifact   = "scaler.gob.gz"
	ModelArtifact    = "model.gob.gz"
	RetainedArtifact = "retained.csv"
)

// Result carries the fitted state and the per-stage reports of one run.
type Result struct {
	Scaler   *scale.MinMaxScaler
	Model    train.Reconstructor
	Retained *frame.Frame

	Resample   resample.Report
	Ranges     ranges.Report
	Outlier    outlier.Report
	Fit        *train.FitReport
	Evaluation *evaluate.Report
}

// Run executes the full training pipeline on the raw telemetry frame.
// Evaluation runs only when a reference path is configured.
func Run(ctx context.Context, cfg *config.Config, raw *frame.Frame, tracker tracking.Tracker) (*Result, error) {
	res := &Result{}
	p := cfg.Pipeline
	seed := p.GetSeed()

	logParams(ctx, tracker, cfg)

	// Resample to the processing grid.
	stop := stageTimer("resample", raw.Len())
	resampled, rsReport, err := resample.Apply(
		raw,
		model.FeatureChannels(),
		p.Resample.GetInterval(),
		p.Resample.GetCadenceGap(),
		[]string{model.ChanFOInTemp, model.ChanShaftRPM},
		seed,
	)
	if err != nil {
		return nil, err
	}
	stop(resampled.Len())
	res.Resample = rsReport
	log.Infof("resampled %d rows to %d grid rows (%d high-frequency, %d low-frequency)",
		rsReport.RowsBefore, rsReport.RowsAfter, rsReport.HighFrequencyRows, rsReport.LowFrequencyRows)
	tracker.LogDict(ctx, "resample_report.json", rsReport)

	// Physical range validation.
	stop = stageTimer("ranges", resampled.Len())
	rgReport := ranges.Validate(resampled, model.PhysicalRanges)
	stop(resampled.Len())
	res.Ranges = rgReport
	for ch, n := range rgReport.ReplacedByChannel {
		metrics.RangeReplacedCnt.WithLabelValues(ch).Add(float64(n))
	}
	log.Infof("range validation replaced %d out-of-range values", rgReport.TotalReplaced)
	tracker.LogDict(ctx, "range_report.json", rgReport)

	// Steady-state extraction on the shaft power series.
	stop = stageTimer("steady", resampled.Len())
	power := resampled.Col(model.ChanShaftPower)
	if power == nil {
		return nil, errors.NewError().
			WithCode(errors.CodeSchemaMismatch).
			WithMessage("shaft power channel missing after resampling")
	}
	labels := steady.Extract(power, steady.Params{
		DistanceThreshold: p.Steady.GetDistanceThreshold(),
		Alpha:             p.Steady.GetAlpha(),
		WindowLength:      p.Steady.GetWindowLength(),
		Step:              p.Steady.GetWindowStep(),
		Workers:           p.Steady.Workers,
	})
	keep := make([]bool, len(labels))
	for i, l := range labels {
		keep[i] = l != 0
	}
	steadyFrame := resampled.Filter(keep)
	stop(steadyFrame.Len())
	log.Infof("steady-state extraction kept %d of %d rows", steadyFrame.Len(), resampled.Len())
	tracker.LogMetric(ctx, "steady_rows", float64(steadyFrame.Len()))

	// Outlier filtering.
	stop = stageTimer("outlier", steadyFrame.Len())
	retained, olReport, err := outlier.Filter(steadyFrame, outlier.Config{
		PowerThreshold:    p.Outlier.GetPowerThreshold(),
		Cyl1TempThreshold: p.Outlier.GetCyl1TempThreshold(),
		PCAComponents:     p.Outlier.GetPCAComponents(),
		Percentile:        p.Outlier.GetPercentile(),
	})
	if err != nil {
		return nil, err
	}
	stop(retained.Len())
	res.Outlier = olReport
	res.Retained = retained
	log.Infof("outlier filter kept %d of %d rows (cutoff %.6f)",
		olReport.RowsAfter, olReport.RowsBefore, olReport.PercentileCutoff)
	tracker.LogDict(ctx, "outlier_report.json", olReport)

	if retained.Len() < 10 {
		return nil, errors.NewError().
			WithCode(errors.CodeInvalidData).
			WithMessagef("only %d rows survived filtering, not enough to train", retained.Len())
	}

	// Scale and split.
	cols := retained.Columns()
	x, err := retained.Matrix(cols)
	if err != nil {
		return nil, err
	}
	res.Scaler = scale.Fit(x, cols)
	scaled, err := res.Scaler.Transform(x)
	if err != nil {
		return nil, err
	}
	trainSet, validSet := scale.Split(scaled, p.Scale.GetTrainFraction(), seed)

	// Train.
	stop = stageTimer("train", retained.Len())
	ae := train.NewLinearAutoencoder(p.Train.GetLatentDim())
	fitReport, err := ae.Fit(ctx, trainSet, validSet)
	if err != nil {
		return nil, err
	}
	stop(retained.Len())
	res.Model = ae
	res.Fit = fitReport
	for i, loss := range fitReport.TrainLoss {
		tracker.LogMetricStep(ctx, "train_loss", loss, i)
	}
	for i, loss := range fitReport.ValidLoss {
		tracker.LogMetricStep(ctx, "valid_loss", loss, i)
	}
	if n := len(fitReport.TrainLoss); n > 0 {
		log.Infof("trained reconstruction model, final train loss %.6f", fitReport.TrainLoss[n-1])
	}
	if err := logValidationErrors(ctx, tracker, ae, validSet); err != nil {
		return nil, err
	}

	if err := persistArtifacts(ctx, tracker, res.Scaler, ae, retained); err != nil {
		return nil, err
	}

	// Evaluate against the labeled reference, when configured.
	if p.Evaluation.ReferencePath != "" {
		evalReport, err := runEvaluation(ctx, p, res, tracker, seed)
		if err != nil {
			return nil, err
		}
		res.Evaluation = evalReport
	}
	return res, nil
}

func runEvaluation(ctx context.Context, p config.PipelineConfig, res *Result, tracker tracking.Tracker, seed int64) (*evaluate.Report, error) {
	file, err := os.Open(p.Evaluation.ReferencePath)
	if err != nil {
		return nil, errors.NewError().
			WithCode(errors.RequestDataNotExisted).
			WithMessagef("failed to open reference dataset %s", p.Evaluation.ReferencePath).
			WithError(err)
	}
	defer file.Close()

	ref, err := evaluate.LoadReference(file, model.ChannelRenames, p.Evaluation.GetAnomalyColumn())
	if err != nil {
		return nil, err
	}

	stop := stageTimer("evaluate", ref.Frame.Len())
	report, err := evaluate.Run(ctx, evaluate.Config{
		AnomalyColumn:     p.Evaluation.GetAnomalyColumn(),
		DropColumns:       p.Evaluation.DropColumns,
		NormalSampleSize:  p.Evaluation.GetNormalSampleSize(),
		BaselineThreshold: p.Evaluation.BaselineThreshold,
		Seed:              seed,
	}, ref, res.Retained, res.Scaler, res.Model)
	if err != nil {
		return nil, err
	}
	stop(report.AnomalyRows + report.NormalRows)

	tracker.LogMetric(ctx, "pr_auc", report.PRAUC)
	tracker.LogMetric(ctx, "best_threshold", report.Best.Threshold)
	tracker.LogMetric(ctx, "best_precision", report.Best.Precision)
	tracker.LogMetric(ctx, "best_recall", report.Best.Recall)
	tracker.LogMetric(ctx, "best_f1", report.Best.F1)
	tracker.LogMetric(ctx, "best_accuracy", report.Best.Accuracy)
	tracker.LogText(ctx, "evaluation.txt", report.TextSummary())
	tracker.LogText(ctx, "pr_curve.csv", report.CurveCSV())
	tracker.LogDict(ctx, "evaluation_report.json", report)
	log.Infof("evaluation done: pr_auc=%.4f best f1=%.4f at threshold %.6f",
		report.PRAUC, report.Best.F1, report.Best.Threshold)
	return report, nil
}

// logValidationErrors records the distribution of per-row reconstruction
// errors on the held-out split.
func logValidationErrors(ctx context.Context, tracker tracking.Tracker, ae *train.LinearAutoencoder, validSet *mat.Dense) error {
	rows, _ := validSet.Dims()
	if rows == 0 {
		return nil
	}
	recon, err := ae.Reconstruct(validSet)
	if err != nil {
		return err
	}
	errs := train.ReconstructionErrors(validSet, recon, true)
	sort.Float64s(errs)
	mean, std := stat.MeanStdDev(errs, nil)
	p95 := stat.Quantile(0.95, stat.Empirical, errs, nil)

	tracker.LogMetric(ctx, "valid_err_mean", mean)
	tracker.LogMetric(ctx, "valid_err_std", std)
	tracker.LogMetric(ctx, "valid_err_p95", p95)
	log.Infof("validation reconstruction error mean=%.6f std=%.6f p95=%.6f", mean, std, p95)
	return nil
}

// persistArtifacts writes the fitted scaler, the model and the retained
// training rows to a staging directory and hands them to the tracker. The
// retained CSV is what a later evaluate invocation feeds back in as the
// normal sample and schema source.
func persistArtifacts(ctx context.Context, tracker tracking.Tracker, scaler *scale.MinMaxScaler, ae *train.LinearAutoencoder, retained *frame.Frame) error {
	dir, err := os.MkdirTemp("", "enginewatch-artifacts-")
	if err != nil {
		return errors.NewError().
			WithCode(errors.CodeInternalError).
			WithMessage("failed to create artifact staging directory").
			WithError(err)
	}
	defer os.RemoveAll(dir)

	scalerPath := filepath.Join(dir, ScalerArtifact)
	if err := artifacts.Save(scalerPath, scaler); err != nil {
		return err
	}
	modelPath := filepath.Join(dir, ModelArtifact)
	if err := artifacts.Save(modelPath, ae); err != nil {
		return err
	}
	retainedPath := filepath.Join(dir, RetainedArtifact)
	if err := writeRetained(retainedPath, retained); err != nil {
		return err
	}
	if err := tracker.LogArtifact(ctx, scalerPath); err != nil {
		return err
	}
	if err := tracker.LogArtifact(ctx, modelPath); err != nil {
		return err
	}
	return tracker.LogArtifact(ctx, retainedPath)
}

func writeRetained(path string, retained *frame.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.NewError().
			WithCode(errors.CodeInternalError).
			WithMessage("failed to create retained rows file").
			WithError(err)
	}
	defer file.Close()
	if err := retained.WriteCSV(file, model.ChanDataTime); err != nil {
		return errors.NewError().
			WithCode(errors.CodeInternalError).
			WithMessage("failed to write retained rows").
			WithError(err)
	}
	return nil
}

func logParams(ctx context.Context, tracker tracking.Tracker, cfg *config.Config) {
	p := cfg.Pipeline
	params := map[string]interface{}{
		"seed":                p.GetSeed(),
		"resample_interval":   p.Resample.GetInterval().String(),
		"cadence_gap":         p.Resample.GetCadenceGap().String(),
		"distance_threshold":  p.Steady.GetDistanceThreshold(),
		"smoothing_alpha":     p.Steady.GetAlpha(),
		"window_length":       p.Steady.GetWindowLength(),
		"window_step":         p.Steady.GetWindowStep(),
		"power_threshold":     p.Outlier.GetPowerThreshold(),
		"cyl1_temp_threshold": p.Outlier.GetCyl1TempThreshold(),
		"pca_components":      p.Outlier.GetPCAComponents(),
		"outlier_percentile":  p.Outlier.GetPercentile(),
		"train_fraction":      p.Scale.GetTrainFraction(),
		"latent_dim":          p.Train.GetLatentDim(),
		"normal_sample_size":  p.Evaluation.GetNormalSampleSize(),
	}
	if cfg.Ingestion != nil {
		params["vessel_name"] = cfg.Ingestion.VesselName
		params["tenant_name"] = cfg.Ingestion.TenantName
	}
	for k, v := range params {
		if err := tracker.LogParam(ctx, k, fmt.Sprintf("%v", v)); err != nil {
			log.Warnf("failed to record param %s: %v", k, err)
		}
	}
}

// stageTimer instruments one stage; the returned func is called with the
// row count leaving the stage.
func stageTimer(stage string, rowsIn int) func(rowsOut int) {
	start := time.Now()
	metrics.StageRowsIn.WithLabelValues(stage).Set(float64(rowsIn))
	return func(rowsOut int) {
		metrics.StageRowsOut.WithLabelValues(stage).Set(float64(rowsOut))
		metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
