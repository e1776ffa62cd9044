package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oceanlens/enginewatch/pkg/config"
	"github.com/oceanlens/enginewatch/pkg/database"
	"github.com/oceanlens/enginewatch/pkg/errors"
	"github.com/oceanlens/enginewatch/pkg/frame"
	"github.com/oceanlens/enginewatch/pkg/ingest"
	"github.com/oceanlens/enginewatch/pkg/logger/conf"
	"github.com/oceanlens/enginewatch/pkg/logger/log"
	"github.com/oceanlens/enginewatch/pkg/metrics"
	"github.com/oceanlens/enginewatch/pkg/model"
	"github.com/oceanlens/enginewatch/pkg/pipeline"
	"github.com/oceanlens/enginewatch/pkg/tracking"
)

var inputPath string

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full training pipeline and record the run",
	RunE:  runPipeline,
}

func init() {
	runCmd.Flags().StringVarP(&inputPath, "input", "i", "", "read raw telemetry from a CSV file instead of the DAS endpoint")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	initLogger()
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tracker, err := buildTracker(ctx, cfg)
	if err != nil {
		return err
	}

	raw, err := loadRawTelemetry(ctx, cfg)
	if err != nil {
		tracker.Close(ctx, tracking.StatusFailed)
		metrics.RunsCompleted.WithLabelValues(tracking.StatusFailed).Inc()
		return err
	}

	log.Infof("starting run %s on %d raw rows", tracker.RunID(), raw.Len())
	if _, err := pipeline.Run(ctx, cfg, raw, tracker); err != nil {
		tracker.Close(ctx, tracking.StatusFailed)
		metrics.RunsCompleted.WithLabelValues(tracking.StatusFailed).Inc()
		return err
	}
	if err := tracker.Close(ctx, tracking.StatusSucceeded); err != nil {
		return err
	}
	metrics.RunsCompleted.WithLabelValues(tracking.StatusSucceeded).Inc()
	log.Infof("run %s finished", tracker.RunID())
	return nil
}

func loadRawTelemetry(ctx context.Context, cfg *config.Config) (*frame.Frame, error) {
	if inputPath != "" {
		file, err := os.Open(inputPath)
		if err != nil {
			return nil, errors.NewError().
				WithCode(errors.RequestDataNotExisted).
				WithMessagef("failed to open input file %s", inputPath).
				WithError(err)
		}
		defer file.Close()
		return frame.ParseCSV(file, model.ChanDataTime)
	}
	if cfg.Ingestion == nil {
		return nil, errors.NewError().
			WithCode(errors.CodeLackOfConfig).
			WithMessage("no ingestion config and no --input file given")
	}
	raw, _, err := ingest.NewClient(cfg.Ingestion).Fetch(ctx)
	return raw, err
}

// buildTracker always records to disk; postgres mirroring is added when a
// DSN is configured.
func buildTracker(ctx context.Context, cfg *config.Config) (tracking.Tracker, error) {
	fileTracker, err := tracking.NewFileTracker(cfg.Tracking.GetRootDir())
	if err != nil {
		return nil, err
	}
	if cfg.Tracking.PostgresDSN == "" {
		return fileTracker, nil
	}
	if _, err := database.InitDefault(cfg.Tracking.PostgresDSN); err != nil {
		return nil, err
	}
	vessel := ""
	if cfg.Ingestion != nil {
		vessel = cfg.Ingestion.VesselName
	}
	dbTracker, err := tracking.NewDBTracker(ctx, fileTracker.RunID(), vessel)
	if err != nil {
		return nil, err
	}
	return tracking.NewMultiTracker(fileTracker, dbTracker), nil
}

func initLogger() {
	logCfg := conf.DefaultConfig()
	if verbose {
		logCfg.Level = conf.DebugLevel
	}
	log.InitGlobalLogger(logCfg)
}
