package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oceanlens/enginewatch/pkg/artifacts"
	"github.com/oceanlens/enginewatch/pkg/config"
	"github.com/oceanlens/enginewatch/pkg/errors"
	"github.com/oceanlens/enginewatch/pkg/frame"
	"github.com/oceanlens/enginewatch/pkg/model"
	"github.com/oceanlens/enginewatch/pkg/module/evaluate"
	"github.com/oceanlens/enginewatch/pkg/module/scale"
	"github.com/oceanlens/enginewatch/pkg/module/train"
)

var (
	scalerPath string
	modelPath  string
	dataPath   string
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score the labeled reference dataset against saved artifacts",
	RunE:  runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&scalerPath, "scaler", "", "path to the fitted scaler artifact")
	evaluateCmd.Flags().StringVar(&modelPath, "model", "", "path to the trained model artifact")
	evaluateCmd.Flags().StringVar(&dataPath, "data", "", "path to the retained normal rows CSV")
	evaluateCmd.MarkFlagRequired("scaler")
	evaluateCmd.MarkFlagRequired("model")
	evaluateCmd.MarkFlagRequired("data")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	initLogger()
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	evalCfg := cfg.Pipeline.Evaluation
	if evalCfg.ReferencePath == "" {
		return errors.NewError().
			WithCode(errors.CodeLackOfConfig).
			WithMessage("evaluation.reference_path is not configured")
	}

	var scaler scale.MinMaxScaler
	if err := artifacts.Load(scalerPath, &scaler); err != nil {
		return err
	}
	var ae train.LinearAutoencoder
	if err := artifacts.Load(modelPath, &ae); err != nil {
		return err
	}

	dataFile, err := os.Open(dataPath)
	if err != nil {
		return errors.NewError().
			WithCode(errors.RequestDataNotExisted).
			WithMessagef("failed to open data file %s", dataPath).
			WithError(err)
	}
	defer dataFile.Close()
	normals, err := frame.ParseCSV(dataFile, model.ChanDataTime)
	if err != nil {
		return err
	}

	refFile, err := os.Open(evalCfg.ReferencePath)
	if err != nil {
		return errors.NewError().
			WithCode(errors.RequestDataNotExisted).
			WithMessagef("failed to open reference dataset %s", evalCfg.ReferencePath).
			WithError(err)
	}
	defer refFile.Close()
	ref, err := evaluate.LoadReference(refFile, model.ChannelRenames, evalCfg.GetAnomalyColumn())
	if err != nil {
		return err
	}

	report, err := evaluate.Run(context.Background(), evaluate.Config{
		AnomalyColumn:     evalCfg.GetAnomalyColumn(),
		DropColumns:       evalCfg.DropColumns,
		NormalSampleSize:  evalCfg.GetNormalSampleSize(),
		BaselineThreshold: evalCfg.BaselineThreshold,
		Seed:              cfg.Pipeline.GetSeed(),
	}, ref, normals, &scaler, &ae)
	if err != nil {
		return err
	}

	fmt.Print(report.TextSummary())
	return nil
}
