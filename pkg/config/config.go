package config

import (
	"os"
	"time"

	"github.com/oceanlens/enginewatch/pkg/errors"
	"gopkg.in/yaml.v2"
)

type Config struct {
	HttpPort  int              `json:"httpPort" yaml:"httpPort"`
	Ingestion *IngestionConfig `json:"ingestion" yaml:"ingestion"`
	Pipeline  PipelineConfig   `json:"pipeline" yaml:"pipeline"`
	Tracking  TrackingConfig   `json:"tracking" yaml:"tracking"`
}

type IngestionConfig struct {
	BaseURL          string `yaml:"base_url" json:"base_url"`
	TenantName       string `yaml:"tenant_name" json:"tenant_name"`
	VesselName       string `yaml:"vessel_name" json:"vessel_name"`
	VesselID         int    `yaml:"vessel_id" json:"vessel_id"`
	StartDate        string `yaml:"start_date" json:"start_date"`
	EndDate          string `yaml:"end_date" json:"end_date"`
	WindowDays       int    `yaml:"window_days" json:"window_days"`
	RequestDelaySecs int    `yaml:"request_delay_seconds" json:"request_delay_seconds"`
	RowLimit         int    `yaml:"row_limit" json:"row_limit"`
}

func (c *IngestionConfig) GetWindow() time.Duration {
	days := c.WindowDays
	if days <= 0 {
		days = 15
	}
	return time.Duration(days) * 24 * time.Hour
}

func (c *IngestionConfig) GetRequestDelay() time.Duration {
	if c.RequestDelaySecs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.RequestDelaySecs) * time.Second
}

func (c *IngestionConfig) GetRowLimit() int {
	if c.RowLimit <= 0 {
		return 45000
	}
	return c.RowLimit
}

type PipelineConfig struct {
	Seed       int64            `yaml:"seed" json:"seed"`
	Resample   ResampleConfig   `yaml:"resample" json:"resample"`
	Steady     SteadyConfig     `yaml:"steady" json:"steady"`
	Outlier    OutlierConfig    `yaml:"outlier" json:"outlier"`
	Scale      ScaleConfig      `yaml:"scale" json:"scale"`
	Train      TrainConfig      `yaml:"train" json:"train"`
	Evaluation EvaluationConfig `yaml:"evaluation" json:"evaluation"`
}

func (c PipelineConfig) GetSeed() int64 {
	if c.Seed == 0 {
		return 42
	}
	return c.Seed
}

type ResampleConfig struct {
	IntervalMinutes int `yaml:"interval_minutes" json:"interval_minutes"`
	CadenceGapSecs  int `yaml:"cadence_gap_seconds" json:"cadence_gap_seconds"`
}

func (c ResampleConfig) GetInterval() time.Duration {
	mins := c.IntervalMinutes
	if mins <= 0 {
		mins = 5
	}
	return time.Duration(mins) * time.Minute
}

func (c ResampleConfig) GetCadenceGap() time.Duration {
	secs := c.CadenceGapSecs
	if secs <= 0 {
		secs = 250
	}
	return time.Duration(secs) * time.Second
}

type SteadyConfig struct {
	DistanceThreshold float64 `yaml:"distance_threshold" json:"distance_threshold"`
	Alpha             float64 `yaml:"alpha" json:"alpha"`
	WindowLength      int     `yaml:"window_length" json:"window_length"`
	WindowStep        int     `yaml:"window_step" json:"window_step"`
	Workers           int     `yaml:"workers" json:"workers"`
}

func (c SteadyConfig) GetDistanceThreshold() float64 {
	if c.DistanceThreshold <= 0 {
		return 700
	}
	return c.DistanceThreshold
}

func (c SteadyConfig) GetAlpha() float64 {
	if c.Alpha <= 0 {
		return 0.2
	}
	return c.Alpha
}

func (c SteadyConfig) GetWindowLength() int {
	if c.WindowLength <= 0 {
		return 20
	}
	return c.WindowLength
}

func (c SteadyConfig) GetWindowStep() int {
	if c.WindowStep <= 0 {
		return 1
	}
	return c.WindowStep
}

type OutlierConfig struct {
	PowerThreshold    float64 `yaml:"power_threshold" json:"power_threshold"`
	Cyl1TempThreshold float64 `yaml:"cyl1_temp_threshold" json:"cyl1_temp_threshold"`
	PCAComponents     int     `yaml:"pca_components" json:"pca_components"`
	Percentile        float64 `yaml:"percentile" json:"percentile"`
}

func (c OutlierConfig) GetPowerThreshold() float64 {
	if c.PowerThreshold <= 0 {
		return 3500
	}
	return c.PowerThreshold
}

func (c OutlierConfig) GetCyl1TempThreshold() float64 {
	if c.Cyl1TempThreshold <= 0 {
		return 260
	}
	return c.Cyl1TempThreshold
}

func (c OutlierConfig) GetPCAComponents() int {
	if c.PCAComponents <= 0 {
		return 15
	}
	return c.PCAComponents
}

func (c OutlierConfig) GetPercentile() float64 {
	if c.Percentile <= 0 {
		return 0.99
	}
	return c.Percentile
}

type ScaleConfig struct {
	TrainFraction float64 `yaml:"train_fraction" json:"train_fraction"`
}

func (c ScaleConfig) GetTrainFraction() float64 {
	if c.TrainFraction <= 0 || c.TrainFraction >= 1 {
		return 0.8
	}
	return c.TrainFraction
}

type TrainConfig struct {
	LatentDim int `yaml:"latent_dim" json:"latent_dim"`
}

func (c TrainConfig) GetLatentDim() int {
	if c.LatentDim <= 0 {
		return 8
	}
	return c.LatentDim
}

type EvaluationConfig struct {
	ReferencePath     string   `yaml:"reference_path" json:"reference_path"`
	AnomalyColumn     string   `yaml:"anomaly_column" json:"anomaly_column"`
	DropColumns       []string `yaml:"drop_columns" json:"drop_columns"`
	NormalSampleSize  int      `yaml:"normal_sample_size" json:"normal_sample_size"`
	BaselineThreshold float64  `yaml:"baseline_threshold" json:"baseline_threshold"`
}

func (c EvaluationConfig) GetAnomalyColumn() string {
	if c.AnomalyColumn == "" {
		return "Anomaly Reason"
	}
	return c.AnomalyColumn
}

func (c EvaluationConfig) GetNormalSampleSize() int {
	if c.NormalSampleSize <= 0 {
		return 3000
	}
	return c.NormalSampleSize
}

type TrackingConfig struct {
	RootDir     string `yaml:"root_dir" json:"root_dir"`
	PostgresDSN string `yaml:"postgres_dsn" json:"postgres_dsn"`
}

func (c TrackingConfig) GetRootDir() string {
	if c.RootDir == "" {
		return "runs"
	}
	return c.RootDir
}

var config *Config

func LoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	configFile, err := os.Open(configPath)
	if err != nil {
		return nil, errors.NewError().
			WithCode(errors.CodeInitializeError).
			WithMessage("failed to open config file").
			WithError(err)
	}
	defer configFile.Close()
	decoder := yaml.NewDecoder(configFile)
	err = decoder.Decode(&config)
	if err != nil {
		return nil, errors.NewError().
			WithCode(errors.CodeInitializeError).
			WithMessage("failed to parse config file").
			WithError(err)
	}
	return config, nil
}
