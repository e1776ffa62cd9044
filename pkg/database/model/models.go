package model

import (
	"time"
)

// Run is one pipeline execution, from ingestion through evaluation.
type Run struct {
	ID         string     `gorm:"column:id;primaryKey;type:varchar(64)" json:"id"`
	VesselName string     `gorm:"column:vessel_name;type:varchar(255);index:idx_vessel_name" json:"vessel_name"`
	Status     string     `gorm:"column:status;type:varchar(20);not null;default:'running'" json:"status"` // running/succeeded/failed
	StartedAt  time.Time  `gorm:"column:started_at;not null;index:idx_started_at,sort:desc" json:"started_at"`
	FinishedAt *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Run
func (*Run) TableName() string {
	return "runs"
}

// RunParam is one configuration value recorded against a run.
type RunParam struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement:true" json:"id"`
	RunID     string    `gorm:"column:run_id;type:varchar(64);not null;index:idx_param_run_id" json:"run_id"`
	Key       string    `gorm:"column:key;type:varchar(255);not null" json:"key"`
	Value     string    `gorm:"column:value;type:text" json:"value"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name for RunParam
func (*RunParam) TableName() string {
	return "run_params"
}

// RunMetric is one scalar measurement recorded against a run. Step is -1
// for single-valued metrics and the step index for learning curves.
type RunMetric struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement:true" json:"id"`
	RunID     string    `gorm:"column:run_id;type:varchar(64);not null;index:idx_metric_run_id" json:"run_id"`
	Key       string    `gorm:"column:key;type:varchar(255);not null" json:"key"`
	Value     float64   `gorm:"column:value" json:"value"`
	Step      int       `gorm:"column:step;not null;default:-1" json:"step"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name for RunMetric
func (*RunMetric) TableName() string {
	return "run_metrics"
}
