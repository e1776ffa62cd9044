package database

import (
	"context"
	"errors"

	"github.com/oceanlens/enginewatch/pkg/database/model"
	"gorm.io/gorm"
)

// RunFacadeInterface defines the database operation interface for runs
type RunFacadeInterface interface {
	CreateRun(ctx context.Context, run *model.Run) error
	UpdateRun(ctx context.Context, run *model.Run) error
	GetRunByID(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*model.Run, int64, error)

	CreateParam(ctx context.Context, param *model.RunParam) error
	ListParamsByRunID(ctx context.Context, runID string) ([]*model.RunParam, error)

	CreateMetric(ctx context.Context, metric *model.RunMetric) error
	ListMetricsByRunID(ctx context.Context, runID string) ([]*model.RunMetric, error)
}

// RunFacade implements RunFacadeInterface
type RunFacade struct {
	BaseFacade
}

// NewRunFacade creates a new RunFacade instance
func NewRunFacade() RunFacadeInterface {
	return &RunFacade{}
}

func (f *RunFacade) CreateRun(ctx context.Context, run *model.Run) error {
	return f.getDB().WithContext(ctx).Create(run).Error
}

func (f *RunFacade) UpdateRun(ctx context.Context, run *model.Run) error {
	return f.getDB().WithContext(ctx).Save(run).Error
}

func (f *RunFacade) GetRunByID(ctx context.Context, id string) (*model.Run, error) {
	var run model.Run
	err := f.getDB().WithContext(ctx).Where("id = ?", id).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

func (f *RunFacade) ListRuns(ctx context.Context, limit, offset int) ([]*model.Run, int64, error) {
	var runs []*model.Run
	var total int64
	db := f.getDB().WithContext(ctx).Model(&model.Run{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("started_at DESC").Limit(limit).Offset(offset).Find(&runs).Error
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

func (f *RunFacade) CreateParam(ctx context.Context, param *model.RunParam) error {
	return f.getDB().WithContext(ctx).Create(param).Error
}

func (f *RunFacade) ListParamsByRunID(ctx context.Context, runID string) ([]*model.RunParam, error) {
	var params []*model.RunParam
	err := f.getDB().WithContext(ctx).Where("run_id = ?", runID).Order("id ASC").Find(&params).Error
	return params, err
}

func (f *RunFacade) CreateMetric(ctx context.Context, metric *model.RunMetric) error {
	return f.getDB().WithContext(ctx).Create(metric).Error
}

func (f *RunFacade) ListMetricsByRunID(ctx context.Context, runID string) ([]*model.RunMetric, error) {
	var metrics []*model.RunMetric
	err := f.getDB().WithContext(ctx).Where("run_id = ?", runID).Order("id ASC").Find(&metrics).Error
	return metrics, err
}
