package tracking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oceanlens/enginewatch/pkg/database"
	"github.com/oceanlens/enginewatch/pkg/database/model"
	"github.com/oceanlens/enginewatch/pkg/logger/log"
)

// DBTracker mirrors run records into postgres through the run facade.
// Artifacts stay on disk; only their names are recorded as params.
type DBTracker struct {
	runID  string
	facade database.RunFacadeInterface
}

// NewDBTracker creates the run row and returns a tracker bound to it.
func NewDBTracker(ctx context.Context, runID, vesselName string) (*DBTracker, error) {
	t := &DBTracker{
		runID:  runID,
		facade: database.GetFacade().GetRun(),
	}
	err := t.facade.CreateRun(ctx, &model.Run{
		ID:         runID,
		VesselName: vesselName,
		Status:     StatusRunning,
		StartedAt:  time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (t *DBTracker) RunID() string {
	return t.runID
}

func (t *DBTracker) LogParam(ctx context.Context, key, value string) error {
	return t.facade.CreateParam(ctx, &model.RunParam{
		RunID: t.runID,
		Key:   key,
		Value: value,
	})
}

func (t *DBTracker) LogMetric(ctx context.Context, key string, value float64) error {
	return t.LogMetricStep(ctx, key, value, -1)
}

func (t *DBTracker) LogMetricStep(ctx context.Context, key string, value float64, step int) error {
	return t.facade.CreateMetric(ctx, &model.RunMetric{
		RunID: t.runID,
		Key:   key,
		Value: value,
		Step:  step,
	})
}

func (t *DBTracker) LogText(ctx context.Context, name, text string) error {
	// Text blobs are not worth a table; record presence only.
	return t.LogParam(ctx, "artifact."+name, "text")
}

func (t *DBTracker) LogDict(ctx context.Context, name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return t.LogParam(ctx, "artifact."+name, string(data))
}

func (t *DBTracker) LogArtifact(ctx context.Context, localPath string) error {
	return t.LogParam(ctx, "artifact.file", localPath)
}

func (t *DBTracker) Close(ctx context.Context, status string) error {
	run, err := t.facade.GetRunByID(ctx, t.runID)
	if err != nil {
		return err
	}
	if run == nil {
		log.Warnf("run %s vanished before close", t.runID)
		return nil
	}
	now := time.Now().UTC()
	run.Status = status
	run.FinishedAt = &now
	return t.facade.UpdateRun(ctx, run)
}
