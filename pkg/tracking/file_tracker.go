package tracking

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oceanlens/enginewatch/pkg/errors"
)

// FileTracker persists a run under <rootDir>/<runID>/: params.json,
// metrics.json, a status file and an artifacts/ directory.
type FileTracker struct {
	runID string
	dir   string

	mu      sync.Mutex
	params  map[string]string
	metrics []metricRecord
}

type metricRecord struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Step  int     `json:"step"`
	Time  string  `json:"time"`
}

// NewFileTracker allocates a fresh run directory under rootDir.
func NewFileTracker(rootDir string) (*FileTracker, error) {
	runID := uuid.NewString()
	dir := filepath.Join(rootDir, runID)
	if err := os.MkdirAll(filepath.Join(dir, "artifacts"), 0o755); err != nil {
		return nil, errors.NewError().
			WithCode(errors.CodeInitializeError).
			WithMessage("failed to create run directory").
			WithError(err)
	}
	t := &FileTracker{
		runID:  runID,
		dir:    dir,
		params: map[string]string{},
	}
	if err := t.writeStatus(StatusRunning); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *FileTracker) RunID() string {
	return t.runID
}

// Dir returns the run directory on disk.
func (t *FileTracker) Dir() string {
	return t.dir
}

func (t *FileTracker) LogParam(_ context.Context, key, value string) error {
	t.mu.Lock()
	t.params[key] = value
	t.mu.Unlock()
	return t.flushParams()
}

func (t *FileTracker) LogMetric(ctx context.Context, key string, value float64) error {
	return t.LogMetricStep(ctx, key, value, -1)
}

func (t *FileTracker) LogMetricStep(_ context.Context, key string, value float64, step int) error {
	t.mu.Lock()
	t.metrics = append(t.metrics, metricRecord{
		Key:   key,
		Value: value,
		Step:  step,
		Time:  time.Now().UTC().Format(time.RFC3339),
	})
	t.mu.Unlock()
	return t.flushMetrics()
}

func (t *FileTracker) LogText(_ context.Context, name, text string) error {
	path := filepath.Join(t.dir, "artifacts", name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return errors.NewError().
			WithCode(errors.CodeInternalError).
			WithMessagef("failed to write text artifact %s", name).
			WithError(err)
	}
	return nil
}

func (t *FileTracker) LogDict(ctx context.Context, name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.NewError().
			WithCode(errors.CodeInternalError).
			WithMessagef("failed to marshal artifact %s", name).
			WithError(err)
	}
	return t.LogText(ctx, name, string(data))
}

func (t *FileTracker) LogArtifact(_ context.Context, localPath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return errors.NewError().
			WithCode(errors.RequestDataNotExisted).
			WithMessagef("failed to open artifact %s", localPath).
			WithError(err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(t.dir, "artifacts", filepath.Base(localPath)))
	if err != nil {
		return errors.NewError().
			WithCode(errors.CodeInternalError).
			WithMessage("failed to create artifact copy").
			WithError(err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return errors.NewError().
			WithCode(errors.CodeInternalError).
			WithMessage("failed to copy artifact").
			WithError(err)
	}
	return nil
}

func (t *FileTracker) Close(_ context.Context, status string) error {
	return t.writeStatus(status)
}

func (t *FileTracker) writeStatus(status string) error {
	path := filepath.Join(t.dir, "status")
	if err := os.WriteFile(path, []byte(status+"\n"), 0o644); err != nil {
		return errors.NewError().
			WithCode(errors.CodeInternalError).
			WithMessage("failed to write run status").
			WithError(err)
	}
	return nil
}

func (t *FileTracker) flushParams() error {
	t.mu.Lock()
	data, err := json.MarshalIndent(t.params, "", "  ")
	t.mu.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(t.dir, "params.json"), data, 0o644)
}

func (t *FileTracker) flushMetrics() error {
	t.mu.Lock()
	data, err := json.MarshalIndent(t.metrics, "", "  ")
	t.mu.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(t.dir, "metrics.json"), data, 0o644)
}
