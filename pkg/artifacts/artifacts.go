// Package artifacts persists fitted pipeline state (scaler, model) as
// gzip-compressed gob blobs so a later evaluation run can reload them
// without retraining.
package artifacts

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/oceanlens/enginewatch/pkg/errors"
)

// Save writes v to path, creating parent directories as needed.
func Save(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewError().
			WithCode(errors.CodeInternalError).
			WithMessage("failed to create artifact directory").
			WithError(err)
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.NewError().
			WithCode(errors.CodeInternalError).
			WithMessage("failed to create artifact file").
			WithError(err)
	}
	defer file.Close()

	zw := gzip.NewWriter(file)
	if err := gob.NewEncoder(zw).Encode(v); err != nil {
		zw.Close()
		return errors.NewError().
			WithCode(errors.CodeInternalError).
			WithMessage("failed to encode artifact").
			WithError(err)
	}
	return zw.Close()
}

// Load reads the artifact at path into v.
func Load(path string, v interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.NewError().
			WithCode(errors.RequestDataNotExisted).
			WithMessage("failed to open artifact file").
			WithError(err)
	}
	defer file.Close()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return errors.NewError().
			WithCode(errors.CodeInvalidData).
			WithMessage("artifact is not a gzip stream").
			WithError(err)
	}
	defer zr.Close()

	if err := gob.NewDecoder(zr).Decode(v); err != nil {
		return errors.NewError().
			WithCode(errors.CodeInvalidData).
			WithMessage("failed to decode artifact").
			WithError(err)
	}
	return nil
}
