package evaluate

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/oceanlens/enginewatch/pkg/errors"
	"github.com/oceanlens/enginewatch/pkg/frame"
)

// Reference is the labeled evaluation dataset: numeric feature rows plus a
// boolean anomaly flag derived from a free-text annotation column.
type Reference struct {
	Frame   *frame.Frame
	Anomaly []bool
}

// LoadReference parses the labeled CSV export. Headers are renamed through
// the provided mapping into the internal channel naming scheme; the anomaly
// column is any non-empty annotation. Numeric parsing failures become
// missing markers, never errors.
func LoadReference(r io.Reader, renames map[string]string, anomalyColumn string) (*Reference, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, errors.NewError().
			WithCode(errors.CodeInvalidData).
			WithMessage("failed to read reference header").
			WithError(err)
	}
	anomalyIdx := -1
	columns := make([]string, 0, len(headers))
	colIdx := make([]int, 0, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if renamed, ok := renames[h]; ok {
			h = renamed
		}
		if h == anomalyColumn {
			anomalyIdx = i
			continue
		}
		columns = append(columns, h)
		colIdx = append(colIdx, i)
	}
	if anomalyIdx < 0 {
		return nil, errors.NewError().
			WithCode(errors.CodeSchemaMismatch).
			WithMessagef("anomaly column %q not found in reference header", anomalyColumn)
	}

	ref := &Reference{Frame: frame.New(columns)}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		values := make([]float64, len(columns))
		for j, idx := range colIdx {
			cell := ""
			if idx < len(record) {
				cell = record[idx]
			}
			values[j] = parseNumeric(cell)
		}
		label := false
		if anomalyIdx < len(record) {
			label = strings.TrimSpace(record[anomalyIdx]) != ""
		}
		ref.Frame.AppendRow(timeZero, values)
		ref.Anomaly = append(ref.Anomaly, label)
	}
	return ref, nil
}
