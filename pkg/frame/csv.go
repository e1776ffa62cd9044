package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/oceanlens/enginewatch/pkg/errors"
)

// Timestamp layouts accepted by the DAS export and the reference workbook.
var timeLayouts = []string{
	"2006/01/02 15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseCSV reads a CSV stream into a Frame. The timeColumn becomes the time
// index; every other column is coerced to float64 and any cell that fails
// numeric parsing becomes NaN. Rows with an unparseable timestamp are
// skipped, never fatal.
func ParseCSV(r io.Reader, timeColumn string) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, errors.NewError().
			WithCode(errors.CodeInvalidData).
			WithMessage("failed to read CSV header").
			WithError(err)
	}
	timeIdx := -1
	columns := make([]string, 0, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		headers[i] = h
		if h == timeColumn {
			timeIdx = i
			continue
		}
		columns = append(columns, h)
	}
	if timeIdx < 0 {
		return nil, errors.NewError().
			WithCode(errors.CodeSchemaMismatch).
			WithMessagef("time column %q not found in CSV header", timeColumn)
	}

	out := New(columns)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // malformed row
		}
		if timeIdx >= len(record) {
			continue
		}
		t, ok := parseTime(record[timeIdx])
		if !ok {
			continue
		}
		values := make([]float64, 0, len(columns))
		for i, cell := range record {
			if i == timeIdx {
				continue
			}
			values = append(values, parseCell(cell))
		}
		out.AppendRow(t, values)
	}
	return out, nil
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseCell(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// WriteCSV writes the frame with the time index as the first column.
// Missing values are written as empty cells.
func (f *Frame) WriteCSV(w io.Writer, timeColumn string) error {
	writer := csv.NewWriter(w)
	header := append([]string{timeColumn}, f.order...)
	if err := writer.Write(header); err != nil {
		return err
	}
	for i := range f.times {
		record := make([]string, 0, len(header))
		record = append(record, f.times[i].Format("2006/01/02 15:04:05"))
		for _, c := range f.order {
			v := f.cols[c][i]
			if math.IsNaN(v) {
				record = append(record, "")
			} else {
				record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func rowKey(t time.Time, values []float64) string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatInt(t.UnixNano(), 10))
	for _, v := range values {
		sb.WriteByte('|')
		if math.IsNaN(v) {
			sb.WriteString("nan")
		} else {
			sb.WriteString(fmt.Sprintf("%g", v))
		}
	}
	return sb.String()
}
