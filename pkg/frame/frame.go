package frame

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/oceanlens/enginewatch/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Frame is a time-indexed table of named numeric channels. Missing values
// are NaN. Columns keep a stable order; all columns have the same length as
// the time index.
type Frame struct {
	times []time.Time
	order []string
	cols  map[string][]float64
}

func New(columns []string) *Frame {
	f := &Frame{
		order: append([]string{}, columns...),
		cols:  make(map[string][]float64, len(columns)),
	}
	for _, c := range columns {
		f.cols[c] = []float64{}
	}
	return f
}

func (f *Frame) Len() int {
	return len(f.times)
}

func (f *Frame) Columns() []string {
	return append([]string{}, f.order...)
}

func (f *Frame) HasColumn(name string) bool {
	_, ok := f.cols[name]
	return ok
}

func (f *Frame) Times() []time.Time {
	return f.times
}

func (f *Frame) Time(i int) time.Time {
	return f.times[i]
}

// Col returns the backing slice of a column; callers must not resize it.
func (f *Frame) Col(name string) []float64 {
	return f.cols[name]
}

func (f *Frame) Value(name string, i int) float64 {
	col, ok := f.cols[name]
	if !ok {
		return math.NaN()
	}
	return col[i]
}

// AppendRow appends one row; values must follow the frame's column order.
func (f *Frame) AppendRow(t time.Time, values []float64) {
	f.times = append(f.times, t)
	for i, c := range f.order {
		v := math.NaN()
		if i < len(values) {
			v = values[i]
		}
		f.cols[c] = append(f.cols[c], v)
	}
}

// Row returns one row's values in column order.
func (f *Frame) Row(i int) []float64 {
	out := make([]float64, len(f.order))
	for j, c := range f.order {
		out[j] = f.cols[c][i]
	}
	return out
}

func (f *Frame) Clone() *Frame {
	out := &Frame{
		times: append([]time.Time{}, f.times...),
		order: append([]string{}, f.order...),
		cols:  make(map[string][]float64, len(f.order)),
	}
	for _, c := range f.order {
		out.cols[c] = append([]float64{}, f.cols[c]...)
	}
	return out
}

// Select returns a new frame restricted to the given columns, in the given
// order. Every requested column must exist.
func (f *Frame) Select(columns []string) (*Frame, error) {
	out := &Frame{
		times: append([]time.Time{}, f.times...),
		order: append([]string{}, columns...),
		cols:  make(map[string][]float64, len(columns)),
	}
	for _, c := range columns {
		col, ok := f.cols[c]
		if !ok {
			return nil, errors.NewError().
				WithCode(errors.CodeSchemaMismatch).
				WithMessagef("column %q not present in frame", c)
		}
		out.cols[c] = append([]float64{}, col...)
	}
	return out, nil
}

// Rename renames columns in place using the given old->new mapping. Names
// without a mapping entry are kept.
func (f *Frame) Rename(mapping map[string]string) {
	for i, c := range f.order {
		if n, ok := mapping[c]; ok && n != c {
			f.order[i] = n
			f.cols[n] = f.cols[c]
			delete(f.cols, c)
		}
	}
}

// Drop removes the given columns if present.
func (f *Frame) Drop(columns ...string) {
	for _, c := range columns {
		if _, ok := f.cols[c]; !ok {
			continue
		}
		delete(f.cols, c)
		for i, o := range f.order {
			if o == c {
				f.order = append(f.order[:i], f.order[i+1:]...)
				break
			}
		}
	}
}

// Filter returns the rows for which keep is true.
func (f *Frame) Filter(keep []bool) *Frame {
	out := New(f.order)
	for i := range f.times {
		if i < len(keep) && keep[i] {
			out.AppendRow(f.times[i], f.Row(i))
		}
	}
	return out
}

// SortByTime sorts rows ascending by timestamp, stably.
func (f *Frame) SortByTime() {
	idx := make([]int, len(f.times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return f.times[idx[a]].Before(f.times[idx[b]])
	})
	f.reorder(idx)
}

func (f *Frame) reorder(idx []int) {
	times := make([]time.Time, len(idx))
	for i, j := range idx {
		times[i] = f.times[j]
	}
	f.times = times
	for _, c := range f.order {
		col := f.cols[c]
		next := make([]float64, len(idx))
		for i, j := range idx {
			next[i] = col[j]
		}
		f.cols[c] = next
	}
}

// DropDuplicates removes rows identical in timestamp and every value.
// NaN compares equal to NaN here, so fully-missing duplicates collapse too.
func (f *Frame) DropDuplicates() *Frame {
	seen := make(map[string]bool, len(f.times))
	keep := make([]bool, len(f.times))
	for i := range f.times {
		key := rowKey(f.times[i], f.Row(i))
		if !seen[key] {
			seen[key] = true
			keep[i] = true
		}
	}
	return f.Filter(keep)
}

// DropAllMissing removes rows where every subset column is NaN. An empty
// subset means all columns.
func (f *Frame) DropAllMissing(subset []string) *Frame {
	if len(subset) == 0 {
		subset = f.order
	}
	keep := make([]bool, len(f.times))
	for i := range f.times {
		for _, c := range subset {
			if !math.IsNaN(f.Value(c, i)) {
				keep[i] = true
				break
			}
		}
	}
	return f.Filter(keep)
}

// DropAnyMissing removes rows where any subset column is NaN. An empty
// subset means all columns.
func (f *Frame) DropAnyMissing(subset []string) *Frame {
	if len(subset) == 0 {
		subset = f.order
	}
	keep := make([]bool, len(f.times))
	for i := range f.times {
		keep[i] = true
		for _, c := range subset {
			if math.IsNaN(f.Value(c, i)) {
				keep[i] = false
				break
			}
		}
	}
	return f.Filter(keep)
}

// Concat appends other's rows; both frames must share the same column set.
func (f *Frame) Concat(other *Frame) (*Frame, error) {
	if len(f.order) != len(other.order) {
		return nil, errors.NewError().
			WithCode(errors.CodeSchemaMismatch).
			WithMessage("cannot concat frames with different column sets")
	}
	for _, c := range f.order {
		if !other.HasColumn(c) {
			return nil, errors.NewError().
				WithCode(errors.CodeSchemaMismatch).
				WithMessagef("cannot concat: column %q missing from other frame", c)
		}
	}
	out := f.Clone()
	for i := range other.times {
		row := make([]float64, len(out.order))
		for j, c := range out.order {
			row[j] = other.Value(c, i)
		}
		out.AppendRow(other.times[i], row)
	}
	return out, nil
}

// Sample returns n rows drawn without replacement using the given seed.
// If n exceeds the row count the whole frame is returned.
func (f *Frame) Sample(n int, seed int64) *Frame {
	if n >= f.Len() {
		return f.Clone()
	}
	rng := rand.New(rand.NewSource(seed))
	idx := rng.Perm(f.Len())[:n]
	sort.Ints(idx)
	keep := make([]bool, f.Len())
	for _, i := range idx {
		keep[i] = true
	}
	return f.Filter(keep)
}

// Matrix exports the given columns as a dense row-major matrix.
func (f *Frame) Matrix(columns []string) (*mat.Dense, error) {
	if len(columns) == 0 {
		columns = f.order
	}
	if f.Len() == 0 {
		return nil, errors.NewError().
			WithCode(errors.CodeInvalidData).
			WithMessage("cannot build matrix from empty frame")
	}
	m := mat.NewDense(f.Len(), len(columns), nil)
	for j, c := range columns {
		col, ok := f.cols[c]
		if !ok {
			return nil, errors.NewError().
				WithCode(errors.CodeSchemaMismatch).
				WithMessagef("column %q not present in frame", c)
		}
		for i, v := range col {
			m.Set(i, j, v)
		}
	}
	return m, nil
}

// FromMatrix builds a frame from a dense matrix and parallel time index.
// times may be nil, in which case a zero index is used.
func FromMatrix(times []time.Time, columns []string, m *mat.Dense) *Frame {
	rows, _ := m.Dims()
	out := New(columns)
	for i := 0; i < rows; i++ {
		t := time.Time{}
		if times != nil {
			t = times[i]
		}
		out.AppendRow(t, mat.Row(nil, i, m))
	}
	return out
}
