// Package scale provides the [0,1] min-max normalization shared by training
// and evaluation, and the seeded train/validation split. The fitted scaler
// is a first-class artifact: evaluation must reuse the training-time
// parameters for reconstruction errors to be comparable.
package scale

import (
	"math/rand"

	"github.com/oceanlens/enginewatch/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MinMaxScaler maps each column linearly onto [0,1] using the minimum and
// maximum observed at fit time. Gob-serializable.
type MinMaxScaler struct {
	Columns []string
	Min     []float64
	Max     []float64
}

// Fit learns per-column minima and maxima.
func Fit(x *mat.Dense, columns []string) *MinMaxScaler {
	rows, cols := x.Dims()
	s := &MinMaxScaler{
		Columns: append([]string{}, columns...),
		Min:     make([]float64, cols),
		Max:     make([]float64, cols),
	}
	for j := 0; j < cols; j++ {
		min, max := x.At(0, j), x.At(0, j)
		for i := 1; i < rows; i++ {
			v := x.At(i, j)
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		s.Min[j] = min
		s.Max[j] = max
	}
	return s
}

// Transform scales a matrix with the fitted parameters. Constant columns
// map to 0, mirroring a zero-span guard.
func (s *MinMaxScaler) Transform(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != len(s.Min) {
		return nil, errors.NewError().
			WithCode(errors.CodeSchemaMismatch).
			WithMessagef("scaler fitted on %d columns, got %d", len(s.Min), cols)
	}
	out := mat.NewDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		span := s.Max[j] - s.Min[j]
		for i := 0; i < rows; i++ {
			v := x.At(i, j) - s.Min[j]
			if span > 0 {
				v /= span
			} else {
				v = 0
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// InverseTransform maps scaled values back to the original units.
func (s *MinMaxScaler) InverseTransform(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != len(s.Min) {
		return nil, errors.NewError().
			WithCode(errors.CodeSchemaMismatch).
			WithMessagef("scaler fitted on %d columns, got %d", len(s.Min), cols)
	}
	out := mat.NewDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		span := s.Max[j] - s.Min[j]
		for i := 0; i < rows; i++ {
			out.Set(i, j, x.At(i, j)*span+s.Min[j])
		}
	}
	return out, nil
}

// Split shuffles rows with the given seed and divides them into train and
// validation matrices by trainFraction. Not stratified.
func Split(x *mat.Dense, trainFraction float64, seed int64) (train, valid *mat.Dense) {
	rows, cols := x.Dims()
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(rows)
	nTrain := int(float64(rows) * trainFraction)
	if nTrain < 1 {
		nTrain = 1
	}
	if nTrain >= rows {
		nTrain = rows - 1
	}

	train = mat.NewDense(nTrain, cols, nil)
	valid = mat.NewDense(rows-nTrain, cols, nil)
	for i, src := range perm {
		row := mat.Row(nil, src, x)
		if i < nTrain {
			train.SetRow(i, row)
		} else {
			valid.SetRow(i-nTrain, row)
		}
	}
	return train, valid
}
