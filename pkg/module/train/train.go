// Package train defines the reconstruction model contract and the default
// in-process implementation. Deep generative models plug in behind the
// Reconstructor interface; the pipeline treats training as a black box that
// yields per-epoch losses and a model able to regenerate its input.
package train

import (
	"context"

	"github.com/oceanlens/enginewatch/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Reconstructor is a trainable model that reproduces its input from a
// compressed representation. Reconstruction error against the input is the
// anomaly score used downstream.
type Reconstructor interface {
	Fit(ctx context.Context, train, valid *mat.Dense) (*FitReport, error)
	Reconstruct(x *mat.Dense) (*mat.Dense, error)
}

// FitReport carries the learning curves of a fit, one entry per step.
type FitReport struct {
	TrainLoss []float64 `json:"train_loss"`
	ValidLoss []float64 `json:"valid_loss"`
}

// LinearAutoencoder is the default Reconstructor: a latent linear model
// that projects scaled rows onto the leading principal directions of the
// training set and back. Gob-serializable.
type LinearAutoencoder struct {
	LatentDim  int
	InputDim   int
	Mean       []float64
	Components []float64 // InputDim x LatentDim, row-major
}

func NewLinearAutoencoder(latentDim int) *LinearAutoencoder {
	return &LinearAutoencoder{LatentDim: latentDim}
}

// Fit learns the latent subspace from the training matrix. The model is
// grown one latent direction at a time so the report reads as a learning
// curve: step k holds the losses of the k-dimensional model.
func (m *LinearAutoencoder) Fit(ctx context.Context, train, valid *mat.Dense) (*FitReport, error) {
	rows, cols := train.Dims()
	if rows < 2 {
		return nil, errors.NewError().
			WithCode(errors.CodeInvalidData).
			WithMessage("not enough rows to fit reconstruction model")
	}
	if m.LatentDim > cols {
		m.LatentDim = cols
	}
	m.InputDim = cols

	m.Mean = make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, train)
		sum := 0.0
		for _, v := range col {
			sum += v
		}
		m.Mean[j] = sum / float64(rows)
	}

	centered := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			centered.Set(i, j, train.At(i, j)-m.Mean[j])
		}
	}

	var svd mat.SVD
	if !svd.Factorize(centered, mat.SVDThin) {
		return nil, errors.NewError().
			WithCode(errors.CodeInternalError).
			WithMessage("SVD factorization failed during fit")
	}
	var v mat.Dense
	svd.VTo(&v)
	if rank := len(svd.Values(nil)); m.LatentDim > rank {
		m.LatentDim = rank
	}

	report := &FitReport{}
	for k := 1; k <= m.LatentDim; k++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		m.setComponents(&v, k)
		trainRecon, err := m.Reconstruct(train)
		if err != nil {
			return nil, err
		}
		report.TrainLoss = append(report.TrainLoss, meanSquaredError(train, trainRecon))
		if valid != nil {
			validRecon, err := m.Reconstruct(valid)
			if err != nil {
				return nil, err
			}
			report.ValidLoss = append(report.ValidLoss, meanSquaredError(valid, validRecon))
		}
	}
	return report, nil
}

func (m *LinearAutoencoder) setComponents(v *mat.Dense, k int) {
	rows, _ := v.Dims()
	m.Components = make([]float64, rows*k)
	for i := 0; i < rows; i++ {
		for j := 0; j < k; j++ {
			m.Components[i*k+j] = v.At(i, j)
		}
	}
}

func (m *LinearAutoencoder) componentMatrix() *mat.Dense {
	k := len(m.Components) / m.InputDim
	return mat.NewDense(m.InputDim, k, m.Components)
}

// Reconstruct maps rows into the latent space and back.
func (m *LinearAutoencoder) Reconstruct(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != m.InputDim || len(m.Components) == 0 {
		return nil, errors.NewError().
			WithCode(errors.CodeSchemaMismatch).
			WithMessagef("model fitted on %d columns, got %d", m.InputDim, cols)
	}
	comp := m.componentMatrix()

	centered := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			centered.Set(i, j, x.At(i, j)-m.Mean[j])
		}
	}
	var latent, restored mat.Dense
	latent.Mul(centered, comp)
	restored.Mul(&latent, comp.T())

	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, restored.At(i, j)+m.Mean[j])
		}
	}
	return out, nil
}

func meanSquaredError(a, b *mat.Dense) float64 {
	rows, cols := a.Dims()
	sum := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d := a.At(i, j) - b.At(i, j)
			sum += d * d
		}
	}
	return sum / float64(rows*cols)
}

// ReconstructionErrors computes the per-row reconstruction error between an
// input and its model output: mean squared when squared is true, mean
// absolute otherwise.
func ReconstructionErrors(x, recon *mat.Dense, squared bool) []float64 {
	rows, cols := x.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			d := x.At(i, j) - recon.At(i, j)
			if squared {
				sum += d * d
			} else {
				if d < 0 {
					d = -d
				}
				sum += d
			}
		}
		out[i] = sum / float64(cols)
	}
	return out
}
