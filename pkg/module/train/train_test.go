package train

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// rankTwo builds rows of the form a*(1,0,1) + b*(0,1,2), a zero-mean
// two-dimensional subspace of R^3.
func rankTwo() *mat.Dense {
	coeffs := [][2]float64{{-3, 1}, {-1, -1}, {1, 1}, {3, -1}, {2, 2}, {-2, -2}}
	x := mat.NewDense(len(coeffs), 3, nil)
	for i, c := range coeffs {
		x.Set(i, 0, c[0])
		x.Set(i, 1, c[1])
		x.Set(i, 2, c[0]+2*c[1])
	}
	return x
}

func TestFitRecoversSubspace(t *testing.T) {
	m := NewLinearAutoencoder(2)
	report, err := m.Fit(context.Background(), rankTwo(), nil)
	require.NoError(t, err)

	require.Len(t, report.TrainLoss, 2)
	assert.GreaterOrEqual(t, report.TrainLoss[0], report.TrainLoss[1],
		"adding a latent direction never hurts the training loss")
	assert.InDelta(t, 0.0, report.TrainLoss[1], 1e-18,
		"two latent directions reproduce rank-two data exactly")

	recon, err := m.Reconstruct(rankTwo())
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(rankTwo(), recon, 1e-9))
}

func TestFitReportsValidationLoss(t *testing.T) {
	m := NewLinearAutoencoder(2)
	valid := mat.NewDense(2, 3, []float64{
		4, 0, 4,
		0, 3, 6,
	})
	report, err := m.Fit(context.Background(), rankTwo(), valid)
	require.NoError(t, err)

	require.Len(t, report.ValidLoss, 2)
	assert.InDelta(t, 0.0, report.ValidLoss[1], 1e-18,
		"validation rows from the same subspace reconstruct exactly")
}

func TestFitClampsLatentDim(t *testing.T) {
	m := NewLinearAutoencoder(10)
	report, err := m.Fit(context.Background(), rankTwo(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, m.LatentDim, "latent width cannot exceed the input width")
	assert.Len(t, report.TrainLoss, 3)
}

func TestFitTooFewRows(t *testing.T) {
	m := NewLinearAutoencoder(2)
	_, err := m.Fit(context.Background(), mat.NewDense(1, 3, []float64{1, 2, 3}), nil)
	assert.Error(t, err)
}

func TestFitHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewLinearAutoencoder(2)
	_, err := m.Fit(ctx, rankTwo(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReconstructRequiresFit(t *testing.T) {
	m := NewLinearAutoencoder(2)
	_, err := m.Reconstruct(rankTwo())
	assert.Error(t, err)
}

func TestReconstructDimensionMismatch(t *testing.T) {
	m := NewLinearAutoencoder(2)
	_, err := m.Fit(context.Background(), rankTwo(), nil)
	require.NoError(t, err)

	_, err = m.Reconstruct(mat.NewDense(1, 2, []float64{1, 2}))
	assert.Error(t, err)
}

func TestReconstructionErrors(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{0, 0, 1, 1})
	recon := mat.NewDense(2, 2, []float64{1, -1, 1, 3})

	mae := ReconstructionErrors(x, recon, false)
	assert.Equal(t, []float64{1, 1}, mae)

	mse := ReconstructionErrors(x, recon, true)
	assert.Equal(t, []float64{1, 2}, mse)
}
