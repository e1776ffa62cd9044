package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/oceanlens/enginewatch/pkg/module/scale"
	"github.com/oceanlens/enginewatch/pkg/module/train"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSaveLoadScaler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scaler.gob.gz")

	in := &scale.MinMaxScaler{
		Columns: []string{"a", "b"},
		Min:     []float64{0, 10},
		Max:     []float64{10, 30},
	}
	require.NoError(t, Save(path, in))

	out := &scale.MinMaxScaler{}
	require.NoError(t, Load(path, out))
	assert.Equal(t, in, out)
}

func TestSaveLoadModel(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{
		-3, -3,
		-1, -1,
		1, 1,
		3, 3,
	})
	m := train.NewLinearAutoencoder(1)
	_, err := m.Fit(context.Background(), x, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.gob.gz")
	require.NoError(t, Save(path, m))

	loaded := &train.LinearAutoencoder{}
	require.NoError(t, Load(path, loaded))
	assert.Equal(t, m.InputDim, loaded.InputDim)
	assert.Equal(t, m.Components, loaded.Components)

	recon, err := loaded.Reconstruct(x)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(x, recon, 1e-9), "reload preserves the fitted subspace")
}

func TestLoadMissingFile(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "absent.gob.gz"), &scale.MinMaxScaler{})
	assert.Error(t, err)
}

func TestLoadRejectsPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.gob.gz")
	require.NoError(t, Save(path, &scale.MinMaxScaler{Columns: []string{"a"}}))

	// Clobber the gzip header with raw bytes.
	require.NoError(t, os.WriteFile(path, []byte("not a gzip stream"), 0o644))
	err := Load(path, &scale.MinMaxScaler{})
	assert.Error(t, err)
}
