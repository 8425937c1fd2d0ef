package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainingData() ([][]float64, []float64) {
	X := [][]float64{
		{0, 1, 0, 10, 10},
		{1, 1, 0, 11, 10},
		{2, 1, 0, 12, 11},
		{3, 1, 0, 11, 11},
		{4, 1, 0, 13, 12},
		{5, 1, 1, 18, 13},
		{6, 1, 1, 19, 14},
		{0, 2, 0, 12, 12},
		{1, 2, 0, 11, 12},
		{5, 2, 1, 20, 15},
	}
	y := []float64{10, 11, 12, 11, 13, 18, 19, 12, 11, 20}
	return X, y
}

func TestGBMFitEmptyInput(t *testing.T) {
	m := NewGBM(10, 0.1, 3)
	assert.Error(t, m.Fit(nil, nil))
	assert.Error(t, m.Fit([][]float64{{1}}, []float64{1, 2}))
}

func TestGBMConstantTargetPredictsMean(t *testing.T) {
	X := [][]float64{{0, 1}, {1, 1}, {2, 1}, {3, 1}}
	y := []float64{7, 7, 7, 7}

	m := NewGBM(100, 0.1, 3)
	require.NoError(t, m.Fit(X, y))

	preds := m.Predict(X)
	for _, p := range preds {
		assert.InDelta(t, 7.0, p, 1e-9)
	}
}

func TestGBMDeterministicFit(t *testing.T) {
	X, y := trainingData()

	a := NewGBM(100, 0.1, 3)
	b := NewGBM(100, 0.1, 3)
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	predsA := a.Predict(X)
	predsB := b.Predict(X)
	assert.Equal(t, predsA, predsB)
}

func TestGBMReducesTrainingError(t *testing.T) {
	X, y := trainingData()

	m := NewGBM(100, 0.1, 3)
	require.NoError(t, m.Fit(X, y))

	var mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var sseModel, sseMean float64
	for i, p := range m.Predict(X) {
		sseModel += (p - y[i]) * (p - y[i])
		sseMean += (mean - y[i]) * (mean - y[i])
	}
	assert.Less(t, sseModel, sseMean)
}

func TestScalerConstantColumnMapsToZero(t *testing.T) {
	X := [][]float64{{1, 5}, {2, 5}, {3, 5}}
	s := fitScaler(X)
	scaled := s.transform(X)
	for _, row := range scaled {
		assert.Equal(t, 0.0, row[1])
	}
	// Non-constant columns are standardized, not zeroed.
	assert.NotEqual(t, scaled[0][0], scaled[2][0])
}

func TestRegressionTreeSplitsOnBestFeature(t *testing.T) {
	// Only the first feature separates the targets.
	X := [][]float64{{0, 1}, {0, 1}, {1, 1}, {1, 1}}
	y := []float64{2, 2, 8, 8}

	tree := &regressionTree{maxDepth: 3}
	tree.fit(X, y)

	assert.InDelta(t, 2.0, tree.predict([]float64{0, 1}), 1e-9)
	assert.InDelta(t, 8.0, tree.predict([]float64{1, 1}), 1e-9)
}

func TestRegressionTreeDepthLimit(t *testing.T) {
	tree := &regressionTree{maxDepth: 0}
	tree.fit([][]float64{{0}, {1}}, []float64{0, 10})
	// Depth 0 forces a single leaf at the target mean.
	assert.InDelta(t, 5.0, tree.predict([]float64{0}), 1e-9)
	assert.InDelta(t, 5.0, tree.predict([]float64{1}), 1e-9)
}
