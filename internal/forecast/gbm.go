package forecast

import (
	"math"
	"sort"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
)

// standardScaler centers and scales each feature column to zero mean and unit
// variance. Constant columns carry no signal and are mapped to zero instead of
// being perturbed, which keeps fits reproducible.
type standardScaler struct {
	means []float64
	stds  []float64
}

func fitScaler(X [][]float64) *standardScaler {
	cols := len(X[0])
	s := &standardScaler{
		means: make([]float64, cols),
		stds:  make([]float64, cols),
	}
	n := float64(len(X))
	for j := 0; j < cols; j++ {
		var sum float64
		for i := range X {
			sum += X[i][j]
		}
		mean := sum / n
		var ss float64
		for i := range X {
			d := X[i][j] - mean
			ss += d * d
		}
		s.means[j] = mean
		s.stds[j] = math.Sqrt(ss / n)
	}
	return s
}

func (s *standardScaler) transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range X {
		row := make([]float64, len(X[i]))
		for j := range X[i] {
			if s.stds[j] == 0 {
				row[j] = 0
				continue
			}
			row[j] = (X[i][j] - s.means[j]) / s.stds[j]
		}
		out[i] = row
	}
	return out
}

// treeNode is one node of a regression tree. Leaves predict the mean of the
// samples they cover.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

// regressionTree is a depth-limited CART regressor with exact greedy splits on
// squared-error reduction. Ties between candidate splits resolve to the first
// feature and lowest threshold seen, so a fit over the same data is always the
// same tree.
type regressionTree struct {
	maxDepth int
	root     *treeNode
}

func (t *regressionTree) fit(X [][]float64, y []float64) {
	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}
	t.root = t.build(X, y, idx, 0)
}

func (t *regressionTree) build(X [][]float64, y []float64, idx []int, depth int) *treeNode {
	mean := subsetMean(y, idx)
	if depth >= t.maxDepth || len(idx) < 2 {
		return &treeNode{leaf: true, value: mean}
	}

	feature, threshold, gain := bestSplit(X, y, idx)
	if gain <= 0 {
		return &treeNode{leaf: true, value: mean}
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      t.build(X, y, leftIdx, depth+1),
		right:     t.build(X, y, rightIdx, depth+1),
	}
}

// bestSplit scans every feature and every midpoint between distinct adjacent
// values, returning the split with the largest squared-error reduction.
func bestSplit(X [][]float64, y []float64, idx []int) (feature int, threshold, gain float64) {
	total := subsetSSE(y, idx)
	feature = -1

	order := make([]int, len(idx))
	for j := 0; j < len(X[idx[0]]); j++ {
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool {
			return X[order[a]][j] < X[order[b]][j]
		})

		var leftSum, leftSq float64
		rightSum, rightSq := subsetSums(y, order)
		for k := 0; k < len(order)-1; k++ {
			v := y[order[k]]
			leftSum += v
			leftSq += v * v
			rightSum -= v
			rightSq -= v * v

			cur, next := X[order[k]][j], X[order[k+1]][j]
			if cur == next {
				continue
			}
			nl, nr := float64(k+1), float64(len(order)-k-1)
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if g := total - sse; g > gain {
				feature = j
				threshold = (cur + next) / 2
				gain = g
			}
		}
	}
	return feature, threshold, gain
}

func (t *regressionTree) predict(row []float64) float64 {
	node := t.root
	for !node.leaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

func subsetMean(y []float64, idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

func subsetSSE(y []float64, idx []int) float64 {
	sum, sq := subsetSums(y, idx)
	return sq - sum*sum/float64(len(idx))
}

func subsetSums(y []float64, idx []int) (sum, sq float64) {
	for _, i := range idx {
		sum += y[i]
		sq += y[i] * y[i]
	}
	return sum, sq
}

// GBM is a gradient-boosted ensemble of regression trees for squared-error
// loss: a constant initial prediction plus LearningRate-scaled residual trees.
// The fit is fully deterministic, so a model retrained on the same series
// reproduces its predictions exactly.
type GBM struct {
	Estimators   int
	LearningRate float64
	MaxDepth     int

	init   float64
	trees  []*regressionTree
	scaler *standardScaler
}

// NewGBM returns a model with the given boosting parameters.
func NewGBM(estimators int, learningRate float64, maxDepth int) *GBM {
	return &GBM{Estimators: estimators, LearningRate: learningRate, MaxDepth: maxDepth}
}

// Fit trains the ensemble on the feature matrix X and targets y. Features are
// standardized internally; callers pass raw engineered values.
func (m *GBM) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return domain.ErrEmptySeries
	}
	m.scaler = fitScaler(X)
	scaled := m.scaler.transform(X)

	var sum float64
	for _, v := range y {
		sum += v
	}
	m.init = sum / float64(len(y))

	residuals := make([]float64, len(y))
	current := make([]float64, len(y))
	for i := range current {
		current[i] = m.init
	}

	m.trees = make([]*regressionTree, 0, m.Estimators)
	for t := 0; t < m.Estimators; t++ {
		for i := range y {
			residuals[i] = y[i] - current[i]
		}
		tree := &regressionTree{maxDepth: m.MaxDepth}
		tree.fit(scaled, residuals)
		m.trees = append(m.trees, tree)
		for i := range current {
			current[i] += m.LearningRate * tree.predict(scaled[i])
		}
	}
	return nil
}

// Predict returns one prediction per row of X.
func (m *GBM) Predict(X [][]float64) []float64 {
	scaled := m.scaler.transform(X)
	out := make([]float64, len(X))
	for i, row := range scaled {
		p := m.init
		for _, tree := range m.trees {
			p += m.LearningRate * tree.predict(row)
		}
		out[i] = p
	}
	return out
}
