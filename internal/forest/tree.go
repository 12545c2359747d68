package forest

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Node is a single node of a regression tree. Internal nodes route rows by a
// numeric threshold (x <= Threshold goes left); leaves predict the mean target
// of their training rows. Fields are exported for gob.
type Node struct {
	Leaf      bool
	Feature   int
	Threshold float64
	Value     float64
	N         int
	Left      *Node
	Right     *Node
}

// Tree is a CART-style regression tree grown by variance reduction.
type Tree struct {
	MaxDepth        int // 0 means no depth limit
	MinSamplesSplit int
	Root            *Node
}

// fit grows the tree on the rows named by idx. Indices may repeat, which is
// how bootstrap samples are expressed.
func (t *Tree) fit(X [][]float64, y []float64, idx []int) {
	t.Root = t.build(X, y, idx, 0)
}

func (t *Tree) build(X [][]float64, y []float64, idx []int, depth int) *Node {
	node := &Node{N: len(idx)}

	sub := make([]float64, len(idx))
	for i, ii := range idx {
		sub[i] = y[ii]
	}
	node.Value = stat.Mean(sub, nil)

	if len(idx) < t.MinSamplesSplit || (t.MaxDepth > 0 && depth >= t.MaxDepth) || isConstant(sub) {
		node.Leaf = true
		return node
	}

	feature, threshold, left, right, ok := bestSplit(X, y, idx)
	if !ok {
		node.Leaf = true
		return node
	}

	node.Feature = feature
	node.Threshold = threshold
	node.Left = t.build(X, y, left, depth+1)
	node.Right = t.build(X, y, right, depth+1)
	return node
}

// bestSplit scans every feature for the threshold with the largest reduction
// in summed squared error, using running prefix sums over the sorted column.
func bestSplit(X [][]float64, y []float64, idx []int) (feature int, threshold float64, left, right []int, ok bool) {
	n := len(idx)
	p := len(X[idx[0]])

	var total, totalSq float64
	for _, ii := range idx {
		total += y[ii]
		totalSq += y[ii] * y[ii]
	}
	parentSSE := totalSq - total*total/float64(n)

	bestGain := 0.0
	bestFeature := -1
	var bestThreshold float64
	var bestSplitAt int
	order := make([]int, n)

	sorted := make([]int, n)
	for f := 0; f < p; f++ {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool { return X[sorted[a]][f] < X[sorted[b]][f] })

		var leftSum, leftSq float64
		for s := 1; s < n; s++ {
			yi := y[sorted[s-1]]
			leftSum += yi
			leftSq += yi * yi

			if X[sorted[s]][f] == X[sorted[s-1]][f] {
				continue
			}

			leftSSE := leftSq - leftSum*leftSum/float64(s)
			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			rightSSE := rightSq - rightSum*rightSum/float64(n-s)

			gain := parentSSE - leftSSE - rightSSE
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (X[sorted[s-1]][f] + X[sorted[s]][f]) / 2
				bestSplitAt = s
				copy(order, sorted)
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, nil, nil, false
	}
	left = append([]int(nil), order[:bestSplitAt]...)
	right = append([]int(nil), order[bestSplitAt:]...)
	return bestFeature, bestThreshold, left, right, true
}

func (t *Tree) predict(x []float64) float64 {
	node := t.Root
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

func isConstant(xs []float64) bool {
	for _, v := range xs[1:] {
		if v != xs[0] {
			return false
		}
	}
	return true
}
