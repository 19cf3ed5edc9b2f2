package regression

import (
	"math/rand"
	"sort"
)

// node is one entry of a flattened regression tree. Leaves have left == -1.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
}

// Tree is a CART regression tree grown on squared error.
type Tree struct {
	nodes []node
}

type treeBuilder struct {
	x      [][]float64
	y      []float64
	params Params
	rng    *rand.Rand
	nodes  []node
}

func growTree(x [][]float64, y []float64, idx []int, params Params, rng *rand.Rand) *Tree {
	b := &treeBuilder{x: x, y: y, params: params, rng: rng}
	b.build(idx, 0)
	return &Tree{nodes: b.nodes}
}

func (b *treeBuilder) build(idx []int, depth int) int {
	pos := len(b.nodes)
	b.nodes = append(b.nodes, node{left: -1, right: -1, value: b.mean(idx)})

	if b.params.MaxDepth > 0 && depth >= b.params.MaxDepth {
		return pos
	}
	if len(idx) < 2*b.params.MinLeaf || len(idx) < 2 {
		return pos
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return pos
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	left := b.build(leftIdx, depth+1)
	right := b.build(rightIdx, depth+1)
	b.nodes[pos].feature = feature
	b.nodes[pos].threshold = threshold
	b.nodes[pos].left = left
	b.nodes[pos].right = right
	return pos
}

func (b *treeBuilder) mean(idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += b.y[i]
	}
	return sum / float64(len(idx))
}

// bestSplit scans every candidate threshold (midpoints between distinct
// sorted values) of the sampled features and keeps the one with the lowest
// summed squared error of the two children.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	var totalSum, totalSq float64
	for _, i := range idx {
		totalSum += b.y[i]
		totalSq += b.y[i] * b.y[i]
	}
	parentSSE := totalSq - totalSum*totalSum/float64(n)
	if parentSSE <= 1e-12 {
		return 0, 0, false
	}

	bestFeature, bestThreshold := -1, 0.0
	bestSSE := parentSSE
	sorted := make([]int, n)

	for _, f := range b.features() {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool { return b.x[sorted[a]][f] < b.x[sorted[c]][f] })

		var leftSum, leftSq float64
		for k := 0; k < n-1; k++ {
			yk := b.y[sorted[k]]
			leftSum += yk
			leftSq += yk * yk

			nl := k + 1
			nr := n - nl
			if nl < b.params.MinLeaf || nr < b.params.MinLeaf {
				continue
			}
			cur, next := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if cur == next {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			if sse < bestSSE-1e-12 {
				bestSSE = sse
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func (b *treeBuilder) features() []int {
	n := len(b.x[0])
	k := b.params.MaxFeatures
	if k <= 0 || k >= n {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return b.rng.Perm(n)[:k]
}

// Predict walks the tree for one feature vector.
func (t *Tree) Predict(x []float64) float64 {
	pos := 0
	for {
		n := t.nodes[pos]
		if n.left < 0 {
			return n.value
		}
		if x[n.feature] <= n.threshold {
			pos = n.left
		} else {
			pos = n.right
		}
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(pos int) int
	walk = func(pos int) int {
		n := t.nodes[pos]
		if n.left < 0 {
			return 0
		}
		return 1 + max(walk(n.left), walk(n.right))
	}
	return walk(0)
}
