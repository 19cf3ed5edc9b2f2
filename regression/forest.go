// Package regression holds the seeded random-forest regressor behind the
// weekly sales forecast.
package regression

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	ErrNoSamples  = errors.New("regression: no training samples")
	ErrNotFitted  = errors.New("regression: model is not fitted")
	ErrDimensions = errors.New("regression: feature dimension mismatch")
)

// Params configures the forest. Zero MaxDepth grows trees until leaves are
// pure or hold MinLeaf samples; zero MaxFeatures considers every feature at
// every split.
type Params struct {
	Trees       int
	Seed        int64
	MaxDepth    int
	MinLeaf     int
	MaxFeatures int
}

// RandomForest averages bootstrap-trained CART regression trees. Training
// with the same Params and data always yields the same model.
type RandomForest struct {
	params    Params
	trees     []*Tree
	nFeatures int
}

func NewRandomForest(params Params) *RandomForest {
	if params.Trees <= 0 {
		params.Trees = 100
	}
	if params.MinLeaf <= 0 {
		params.MinLeaf = 1
	}
	return &RandomForest{params: params}
}

// Fit trains the forest on rows x and targets y.
func (f *RandomForest) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 {
		return ErrNoSamples
	}
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d rows, %d targets", ErrDimensions, len(x), len(y))
	}
	nFeatures := len(x[0])
	if nFeatures == 0 {
		return fmt.Errorf("%w: rows have no features", ErrDimensions)
	}
	for i, row := range x {
		if len(row) != nFeatures {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrDimensions, i, len(row), nFeatures)
		}
	}

	rng := rand.New(rand.NewSource(f.params.Seed))
	n := len(x)
	trees := make([]*Tree, 0, f.params.Trees)
	for t := 0; t < f.params.Trees; t++ {
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		trees = append(trees, growTree(x, y, sample, f.params, rng))
	}

	f.trees = trees
	f.nFeatures = nFeatures
	return nil
}

// Predict returns the mean of the trees' predictions for x.
func (f *RandomForest) Predict(x []float64) (float64, error) {
	if len(f.trees) == 0 {
		return 0, ErrNotFitted
	}
	if len(x) != f.nFeatures {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrDimensions, len(x), f.nFeatures)
	}
	var sum float64
	for _, t := range f.trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.trees)), nil
}

// Trees returns the number of fitted trees.
func (f *RandomForest) Trees() int { return len(f.trees) }
