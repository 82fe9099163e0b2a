package model

import (
	"fmt"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// Bagged is a bootstrap ensemble of ridge regressors. Predictions are the
// ensemble mean and the uncertainty is the spread between members, which
// makes it usable by exploration-aware scorers.
type Bagged struct {
	Members int
	Lambda  float64
	Seed    int64

	mu      sync.RWMutex
	members []*Ridge
}

// DefaultMembers is the ensemble size used when none is configured.
const DefaultMembers = 10

// NewBagged returns an ensemble of the given size. A size <= 0 selects
// DefaultMembers; a single member is raised to two so the spread is defined.
func NewBagged(members int, lambda float64, seed int64) *Bagged {
	switch {
	case members <= 0:
		members = DefaultMembers
	case members == 1:
		members = 2
	}
	return &Bagged{Members: members, Lambda: lambda, Seed: seed}
}

// Train fits every member on a bootstrap resample of the samples.
func (b *Bagged) Train(inputs [][]float64, responses []float64) error {
	if _, err := checkShape(inputs, responses, true); err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(b.Seed))
	n := len(inputs)
	members := make([]*Ridge, b.Members)
	for m := range members {
		xs := make([][]float64, n)
		ys := make([]float64, n)
		for i := 0; i < n; i++ {
			k := rng.Intn(n)
			xs[i] = inputs[k]
			ys[i] = responses[k]
		}
		r := NewRidge(b.Lambda)
		if err := r.Train(xs, ys); err != nil {
			return fmt.Errorf("bagged member %d: %w", m, err)
		}
		members[m] = r
	}
	b.mu.Lock()
	b.members = members
	b.mu.Unlock()
	return nil
}

// Predict implements Model.
func (b *Bagged) Predict(inputs [][]float64) ([]float64, error) {
	mean, _, err := b.moments(inputs)
	return mean, err
}

// Uncertainty implements Model.
func (b *Bagged) Uncertainty(inputs [][]float64) ([]float64, error) {
	_, std, err := b.moments(inputs)
	return std, err
}

// Validate implements Model.
func (b *Bagged) Validate(inputs [][]float64, responses []float64) (float64, error) {
	return validate(b, inputs, responses)
}

func (b *Bagged) moments(inputs [][]float64) ([]float64, []float64, error) {
	b.mu.RLock()
	members := b.members
	b.mu.RUnlock()
	if len(members) == 0 {
		return nil, nil, ErrNotTrained
	}
	preds := make([][]float64, len(members))
	for m, r := range members {
		p, err := r.Predict(inputs)
		if err != nil {
			return nil, nil, err
		}
		preds[m] = p
	}
	mean := make([]float64, len(inputs))
	std := make([]float64, len(inputs))
	col := make([]float64, len(members))
	for i := range inputs {
		for m := range members {
			col[m] = preds[m][i]
		}
		mean[i], std[i] = stat.MeanStdDev(col, nil)
	}
	return mean, std, nil
}
