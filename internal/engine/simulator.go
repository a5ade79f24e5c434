package engine

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"optionfill/internal/errors"
)

// PathMatrix holds simulated option price trajectories. Each row is one
// independent path; column 0 is the starting price, columns 1..Days are the
// simulated daily prices. The matrix is owned by the simulation call that
// produced it and is discarded after reduction.
type PathMatrix struct {
	Days   int
	Prices [][]float64
}

// TerminalPrices returns the final-day price of every path.
func (m *PathMatrix) TerminalPrices() []float64 {
	out := make([]float64, len(m.Prices))
	for i, row := range m.Prices {
		out[i] = row[len(row)-1]
	}
	return out
}

// Simulator is the Monte Carlo price path engine. Paths are partitioned
// into disjoint row ranges, one per worker, each worker driving its own
// random stream. Workers never share mutable state; the caller joins on
// completion and the concatenated matrix is statistically equivalent
// regardless of worker count.
type Simulator struct {
	workers int
}

// NewSimulator creates a simulator with the given worker count.
func NewSimulator(workers int) *Simulator {
	if workers < 1 {
		workers = 1
	}
	return &Simulator{workers: workers}
}

// Simulate generates the path matrix for the given parameters. The seed
// makes runs reproducible; worker w derives its stream from seed+w so the
// partitioning does not change the statistics.
func (s *Simulator) Simulate(ctx context.Context, p Parameters, seed int64) (*PathMatrix, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewSimulationError("simulate", "context cancelled before start", err)
	}

	matrix := &PathMatrix{
		Days:   p.DaysToExpiry,
		Prices: make([][]float64, p.Paths),
	}

	workers := s.workers
	if workers > p.Paths {
		workers = p.Paths
	}
	chunk := p.Paths / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if w == workers-1 {
			end = p.Paths // last worker absorbs the remainder
		}

		wg.Add(1)
		go func(worker, start, end int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed + int64(worker)))
			for i := start; i < end; i++ {
				matrix.Prices[i] = simulatePath(p, rng)
			}
		}(w, start, end)
	}
	wg.Wait()

	return matrix, nil
}

// simulatePath generates one option price trajectory. The underlying
// follows zero-drift geometric Brownian motion; the option price moves by
// a second-order Greeks expansion and is floored at zero.
func simulatePath(p Parameters, rng *rand.Rand) []float64 {
	row := make([]float64, p.DaysToExpiry+1)
	row[0] = p.OptionPrice

	spot := p.SpotPrice
	option := p.OptionPrice
	sigma := p.EffectiveVol
	drift := -0.5 * sigma * sigma * dayFraction
	diffusion := sigma * math.Sqrt(dayFraction)

	for day := 1; day <= p.DaysToExpiry; day++ {
		z := rng.NormFloat64()
		newSpot := spot * math.Exp(drift+diffusion*z)
		dS := newSpot - spot

		// Theta is quoted per day and each step is one day.
		option += p.Delta*dS + 0.5*p.Gamma*dS*dS + p.Theta
		if option < 0 {
			option = 0
		}

		row[day] = option
		spot = newSpot
	}

	return row
}
