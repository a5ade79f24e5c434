package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optionfill/internal/errors"
)

func testParams() Parameters {
	return Parameters{
		OptionPrice:  2.50,
		SpotPrice:    182.30,
		Strike:       185,
		DaysToExpiry: 15,
		Delta:        -0.42,
		Gamma:        0.03,
		Theta:        -0.08,
		Vega:         0.11,
		EffectiveVol: 0.34,
		RiskFreeRate: 0.05,
		Paths:        2000,
	}
}

func TestSimulateMatrixShape(t *testing.T) {
	sim := NewSimulator(4)
	p := testParams()

	matrix, err := sim.Simulate(context.Background(), p, 1)
	require.NoError(t, err)

	assert.Equal(t, p.DaysToExpiry, matrix.Days)
	assert.Len(t, matrix.Prices, p.Paths)
	for _, row := range matrix.Prices {
		assert.Len(t, row, p.DaysToExpiry+1)
		assert.Equal(t, p.OptionPrice, row[0])
	}
}

func TestSimulateReproducibleWithSeed(t *testing.T) {
	sim := NewSimulator(4)
	p := testParams()

	m1, err := sim.Simulate(context.Background(), p, 7)
	require.NoError(t, err)
	m2, err := sim.Simulate(context.Background(), p, 7)
	require.NoError(t, err)

	assert.Equal(t, m1.Prices, m2.Prices)
}

func TestSimulatePricesNeverNegative(t *testing.T) {
	sim := NewSimulator(4)
	p := testParams()
	p.DaysToExpiry = 60 // long enough for theta to drag prices to the floor

	matrix, err := sim.Simulate(context.Background(), p, 3)
	require.NoError(t, err)

	for _, row := range matrix.Prices {
		for _, price := range row {
			assert.GreaterOrEqual(t, price, 0.0)
		}
	}
}

func TestSimulateNearZeroVolIsDeterministic(t *testing.T) {
	sim := NewSimulator(4)
	p := testParams()
	p.EffectiveVol = minVolatility

	matrix, err := sim.Simulate(context.Background(), p, 11)
	require.NoError(t, err)

	// Without diffusion the option only decays by theta.
	assert.Less(t, stdDev(matrix.TerminalPrices()), 0.01)

	expected := p.OptionPrice + float64(p.DaysToExpiry)*p.Theta
	assert.InDelta(t, expected, matrix.Prices[0][p.DaysToExpiry], 0.05)
}

func TestSimulateSingleWorkerMatchesShape(t *testing.T) {
	p := testParams()
	p.Paths = 101 // not divisible by worker count

	for _, workers := range []int{1, 3, 8} {
		matrix, err := NewSimulator(workers).Simulate(context.Background(), p, 5)
		require.NoError(t, err)
		assert.Len(t, matrix.Prices, p.Paths)
		for _, row := range matrix.Prices {
			require.NotNil(t, row)
		}
	}
}

func TestSimulateRejectsInvalidParameters(t *testing.T) {
	sim := NewSimulator(4)

	cases := []struct {
		name   string
		mutate func(*Parameters)
	}{
		{"zero days", func(p *Parameters) { p.DaysToExpiry = 0 }},
		{"negative days", func(p *Parameters) { p.DaysToExpiry = -5 }},
		{"zero vol", func(p *Parameters) { p.EffectiveVol = 0 }},
		{"zero paths", func(p *Parameters) { p.Paths = 0 }},
		{"zero price", func(p *Parameters) { p.OptionPrice = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := testParams()
			tc.mutate(&p)

			_, err := sim.Simulate(context.Background(), p, 1)
			require.Error(t, err)

			var verr *errors.ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestSimulateCancelledContext(t *testing.T) {
	sim := NewSimulator(4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Simulate(ctx, testParams(), 1)
	assert.Error(t, err)
}
