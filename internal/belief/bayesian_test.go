package belief

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/ghostswarm/internal/comms"
)

const (
	white = 0
	black = 1
)

func newTestBayesian(t *testing.T, positiveFeedback bool) *Bayesian {
	t.Helper()
	b, err := NewBayesian(BayesianParams{Prior: 1, PosteriorThreshold: 0.99, PositiveFeedback: positiveFeedback}, white)
	require.NoError(t, err)
	return b
}

func TestNewBayesian_Validation(t *testing.T) {
	tests := []struct {
		name   string
		params BayesianParams
		errMsg string
	}{
		{"negative prior", BayesianParams{Prior: -1, PosteriorThreshold: 0.99}, "prior must be non-negative"},
		{"threshold zero", BayesianParams{Prior: 1, PosteriorThreshold: 0}, "posterior threshold must be in (0,1)"},
		{"threshold one", BayesianParams{Prior: 1, PosteriorThreshold: 1}, "posterior threshold must be in (0,1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBayesian(tt.params, white)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	b, err := NewBayesian(BayesianParams{Prior: 0, PosteriorThreshold: 0.5}, white)
	require.NoError(t, err)
	assert.Equal(t, Undecided, b.Decision())
}

func TestBayesian_Update(t *testing.T) {
	t.Run("success increments alpha", func(t *testing.T) {
		b := newTestBayesian(t, false)
		b.Observe(true)
		alpha, beta := b.Params()
		assert.Equal(t, 2.0, alpha)
		assert.Equal(t, 1.0, beta)
		last, ok := b.LastObservation()
		assert.True(t, ok)
		assert.Equal(t, 1, last)
	})

	t.Run("failure increments beta", func(t *testing.T) {
		b := newTestBayesian(t, false)
		b.Observe(false)
		alpha, beta := b.Params()
		assert.Equal(t, 1.0, alpha)
		assert.Equal(t, 2.0, beta)
		last, _ := b.LastObservation()
		assert.Equal(t, 0, last)
	})

	t.Run("ten successes decide true", func(t *testing.T) {
		b := newTestBayesian(t, false)
		for i := 0; i < 10; i++ {
			b.Observe(true)
		}
		assert.Equal(t, True, b.Decision())
	})

	t.Run("ten failures decide false", func(t *testing.T) {
		b := newTestBayesian(t, false)
		for i := 0; i < 10; i++ {
			b.Observe(false)
		}
		assert.Equal(t, False, b.Decision())
	})

	t.Run("decision is sticky", func(t *testing.T) {
		b := newTestBayesian(t, false)
		for i := 0; i < 10; i++ {
			b.Observe(true)
		}
		require.Equal(t, True, b.Decision())
		for i := 0; i < 100; i++ {
			b.Observe(false)
		}
		assert.Equal(t, True, b.Decision())
	})

	t.Run("alpha plus beta grows by one per sample and never drops below prior", func(t *testing.T) {
		b := newTestBayesian(t, false)
		seq := []bool{true, false, false, true, true, false, true}
		for i, s := range seq {
			b.Observe(s)
			alpha, beta := b.Params()
			assert.Equal(t, 2.0+float64(i+1), alpha+beta)
			assert.GreaterOrEqual(t, alpha, b.Prior())
			assert.GreaterOrEqual(t, beta, b.Prior())
		}
	})
}

func TestBayesian_Reset(t *testing.T) {
	b := newTestBayesian(t, false)
	for i := 0; i < 10; i++ {
		b.Observe(false)
	}
	require.Equal(t, False, b.Decision())

	b.Reset(black)
	alpha, beta := b.Params()
	assert.Equal(t, Undecided, b.Decision())
	assert.Equal(t, b.Prior(), alpha)
	assert.Equal(t, b.Prior(), beta)
	assert.Equal(t, black, b.Hypothesis())
	_, ok := b.LastObservation()
	assert.False(t, ok)

	// A reset model behaves exactly like a fresh one.
	fresh := newTestBayesian(t, false)
	fresh.Reset(black)
	for i := 0; i < 10; i++ {
		b.Observe(true)
		fresh.Observe(true)
	}
	assert.Equal(t, True, b.Decision())
	assert.Equal(t, fresh.Decision(), b.Decision())
}

func TestBayesian_ZeroPrior(t *testing.T) {
	b, err := NewBayesian(BayesianParams{Prior: 0, PosteriorThreshold: 0.999999}, white)
	require.NoError(t, err)

	for i := 0; i < 30; i++ {
		b.Observe(true)
	}
	assert.Equal(t, Undecided, b.Decision(), "no posterior while beta is still zero")

	b.Observe(false)
	assert.Equal(t, True, b.Decision(), "Beta(30,1) puts almost no mass below one half")

	b, err = NewBayesian(BayesianParams{Prior: 0, PosteriorThreshold: 0.99}, white)
	require.NoError(t, err)
	b.Observe(false)
	assert.Equal(t, Undecided, b.Decision())
	alpha, beta := b.Params()
	assert.Equal(t, 0.0, alpha)
	assert.Equal(t, 1.0, beta)
}

func TestThresholdDecision(t *testing.T) {
	assert.Equal(t, Undecided, thresholdDecision(0.5, 0.5), "equality must not decide")
	assert.Equal(t, Undecided, thresholdDecision(0.25, 0.75), "1-p == threshold must not decide")
	assert.Equal(t, False, thresholdDecision(0.995, 0.99))
	assert.Equal(t, True, thresholdDecision(0.005, 0.99))
	assert.Equal(t, Undecided, thresholdDecision(0.3, 0.99))
}

func TestMassBelowHalf(t *testing.T) {
	p, ok := massBelowHalf(1, 1)
	require.True(t, ok)
	assert.InDelta(t, 0.5, p, 1e-12)

	p, ok = massBelowHalf(11, 1)
	require.True(t, ok)
	assert.InDelta(t, 1.0/2048, p, 1e-9)

	for _, shape := range [][2]float64{{0, 0}, {1, 0}, {0, 1}, {5, 0}} {
		_, ok = massBelowHalf(shape[0], shape[1])
		assert.False(t, ok, "Beta(%v,%v)", shape[0], shape[1])
	}
}

func TestBayesian_Fuse(t *testing.T) {
	t.Run("duplicate message counts once", func(t *testing.T) {
		b := newTestBayesian(t, false)
		msg := comms.Message{From: 3, To: 0, Round: 5, Payload: comms.Observation(1)}

		b.Fuse(msg)
		b.Fuse(msg)

		alpha, beta := b.Params()
		assert.Equal(t, 3.0, alpha+beta)
	})

	t.Run("changed value at a later round counts again", func(t *testing.T) {
		b := newTestBayesian(t, false)
		b.Fuse(comms.Message{From: 3, Round: 5, Payload: comms.Observation(1)})
		b.Fuse(comms.Message{From: 3, Round: 6, Payload: comms.Observation(0)})

		alpha, beta := b.Params()
		assert.Equal(t, 2.0, alpha)
		assert.Equal(t, 2.0, beta)
	})

	t.Run("belief payloads are ignored", func(t *testing.T) {
		b := newTestBayesian(t, false)
		b.Fuse(comms.Message{From: 3, Round: 5, Payload: comms.Belief(40, 2)})
		alpha, beta := b.Params()
		assert.Equal(t, 2.0, alpha+beta)
	})

	t.Run("fused evidence does not trigger the stopping rule", func(t *testing.T) {
		b := newTestBayesian(t, false)
		for round := 0; round < 20; round++ {
			b.Fuse(comms.Message{From: 1, Round: round, Payload: comms.Observation(1)})
		}
		assert.Equal(t, Undecided, b.Decision())

		b.Observe(true)
		assert.Equal(t, True, b.Decision())
	})
}

func TestBayesian_Publish(t *testing.T) {
	t.Run("nothing before the first sample", func(t *testing.T) {
		b := newTestBayesian(t, true)
		_, ok := b.Publish()
		assert.False(t, ok)
	})

	t.Run("undecided agents publish the last observation", func(t *testing.T) {
		b := newTestBayesian(t, true)
		b.Observe(false)
		p, ok := b.Publish()
		require.True(t, ok)
		assert.Equal(t, comms.Observation(0), p)
	})

	t.Run("positive feedback publishes the decision", func(t *testing.T) {
		b := newTestBayesian(t, true)
		for i := 0; i < 10; i++ {
			b.Observe(true)
		}
		b.Observe(false)
		require.Equal(t, True, b.Decision())

		p, ok := b.Publish()
		require.True(t, ok)
		assert.Equal(t, comms.Observation(1), p)
	})

	t.Run("without positive feedback decided agents keep publishing raw samples", func(t *testing.T) {
		b := newTestBayesian(t, false)
		for i := 0; i < 10; i++ {
			b.Observe(true)
		}
		b.Observe(false)
		require.Equal(t, True, b.Decision())

		p, ok := b.Publish()
		require.True(t, ok)
		assert.Equal(t, comms.Observation(0), p)
	})
}
