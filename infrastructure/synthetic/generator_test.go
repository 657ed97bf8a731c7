package synthetic

import (
	"errors"
	"math"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/gavel-rubric/internal/domain"
)

func TestGenerate_Defaults(t *testing.T) {
	ds, err := Generate(DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, domain.ConditionControl, ds.Control.Condition)
	assert.Equal(t, domain.ConditionRubric, ds.Rubric.Condition)
	assert.Equal(t, "synthetic(seed=7)", ds.Control.Source)
	require.Len(t, ds.Control.Ratings, 48)
	require.Len(t, ds.Rubric.Ratings, 48)

	first := ds.Control.Ratings[0]
	assert.Equal(t, "P01", first.PromptID)
	assert.Equal(t, "R1", first.RaterID)

	last := ds.Rubric.Ratings[47]
	assert.Equal(t, "P12", last.PromptID)
	assert.Equal(t, "R4", last.RaterID)

	for _, r := range append(ds.Control.Ratings, ds.Rubric.Ratings...) {
		assert.GreaterOrEqual(t, r.Value, 1.0)
		assert.LessOrEqual(t, r.Value, 7.0)
		assert.Equal(t, math.Trunc(r.Value), r.Value, "ratings are whole numbers")
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := Generate(DefaultConfig())
	require.NoError(t, err)
	b, err := Generate(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	cfg := DefaultConfig()
	cfg.Seed = 8
	c, err := Generate(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.Control.Ratings, c.Control.Ratings)
}

func TestGenerate_PromptIDs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PromptIDs = []string{"q-a", "q-b"}
	cfg.Raters = 3

	ds, err := Generate(cfg)
	require.NoError(t, err)
	require.Len(t, ds.Control.Ratings, 6)
	assert.Equal(t, "q-b", ds.Control.Ratings[5].PromptID)
	assert.Equal(t, "R3", ds.Control.Ratings[5].RaterID)
}

func TestGenerate_Bias(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NPrompts = 200
	cfg.RubricBias = 1.5

	ds, err := Generate(cfg)
	require.NoError(t, err)

	mean := func(rs []domain.Rating) float64 {
		var sum float64
		for _, r := range rs {
			sum += r.Value
		}
		return sum / float64(len(rs))
	}
	assert.Greater(t, mean(ds.Rubric.Ratings), mean(ds.Control.Ratings)+1)
}

func TestGenerate_Clamping(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RubricBias = 100

	ds, err := Generate(cfg)
	require.NoError(t, err)
	for _, r := range ds.Rubric.Ratings {
		assert.Equal(t, 7.0, r.Value)
	}
}

func TestGenerate_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "no raters", mutate: func(c *Config) { c.Raters = 0 }},
		{name: "no prompts", mutate: func(c *Config) { c.NPrompts = 0 }},
		{name: "duplicate prompt ids", mutate: func(c *Config) { c.PromptIDs = []string{"a", "a"} }},
		{name: "empty prompt id", mutate: func(c *Config) { c.PromptIDs = []string{"a", ""} }},
		{name: "negative noise", mutate: func(c *Config) { c.Noise = -1 }},
		{name: "inverted base range", mutate: func(c *Config) { c.BaseMin, c.BaseMax = 5, 4 }},
		{name: "inverted scale", mutate: func(c *Config) { c.ScaleMin, c.ScaleMax = 7, 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			_, err := Generate(cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidConfiguration))
		})
	}
}

func TestPromptIDs(t *testing.T) {
	assert.Equal(t, []string{"P01", "P02", "P03"}, PromptIDs(3))
	assert.Equal(t, "P100", PromptIDs(100)[99])
	assert.Equal(t, "P001", PromptIDs(100)[0])
	assert.Empty(t, PromptIDs(0))
}

func TestRaterIDs(t *testing.T) {
	assert.Equal(t, []string{"R1", "R2", "R3", "R4"}, RaterIDs(4))
}

func TestGenerate_ScaleProperty(t *testing.T) {
	f := func(seed uint64, bias int8) bool {
		cfg := DefaultConfig()
		cfg.Seed = seed
		cfg.RubricBias = float64(bias) / 10
		ds, err := Generate(cfg)
		if err != nil {
			return false
		}
		for _, r := range ds.Rubric.Ratings {
			if r.Value < cfg.ScaleMin || r.Value > cfg.ScaleMax {
				return false
			}
		}
		return len(ds.Control.Ratings) == cfg.NPrompts*cfg.Raters
	}
	require.NoError(t, quick.Check(f, nil))
}
