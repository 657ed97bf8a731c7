package application

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/gavel-rubric/infrastructure/units"
	"github.com/ahrav/gavel-rubric/internal/ports"
)

// constantAggregator implements ports.Aggregator for custom registration tests.
type constantAggregator struct {
	name  string
	value float64
}

func (c constantAggregator) Name() string { return c.name }

func (c constantAggregator) Aggregate(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, units.ErrNoScores
	}
	return c.value, nil
}

func TestAggregatorRegistry_Builtins(t *testing.T) {
	reg := NewAggregatorRegistry()
	assert.Equal(t, []string{MethodMean, MethodMedian}, reg.SupportedMethods())

	tests := []struct {
		method   string
		values   []float64
		expected float64
	}{
		{method: MethodMedian, values: []float64{1, 5, 6}, expected: 5},
		{method: MethodMean, values: []float64{1, 5, 6}, expected: 4},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			agg, err := reg.Create(tt.method, "", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.method, agg.Name(), "id defaults to the method name")

			got, err := agg.Aggregate(tt.values)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestAggregatorRegistry_Create_Errors(t *testing.T) {
	reg := NewAggregatorRegistry()

	_, err := reg.Create("trimmed", "x", nil)
	assert.EqualError(t, err, "unsupported aggregation method: trimmed")

	_, err = reg.Create(MethodMedian, "per_prompt", map[string]any{"min_ratings": 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create aggregator per_prompt of method median")
}

func TestAggregatorRegistry_Register(t *testing.T) {
	reg := NewAggregatorRegistry()

	require.NoError(t, reg.Register("constant", func(id string, _ map[string]any) (ports.Aggregator, error) {
		return constantAggregator{name: id, value: 4}, nil
	}))
	assert.True(t, reg.Has("constant"))

	agg, err := reg.Create("constant", "c1", nil)
	require.NoError(t, err)
	assert.Equal(t, "c1", agg.Name())

	assert.Error(t, reg.Register("", func(string, map[string]any) (ports.Aggregator, error) { return nil, nil }))
	assert.Error(t, reg.Register("nil", nil))

	failing := errors.New("boom")
	require.NoError(t, reg.Register("broken", func(string, map[string]any) (ports.Aggregator, error) {
		return nil, failing
	}))
	_, err = reg.Create("broken", "b", nil)
	assert.ErrorIs(t, err, failing)
}

func TestAggregatorRegistry_Concurrent(t *testing.T) {
	reg := NewAggregatorRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = reg.Register(fmt.Sprintf("custom_%d", i), func(id string, _ map[string]any) (ports.Aggregator, error) {
				return constantAggregator{name: id}, nil
			})
		}(i)
		go func() {
			defer wg.Done()
			_, err := reg.Create(MethodMedian, "", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, reg.SupportedMethods(), 22)
}
