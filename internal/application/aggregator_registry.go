package application

import (
	"fmt"
	"slices"
	"sync"

	"github.com/ahrav/gavel-rubric/infrastructure/units"
	"github.com/ahrav/gavel-rubric/internal/ports"
)

// Built-in aggregation method names.
const (
	MethodMedian = "median"
	MethodMean   = "mean"
)

// Verify interface compliance at compile time.
var _ ports.AggregatorRegistry = (*AggregatorRegistry)(nil)

// AggregatorRegistry maps aggregation method names to factories that build
// per-prompt aggregators. It is safe for concurrent use.
type AggregatorRegistry struct {
	// factories maps method names to their factory functions.
	factories map[string]ports.AggregatorFactory
	// mu protects concurrent access to the factories map.
	mu sync.RWMutex
}

// NewAggregatorRegistry creates a registry with the median and mean
// aggregation methods pre-registered.
func NewAggregatorRegistry() *AggregatorRegistry {
	r := &AggregatorRegistry{factories: make(map[string]ports.AggregatorFactory)}
	r.registerBuiltinFactories()
	return r
}

func (r *AggregatorRegistry) registerBuiltinFactories() {
	r.factories[MethodMedian] = units.NewMedianPoolFromConfig
	r.factories[MethodMean] = units.NewMeanPoolFromConfig
}

// Create builds the aggregator registered under method. The id names the
// resulting instance; it defaults to method when empty.
func (r *AggregatorRegistry) Create(method, id string, params map[string]any) (ports.Aggregator, error) {
	r.mu.RLock()
	factory, exists := r.factories[method]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported aggregation method: %s", method)
	}
	if id == "" {
		id = method
	}

	agg, err := factory(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create aggregator %s of method %s: %w", id, method, err)
	}
	return agg, nil
}

// Register adds or replaces the factory for method, which allows
// extending the registry with custom aggregation strategies.
func (r *AggregatorRegistry) Register(method string, factory ports.AggregatorFactory) error {
	if method == "" {
		return fmt.Errorf("aggregation method cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory function cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[method] = factory
	return nil
}

// Has reports whether method is registered.
func (r *AggregatorRegistry) Has(method string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[method]
	return ok
}

// SupportedMethods returns the registered method names in sorted order.
func (r *AggregatorRegistry) SupportedMethods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	methods := make([]string, 0, len(r.factories))
	for m := range r.factories {
		methods = append(methods, m)
	}
	slices.Sort(methods)
	return methods
}
