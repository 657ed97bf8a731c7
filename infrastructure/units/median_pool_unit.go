package units

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/gavel-rubric/internal/ports"
)

var _ ports.Aggregator = (*MedianPoolUnit)(nil)

// MedianPoolUnit aggregates the ratings of one prompt by taking their
// median. With an even number of ratings the median is the mean of the two
// middle values.
//
// The median is the default per-prompt aggregation because a single
// lenient or harsh rater cannot move it far.
//
// Concurrency: the unit holds no mutable state after construction and is
// safe for concurrent use. UnmarshalParameters is the exception.
//
// Example:
//
//	unit, err := NewMedianPoolUnit("median", DefaultMedianPoolConfig())
//	score, err := unit.Aggregate([]float64{4, 6, 5, 5})
type MedianPoolUnit struct {
	name   string
	config MedianPoolConfig
}

// MedianPoolConfig defines the configuration parameters for the MedianPoolUnit.
type MedianPoolConfig struct {
	// MinRatings is the smallest number of ratings an item must have to be
	// aggregated. Default: 1.
	MinRatings int `yaml:"min_ratings" json:"min_ratings" validate:"min=1"`

	// Scale bounds the accepted rating values. The zero value accepts
	// any finite rating.
	Scale Scale `yaml:"scale" json:"scale"`
}

// NewMedianPoolUnit creates a new MedianPoolUnit with the specified configuration.
// It returns ErrEmptyUnitName for an empty name and a wrapped validator error
// when config fails validation.
func NewMedianPoolUnit(name string, config MedianPoolConfig) (*MedianPoolUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &MedianPoolUnit{
		name:   name,
		config: config,
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (mpu *MedianPoolUnit) Name() string { return mpu.name }

// Aggregate returns the median of values. values is not modified.
//
// Error Conditions:
//   - ErrNoScores: empty input
//   - ErrTooFewRatings: fewer than MinRatings values
//   - ErrInvalidScore: NaN or Inf value
//   - ErrOutOfScale: value outside the configured scale
func (mpu *MedianPoolUnit) Aggregate(values []float64) (float64, error) {
	if err := checkScores(values, mpu.config.MinRatings, mpu.config.Scale); err != nil {
		return 0, err
	}
	median, err := stats.Median(values)
	if err != nil {
		return 0, fmt.Errorf("median: %w", err)
	}
	return median, nil
}

// Validate checks if the unit is properly configured.
func (mpu *MedianPoolUnit) Validate() error {
	if err := validate.Struct(mpu.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration parameters and
// replaces the unit's configuration.
//
// Example YAML:
//
//	min_ratings: 3
//	scale:
//	  min: 1
//	  max: 7
//
// This method is NOT safe for concurrent use with Aggregate.
func (mpu *MedianPoolUnit) UnmarshalParameters(params yaml.Node) error {
	config := DefaultMedianPoolConfig()
	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	mpu.config = config
	return nil
}

// DefaultMedianPoolConfig returns a MedianPoolConfig that accepts a single
// rating per item on any scale.
func DefaultMedianPoolConfig() MedianPoolConfig {
	return MedianPoolConfig{MinRatings: 1}
}

// NewMedianPoolFromConfig creates a MedianPoolUnit from a configuration map.
// This is the boundary adapter for YAML/JSON configuration.
func NewMedianPoolFromConfig(id string, config map[string]any) (ports.Aggregator, error) {
	cfg := DefaultMedianPoolConfig()
	if err := decodeParams(config, &cfg); err != nil {
		return nil, err
	}
	return NewMedianPoolUnit(id, cfg)
}
