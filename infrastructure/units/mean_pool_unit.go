package units

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/gavel-rubric/internal/ports"
)

var _ ports.Aggregator = (*MeanPoolUnit)(nil)

// MeanPoolUnit aggregates the ratings of one prompt by their arithmetic mean.
// Unlike the median it uses every rating, so it is more sensitive to a
// single outlying rater.
type MeanPoolUnit struct {
	name   string
	config MeanPoolConfig
}

// MeanPoolConfig defines the configuration parameters for the MeanPoolUnit.
type MeanPoolConfig struct {
	// MinRatings is the smallest number of ratings an item must have.
	MinRatings int `yaml:"min_ratings" json:"min_ratings" validate:"min=1"`

	// Scale bounds the accepted rating values.
	Scale Scale `yaml:"scale" json:"scale"`
}

// NewMeanPoolUnit creates a new MeanPoolUnit with validated configuration.
func NewMeanPoolUnit(name string, config MeanPoolConfig) (*MeanPoolUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &MeanPoolUnit{name: name, config: config}, nil
}

// Name returns the unique identifier for this unit instance.
func (u *MeanPoolUnit) Name() string { return u.name }

// Aggregate returns the arithmetic mean of values.
func (u *MeanPoolUnit) Aggregate(values []float64) (float64, error) {
	if err := checkScores(values, u.config.MinRatings, u.config.Scale); err != nil {
		return 0, err
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return 0, fmt.Errorf("mean: %w", err)
	}
	return mean, nil
}

// Validate checks if the unit is properly configured.
func (u *MeanPoolUnit) Validate() error {
	if err := validate.Struct(u.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration into the unit's
// configuration. Fields absent from params keep their default values.
func (u *MeanPoolUnit) UnmarshalParameters(params yaml.Node) error {
	config := DefaultMeanPoolConfig()
	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	u.config = config
	return nil
}

// DefaultMeanPoolConfig returns the default MeanPoolConfig.
func DefaultMeanPoolConfig() MeanPoolConfig {
	return MeanPoolConfig{MinRatings: 1}
}

// NewMeanPoolFromConfig creates a MeanPoolUnit from a configuration map.
func NewMeanPoolFromConfig(id string, config map[string]any) (ports.Aggregator, error) {
	cfg := DefaultMeanPoolConfig()
	if err := decodeParams(config, &cfg); err != nil {
		return nil, err
	}
	return NewMeanPoolUnit(id, cfg)
}
