// Package units provides per-item aggregation units that implement the
// ports.Aggregator interface. An aggregation unit reduces the ratings that
// several raters gave one prompt into a single representative score.
package units

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Common errors returned by aggregation units.
var (
	// ErrNoScores is returned when no ratings are provided for aggregation.
	ErrNoScores = errors.New("no scores provided for aggregation")

	// ErrEmptyUnitName is returned when attempting to create a unit with an empty name.
	ErrEmptyUnitName = errors.New("unit name cannot be empty")

	// ErrInvalidScore is returned when a rating is NaN or infinite.
	ErrInvalidScore = errors.New("invalid score")

	// ErrOutOfScale is returned when a rating falls outside the configured
	// rating scale.
	ErrOutOfScale = errors.New("score outside rating scale")

	// ErrTooFewRatings is returned when an item has fewer ratings than the
	// configured minimum.
	ErrTooFewRatings = errors.New("too few ratings for item")
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// Scale describes the inclusive bounds of a rating scale. A zero Scale
// disables the bounds check.
type Scale struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max" validate:"gtefield=Min"`
}

// contains reports whether v lies inside the scale. The zero Scale
// contains every value.
func (s Scale) contains(v float64) bool {
	if s == (Scale{}) {
		return true
	}
	return v >= s.Min && v <= s.Max
}

// checkScores validates the ratings of a single item before aggregation.
func checkScores(values []float64, minRatings int, scale Scale) error {
	if len(values) == 0 {
		return ErrNoScores
	}
	if len(values) < minRatings {
		return fmt.Errorf("%w: got %d, need %d", ErrTooFewRatings, len(values), minRatings)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w at index %d: %f", ErrInvalidScore, i, v)
		}
		if !scale.contains(v) {
			return fmt.Errorf("%w at index %d: %g not in [%g, %g]", ErrOutOfScale, i, v, scale.Min, scale.Max)
		}
	}
	return nil
}

// decodeParams overlays a generic parameter map onto dst, which should
// already hold the defaults.
func decodeParams(params map[string]any, dst any) error {
	if len(params) == 0 {
		return nil
	}
	data, err := yaml.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
