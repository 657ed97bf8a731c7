// Package synthetic generates seeded rating tables with a controlled
// advantage for the rubric condition. The output exercises the full
// evaluation pipeline without collecting human ratings.
package synthetic

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/gavel-rubric/internal/domain"
)

var validate = validator.New()

// Config controls the shape and randomness of a synthetic dataset.
type Config struct {
	// Seed makes generation deterministic.
	Seed uint64 `yaml:"seed"`

	// PromptIDs lists the prompts to rate. When empty, NPrompts ids of the
	// form P01, P02, ... are used.
	PromptIDs []string `yaml:"prompt_ids" validate:"omitempty,unique,dive,required"`

	// NPrompts is the number of generated prompt ids.
	NPrompts int `yaml:"n_prompts" validate:"gte=0"`

	// Raters is the number of raters, named R1..Rn.
	Raters int `yaml:"raters" validate:"min=1"`

	// RubricBias is added to every rubric rating before noise.
	RubricBias float64 `yaml:"rubric_bias"`

	// BaseMin and BaseMax bound the per-prompt base score.
	BaseMin float64 `yaml:"base_min"`
	BaseMax float64 `yaml:"base_max" validate:"gtefield=BaseMin"`

	// Noise is the standard deviation of per-rating noise.
	Noise float64 `yaml:"noise" validate:"gte=0"`

	// ScaleMin and ScaleMax clamp the final integer ratings.
	ScaleMin float64 `yaml:"scale_min"`
	ScaleMax float64 `yaml:"scale_max" validate:"gtefield=ScaleMin"`
}

// DefaultConfig returns the configuration of the reference dataset: twelve
// prompts, four raters, a 0.4 point rubric advantage on a 1-7 scale.
func DefaultConfig() Config {
	return Config{
		Seed:       7,
		NPrompts:   12,
		Raters:     4,
		RubricBias: 0.4,
		BaseMin:    3.6,
		BaseMax:    5.4,
		Noise:      0.7,
		ScaleMin:   1,
		ScaleMax:   7,
	}
}

// Dataset is a generated pair of rating tables.
type Dataset struct {
	Control domain.ConditionRatings
	Rubric  domain.ConditionRatings
}

// Generate produces control and rubric ratings for every prompt and rater.
// Each condition draws its own per-prompt base score uniformly from
// [BaseMin, BaseMax); every rating is base + bias + N(0, Noise), rounded
// half to even and clamped to the scale. Control is generated before
// rubric from a single random stream, so the result depends only on cfg.
func Generate(cfg Config) (Dataset, error) {
	if err := validate.Struct(cfg); err != nil {
		return Dataset{}, domain.WrapValidationError("synthetic config", domain.ErrInvalidConfiguration, err.Error())
	}

	prompts := cfg.PromptIDs
	if len(prompts) == 0 {
		if cfg.NPrompts < 1 {
			return Dataset{}, domain.WrapValidationError("synthetic config", domain.ErrInvalidConfiguration,
				"either prompt ids or a positive prompt count is required")
		}
		prompts = PromptIDs(cfg.NPrompts)
	}
	raters := RaterIDs(cfg.Raters)

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	gen := func(cond domain.Condition, bias float64) domain.ConditionRatings {
		out := domain.ConditionRatings{
			Condition: cond,
			Source:    fmt.Sprintf("synthetic(seed=%d)", cfg.Seed),
			Ratings:   make([]domain.Rating, 0, len(prompts)*len(raters)),
		}
		for _, p := range prompts {
			base := cfg.BaseMin + rng.Float64()*(cfg.BaseMax-cfg.BaseMin)
			for _, r := range raters {
				v := base + bias + rng.NormFloat64()*cfg.Noise
				v = min(cfg.ScaleMax, max(cfg.ScaleMin, math.RoundToEven(v)))
				out.Ratings = append(out.Ratings, domain.Rating{PromptID: p, RaterID: r, Value: v})
			}
		}
		return out
	}

	return Dataset{
		Control: gen(domain.ConditionControl, 0),
		Rubric:  gen(domain.ConditionRubric, cfg.RubricBias),
	}, nil
}

// PromptIDs returns n zero-padded prompt ids: P01..P09, P10, ... The
// padding width grows with n so ids sort lexically.
func PromptIDs(n int) []string {
	width := max(2, len(fmt.Sprint(n)))
	ids := make([]string, n)
	for i := range n {
		ids[i] = fmt.Sprintf("P%0*d", width, i+1)
	}
	return ids
}

// RaterIDs returns R1..Rn.
func RaterIDs(n int) []string {
	ids := make([]string, n)
	for i := range n {
		ids[i] = fmt.Sprintf("R%d", i+1)
	}
	return ids
}
