package application

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/gavel-rubric/internal/domain"
)

// ratingsExtensions lists the table formats the ratings loaders understand.
var ratingsExtensions = []string{".csv", ".tsv", ".tab", ".xlsx"}

// ValidateConfig checks cfg with struct tag rules and the custom
// ratingsfile and aggregation validators. Failures are collected into a
// single *domain.ValidationError.
func ValidateConfig(cfg Config, registry *AggregatorRegistry) error {
	if registry == nil {
		registry = NewAggregatorRegistry()
	}

	v := validator.New()
	if err := RegisterConfigValidators(v, registry); err != nil {
		return err
	}

	err := v.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.WrapValidationError("Config", err)
	}

	vErr := domain.NewValidationError("Config")
	vErr.Err = domain.ErrInvalidConfiguration
	for _, fe := range verrs {
		vErr.AddError(describeFieldError(fe, registry))
	}
	return vErr
}

// RegisterConfigValidators registers the custom validation functions used
// in Config struct tags.
func RegisterConfigValidators(v *validator.Validate, registry *AggregatorRegistry) error {
	if err := v.RegisterValidation("ratingsfile", validateRatingsFile); err != nil {
		return fmt.Errorf("failed to register ratingsfile validator: %w", err)
	}

	aggregation := func(fl validator.FieldLevel) bool {
		return registry.Has(fl.Field().String())
	}
	if err := v.RegisterValidation("aggregation", aggregation); err != nil {
		return fmt.Errorf("failed to register aggregation validator: %w", err)
	}
	return nil
}

// validateRatingsFile accepts paths whose extension is a supported table
// format. It does not check that the file exists.
func validateRatingsFile(fl validator.FieldLevel) bool {
	ext := strings.ToLower(filepath.Ext(fl.Field().String()))
	return slices.Contains(ratingsExtensions, ext)
}

// describeFieldError renders a validator field error as a short message.
func describeFieldError(fe validator.FieldError, registry *AggregatorRegistry) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "ratingsfile":
		return fmt.Sprintf("%s %q must end in one of %s", field, fe.Value(), strings.Join(ratingsExtensions, ", "))
	case "aggregation":
		return fmt.Sprintf("%s %q is not one of %s", field, fe.Value(), strings.Join(registry.SupportedMethods(), ", "))
	case "oneof":
		return fmt.Sprintf("%s %q must be one of %s", field, fe.Value(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
