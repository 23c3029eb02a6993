package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/inferlab/abc-go/pkg/errors"
)

// ValidationError represents a single configuration validation failure.
type ValidationError struct {
	Field string
	Tag   string
	Value interface{}
}

func (e *ValidationError) Error() string {
	switch e.Tag {
	case "required":
		return fmt.Sprintf("%s is required", e.Field)
	case "gt":
		return fmt.Sprintf("%s must be greater than zero", e.Field)
	case "gte":
		return fmt.Sprintf("%s must not be negative", e.Field)
	case "min":
		return fmt.Sprintf("%s has too few entries", e.Field)
	case "oneof":
		return fmt.Sprintf("%s must be one of the known values", e.Field)
	default:
		return fmt.Sprintf("%s failed validation", e.Field)
	}
}

// ValidationErrors aggregates every failure found in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	messages := make([]string, len(e))
	for i, err := range e {
		messages[i] = err.Error()
	}
	return "validation failed: " + strings.Join(messages, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks a configuration against its struct tags. It returns an
// InvalidConfiguration error wrapping the full list of failures.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.InvalidConfiguration, "configuration is nil")
	}

	err := getValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, errors.InvalidConfiguration, "configuration validation failed")
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, ve := range verrs {
		out = append(out, ValidationError{
			Field: ve.Namespace(),
			Tag:   ve.Tag(),
			Value: ve.Value(),
		})
	}
	return errors.Wrap(out, errors.InvalidConfiguration, "invalid configuration")
}
