package application

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// weightSumTolerance absorbs floating-point drift when verifying that
// dimension weights sum to 1.
const weightSumTolerance = 1e-6

// ConfigLoader parses and validates suite configuration files.
type ConfigLoader struct {
	validator *validator.Validate
}

// NewConfigLoader creates a loader with the custom validators the suite
// schema needs registered.
func NewConfigLoader() (*ConfigLoader, error) {
	v := validator.New()
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return nil, fmt.Errorf("failed to register semver validator: %w", err)
	}
	return &ConfigLoader{validator: v}, nil
}

// LoadFile reads a suite configuration from a YAML file, applying
// defaults for omitted sections before validation.
func (cl *ConfigLoader) LoadFile(path string) (*SuiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite config: %w", err)
	}
	return cl.Load(data)
}

// Load parses a suite configuration from YAML bytes.
// Unknown fields are rejected to catch typos early.
func (cl *ConfigLoader) Load(data []byte) (*SuiteConfig, error) {
	config := DefaultSuiteConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parse suite config: %w", err)
	}

	if err := cl.Validate(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate applies struct-tag validation plus the semantic rules struct
// tags cannot express: unique dimension names and weights summing to 1.
func (cl *ConfigLoader) Validate(config *SuiteConfig) error {
	if err := cl.validator.Struct(config); err != nil {
		return fmt.Errorf("suite config validation failed: %w", err)
	}

	seen := make(map[string]bool, len(config.Dimensions))
	var sum float64
	for _, dim := range config.Dimensions {
		if seen[dim.Name] {
			return fmt.Errorf("suite config validation failed: duplicate dimension %q", dim.Name)
		}
		seen[dim.Name] = true
		sum += dim.Weight
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("suite config validation failed: dimension weights sum to %g, want 1", sum)
	}
	return nil
}

// validateSemver validates that a string follows X.Y.Z semantic
// versioning, where X, Y, Z are non-negative integers.
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	n, err := fmt.Sscanf(value, "%d.%d.%d", &major, &minor, &patch)
	return err == nil && n == 3
}
