package siteconfig

import (
	"encoding/json"
	"fmt"
	"sync"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Merge overlays override onto the defaults field by field at every nesting
// level: any field the override leaves empty keeps its default value. Lists
// are replaced as a whole when the override provides a non-empty one.
func Merge(override SiteConfig) (SiteConfig, error) {
	merged := override
	if err := mergo.Merge(&merged, Default(), mergo.WithOverrideEmptySlice); err != nil {
		return Default(), fmt.Errorf("merge site config: %w", err)
	}
	fillEmptyLists(&merged)
	return merged, nil
}

// fillEmptyLists keeps optional lists serialising as [] rather than null.
func fillEmptyLists(cfg *SiteConfig) {
	if cfg.FeaturesSection.Items == nil {
		cfg.FeaturesSection.Items = []Feature{}
	}
	if cfg.ProfessionalProfileSection.Credentials == nil {
		cfg.ProfessionalProfileSection.Credentials = []string{}
	}
	if cfg.TestimonialsSection.Items == nil {
		cfg.TestimonialsSection.Items = []Testimonial{}
	}
}

// Validate checks cfg against the configuration schema.
func Validate(cfg SiteConfig) error {
	return validatorInstance().Struct(cfg)
}

// Build decodes a raw override document (nil or empty means "no override"),
// merges it over the defaults and validates the result.
func Build(raw []byte) (SiteConfig, error) {
	var override SiteConfig
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &override); err != nil {
			return Default(), fmt.Errorf("decode site config override: %w", err)
		}
	}

	merged, err := Merge(override)
	if err != nil {
		return Default(), err
	}
	if err := Validate(merged); err != nil {
		return Default(), fmt.Errorf("invalid site config: %w", err)
	}
	return merged, nil
}
