package types

import (
	"fmt"
	"math"
)

// DefaultSimilarityThreshold is the stem similarity at or above which two
// questions are considered duplicates when a request does not say otherwise.
const DefaultSimilarityThreshold = 0.8

// SamplingRequest describes a deduplicated selection
type SamplingRequest struct {
	// Count is the number of questions wanted. Must be positive.
	Count int `json:"count"`

	// Domain restricts candidates to one domain. Nil means all domains.
	Domain *Domain `json:"domain,omitempty"`

	// Lang restricts candidates to one language. Empty means all languages.
	Lang string `json:"lang,omitempty"`

	// SimilarityThreshold in (0, 1]. Zero means DefaultSimilarityThreshold.
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`

	// CheckChoices enables the choice-text comparison. Nil means true.
	CheckChoices *bool `json:"check_choices,omitempty"`
}

// WithDefaults returns a copy with unset optional fields filled in
func (r SamplingRequest) WithDefaults() SamplingRequest {
	if r.SimilarityThreshold == 0 {
		r.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if r.CheckChoices == nil {
		on := true
		r.CheckChoices = &on
	}
	return r
}

// ChecksChoices reports whether the choice comparison is enabled
func (r SamplingRequest) ChecksChoices() bool {
	return r.CheckChoices == nil || *r.CheckChoices
}

// DomainFilter returns the requested domain, or "" for all domains
func (r SamplingRequest) DomainFilter() Domain {
	if r.Domain == nil {
		return ""
	}
	return *r.Domain
}

// Validate checks if the request has valid values. Call after WithDefaults.
func (r SamplingRequest) Validate() error {
	if r.Count <= 0 {
		return fmt.Errorf("count must be positive (got %d)", r.Count)
	}
	if math.IsNaN(r.SimilarityThreshold) || r.SimilarityThreshold <= 0.0 || r.SimilarityThreshold > 1.0 {
		return fmt.Errorf("similarity_threshold must be in (0.0, 1.0] (got %.2f)", r.SimilarityThreshold)
	}
	if r.Domain != nil && !r.Domain.IsValid() {
		return fmt.Errorf("invalid domain: %q", *r.Domain)
	}
	return nil
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// DomainPtr returns a pointer to d
func DomainPtr(d Domain) *Domain {
	return &d
}
