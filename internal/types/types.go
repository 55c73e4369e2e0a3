package types

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Question is a single multiple-choice item from the bank.
//
// Questions are built with NewQuestion and treated as read-only afterwards.
// The sampler and the repository hand out pointers into the loaded pool, so
// callers must not mutate them.
type Question struct {
	ID          string                 `json:"id"`
	Lang        string                 `json:"lang"`
	Domain      Domain                 `json:"domain"`
	Stem        string                 `json:"stem"`
	Choices     map[ChoiceLabel]string `json:"choices"`
	Answer      ChoiceLabel            `json:"answer"`
	Explanation string                 `json:"explanation"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// NewQuestion builds a Question from a raw record, failing on the first
// invalid field. The returned error is always a *ValidationError.
func NewQuestion(raw RawQuestion) (*Question, error) {
	choices := make(map[ChoiceLabel]string, len(raw.Choices))
	for label, text := range raw.Choices {
		choices[label] = text
	}

	updated := raw.UpdatedAt.Time
	if updated.IsZero() {
		updated = time.Now()
	}

	q := &Question{
		ID:          raw.ID,
		Lang:        raw.Lang,
		Domain:      raw.Domain,
		Stem:        raw.Stem,
		Choices:     choices,
		Answer:      raw.Answer,
		Explanation: raw.Explanation,
		UpdatedAt:   updated,
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// Validate checks if the question has valid field values
func (q *Question) Validate() error {
	if q.ID == "" {
		return &ValidationError{Field: "id", Message: "question id is required"}
	}
	if q.Lang == "" {
		return &ValidationError{Field: "lang", Message: "language is required"}
	}
	if !q.Domain.IsValid() {
		return &ValidationError{Field: "domain", Message: fmt.Sprintf("invalid domain: %q", q.Domain)}
	}
	if strings.TrimSpace(q.Stem) == "" {
		return &ValidationError{Field: "stem", Message: "question stem is required"}
	}
	if len(q.Choices) == 0 {
		return &ValidationError{Field: "choices", Message: "choices are required"}
	}
	if _, ok := q.Choices[q.Answer]; !ok {
		labels := make([]string, 0, len(q.Choices))
		for _, l := range q.Labels() {
			labels = append(labels, string(l))
		}
		return &ValidationError{
			Field:   "answer",
			Message: fmt.Sprintf("answer %q is not in choices: %s", q.Answer, strings.Join(labels, ", ")),
		}
	}
	return nil
}

// Labels returns the choice labels in sorted order
func (q *Question) Labels() []ChoiceLabel {
	labels := make([]ChoiceLabel, 0, len(q.Choices))
	for l := range q.Choices {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// ChoiceTexts returns a copy of the choice texts in label order
func (q *Question) ChoiceTexts() []string {
	labels := q.Labels()
	texts := make([]string, 0, len(labels))
	for _, l := range labels {
		texts = append(texts, q.Choices[l])
	}
	return texts
}

// IsCorrect reports whether the label is the keyed answer
func (q *Question) IsCorrect(label ChoiceLabel) bool {
	return q.Answer == label
}

// Domain is the certification area a question belongs to
type Domain string

const (
	DomainCloudConcepts Domain = "cloud_concepts"
	DomainSecurity      Domain = "security"
	DomainTechnology    Domain = "technology"
	DomainBilling       Domain = "billing"
)

// IsValid checks if the domain value is valid
func (d Domain) IsValid() bool {
	switch d {
	case DomainCloudConcepts, DomainSecurity, DomainTechnology, DomainBilling:
		return true
	}
	return false
}

// AllDomains lists the valid domains in display order
func AllDomains() []Domain {
	return []Domain{DomainCloudConcepts, DomainSecurity, DomainTechnology, DomainBilling}
}

// ParseDomain converts user input to a Domain
func ParseDomain(s string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", fmt.Errorf("invalid domain: %q (valid: cloud_concepts, security, technology, billing)", s)
	}
	return d, nil
}

// ChoiceLabel identifies a choice within a question (A, B, C, ...)
type ChoiceLabel string

// Mode distinguishes full exams from practice sets
type Mode string

const (
	ModeExam     Mode = "exam"
	ModePractice Mode = "practice"
)

// IsValid checks if the mode value is valid
func (m Mode) IsValid() bool {
	switch m {
	case ModeExam, ModePractice:
		return true
	}
	return false
}
