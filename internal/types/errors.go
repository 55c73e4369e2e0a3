package types

import (
	"fmt"
	"strings"
)

// ValidationError reports a question or request field that failed validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// NotFoundError reports a lookup by id that matched nothing
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id '%s' not found", e.Resource, e.ID)
}

// InsufficientQuestionsError reports a selection that came back short.
// Domain is empty when the request spanned all domains.
type InsufficientQuestionsError struct {
	Domain    Domain
	Requested int
	Available int
}

func (e *InsufficientQuestionsError) Error() string {
	if e.Domain == "" {
		return fmt.Sprintf("insufficient questions: requested %d, but only %d available",
			e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient questions in domain '%s': requested %d, but only %d available",
		e.Domain, e.Requested, e.Available)
}

// DuplicateEntry identifies one question flagged by a bank audit
type DuplicateEntry struct {
	ID              string  `json:"id"`
	Stem            string  `json:"stem"`
	SimilarityScore float64 `json:"similarity_score"`
}

// DuplicateQuestionsError reports near-duplicate questions found in a bank
type DuplicateQuestionsError struct {
	Duplicates []DuplicateEntry
}

func (e *DuplicateQuestionsError) Error() string {
	ids := make([]string, 0, len(e.Duplicates))
	for _, d := range e.Duplicates {
		ids = append(ids, d.ID)
	}
	return fmt.Sprintf("%d duplicate questions detected: %s", len(e.Duplicates), strings.Join(ids, ", "))
}
