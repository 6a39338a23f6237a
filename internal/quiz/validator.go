package quiz

import (
	"fmt"
	"strings"
)

// Validator checks a generated question. Implementations should be
// stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier used in errors and logs.
	Name() string

	// Validate returns nil if q passes.
	Validate(q *Question) *InvalidQuestionError
}

// DefaultValidators is the standard chain, run in order.
func DefaultValidators() []Validator {
	return []Validator{
		&StructuralValidator{},
		&DistinctOptionsValidator{},
		&AnswerLabelValidator{},
	}
}

const (
	maxPromptLen      = 500
	maxOptionLen      = 200
	maxExplanationLen = 1000
)

// StructuralValidator checks required fields and length limits.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *Question) *InvalidQuestionError {
	fail := func(format string, args ...any) *InvalidQuestionError {
		return &InvalidQuestionError{Validator: v.Name(), Question: q.ID, Message: fmt.Sprintf(format, args...)}
	}
	switch {
	case strings.TrimSpace(q.Prompt) == "":
		return fail("prompt is empty")
	case len(q.Prompt) > maxPromptLen:
		return fail("prompt exceeds %d characters", maxPromptLen)
	case len(q.Options) != OptionCount:
		return fail("has %d options, want %d", len(q.Options), OptionCount)
	case len(q.Explanation) > maxExplanationLen:
		return fail("explanation exceeds %d characters", maxExplanationLen)
	}
	for i, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return fail("option %s is empty", OptionLabel(i))
		}
		if len(o) > maxOptionLen {
			return fail("option %s exceeds %d characters", OptionLabel(i), maxOptionLen)
		}
	}
	return nil
}

// DistinctOptionsValidator rejects questions whose options repeat.
type DistinctOptionsValidator struct{}

func (v *DistinctOptionsValidator) Name() string { return "distinct-options" }

func (v *DistinctOptionsValidator) Validate(q *Question) *InvalidQuestionError {
	seen := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		seen[strings.ToLower(strings.TrimSpace(o))] = true
	}
	if len(seen) < 2 {
		return &InvalidQuestionError{Validator: v.Name(), Question: q.ID, Message: "fewer than 2 distinct options"}
	}
	if len(seen) != len(q.Options) {
		return &InvalidQuestionError{Validator: v.Name(), Question: q.ID, Message: "options are not distinct"}
	}
	return nil
}

// AnswerLabelValidator checks the correct answer names one of the
// question's own options.
type AnswerLabelValidator struct{}

func (v *AnswerLabelValidator) Name() string { return "answer-label" }

func (v *AnswerLabelValidator) Validate(q *Question) *InvalidQuestionError {
	if q.CorrectAnswer == "" {
		return &InvalidQuestionError{Validator: v.Name(), Question: q.ID, Message: "no correct answer label"}
	}
	idx := LabelIndex(q.CorrectAnswer)
	if idx < 0 || idx >= len(q.Options) {
		return &InvalidQuestionError{
			Validator: v.Name(),
			Question:  q.ID,
			Message:   fmt.Sprintf("correct answer %q is not one of the options", q.CorrectAnswer),
		}
	}
	return nil
}

// validateSet runs the chain over every question and checks the count.
func validateSet(qs []Question, want int, validators []Validator) *InvalidQuestionError {
	if len(qs) != want {
		return &InvalidQuestionError{Validator: "count", Message: fmt.Sprintf("got %d questions, want %d", len(qs), want)}
	}
	for i := range qs {
		for _, v := range validators {
			if err := v.Validate(&qs[i]); err != nil {
				return err
			}
		}
	}
	return nil
}
