package quiz

import (
	"strings"
	"testing"
)

func validQuestion() Question {
	return Question{
		ID:            1,
		Prompt:        "What does P(A|B) denote?",
		Options:       []string{"Joint probability", "Conditional probability", "Marginal probability", "Prior odds"},
		CorrectAnswer: "B",
		Explanation:   "P(A|B) is the probability of A given B.",
	}
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(q *Question)
		validator string // empty when the question should pass
	}{
		{"valid", func(q *Question) {}, ""},
		{"empty prompt", func(q *Question) { q.Prompt = "  " }, "structural"},
		{"long prompt", func(q *Question) { q.Prompt = strings.Repeat("x", 501) }, "structural"},
		{"three options", func(q *Question) { q.Options = q.Options[:3] }, "structural"},
		{"blank option", func(q *Question) { q.Options[2] = "" }, "structural"},
		{"one distinct option", func(q *Question) { q.Options = []string{"a", "A", "a ", "a"} }, "distinct-options"},
		{"duplicate option", func(q *Question) { q.Options[3] = "joint probability" }, "distinct-options"},
		{"no label", func(q *Question) { q.CorrectAnswer = "" }, "answer-label"},
		{"label outside options", func(q *Question) { q.CorrectAnswer = "E" }, "answer-label"},
		{"option text as label", func(q *Question) { q.CorrectAnswer = "Conditional probability" }, "answer-label"},
		{"lower-case label", func(q *Question) { q.CorrectAnswer = "b" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuestion()
			tt.mutate(&q)

			var failed string
			for _, v := range DefaultValidators() {
				if err := v.Validate(&q); err != nil {
					failed = err.Validator
					break
				}
			}
			if failed != tt.validator {
				t.Errorf("failed validator = %q, want %q", failed, tt.validator)
			}
		})
	}
}

func TestValidateSet_Count(t *testing.T) {
	qs := []Question{validQuestion(), validQuestion()}
	if err := validateSet(qs, 2, DefaultValidators()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := validateSet(qs, 4, DefaultValidators())
	if err == nil || err.Validator != "count" {
		t.Errorf("err = %v, want count failure", err)
	}
}

func TestLabels(t *testing.T) {
	for i, want := range []string{"A", "B", "C", "D"} {
		if got := OptionLabel(i); got != want {
			t.Errorf("OptionLabel(%d) = %q", i, got)
		}
		if got := LabelIndex(strings.ToLower(want) + " "); got != i {
			t.Errorf("LabelIndex(%q) = %d", want, got)
		}
	}
	for _, bad := range []string{"", "E", "AB", "1"} {
		if LabelIndex(bad) != -1 {
			t.Errorf("LabelIndex(%q) should be -1", bad)
		}
	}
	if OptionLabel(4) != "" || OptionLabel(-1) != "" {
		t.Error("out of range labels should be empty")
	}
}
