package quiz

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const systemPrompt = `You are a tutor writing multiple-choice quiz questions for a student.

Rules:
- Write exactly the requested number of questions about the given topic at the given difficulty.
- Base every question ONLY on the study material provided. If no material is provided, use well-established facts about the topic.
- Each question has exactly 4 distinct options and exactly one correct option.
- Give the correct answer as the option label: A, B, C or D.
- Do not prefix options with their labels.
- Distractors should be plausible, reflecting common misconceptions.
- easy questions test recall of a single fact; medium questions require understanding; hard questions require applying or combining ideas.`

// buildUserMessage assembles the generation prompt.
func buildUserMessage(topic string, d Difficulty, count int, material string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	fmt.Fprintf(&b, "Difficulty: %s\n", d)
	fmt.Fprintf(&b, "Number of questions: %d\n", count)

	b.WriteString("\nStudy material:\n")
	if strings.TrimSpace(material) == "" {
		b.WriteString("None available. No documents matched this topic.")
	} else {
		b.WriteString(material)
	}
	return b.String()
}

// labelPrefix matches "A) ", "b. ", "C: " at the start of an option.
var labelPrefix = regexp.MustCompile(`^\s*([A-Da-d])\s*[).:]\s+`)

// parseQuestions decodes the LLM output into questions. Label prefixes on
// options are removed and a correct answer given as option text is mapped
// to its label; anything else is left for the validators.
func parseQuestions(content []byte, topic string, d Difficulty) ([]Question, error) {
	var raw quizOutput
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("parse quiz output: %w", err)
	}

	qs := make([]Question, 0, len(raw.Questions))
	for i, r := range raw.Questions {
		opts := stripLabels(r.Options)
		qs = append(qs, Question{
			ID:            i + 1,
			Topic:         topic,
			Prompt:        strings.TrimSpace(r.Prompt),
			Options:       opts,
			CorrectAnswer: normalizeAnswer(r.CorrectAnswer, opts),
			Difficulty:    d,
			Explanation:   strings.TrimSpace(r.Explanation),
		})
	}
	return qs, nil
}

// stripLabels removes "A) " style prefixes, but only when every option
// carries the prefix matching its own position.
func stripLabels(opts []string) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = strings.TrimSpace(o)
	}
	for i, o := range out {
		m := labelPrefix.FindStringSubmatch(o)
		if m == nil || LabelIndex(m[1]) != i {
			return out
		}
	}
	for i, o := range out {
		out[i] = strings.TrimSpace(labelPrefix.ReplaceAllString(o, ""))
	}
	return out
}

// normalizeAnswer turns "b", "B)", "B. Paris" or "Paris" into "B". It
// returns the trimmed input unchanged when no mapping applies.
func normalizeAnswer(answer string, opts []string) string {
	a := strings.TrimSpace(answer)
	if LabelIndex(a) >= 0 {
		return strings.ToUpper(a)
	}
	if m := labelPrefix.FindStringSubmatch(a + " "); m != nil {
		return strings.ToUpper(m[1])
	}
	for i, o := range opts {
		if strings.EqualFold(strings.TrimSpace(o), a) && i < OptionCount {
			return OptionLabel(i)
		}
	}
	return a
}
