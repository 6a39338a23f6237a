package progress

import "strings"

// Strength classifies how well a student knows a topic.
type Strength string

const (
	StrengthWeak       Strength = "weak"
	StrengthDeveloping Strength = "developing"
	StrengthStrong     Strength = "strong"
)

// Classification thresholds.
const (
	MinAnswersForSignal = 3
	StrongAccuracy      = 0.75
	WeakAccuracy        = 0.40
)

// Classify derives a strength label from counters. Fewer than
// MinAnswersForSignal answers is always developing.
func Classify(correct, total int) Strength {
	if total < MinAnswersForSignal {
		return StrengthDeveloping
	}
	acc := Accuracy(correct, total)
	switch {
	case acc >= StrongAccuracy:
		return StrengthStrong
	case acc <= WeakAccuracy:
		return StrengthWeak
	default:
		return StrengthDeveloping
	}
}

// Accuracy returns correct/total, or 0 when total is 0.
func Accuracy(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total)
}

// NormalizeTopic folds case and whitespace so "  Probability " and
// "probability" share one record.
func NormalizeTopic(topic string) string {
	return strings.ToLower(strings.Join(strings.Fields(topic), " "))
}
