package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/tutor/internal/llm"
	"github.com/abhisek/tutor/internal/logger"
	"github.com/abhisek/tutor/internal/progress"
	"github.com/abhisek/tutor/internal/quiz"
)

const answerSystemPrompt = `You are a friendly and concise tutor. Your answer must be direct and brief.
Use ONLY the context provided to answer the student's question.
If the context does not contain the answer, say explicitly that the study material does not cover it. Do not guess.
Do not quote the raw context back to the student.`

func buildAnswerMessage(question, material string) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(material)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}

const feedbackSystemPrompt = `You are an encouraging tutor. Given a structured quiz result, write one short sentence of encouragement or advice.
Do not state or recompute any score, count or percentage.`

var feedbackSchema = &llm.Schema{
	Name:        "quiz-feedback",
	Description: "One sentence of encouragement after a quiz",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"encouragement": map[string]any{"type": "string"},
		},
		"required":             []any{"encouragement"},
		"additionalProperties": false,
	},
}

const summarySystemPrompt = `You are a tutor summarizing a student's progress. You are given the structured report and the recommended focus.
Write a friendly summary of one or two sentences that follows the recommendation.
Use only the numbers in the report; never invent scores.`

var summarySchema = &llm.Schema{
	Name:        "progress-summary",
	Description: "A short natural-language progress summary",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{"type": "string"},
		},
		"required":             []any{"summary"},
		"additionalProperties": false,
	},
}

// encouragement asks for a line of feedback on r. Any failure yields "".
func (s *Service) encouragement(ctx context.Context, r *quiz.Result) string {
	if s.provider == nil {
		return ""
	}
	payload, _ := json.Marshal(map[string]any{
		"topic":      r.Topic,
		"difficulty": r.Difficulty,
		"correct":    r.Correct,
		"total":      r.Total,
		"strength":   r.Mastery.Strength(),
	})
	req := llm.UserRequest(feedbackSystemPrompt, string(payload), feedbackSchema, 256, 0.7)
	resp, err := s.provider.Generate(llm.WithPurpose(ctx, llm.PurposeQuizFeedback), req)
	if err != nil {
		logger.Debug("feedback: %v", err)
		return ""
	}
	var out struct {
		Encouragement string `json:"encouragement"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		logger.Debug("feedback: %v", err)
		return ""
	}
	return strings.TrimSpace(out.Encouragement)
}

// progressSummary phrases rep, falling back to a fixed sentence.
func (s *Service) progressSummary(ctx context.Context, rep progress.Report) string {
	if s.provider == nil {
		return fallbackProgressSummary
	}
	type topic struct {
		Topic    string  `json:"topic"`
		Correct  int     `json:"correct"`
		Total    int     `json:"total"`
		Accuracy float64 `json:"accuracy"`
		Strength string  `json:"strength"`
	}
	topics := make([]topic, len(rep.Topics))
	for i, t := range rep.Topics {
		topics[i] = topic{t.DisplayTopic, t.Correct, t.Total, t.Accuracy, string(t.Strength)}
	}
	payload, _ := json.Marshal(map[string]any{
		"topics":         topics,
		"recommendation": rep.Recommendation.Message,
	})

	req := llm.UserRequest(summarySystemPrompt, fmt.Sprintf("Progress report:\n%s", payload), summarySchema, 256, 0.5)
	resp, err := s.provider.Generate(llm.WithPurpose(ctx, llm.PurposeProgressSummary), req)
	if err != nil {
		logger.Debug("progress summary: %v", err)
		return fallbackProgressSummary
	}
	var out struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil || strings.TrimSpace(out.Summary) == "" {
		return fallbackProgressSummary
	}
	return strings.TrimSpace(out.Summary)
}
