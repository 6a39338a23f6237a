package quiz

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeAnswer(t *testing.T) {
	opts := []string{"Paris", "London", "Rome", "Berlin"}
	tests := map[string]string{
		"b":        "B",
		" C ":      "C",
		"D)":       "D",
		"A. Paris": "A",
		"rome":     "C",
		"Madrid":   "Madrid",
		"":         "",
		"E":        "E",
	}
	for in, want := range tests {
		if got := normalizeAnswer(in, opts); got != want {
			t.Errorf("normalizeAnswer(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStripLabels(t *testing.T) {
	tests := []struct {
		in, want []string
	}{
		{[]string{"A) one", "B) two", "C) three", "D) four"}, []string{"one", "two", "three", "four"}},
		{[]string{"a. one", "b. two", "c. three", "d. four"}, []string{"one", "two", "three", "four"}},
		// Not every option is prefixed, so nothing is stripped.
		{[]string{"A) one", "two", "C) three", "D) four"}, []string{"A) one", "two", "C) three", "D) four"}},
		{[]string{" plain ", "text"}, []string{"plain", "text"}},
	}
	for _, tt := range tests {
		if got := stripLabels(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("stripLabels(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseQuestions(t *testing.T) {
	content := []byte(`{"questions":[{"prompt":" Capital of France? ","options":["A) Paris","B) London","C) Rome","D) Berlin"],"correct_answer":"Paris","explanation":"It is."}]}`)
	qs, err := parseQuestions(content, "Geography", DifficultyEasy)
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 1 {
		t.Fatalf("got %d questions", len(qs))
	}
	q := qs[0]
	if q.ID != 1 || q.Prompt != "Capital of France?" || q.CorrectAnswer != "A" || q.Options[0] != "Paris" {
		t.Errorf("parsed = %+v", q)
	}
	if q.Topic != "Geography" || q.Difficulty != DifficultyEasy {
		t.Errorf("topic/difficulty = %s/%s", q.Topic, q.Difficulty)
	}

	if _, err := parseQuestions([]byte(`not json`), "x", DifficultyEasy); err == nil {
		t.Error("expected parse error")
	}
}

func TestBuildUserMessage(t *testing.T) {
	msg := buildUserMessage("Bayes", DifficultyHard, 4, "Bayes theorem updates beliefs.")
	for _, want := range []string{"Topic: Bayes", "Difficulty: hard", "Number of questions: 4", "updates beliefs"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if !strings.Contains(buildUserMessage("Bayes", DifficultyHard, 4, " "), "None available") {
		t.Error("empty material should be called out")
	}
}
