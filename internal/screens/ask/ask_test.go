package ask

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tutor/internal/corpus"
	"github.com/abhisek/tutor/internal/retrieval"
	"github.com/abhisek/tutor/internal/tutor"
)

type fakeAsker struct {
	asked []string
	err   error
}

func (f *fakeAsker) Ask(_ context.Context, q, _ string) (*tutor.Answer, error) {
	f.asked = append(f.asked, q)
	if f.err != nil {
		return nil, f.err
	}
	return &tutor.Answer{
		Text:     "Chlorophyll absorbs light.",
		Grounded: true,
		Sources: []retrieval.RankedChunk{
			{Chunk: corpus.Chunk{ID: 1, Text: "Chlorophyll is the green pigment."}, Score: 0.82},
		},
	}, nil
}

func typeText(s *AskScreen, text string) {
	for _, r := range text {
		s.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

func TestAskShowsAnswerAndSources(t *testing.T) {
	asker := &fakeAsker{}
	s := New(asker, "alice")
	s.Init()

	typeText(s, "what is chlorophyll")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil || !s.pending {
		t.Fatal("enter should start a request")
	}
	s.Update(cmd())

	if len(asker.asked) != 1 || asker.asked[0] != "what is chlorophyll" {
		t.Fatalf("asked = %v", asker.asked)
	}
	view := s.View(100, 30)
	for _, want := range []string{"Chlorophyll absorbs light.", "Sources", "[0.82]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if s.input.Value() != "" {
		t.Error("input should be cleared after asking")
	}
}

func TestAskIgnoresEmptyInput(t *testing.T) {
	s := New(&fakeAsker{}, "alice")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd != nil {
		t.Error("empty question should not send a request")
	}
}

func TestAskShowsUserMessageOnError(t *testing.T) {
	s := New(&fakeAsker{err: tutor.ErrGenerationUnavailable}, "alice")
	typeText(s, "hello")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	s.Update(cmd())

	if !strings.Contains(s.View(100, 30), "Error:") {
		t.Error("error should be rendered")
	}
}

func TestSnippetTruncates(t *testing.T) {
	long := strings.Repeat("word ", 100)
	got := snippet(long)
	if len([]rune(got)) != maxSnippet+1 || !strings.HasSuffix(got, "…") {
		t.Errorf("snippet length %d", len([]rune(got)))
	}
	if snippet("a\n  b") != "a b" {
		t.Error("whitespace should collapse")
	}
}
