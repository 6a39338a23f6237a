package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// run executes the root command with args against an isolated database.
func run(t *testing.T, db string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append([]string{"--db", db, "--student", "alice"}, args...))
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("tutor %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestCommandsOffline(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("TUTOR_LLM_PROVIDER", "mock")
	t.Setenv("TUTOR_EMBEDDING_PROVIDER", "hash")
	db := filepath.Join(dir, "tutor.db")

	notes := filepath.Join(dir, "notes.md")
	if err := os.WriteFile(notes, []byte("Photosynthesis converts light energy into chemical energy stored in glucose."), 0o644); err != nil {
		t.Fatal(err)
	}

	if out := run(t, db, "version"); !strings.HasPrefix(out, "tutor ") {
		t.Errorf("version output %q", out)
	}
	if out := run(t, db, "ask", "what", "is", "glucose?"); !strings.Contains(out, "No study material has been added yet") {
		t.Errorf("ask before ingest: %q", out)
	}
	if out := run(t, db, "ingest", notes); !strings.Contains(out, "Ingested 1 document(s)") {
		t.Errorf("ingest output %q", out)
	}
	if out := run(t, db, "progress"); !strings.Contains(out, "No quiz results yet") {
		t.Errorf("progress output %q", out)
	}
	if out := run(t, db, "quiz", "list"); !strings.Contains(out, "No quizzes yet.") {
		t.Errorf("quiz list output %q", out)
	}
	if out := run(t, db, "reset", "--yes"); !strings.Contains(out, `Progress for "alice" has been reset.`) {
		t.Errorf("reset output %q", out)
	}
	if out := run(t, db, "llm", "list"); !strings.Contains(out, "No LLM events found.") {
		t.Errorf("llm list output %q", out)
	}
}

func TestIngestRejectsUnsupportedFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("TUTOR_EMBEDDING_PROVIDER", "hash")

	pdf := filepath.Join(dir, "slides.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"--db", filepath.Join(dir, "t.db"), "ingest", pdf})
	if err := rootCmd.ExecuteContext(context.Background()); err == nil {
		t.Fatal("expected unsupported file error")
	}
}
