package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/fatih/color"
)

func setup(t *testing.T, v bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(v)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	setup(t, false)
	if IsVerbose() {
		t.Error("expected verbose to be false")
	}
	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}
}

func TestVerboseGating(t *testing.T) {
	if !color.NoColor {
		// Prefixes are rendered at init; only plain output is asserted here.
		t.Skip("colored output enabled")
	}

	tests := []struct {
		name    string
		verbose bool
		log     func()
		want    string
	}{
		{"debug verbose", true, func() { Debug("chunk %d", 3) }, "[DEBUG] chunk 3\n"},
		{"debug quiet", false, func() { Debug("chunk %d", 3) }, ""},
		{"info verbose", true, func() { Info("loaded %s", "corpus") }, "[INFO] loaded corpus\n"},
		{"info quiet", false, func() { Info("loaded %s", "corpus") }, ""},
		{"warn quiet", false, func() { Warn("event log: %v", "disk full") }, "[WARN] event log: disk full\n"},
		{"section quiet", false, func() { Section("Ingest") }, ""},
		{"section verbose", true, func() { Section("Ingest") }, "\n=== Ingest ===\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := setup(t, tt.verbose)
			tt.log()
			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}
