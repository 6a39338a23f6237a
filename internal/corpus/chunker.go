package corpus

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultChunkSize is the default maximum chunk length in bytes.
const DefaultChunkSize = 300

// DefaultChunkOverlap is the default number of bytes shared by neighbouring chunks.
const DefaultChunkOverlap = 40

// Piece is a chunk of text before embedding. Offset is the byte offset of
// Text in the source document.
type Piece struct {
	Text   string
	Offset int
}

// Chunker splits text into bounded, overlapping pieces. Cuts prefer a
// sentence end, then whitespace, so words are not split unless a single
// word is longer than the chunk size.
type Chunker struct {
	size    int
	overlap int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum chunk length.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// NewChunker creates a Chunker with the given options.
func NewChunker(opts ...Option) *Chunker {
	c := &Chunker{size: DefaultChunkSize, overlap: DefaultChunkOverlap}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.size {
		c.overlap = c.size / 4
	}
	return c
}

// Size returns the maximum chunk length.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split cuts text into pieces. Every piece is non-empty, trimmed, at most
// Size bytes long, and shares at most Overlap bytes with its predecessor.
func (c *Chunker) Split(text string) []Piece {
	var pieces []Piece
	n := len(text)
	start := skipSpace(text, 0)

	for start < n {
		end := start + c.size
		if end >= n {
			end = n
		} else {
			end = c.cut(text, start, end)
		}

		if body := strings.TrimRightFunc(text[start:end], unicode.IsSpace); body != "" {
			pieces = append(pieces, Piece{Text: body, Offset: start})
		}
		if end >= n {
			break
		}

		next := end - c.overlap
		if next <= start {
			next = end
		} else {
			next = nextWordStart(text, next, end)
		}
		start = skipSpace(text, next)
	}
	return pieces
}

// cut picks the end of a chunk starting at start whose hard limit is end.
func (c *Chunker) cut(text string, start, end int) int {
	window := text[start:end]

	// A sentence end in the back half of the window.
	if i := lastSentenceEnd(window); i > len(window)/2 {
		return start + i
	}
	if i := strings.LastIndexFunc(window, unicode.IsSpace); i > 0 {
		return start + i
	}

	// One long word: hard cut on a rune boundary.
	for end > start+1 && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}

// lastSentenceEnd returns the index just past the last ".", "!" or "?"
// that is followed by whitespace, or a newline, or -1.
func lastSentenceEnd(s string) int {
	for i := len(s) - 2; i >= 0; i-- {
		switch s[i] {
		case '\n':
			return i + 1
		case '.', '!', '?':
			if isSpaceByte(s[i+1]) {
				return i + 1
			}
		}
	}
	return -1
}

// nextWordStart moves i forward to the start of the next word if it falls
// inside one. It never moves past limit.
func nextWordStart(text string, i, limit int) int {
	if i == 0 || isSpaceByte(text[i-1]) {
		return i
	}
	for i < limit && !isSpaceByte(text[i]) {
		i++
	}
	return i
}

func skipSpace(text string, i int) int {
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
	}
	return i
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r' || b == '\f' || b == '\v'
}
