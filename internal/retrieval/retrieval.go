// Package retrieval ranks corpus chunks against a query by cosine
// similarity. It is a brute-force scan over one corpus snapshot.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/abhisek/tutor/internal/corpus"
	"github.com/abhisek/tutor/internal/llm"
	"github.com/abhisek/tutor/internal/logger"
)

// DefaultTopK is the number of chunks retrieved when the caller has no
// preference.
const DefaultTopK = 4

// ErrEmbeddingMismatch is returned when the query embedder does not match
// the model that embedded the corpus.
var ErrEmbeddingMismatch = errors.New("query embedder does not match corpus embedding model")

// RankedChunk is a chunk with its similarity to the query.
type RankedChunk struct {
	Chunk corpus.Chunk
	Score float64
}

// SnapshotSource yields the live corpus version.
type SnapshotSource interface {
	Snapshot() *corpus.Snapshot
}

// Config tunes retrieval.
type Config struct {
	// MinScore drops chunks scoring below it. Zero disables the filter.
	MinScore float64
}

// Engine retrieves the chunks most similar to a query.
type Engine struct {
	source   SnapshotSource
	embedder llm.Embedder
	cfg      Config
}

// NewEngine creates an Engine reading from source. The embedder must be the
// one the corpus was ingested with.
func NewEngine(source SnapshotSource, embedder llm.Embedder, cfg Config) *Engine {
	return &Engine{source: source, embedder: embedder, cfg: cfg}
}

// Retrieve returns at most k chunks ordered by descending score, ties by
// ascending chunk id. An empty corpus or k <= 0 yields no chunks without
// embedding the query.
func (e *Engine) Retrieve(ctx context.Context, query string, k int) ([]RankedChunk, error) {
	snap := e.source.Snapshot()
	if k <= 0 || snap.Len() == 0 {
		return nil, nil
	}

	if snap.Model != "" && snap.Model != e.embedder.ModelName() {
		return nil, fmt.Errorf("%w: corpus %q, query %q", ErrEmbeddingMismatch, snap.Model, e.embedder.ModelName())
	}

	qv, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(qv) != len(snap.Chunks[0].Vector) {
		return nil, fmt.Errorf("%w: corpus has %d dimensions, query has %d",
			ErrEmbeddingMismatch, len(snap.Chunks[0].Vector), len(qv))
	}

	ranked := make([]RankedChunk, 0, len(snap.Chunks))
	for _, c := range snap.Chunks {
		score := Cosine(qv, c.Vector)
		if e.cfg.MinScore != 0 && score < e.cfg.MinScore {
			continue
		}
		ranked = append(ranked, RankedChunk{Chunk: c, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Chunk.ID < ranked[j].Chunk.ID
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	logger.Debug("retrieval: %d of %d chunks for %q (version %s)", len(ranked), len(snap.Chunks), query, snap.Version)
	return ranked, nil
}

// Cosine returns the cosine similarity of a and b. Zero vectors and
// vectors of different length score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return max(-1, min(1, s))
}

// Context joins the texts of ranked chunks for use in a prompt.
func Context(ranked []RankedChunk) string {
	parts := make([]string, len(ranked))
	for i, r := range ranked {
		parts[i] = r.Chunk.Text
	}
	return strings.Join(parts, "\n\n")
}
