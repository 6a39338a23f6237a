// Package corpus holds the embedded document chunks that answers and
// quizzes are grounded in. A corpus version is immutable once published;
// re-ingestion builds a complete new version off to the side and swaps it
// in atomically, so readers never see a partial corpus.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/tutor/internal/llm"
	"github.com/abhisek/tutor/internal/logger"
)

// Chunk is an embedded span of a source document. IDs are 1-based and
// dense within one corpus version.
type Chunk struct {
	ID           int
	Source       string
	Text         string
	Vector       []float32
	SourceOffset int
}

// Document is the plain text of one source.
type Document struct {
	Name string
	Text string
}

// Snapshot is one complete corpus version. Model names the embedding
// model that produced every vector in it.
type Snapshot struct {
	Version   string
	Model     string
	Chunks    []Chunk
	CreatedAt time.Time
}

// Len returns the number of chunks, treating a nil snapshot as empty.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Chunks)
}

// IngestionError reports why an ingestion was rejected. The previously
// published corpus is unaffected.
type IngestionError struct {
	Reason string
	Err    error
}

func (e *IngestionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ingestion failed: %s: %v", e.Reason, e.Err)
	}
	return "ingestion failed: " + e.Reason
}

func (e *IngestionError) Unwrap() error { return e.Err }

// ErrEmptyDocument is wrapped by the IngestionError returned for blank input.
var ErrEmptyDocument = errors.New("document contains no text")

// Persister stores a snapshot durably before it is published.
type Persister interface {
	SaveCorpus(ctx context.Context, snap Snapshot) error
}

const (
	defaultBatchSize   = 32
	defaultConcurrency = 4
)

// Store owns the live corpus.
type Store struct {
	embedder    llm.Embedder
	chunker     *Chunker
	persister   Persister
	batchSize   int
	concurrency int

	// writeMu serializes ingestions. Readers only load current.
	writeMu sync.Mutex
	current atomic.Pointer[Snapshot]
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithChunker sets the chunker used for ingestion.
func WithChunker(c *Chunker) StoreOption {
	return func(s *Store) { s.chunker = c }
}

// WithPersister makes every ingestion durable before it is published.
func WithPersister(p Persister) StoreOption {
	return func(s *Store) { s.persister = p }
}

// WithBatchSize sets how many chunks are sent per embedding call.
func WithBatchSize(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithConcurrency bounds the number of embedding calls in flight.
func WithConcurrency(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewStore creates an empty Store that embeds with e.
func NewStore(e llm.Embedder, opts ...StoreOption) *Store {
	s := &Store{
		embedder:    e,
		chunker:     NewChunker(),
		batchSize:   defaultBatchSize,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embedder returns the embedder shared by ingestion and retrieval.
func (s *Store) Embedder() llm.Embedder { return s.embedder }

// Snapshot returns the live corpus version, or nil before the first
// ingestion. The returned value must not be modified.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// AllChunks returns the chunks of the live version.
func (s *Store) AllChunks() []Chunk {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	out := make([]Chunk, len(snap.Chunks))
	copy(out, snap.Chunks)
	return out
}

// Len returns the number of chunks in the live version.
func (s *Store) Len() int {
	return s.current.Load().Len()
}

// Load publishes a previously persisted snapshot without re-embedding it.
func (s *Store) Load(snap Snapshot) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.current.Store(&snap)
	logger.Debug("corpus: loaded version %s with %d chunks", snap.Version, len(snap.Chunks))
}

// Ingest replaces the corpus with the chunks of a single text.
func (s *Store) Ingest(ctx context.Context, text string) (string, error) {
	return s.IngestDocuments(ctx, []Document{{Name: "document", Text: text}})
}

// IngestDocuments replaces the corpus with the chunks of docs and returns
// the new version id. On any failure the live version is left untouched.
func (s *Store) IngestDocuments(ctx context.Context, docs []Document) (string, error) {
	chunks := s.split(docs)
	if len(chunks) == 0 {
		return "", &IngestionError{Reason: "no extractable text", Err: ErrEmptyDocument}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	logger.Section("Ingest")
	logger.Info("corpus: embedding %d chunks from %d document(s)", len(chunks), len(docs))

	if err := s.embed(ctx, chunks); err != nil {
		return "", &IngestionError{Reason: "embedding failed", Err: err}
	}

	dims := len(chunks[0].Vector)
	for _, c := range chunks {
		if len(c.Vector) == 0 || len(c.Vector) != dims {
			return "", &IngestionError{
				Reason: "inconsistent embeddings",
				Err:    fmt.Errorf("chunk %d has %d dimensions, expected %d", c.ID, len(c.Vector), dims),
			}
		}
	}

	snap := &Snapshot{
		Version:   uuid.NewString(),
		Model:     s.embedder.ModelName(),
		Chunks:    chunks,
		CreatedAt: time.Now().UTC(),
	}

	if s.persister != nil {
		if err := s.persister.SaveCorpus(ctx, *snap); err != nil {
			return "", &IngestionError{Reason: "persist corpus", Err: err}
		}
	}

	s.current.Store(snap)
	logger.Info("corpus: published version %s (%d chunks, %d dims)", snap.Version, len(chunks), dims)
	return snap.Version, nil
}

// split chunks every document and assigns dense 1-based ids.
func (s *Store) split(docs []Document) []Chunk {
	var chunks []Chunk
	for _, d := range docs {
		if strings.TrimSpace(d.Text) == "" {
			continue
		}
		for _, p := range s.chunker.Split(d.Text) {
			chunks = append(chunks, Chunk{
				ID:           len(chunks) + 1,
				Source:       d.Name,
				Text:         p.Text,
				SourceOffset: p.Offset,
			})
		}
	}
	return chunks
}

// embed fills in Vector for every chunk, batching and bounding concurrency.
// The first failure cancels the remaining batches.
func (s *Store) embed(ctx context.Context, chunks []Chunk) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for lo := 0; lo < len(chunks); lo += s.batchSize {
		hi := min(lo+s.batchSize, len(chunks))
		g.Go(func() error {
			texts := make([]string, hi-lo)
			for i := range texts {
				texts[i] = chunks[lo+i].Text
			}
			vecs, err := s.embedder.EmbedBatch(ctx, texts)
			if err != nil {
				return err
			}
			if len(vecs) != len(texts) {
				return &llm.ErrEmbeddingUnavailable{
					Model: s.embedder.ModelName(),
					Err:   fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vecs)),
				}
			}
			for i, v := range vecs {
				chunks[lo+i].Vector = v
			}
			return nil
		})
	}
	return g.Wait()
}
