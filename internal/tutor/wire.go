package tutor

import (
	"context"
	"fmt"

	"github.com/abhisek/tutor/internal/config"
	"github.com/abhisek/tutor/internal/corpus"
	"github.com/abhisek/tutor/internal/llm"
	"github.com/abhisek/tutor/internal/logger"
	"github.com/abhisek/tutor/internal/progress"
	"github.com/abhisek/tutor/internal/quiz"
	"github.com/abhisek/tutor/internal/retrieval"
	"github.com/abhisek/tutor/internal/store"
)

// Open builds a Service backed by st: the persisted corpus and mastery
// records are restored, quizzes are kept in the database and every LLM
// call and graded answer is recorded in the event log.
func Open(ctx context.Context, cfg config.Config, st *store.Store) (*Service, error) {
	embedder, err := llm.NewEmbedder(ctx, cfg.Embedding.ResolveKey(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	provider, err := llm.NewProvider(ctx, cfg.LLM, st.EventRepo())
	if err != nil {
		logger.Warn("LLM provider not configured: %v", err)
		logger.Warn("answers and quizzes will be unavailable")
		provider = llm.Unavailable(err)
	}

	cs := corpus.NewStore(embedder,
		corpus.WithChunker(corpus.NewChunker(
			corpus.WithChunkSize(cfg.Corpus.ChunkSize),
			corpus.WithOverlap(cfg.Corpus.Overlap),
		)),
		corpus.WithPersister(corpusPersister{repo: st.CorpusRepo()}),
		corpus.WithBatchSize(cfg.Embedding.BatchSize),
		corpus.WithConcurrency(cfg.Embedding.Concurrency),
	)
	if err := loadCorpus(ctx, st.CorpusRepo(), cs); err != nil {
		closeEmbedder(embedder)
		return nil, fmt.Errorf("restore corpus: %w", err)
	}
	if snap := cs.Snapshot(); snap != nil && snap.Model != embedder.ModelName() {
		logger.Warn("stored corpus was embedded with %s but the configured embedder is %s; re-ingest your documents",
			snap.Model, embedder.ModelName())
	}

	tracker := progress.NewTracker(progress.WithRepo(masteryRepo{repo: st.MasteryRepo()}))
	if err := loadMastery(ctx, st.MasteryRepo(), tracker); err != nil {
		closeEmbedder(embedder)
		return nil, fmt.Errorf("restore mastery: %w", err)
	}

	retriever := retrieval.NewEngine(cs, embedder, retrieval.Config{MinScore: cfg.Retrieval.MinScore})

	qcfg := quiz.DefaultConfig()
	qcfg.QuestionCount = cfg.Quiz.QuestionCount
	qcfg.GroundingK = cfg.Quiz.GroundingK
	qcfg.MaxAttempts = cfg.Quiz.MaxAttempts
	qcfg.Temperature = cfg.Quiz.Temperature
	engine := quiz.NewEngine(provider, retriever, tracker, quizSessions{repo: st.QuizRepo()}, qcfg,
		quiz.WithAnswerRecorder(st.EventRepo()))

	tcfg := DefaultConfig()
	tcfg.TopK = cfg.Retrieval.TopK
	svc := New(cs, retriever, engine, tracker, provider, tcfg)
	svc.closers = append(svc.closers, func() error { return llm.CloseEmbedder(embedder) })
	logger.Debug("tutor: %d chunks, embedder %s, provider %s", cs.Len(), embedder.ModelName(), provider.ModelID())
	return svc, nil
}

func closeEmbedder(e llm.Embedder) {
	if err := llm.CloseEmbedder(e); err != nil {
		logger.Warn("close embedder: %v", err)
	}
}
