package llm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
)

const (
	defaultLocalEmbeddingModel = "sentence-transformers/all-MiniLM-L6-v2"
	localEmbeddingDimensions   = 384
)

// LocalEmbedder runs a sentence-transformer model in-process with hugot's
// pure Go backend. The model is downloaded on first use.
type LocalEmbedder struct {
	mu      sync.Mutex
	model   string
	session *hugot.Session
	run     func(texts []string) ([][]float32, error)
}

// NewLocalEmbedder prepares the model in cfg.ModelDir and starts a session.
func NewLocalEmbedder(cfg EmbeddingConfig) (*LocalEmbedder, error) {
	model := cfg.Model
	if model == "" {
		model = defaultLocalEmbeddingModel
	}

	modelPath, err := prepareLocalModel(model, cfg.ModelDir)
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("create hugot session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "tutor-embedder",
	})
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("create embedding pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("create embedding pipeline: %w", err)
	}

	return &LocalEmbedder{
		model:   model,
		session: session,
		run: func(texts []string) ([][]float32, error) {
			result, err := pipeline.RunPipeline(texts)
			if err != nil {
				return nil, err
			}
			return result.Embeddings, nil
		},
	}, nil
}

// prepareLocalModel downloads the model into dir unless it is already there.
func prepareLocalModel(model, dir string) (string, error) {
	if dir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("resolve cache dir: %w", err)
		}
		dir = filepath.Join(cacheDir, "tutor", "models")
	}

	modelPath := filepath.Join(dir, strings.ReplaceAll(model, "/", "_"))
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory: %w", err)
	}
	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = "onnx/model.onnx"
	downloaded, err := hugot.DownloadModel(model, dir, opts)
	if err != nil {
		return "", &ErrEmbeddingUnavailable{Model: model, Err: fmt.Errorf("download model: %w", err)}
	}
	return downloaded, nil
}

func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedOne(ctx, e, text)
}

// EmbedBatch runs the pipeline synchronously; calls are serialized because
// the session is not safe for concurrent use.
func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	vecs, err := e.run(texts)
	if err != nil {
		return nil, &ErrEmbeddingUnavailable{Model: e.model, Err: err}
	}
	if len(vecs) != len(texts) {
		return nil, &ErrEmbeddingUnavailable{
			Model: e.model,
			Err:   fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vecs)),
		}
	}
	return vecs, nil
}

func (e *LocalEmbedder) ModelName() string { return e.model }

func (e *LocalEmbedder) Dimensions() int { return localEmbeddingDimensions }

// Close releases the hugot session.
func (e *LocalEmbedder) Close() error {
	return e.session.Destroy()
}
