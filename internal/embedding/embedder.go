// Package embedding turns short texts into fixed-length sentence vectors.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"intent-service/internal/common/config"
	"intent-service/internal/common/metrics"
)

const defaultLocalModel = config.DefaultEmbeddingModel

var (
	// ErrUnavailable means the backend could not produce a vector: connection
	// failure, non-2xx status, malformed payload or wrong dimension.
	ErrUnavailable = errors.New("EMBEDDING_UNAVAILABLE")
	// ErrTimeout means the backend did not answer within the deadline.
	ErrTimeout = errors.New("EMBEDDING_TIMEOUT")
)

// Embedder maps text to a dense vector of Dim() components. Implementations
// are deterministic for a given model and safe for concurrent use.
type Embedder interface {
	Name() string
	Dim() int
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// New builds the backend selected by cfg.Provider.
func New(cfg config.EmbeddingConfig) (Embedder, error) {
	timeout := config.GetDuration(cfg.Timeout)

	switch cfg.Provider {
	case config.ProviderHTTP:
		return NewHTTPEmbedder(cfg.BaseURL, cfg.Model, cfg.APIKey, cfg.Dimensions, timeout), nil
	case config.ProviderOllama:
		return NewOllamaEmbedder(cfg.BaseURL, cfg.Model, cfg.Dimensions, timeout), nil
	case config.ProviderVoyage:
		return NewVoyageEmbedder(cfg.APIKey, cfg.Model, cfg.Dimensions, timeout), nil
	case config.ProviderHashing:
		return NewHashingEmbedder(cfg.Dimensions, DefaultSynonyms()), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// classifyError folds transport failures into ErrTimeout or ErrUnavailable.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func checkDim(vec []float32, dim int) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: empty vector", ErrUnavailable)
	}
	if dim > 0 && len(vec) != dim {
		return fmt.Errorf("%w: got %d dimensions, want %d", ErrUnavailable, len(vec), dim)
	}
	return nil
}

// Instrumented records call outcomes per provider in Prometheus.
type Instrumented struct {
	Embedder
}

func NewInstrumented(e Embedder) *Instrumented {
	return &Instrumented{Embedder: e}
}

func (i *Instrumented) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := i.Embedder.Embed(ctx, text)
	i.observe(err)
	return vec, err
}

func (i *Instrumented) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := i.Embedder.EmbedBatch(ctx, texts)
	i.observe(err)
	return vecs, err
}

func (i *Instrumented) observe(err error) {
	status := metrics.StatusSuccess
	switch {
	case errors.Is(err, ErrTimeout):
		status = metrics.StatusTimeout
	case err != nil:
		status = metrics.StatusError
	}
	metrics.EmbeddingRequests.WithLabelValues(i.Name(), status).Inc()
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
