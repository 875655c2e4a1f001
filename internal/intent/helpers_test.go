package intent

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"intent-service/internal/common/logger"
	"intent-service/internal/embedding"

	"github.com/stretchr/testify/require"
)

// keywordEmbedder maps text onto two axes, delivery and order, by stem
// presence. It stands in for the sentence model in tests.
type keywordEmbedder struct {
	calls atomic.Int32
	err   error
}

var (
	deliveryStems = []string{"достав", "приед", "трек", "посылк", "транспорт", "пути"}
	orderStems    = []string{"заказ"}
)

func hasAny(text string, stems []string) bool {
	for _, s := range stems {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

func (k *keywordEmbedder) Dim() int { return 2 }

func (k *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	k.calls.Add(1)
	if k.err != nil {
		return nil, k.err
	}
	return k.vector(text), nil
}

func (k *keywordEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	k.calls.Add(1)
	if k.err != nil {
		return nil, k.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = k.vector(t)
	}
	return out, nil
}

func (k *keywordEmbedder) vector(text string) []float32 {
	text = strings.ToLower(text)
	vec := []float32{0, 0}
	if hasAny(text, deliveryStems) {
		vec[0] = 1
	}
	if hasAny(text, orderStems) {
		vec[1] = 1
	}
	return vec
}

// fixedEmbedder returns a preset vector per text.
type fixedEmbedder struct {
	mu   sync.Mutex
	dim  int
	vecs map[string][]float32
}

func (f *fixedEmbedder) Dim() int { return f.dim }

func (f *fixedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.vecs[text]; ok {
		return v, nil
	}
	return nil, embedding.ErrUnavailable
}

func (f *fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func newTestService(t *testing.T, emb Embedder, threshold float64) *Service {
	t.Helper()
	idx, err := NewReferenceIndex(context.Background(), emb, DefaultReferences())
	require.NoError(t, err)
	return NewService(NewClassifier(idx, emb, threshold), NewExtractor(0), nil, logger.NewTestLogger(t))
}
