package intent

import (
	"context"
	"errors"
	"fmt"
	"math"

	apperrors "intent-service/internal/common/errors"
	"intent-service/internal/embedding"
)

// ErrModelUnavailable wraps every failure of the embedding backend.
var ErrModelUnavailable = errors.New("MODEL_UNAVAILABLE")

// Embedder is the part of embedding.Embedder the classifier needs.
type Embedder interface {
	Dim() int
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type anchor struct {
	vec  []float64
	norm float64
}

// ReferenceIndex holds the embedded anchors grouped by label. It is built
// once and only read afterwards, so any number of goroutines may share it.
type ReferenceIndex struct {
	version string
	dim     int
	groups  map[Label][]anchor
	size    int
}

// NewReferenceIndex normalises and embeds every example in one batch.
func NewReferenceIndex(ctx context.Context, embedder Embedder, refs ReferenceSet) (*ReferenceIndex, error) {
	if err := refs.Validate(); err != nil {
		return nil, err
	}

	texts := make([]string, len(refs.Examples))
	for i, ex := range refs.Examples {
		n, err := Normalize(ex.Text)
		if err != nil {
			return nil, apperrors.NewReferenceSetInvalidError(fmt.Sprintf("example %d: %v", i, err))
		}
		texts[i] = n
	}

	vecs, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, modelError(err)
	}
	if len(vecs) != len(texts) {
		return nil, modelError(fmt.Errorf("%w: got %d vectors for %d anchors", embedding.ErrUnavailable, len(vecs), len(texts)))
	}

	idx := &ReferenceIndex{
		version: refs.Version,
		dim:     embedder.Dim(),
		groups:  make(map[Label][]anchor, len(NominalLabels)),
		size:    len(vecs),
	}
	for i, v := range vecs {
		if idx.dim <= 0 {
			idx.dim = len(v)
		}
		if len(v) != idx.dim {
			return nil, modelError(fmt.Errorf("%w: anchor %d has %d dimensions, want %d", embedding.ErrUnavailable, i, len(v), idx.dim))
		}
		a := newAnchor(v)
		if a.norm == 0 {
			return nil, apperrors.NewReferenceSetInvalidError(fmt.Sprintf("example %d (%q) embeds to a zero vector", i, refs.Examples[i].Text))
		}
		label := refs.Examples[i].Label
		idx.groups[label] = append(idx.groups[label], a)
	}
	return idx, nil
}

func newAnchor(v []float32) anchor {
	a := anchor{vec: make([]float64, len(v))}
	var sumSq float64
	for i, x := range v {
		a.vec[i] = float64(x)
		sumSq += float64(x) * float64(x)
	}
	a.norm = math.Sqrt(sumSq)
	return a
}

func (idx *ReferenceIndex) Version() string { return idx.version }
func (idx *ReferenceIndex) Dim() int        { return idx.dim }
func (idx *ReferenceIndex) Size() int       { return idx.size }

// Scores returns, per nominal label, the maximum cosine similarity between
// vec and that label's anchors. Labels without anchors are absent.
func (idx *ReferenceIndex) Scores(vec []float32) (map[Label]float64, error) {
	if len(vec) != idx.dim {
		return nil, fmt.Errorf("%w: input has %d dimensions, want %d", embedding.ErrUnavailable, len(vec), idx.dim)
	}
	in := newAnchor(vec)

	scores := make(map[Label]float64, len(idx.groups))
	for _, label := range NominalLabels {
		anchors := idx.groups[label]
		if len(anchors) == 0 {
			continue
		}
		best := math.Inf(-1)
		for _, a := range anchors {
			if s := cosine(in, a); s > best {
				best = s
			}
		}
		scores[label] = best
	}
	return scores, nil
}

// cosine is 0 when either vector has zero norm.
func cosine(a, b anchor) float64 {
	if a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for i := range a.vec {
		dot += a.vec[i] * b.vec[i]
	}
	return dot / (a.norm * b.norm)
}

// Classifier picks the label whose best anchor is most similar to the input.
type Classifier struct {
	index     *ReferenceIndex
	embedder  Embedder
	threshold float64
}

func NewClassifier(index *ReferenceIndex, embedder Embedder, minConfidence float64) *Classifier {
	return &Classifier{index: index, embedder: embedder, threshold: minConfidence}
}

func (c *Classifier) Threshold() float64 { return c.threshold }

// Classify embeds already normalised text and scores it. Empty text is
// UNKNOWN with confidence 0 and never reaches the model.
func (c *Classifier) Classify(ctx context.Context, normalized string) (ClassificationResult, error) {
	if normalized == "" {
		return ClassificationResult{Intent: Unknown, Confidence: 0}, nil
	}

	vec, err := c.embedder.Embed(ctx, normalized)
	if err != nil {
		return ClassificationResult{}, modelError(err)
	}
	return c.ClassifyVector(vec)
}

// ClassifyBatch embeds all texts in one call. Texts must be non-empty and normalised.
func (c *Classifier) ClassifyBatch(ctx context.Context, normalized []string) ([]ClassificationResult, error) {
	vecs, err := c.embedder.EmbedBatch(ctx, normalized)
	if err != nil {
		return nil, modelError(err)
	}
	if len(vecs) != len(normalized) {
		return nil, modelError(fmt.Errorf("%w: got %d vectors for %d texts", embedding.ErrUnavailable, len(vecs), len(normalized)))
	}

	out := make([]ClassificationResult, len(vecs))
	for i, v := range vecs {
		if out[i], err = c.ClassifyVector(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ClassifyVector scores a precomputed embedding.
func (c *Classifier) ClassifyVector(vec []float32) (ClassificationResult, error) {
	scores, err := c.index.Scores(vec)
	if err != nil {
		return ClassificationResult{}, modelError(err)
	}
	return decide(scores, c.threshold), nil
}

// decide takes the argmax in declaration order; a later label must be
// strictly greater to win, so ties go to the earlier label. Below threshold
// the result is UNKNOWN carrying the best score.
func decide(scores map[Label]float64, threshold float64) ClassificationResult {
	bestLabel := Unknown
	best := math.Inf(-1)
	for _, label := range NominalLabels {
		s, ok := scores[label]
		if !ok {
			continue
		}
		if s > best {
			best, bestLabel = s, label
		}
	}

	if bestLabel == Unknown {
		return ClassificationResult{Intent: Unknown, Confidence: 0}
	}

	confidence := clamp01(best)
	if best < threshold {
		return ClassificationResult{Intent: Unknown, Confidence: confidence}
	}
	return ClassificationResult{Intent: bestLabel, Confidence: confidence}
}

func clamp01(x float64) float64 {
	switch {
	case x < 0 || math.IsNaN(x):
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}

// modelError converts backend failures into the service error taxonomy.
func modelError(err error) error {
	if _, ok := apperrors.AsStandardError(err); ok {
		return err
	}
	wrapped := fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	if errors.Is(err, embedding.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewEmbeddingTimeoutError(wrapped)
	}
	return apperrors.NewModelUnavailableError(wrapped)
}
