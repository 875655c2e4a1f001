package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/austinfhunter/voyageai"
)

const (
	DefaultVoyageModel      = "voyage-3.5-lite"
	DefaultVoyageDimensions = 1024
)

// VoyageEmbedder calls the hosted VoyageAI API. The client has no context
// support, so the deadline is enforced around the call.
type VoyageEmbedder struct {
	model   string
	dim     int
	timeout time.Duration
	embed   func(texts []string) ([][]float32, error)
}

func NewVoyageEmbedder(apiKey, model string, dim int, timeout time.Duration) *VoyageEmbedder {
	if model == "" || model == defaultLocalModel {
		model = DefaultVoyageModel
	}
	if dim == 0 {
		dim = DefaultVoyageDimensions
	}

	client := voyageai.NewClient(&voyageai.VoyageClientOpts{
		Key: apiKey,
	})
	inputType := "query"
	outputDim := dim

	e := &VoyageEmbedder{model: model, dim: dim, timeout: timeout}
	e.embed = func(texts []string) ([][]float32, error) {
		resp, err := client.Embed(texts, model, &voyageai.EmbeddingRequestOpts{
			InputType:       &inputType,
			OutputDimension: &outputDim,
		})
		if err != nil {
			return nil, err
		}
		out := make([][]float32, len(resp.Data))
		for i, d := range resp.Data {
			out[i] = d.Embedding
		}
		return out, nil
	}
	return e
}

func (e *VoyageEmbedder) Name() string { return "voyage-" + e.model }
func (e *VoyageEmbedder) Dim() int     { return e.dim }

func (e *VoyageEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *VoyageEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	ctx, cancel := withTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		vecs [][]float32
		err  error
	}
	done := make(chan result, 1)
	go func() {
		vecs, err := e.embed(texts)
		done <- result{vecs: vecs, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, classifyError(ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		return nil, fmt.Errorf("%w: voyage: %v", ErrUnavailable, res.err)
	}
	if len(res.vecs) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrUnavailable, len(res.vecs), len(texts))
	}
	for _, v := range res.vecs {
		if err := checkDim(v, e.dim); err != nil {
			return nil, err
		}
	}
	return res.vecs, nil
}
