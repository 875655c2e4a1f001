package embedding

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	httpclient "intent-service/internal/common/http"
)

// HTTPEmbedder talks to an OpenAI-compatible /v1/embeddings endpoint, which is
// what text-embeddings-inference, vLLM and most sentence-transformers servers expose.
type HTTPEmbedder struct {
	baseURL string
	model   string
	dim     int
	timeout time.Duration
	client  *httpclient.Client
}

func NewHTTPEmbedder(baseURL, model, apiKey string, dim int, timeout time.Duration) *HTTPEmbedder {
	return &HTTPEmbedder{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		dim:     dim,
		timeout: timeout,
		client:  httpclient.NewClient(0).WithBearerToken(apiKey),
	}
}

func (e *HTTPEmbedder) Name() string { return "http-" + e.model }
func (e *HTTPEmbedder) Dim() int     { return e.dim }

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *HTTPEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	ctx, cancel := withTimeout(ctx, e.timeout)
	defer cancel()

	var out embeddingsResponse
	if err := e.client.PostJSON(ctx, e.baseURL+"/v1/embeddings", embeddingsRequest{Model: e.model, Input: texts}, &out); err != nil {
		return nil, classifyError(err)
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrUnavailable, len(out.Data), len(texts))
	}

	sort.SliceStable(out.Data, func(i, j int) bool { return out.Data[i].Index < out.Data[j].Index })

	vecs := make([][]float32, len(out.Data))
	for i, d := range out.Data {
		if err := checkDim(d.Embedding, e.dim); err != nil {
			return nil, err
		}
		vecs[i] = d.Embedding
	}
	return vecs, nil
}
