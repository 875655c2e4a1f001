package embedding

import (
	"context"
	"strings"
	"time"

	httpclient "intent-service/internal/common/http"
)

// OllamaEmbedder uses a local Ollama instance. The API embeds one prompt per call.
type OllamaEmbedder struct {
	baseURL string
	model   string
	dim     int
	timeout time.Duration
	client  *httpclient.Client
}

func NewOllamaEmbedder(baseURL, model string, dim int, timeout time.Duration) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaEmbedder{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		dim:     dim,
		timeout: timeout,
		client:  httpclient.NewClient(0),
	}
}

func (e *OllamaEmbedder) Name() string { return "ollama-" + e.model }
func (e *OllamaEmbedder) Dim() int     { return e.dim }

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := withTimeout(ctx, e.timeout)
	defer cancel()

	var embedResp ollamaEmbedResponse
	if err := e.client.PostJSON(ctx, e.baseURL+"/api/embeddings", ollamaEmbedRequest{Model: e.model, Prompt: text}, &embedResp); err != nil {
		return nil, classifyError(err)
	}

	vec := make([]float32, len(embedResp.Embedding))
	for j, v := range embedResp.Embedding {
		vec[j] = float32(v)
	}
	if err := checkDim(vec, e.dim); err != nil {
		return nil, err
	}
	return vec, nil
}

func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}
