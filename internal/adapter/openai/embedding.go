// Package openai adapts OpenAI-compatible embedding and chat endpoints
// to the capability interfaces the pipeline and RAG service consume.
package openai

import (
	"context"
	"errors"
	"net"

	"github.com/pgvector/pgvector-go"
	openai "github.com/sashabaranov/go-openai"

	"github.com/jurisearch/backend/internal/domain/apperr"
)

type EmbeddingClient struct {
	client    *openai.Client
	model     string
	dimension int
}

// NewEmbeddingClient builds a client against the given endpoint. An
// empty baseURL means the default OpenAI API. The configured dimension
// is enforced on every response; a mismatch is a configuration error.
func NewEmbeddingClient(apiKey, baseURL, model string, dimension int) *EmbeddingClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &EmbeddingClient{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		dimension: dimension,
	}
}

// Embed turns a batch of texts into vectors. The whole batch fails
// together; partial success is not supported at this layer.
func (c *EmbeddingClient) Embed(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, classify(apperr.KindEmbedding, "embedding request failed", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, apperr.Newf(apperr.KindEmbedding, "embedding response has %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([]pgvector.Vector, len(resp.Data))
	for i, data := range resp.Data {
		if len(data.Embedding) != c.dimension {
			return nil, apperr.Newf(apperr.KindEmbedding,
				"embedding dimension mismatch: got %d, index configured for %d", len(data.Embedding), c.dimension)
		}
		vectors[i] = pgvector.NewVector(data.Embedding)
	}
	return vectors, nil
}

// classify maps transport and API failures onto the error taxonomy so
// callers can decide what to retry.
func classify(fallback apperr.Kind, msg string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return apperr.Wrap(fallback, msg+": authentication rejected", err)
		case 413:
			return apperr.Wrap(fallback, msg+": payload too large", err)
		case 429:
			return apperr.Wrap(apperr.KindRateLimited, msg+": rate limited", err)
		}
		if apiErr.HTTPStatusCode >= 500 {
			return apperr.Wrap(apperr.KindTransient, msg+": upstream error", err)
		}
		return apperr.Wrap(fallback, msg, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperr.Wrap(apperr.KindTransient, msg+": network error", err)
	}
	return apperr.Wrap(fallback, msg, err)
}
