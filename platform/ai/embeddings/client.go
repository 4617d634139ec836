// Package embeddings provides a client for the Gemini embedding model API.
package embeddings

import (
	"context"
	"errors"
	"fmt"

	"marketplace_backend/platform/config"

	"google.golang.org/genai"
)

// Dimensions is the fixed output size of the embedding model. Vectors stored
// in the index must match this size or similarity search is meaningless.
const Dimensions = 768

// ErrEmbedding is the sentinel for model-call failures. Callers use
// errors.Is(err, ErrEmbedding) to distinguish a failed model call from a
// failed store write and decide which step to retry.
var ErrEmbedding = errors.New("embedding model call failed")

// Error wraps a model-call failure with the operation that produced it.
type Error struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches the ErrEmbedding sentinel.
func (e *Error) Is(target error) bool {
	return target == ErrEmbedding
}

// Client wraps the genai SDK for text embedding.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a new embedding client. A missing API key is a
// construction-time failure, not a deferred one: the process should refuse to
// start rather than fail on the first indexing call.
func NewClient(ctx context.Context, cfg config.EmbeddingConfig) (*Client, error) {
	if cfg.GetGeminiAPIKey() == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := cfg.GetEmbeddingModel()
	if model == "" {
		model = "text-embedding-004"
	}

	return &Client{client: client, model: model}, nil
}

// Model returns the fixed model identifier used for all embedding calls.
func (c *Client) Model() string {
	return c.model
}

// Embed generates an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	resp, err := c.client.Models.EmbedContent(ctx, c.model, contents, nil)
	if err != nil {
		return nil, &Error{Op: "embeddings.Embed", Err: err}
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, &Error{Op: "embeddings.Embed", Err: fmt.Errorf("model returned no embedding")}
	}

	vector := resp.Embeddings[0].Values
	if len(vector) != Dimensions {
		return nil, &Error{
			Op:  "embeddings.Embed",
			Err: fmt.Errorf("model returned %d dimensions, expected %d", len(vector), Dimensions),
		}
	}

	return vector, nil
}
