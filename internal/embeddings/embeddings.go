// Package embeddings defines the embedding capability consumed by the
// text-based API surface.
//
// vectord itself does not run a model. Deployments that front an embedding
// service plug it in behind Embedder; the default backend is "none", which
// rejects text-based operations and limits the API to raw-vector calls.
package embeddings

import (
	"context"
	"errors"
)

// ErrNotSupported is returned by backends that cannot produce embeddings.
var ErrNotSupported = errors.New("embedding backend not available")

// Embedder generates embedding vectors for text.
type Embedder interface {
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedDocuments embeds a batch of document texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// Capabilities describes the backend.
	Capabilities() Capabilities
}

// Capabilities describes an embedding backend.
type Capabilities struct {
	Backend   string `json:"backend"`
	Model     string `json:"model"`
	Device    string `json:"device"`
	Dimension uint64 `json:"dimension"`
	// TextAPI reports whether text-based upsert and search are usable.
	TextAPI bool `json:"text_api"`
}

// NoneEmbedder is the null backend: every embed call fails with
// ErrNotSupported.
type NoneEmbedder struct {
	dimension uint64
}

// NewNoneEmbedder creates the null backend. The dimension is reported in
// capabilities so clients know what raw vectors must look like.
func NewNoneEmbedder(dimension uint64) *NoneEmbedder {
	return &NoneEmbedder{dimension: dimension}
}

func (e *NoneEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return nil, ErrNotSupported
}

func (e *NoneEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, ErrNotSupported
}

func (e *NoneEmbedder) Capabilities() Capabilities {
	return Capabilities{
		Backend:   "none",
		Model:     "none",
		Device:    "none",
		Dimension: e.dimension,
		TextAPI:   false,
	}
}
