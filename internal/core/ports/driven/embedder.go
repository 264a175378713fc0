package driven

import "context"

// Embedder generates vector embeddings from text.
// The embed stage is the only pipeline stage with a network or
// monetary cost; implementations must honour context deadlines.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type Embedder interface {
	// Name returns the registry name of this embedder.
	Name() string

	// VectorizerID identifies the embedding backend. It determines
	// which storage class this embedder's documents belong to.
	VectorizerID() string

	// Dimensions returns the fixed embedding vector size.
	Dimensions() int

	// EmbedBatch generates one embedding per input text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Ping validates the backend is reachable with a lightweight
	// request. Used for capability probing at startup.
	Ping(ctx context.Context) error
}
