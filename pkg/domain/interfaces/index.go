package interfaces

import (
	"context"

	"github.com/secmon-lab/cerberus/pkg/domain/model"
)

// ChunkIndex defines the interface for the similarity-search index of
// document chunks. Implementations provide their own internal
// consistency for concurrent writers; the core takes no locks.
type ChunkIndex interface {
	// AddBatch persists chunks with their embeddings. Callers bound the
	// batch size before calling to respect backend limits.
	AddBatch(ctx context.Context, chunks []*model.Chunk) error

	// Search returns up to limit candidates nearest to the embedding,
	// most similar first, each with its distance score (lower is more
	// similar). No access control is applied here.
	Search(ctx context.Context, embedding []float32, limit int) ([]*model.Candidate, error)

	// DeleteByDocumentID removes all chunks of the given document
	DeleteByDocumentID(ctx context.Context, docID model.DocumentID) error

	Close() error
}
