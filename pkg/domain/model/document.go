package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/cerberus/pkg/domain/types"
)

// EmbeddingDimension is the dimension of the embedding vector.
// Gemini text-embedding-004 uses 768 dimensions.
const EmbeddingDimension = 768

// DocumentID is a UUID-based identifier for a Document
type DocumentID string

// NewDocumentID generates a new UUID v4 DocumentID
func NewDocumentID() DocumentID {
	return DocumentID(uuid.New().String())
}

// ChunkID identifies a chunk as "{documentID}_{ordinal}"
type ChunkID string

// NewChunkID derives a ChunkID from its parent document and ordinal
func NewChunkID(docID DocumentID, ordinal int) ChunkID {
	return ChunkID(fmt.Sprintf("%s_%d", docID, ordinal))
}

// Document is the metadata record of an ingested file. Chunks are the
// unit of retrieval; the document row carries title, owner and tags.
// Documents are immutable once stored; re-ingestion creates a new ID.
type Document struct {
	ID         DocumentID
	Title      string
	Content    string `masq:"secret"`
	CreatedBy  string
	AccessTags types.TagSet
	ChunkCount int
	CreatedAt  time.Time
}

// Chunk is a bounded slice of a document's text. It is the unit of
// embedding, storage, and access control: a chunk is visible to a user
// iff chunk.AccessTags and user.AccessTags intersect.
type Chunk struct {
	ID         ChunkID
	DocumentID DocumentID
	Ordinal    int
	Text       string `masq:"secret"`
	Embedding  []float32
	AccessTags types.TagSet
	Filename   string
	CreatedBy  string
}

// Candidate pairs a chunk with its similarity-search distance.
// Lower distance means more similar. Candidates are transient and
// never persisted.
type Candidate struct {
	Chunk    *Chunk
	Distance float64
}
