package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/secmon-lab/cerberus/pkg/domain/interfaces"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
	"github.com/secmon-lab/cerberus/pkg/domain/types"
)

// Index is an in-memory ChunkIndex using cosine distance, for
// development and tests
type Index struct {
	mu     sync.RWMutex
	chunks map[model.ChunkID]*model.Chunk
}

var _ interfaces.ChunkIndex = &Index{}

func New() *Index {
	return &Index{
		chunks: make(map[model.ChunkID]*model.Chunk),
	}
}

func copyChunk(c *model.Chunk) *model.Chunk {
	copied := &model.Chunk{
		ID:         c.ID,
		DocumentID: c.DocumentID,
		Ordinal:    c.Ordinal,
		Text:       c.Text,
		Filename:   c.Filename,
		CreatedBy:  c.CreatedBy,
	}
	if c.Embedding != nil {
		copied.Embedding = make([]float32, len(c.Embedding))
		copy(copied.Embedding, c.Embedding)
	}
	if c.AccessTags != nil {
		copied.AccessTags = make(types.TagSet, len(c.AccessTags))
		copy(copied.AccessTags, c.AccessTags)
	}
	return copied
}

func (x *Index) AddBatch(ctx context.Context, chunks []*model.Chunk) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, c := range chunks {
		x.chunks[c.ID] = copyChunk(c)
	}
	return nil
}

func (x *Index) Search(ctx context.Context, embedding []float32, limit int) ([]*model.Candidate, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var candidates []*model.Candidate
	for _, c := range x.chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		candidates = append(candidates, &model.Candidate{
			Chunk:    copyChunk(c),
			Distance: cosineDistance(embedding, c.Embedding),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})

	if limit < len(candidates) {
		candidates = candidates[:limit]
	}

	return candidates, nil
}

func (x *Index) DeleteByDocumentID(ctx context.Context, docID model.DocumentID) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for id, c := range x.chunks {
		if c.DocumentID == docID {
			delete(x.chunks, id)
		}
	}
	return nil
}

func (x *Index) Close() error {
	return nil
}

// cosineDistance is 1 - cosine similarity, so that lower means more
// similar, matching the distance polarity of the backend indexes
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 1
	}

	return 1 - dot/denom
}
