package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
	"github.com/secmon-lab/cerberus/pkg/domain/types"
)

type documentRepository struct {
	mu        sync.RWMutex
	documents map[model.DocumentID]*model.Document
}

func newDocumentRepository() *documentRepository {
	return &documentRepository{
		documents: make(map[model.DocumentID]*model.Document),
	}
}

// copyDocument creates a deep copy of a document record
func copyDocument(d *model.Document) *model.Document {
	copied := &model.Document{
		ID:         d.ID,
		Title:      d.Title,
		Content:    d.Content,
		CreatedBy:  d.CreatedBy,
		ChunkCount: d.ChunkCount,
		CreatedAt:  d.CreatedAt,
	}

	if d.AccessTags != nil {
		copied.AccessTags = make(types.TagSet, len(d.AccessTags))
		copy(copied.AccessTags, d.AccessTags)
	}

	return copied
}

func (r *documentRepository) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyDocument(doc)
	if created.ID == "" {
		created.ID = model.NewDocumentID()
	}
	created.CreatedAt = time.Now().UTC()

	r.documents[created.ID] = created
	return copyDocument(created), nil
}

func (r *documentRepository) Get(ctx context.Context, id model.DocumentID) (*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, exists := r.documents[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "document not found", goerr.V("id", id))
	}

	return copyDocument(doc), nil
}

func (r *documentRepository) List(ctx context.Context) ([]*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Document, 0, len(r.documents))
	for _, d := range r.documents {
		result = append(result, copyDocument(d))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *documentRepository) Delete(ctx context.Context, id model.DocumentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.documents[id]; !exists {
		return goerr.Wrap(ErrNotFound, "document not found", goerr.V("id", id))
	}

	delete(r.documents, id)
	return nil
}
