package interfaces

import (
	"context"

	"github.com/secmon-lab/cerberus/pkg/domain/model"
)

// Repository defines the interface for metadata persistence
type Repository interface {
	Document() DocumentRepository
	User() UserRepository
	Close() error
}

// DocumentRepository defines the interface for Document metadata persistence.
// Documents are created by ingestion, read many times, never mutated, and
// deleted only by explicit administrative purge.
type DocumentRepository interface {
	// Create persists a new document's metadata in one write
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// Get retrieves a document by ID
	Get(ctx context.Context, id model.DocumentID) (*model.Document, error)

	// List retrieves all documents, newest first
	List(ctx context.Context) ([]*model.Document, error)

	// Delete removes a document's metadata by ID
	Delete(ctx context.Context, id model.DocumentID) error
}

// UserRepository defines the interface for User records. Users are
// provisioned out-of-band and read-only to the core.
type UserRepository interface {
	Put(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
}
