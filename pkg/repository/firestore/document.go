package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
	"github.com/secmon-lab/cerberus/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// documentDoc is the Firestore document representation of model.Document
type documentDoc struct {
	ID         model.DocumentID `firestore:"ID"`
	Title      string           `firestore:"Title"`
	Content    string           `firestore:"Content"`
	CreatedBy  string           `firestore:"CreatedBy"`
	AccessTags []string         `firestore:"AccessTags"`
	ChunkCount int              `firestore:"ChunkCount"`
	CreatedAt  time.Time        `firestore:"CreatedAt"`
}

func toDocumentDoc(d *model.Document) *documentDoc {
	return &documentDoc{
		ID:         d.ID,
		Title:      d.Title,
		Content:    d.Content,
		CreatedBy:  d.CreatedBy,
		AccessTags: d.AccessTags.Strings(),
		ChunkCount: d.ChunkCount,
		CreatedAt:  d.CreatedAt,
	}
}

func fromDocumentDoc(d *documentDoc) *model.Document {
	return &model.Document{
		ID:         d.ID,
		Title:      d.Title,
		Content:    d.Content,
		CreatedBy:  d.CreatedBy,
		AccessTags: types.NewTagSetFromStrings(d.AccessTags...),
		ChunkCount: d.ChunkCount,
		CreatedAt:  d.CreatedAt,
	}
}

func docToDocument(doc *firestore.DocumentSnapshot) (*model.Document, error) {
	var d documentDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	return fromDocumentDoc(&d), nil
}

type documentRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newDocumentRepository(client *firestore.Client) *documentRepository {
	return &documentRepository{
		client: client,
	}
}

func (r *documentRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "documents")
}

func (r *documentRepository) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	created := *doc
	if created.ID == "" {
		created.ID = model.NewDocumentID()
	}
	created.CreatedAt = time.Now().UTC()

	docRef := r.collection().Doc(string(created.ID))
	if _, err := docRef.Set(ctx, toDocumentDoc(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create document", goerr.V("id", created.ID))
	}

	return &created, nil
}

func (r *documentRepository) Get(ctx context.Context, id model.DocumentID) (*model.Document, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "document not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get document", goerr.V("id", id))
	}

	return docToDocument(doc)
}

func (r *documentRepository) List(ctx context.Context) ([]*model.Document, error) {
	iter := r.collection().OrderBy("CreatedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var result []*model.Document
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate documents")
		}

		d, err := docToDocument(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal document")
		}
		result = append(result, d)
	}

	return result, nil
}

func (r *documentRepository) Delete(ctx context.Context, id model.DocumentID) error {
	docRef := r.collection().Doc(string(id))
	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "document not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get document", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete document", goerr.V("id", id))
	}
	return nil
}
