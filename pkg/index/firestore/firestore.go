package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cerberus/pkg/domain/interfaces"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
	"github.com/secmon-lab/cerberus/pkg/domain/types"
	"google.golang.org/api/iterator"
)

// distanceField is the document field FindNearest writes the computed
// cosine distance into
const distanceField = "vector_distance"

// chunkDoc is the Firestore document representation of model.Chunk.
// Embedding is stored as firestore.Vector32 so that FindNearest vector
// search works. A vector index on Embedding must exist in the target
// database (gcloud firestore indexes composite create with vector-config).
type chunkDoc struct {
	ID         model.ChunkID      `firestore:"ID"`
	DocumentID model.DocumentID   `firestore:"DocumentID"`
	Ordinal    int                `firestore:"Ordinal"`
	Text       string             `firestore:"Text"`
	Embedding  firestore.Vector32 `firestore:"Embedding"`
	AccessTags []string           `firestore:"AccessTags"`
	Filename   string             `firestore:"Filename"`
	CreatedBy  string             `firestore:"CreatedBy"`
}

func toChunkDoc(c *model.Chunk) *chunkDoc {
	return &chunkDoc{
		ID:         c.ID,
		DocumentID: c.DocumentID,
		Ordinal:    c.Ordinal,
		Text:       c.Text,
		Embedding:  firestore.Vector32(c.Embedding),
		AccessTags: c.AccessTags.Strings(),
		Filename:   c.Filename,
		CreatedBy:  c.CreatedBy,
	}
}

func fromChunkDoc(d *chunkDoc) *model.Chunk {
	return &model.Chunk{
		ID:         d.ID,
		DocumentID: d.DocumentID,
		Ordinal:    d.Ordinal,
		Text:       d.Text,
		Embedding:  []float32(d.Embedding),
		AccessTags: types.NewTagSetFromStrings(d.AccessTags...),
		Filename:   d.Filename,
		CreatedBy:  d.CreatedBy,
	}
}

// Index is a ChunkIndex implementation backed by Cloud Firestore
// vector search
type Index struct {
	client     *firestore.Client
	collection string
}

var _ interfaces.ChunkIndex = &Index{}

type Option func(*Index)

// WithCollection overrides the chunk collection name
func WithCollection(name string) Option {
	return func(x *Index) {
		x.collection = name
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Index, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("projectID", projectID))
	}

	x := &Index{
		client:     client,
		collection: "chunks",
	}

	for _, opt := range opts {
		opt(x)
	}

	return x, nil
}

func (x *Index) chunksCollection() *firestore.CollectionRef {
	return x.client.Collection(x.collection)
}

func (x *Index) AddBatch(ctx context.Context, chunks []*model.Chunk) error {
	bw := x.client.BulkWriter(ctx)

	for _, c := range chunks {
		docRef := x.chunksCollection().Doc(string(c.ID))
		if _, err := bw.Set(docRef, toChunkDoc(c)); err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to enqueue chunk write", goerr.V("chunkID", c.ID))
		}
	}

	bw.End()
	return nil
}

func (x *Index) Search(ctx context.Context, embedding []float32, limit int) ([]*model.Candidate, error) {
	vq := x.chunksCollection().FindNearest(
		"Embedding",
		firestore.Vector32(embedding),
		limit,
		firestore.DistanceMeasureCosine,
		&firestore.FindNearestOptions{
			DistanceResultField: distanceField,
		},
	)

	iter := vq.Documents(ctx)
	defer iter.Stop()

	candidates := make([]*model.Candidate, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate vector search results")
		}

		var d chunkDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal chunk from vector search")
		}

		distance, _ := doc.Data()[distanceField].(float64)
		candidates = append(candidates, &model.Candidate{
			Chunk:    fromChunkDoc(&d),
			Distance: distance,
		})
	}

	return candidates, nil
}

func (x *Index) DeleteByDocumentID(ctx context.Context, docID model.DocumentID) error {
	iter := x.chunksCollection().Where("DocumentID", "==", string(docID)).Documents(ctx)
	defer iter.Stop()

	bw := x.client.BulkWriter(ctx)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to iterate chunks for deletion", goerr.V("documentID", docID))
		}
		if _, err := bw.Delete(doc.Ref); err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to enqueue chunk deletion", goerr.V("documentID", docID))
		}
	}

	bw.End()
	return nil
}

func (x *Index) Close() error {
	if x.client != nil {
		return x.client.Close()
	}
	return nil
}
