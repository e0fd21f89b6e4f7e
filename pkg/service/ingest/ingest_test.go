package ingest_test

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/cerberus/pkg/domain/interfaces"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
	"github.com/secmon-lab/cerberus/pkg/domain/types"
	"github.com/secmon-lab/cerberus/pkg/repository/memory"
	"github.com/secmon-lab/cerberus/pkg/service/ingest"

	memindex "github.com/secmon-lab/cerberus/pkg/index/memory"
)

type embedClient struct {
	calls     int
	dropLast  bool
	dimension int
}

func (c *embedClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, nil
}

func (c *embedClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	c.calls++
	n := len(input)
	if c.dropLast {
		n--
	}
	dim := c.dimension
	if dim == 0 {
		dim = dimension
	}
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, dim)
		out[i][0] = 1
	}
	return out, nil
}

type fixedTagger struct {
	tag   types.AccessTag
	calls int
}

func (t *fixedTagger) Classify(ctx context.Context, text string) (types.AccessTag, error) {
	t.calls++
	return t.tag, nil
}

// countingIndex records the size of every write batch
type countingIndex struct {
	interfaces.ChunkIndex
	batches []int
}

func (x *countingIndex) AddBatch(ctx context.Context, chunks []*model.Chunk) error {
	x.batches = append(x.batches, len(chunks))
	return x.ChunkIndex.AddBatch(ctx, chunks)
}

func admin() *model.User {
	return &model.User{
		ID:         "admin_user",
		Name:       "Admin",
		AccessTags: types.NewTagSet(types.TagAdmin, types.TagGeneralAccess),
	}
}

func newPipeline(t *testing.T, opts ...ingest.Option) (*ingest.Pipeline, *memory.Memory, *memindex.Index, *fixedTagger) {
	t.Helper()
	repo := memory.New()
	index := memindex.New()
	tagger := &fixedTagger{tag: types.TagITOnly}
	p, err := ingest.New(repo, index, &embedClient{}, tagger, opts...)
	gt.NoError(t, err).Required()
	return p, repo, index, tagger
}

func TestIngest_Success(t *testing.T) {
	ctx := context.Background()
	p, repo, _, tagger := newPipeline(t)

	results := p.Ingest(ctx, []ingest.RawFile{
		{Name: "vpn.txt", Data: []byte("How to set up the corporate VPN.")},
	}, nil, admin())

	gt.Array(t, results).Length(1).Required()
	r := results[0]
	gt.Value(t, r.Status).Equal(model.FileStatusSuccess)
	gt.Value(t, r.Filename).Equal("vpn.txt")
	gt.Value(t, r.ChunksUploaded).Equal(1)
	gt.Value(t, tagger.calls).Equal(1)

	doc, err := repo.Document().Get(ctx, r.DocumentID)
	gt.NoError(t, err).Required()
	gt.Value(t, doc.Title).Equal("vpn.txt")
	gt.Value(t, doc.ChunkCount).Equal(1)
	gt.Value(t, doc.CreatedBy).Equal("Admin")
	gt.Array(t, doc.AccessTags).Has(types.TagITOnly)
}

func TestIngest_EmptyFileIsolated(t *testing.T) {
	ctx := context.Background()
	p, repo, _, _ := newPipeline(t)

	results := p.Ingest(ctx, []ingest.RawFile{
		{Name: "a.txt", Data: []byte("first document content")},
		{Name: "blank.txt", Data: []byte("   \n\t ")},
		{Name: "c.txt", Data: []byte("third document content")},
	}, nil, admin())

	gt.Array(t, results).Length(3).Required()
	gt.Value(t, results[0].Status).Equal(model.FileStatusSuccess)
	gt.Value(t, results[1].Status).Equal(model.FileStatusFailed)
	gt.Value(t, results[1].Reason).Equal("empty")
	gt.Value(t, results[2].Status).Equal(model.FileStatusSuccess)

	docs, err := repo.Document().List(ctx)
	gt.NoError(t, err).Required()
	gt.Array(t, docs).Length(2)
}

func TestIngest_EmbeddingMismatch(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	index := memindex.New()
	p, err := ingest.New(repo, index, &embedClient{dropLast: true}, &fixedTagger{tag: types.TagGeneralAccess})
	gt.NoError(t, err).Required()

	results := p.Ingest(ctx, []ingest.RawFile{
		{Name: "short.txt", Data: []byte("some content")},
	}, nil, admin())

	gt.Array(t, results).Length(1).Required()
	gt.Value(t, results[0].Status).Equal(model.FileStatusFailed)
	gt.Value(t, results[0].Reason).Equal("embedding_mismatch")

	// Nothing persisted for the failed file
	docs, err := repo.Document().List(ctx)
	gt.NoError(t, err).Required()
	gt.Array(t, docs).Length(0)
}

func TestIngest_ManualTagsSkipClassifier(t *testing.T) {
	ctx := context.Background()
	p, repo, _, tagger := newPipeline(t)

	manual := types.NewTagSet(types.TagFinanceOnly)
	results := p.Ingest(ctx, []ingest.RawFile{
		{Name: "budget.txt", Data: []byte("quarterly budget figures")},
	}, manual, admin())

	gt.Array(t, results).Length(1).Required()
	gt.Value(t, results[0].Status).Equal(model.FileStatusSuccess)
	gt.Value(t, tagger.calls).Equal(0)

	doc, err := repo.Document().Get(ctx, results[0].DocumentID)
	gt.NoError(t, err).Required()
	gt.Array(t, doc.AccessTags).Has(types.TagFinanceOnly)
}

func TestIngest_ChunkIDsAndBatching(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	index := &countingIndex{ChunkIndex: memindex.New()}
	p, err := ingest.New(repo, index, &embedClient{}, &fixedTagger{tag: types.TagGeneralAccess},
		ingest.WithChunking(10, 2),
		ingest.WithIndexBatchSize(3),
	)
	gt.NoError(t, err).Required()

	content := strings.Repeat("abcdefgh ", 10)
	results := p.Ingest(ctx, []ingest.RawFile{
		{Name: "long.txt", Data: []byte(content)},
	}, nil, admin())

	gt.Array(t, results).Length(1).Required()
	r := results[0]
	gt.Value(t, r.Status).Equal(model.FileStatusSuccess)
	gt.Number(t, r.ChunksUploaded).Greater(3)

	// Every batch respects the configured ceiling
	for _, n := range index.batches {
		gt.Number(t, n).LessOrEqual(3)
	}

	got, err := index.Search(ctx, firstAxis(), r.ChunksUploaded)
	gt.NoError(t, err).Required()
	gt.Array(t, got).Length(r.ChunksUploaded)

	seen := map[model.ChunkID]bool{}
	for _, c := range got {
		gt.Value(t, c.Chunk.DocumentID).Equal(r.DocumentID)
		seen[c.Chunk.ID] = true
	}
	// Chunk IDs are the document ID plus the chunk ordinal
	for i := 0; i < r.ChunksUploaded; i++ {
		gt.Bool(t, seen[model.NewChunkID(r.DocumentID, i)]).True()
	}
}

func firstAxis() []float32 {
	v := make([]float32, model.EmbeddingDimension)
	v[0] = 1
	return v
}

func TestPurge(t *testing.T) {
	ctx := context.Background()
	p, repo, index, _ := newPipeline(t)

	results := p.Ingest(ctx, []ingest.RawFile{
		{Name: "doomed.txt", Data: []byte("to be removed")},
	}, nil, admin())
	gt.Array(t, results).Length(1).Required()
	docID := results[0].DocumentID

	gt.NoError(t, p.Purge(ctx, docID)).Required()

	_, err := repo.Document().Get(ctx, docID)
	gt.Error(t, err)

	got, err := index.Search(ctx, firstAxis(), 10)
	gt.NoError(t, err).Required()
	gt.Array(t, got).Length(0)
}

func TestPurge_UnknownDocument(t *testing.T) {
	p, _, _, _ := newPipeline(t)
	err := p.Purge(context.Background(), model.NewDocumentID())
	gt.Error(t, err)
}
