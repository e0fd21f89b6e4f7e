package retrieval_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
	"github.com/secmon-lab/cerberus/pkg/domain/types"
	"github.com/secmon-lab/cerberus/pkg/service/retrieval"

	memindex "github.com/secmon-lab/cerberus/pkg/index/memory"
)

type embedOnlyClient struct {
	embedding []float64
}

func (c *embedOnlyClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, nil
}

func (c *embedOnlyClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	out := make([][]float64, len(input))
	for i := range input {
		out[i] = c.embedding
	}
	return out, nil
}

// axisEmbedding builds a unit vector along the given axis so cosine
// distances in the memory index are exactly 0 or 1
func axisEmbedding(axis int) []float32 {
	v := make([]float32, model.EmbeddingDimension)
	v[axis] = 1
	return v
}

func newChunk(id string, axis int, tags ...types.AccessTag) *model.Chunk {
	return &model.Chunk{
		ID:         model.ChunkID(id),
		DocumentID: model.DocumentID("doc-" + id),
		Text:       "text of " + id,
		Embedding:  axisEmbedding(axis),
		AccessTags: types.NewTagSet(tags...),
	}
}

func itUser() *model.User {
	return &model.User{
		ID:         "it_user",
		Name:       "IT User",
		AccessTags: types.NewTagSet(types.TagITOnly, types.TagGeneralAccess),
	}
}

func TestRetrieve_TagFilter(t *testing.T) {
	ctx := context.Background()
	index := memindex.New()
	gt.NoError(t, index.AddBatch(ctx, []*model.Chunk{
		newChunk("vpn", 0, types.TagITOnly),
		newChunk("salary", 0, types.TagHROnly),
		newChunk("holidays", 0, types.TagGeneralAccess),
	})).Required()

	query := make([]float64, model.EmbeddingDimension)
	query[0] = 1

	svc, err := retrieval.New(&embedOnlyClient{embedding: query}, index)
	gt.NoError(t, err).Required()

	got, err := svc.Retrieve(ctx, "vpn setup", itUser(), 5, retrieval.DefaultThreshold)
	gt.NoError(t, err).Required()

	gt.Array(t, got).Length(2)
	for _, c := range got {
		gt.String(t, string(c.Chunk.ID)).NotEqual("salary")
	}
}

func TestRetrieve_ThresholdBoundary(t *testing.T) {
	ctx := context.Background()
	index := memindex.New()
	// Orthogonal to the query: cosine distance exactly 1.0
	gt.NoError(t, index.AddBatch(ctx, []*model.Chunk{
		newChunk("orthogonal", 1, types.TagGeneralAccess),
	})).Required()

	query := make([]float64, model.EmbeddingDimension)
	query[0] = 1

	svc, err := retrieval.New(&embedOnlyClient{embedding: query}, index)
	gt.NoError(t, err).Required()

	// Distance equal to the threshold is admitted
	got, err := svc.Retrieve(ctx, "q", itUser(), 5, 1.0)
	gt.NoError(t, err).Required()
	gt.Array(t, got).Length(1)

	// A tighter threshold excludes it
	got, err = svc.Retrieve(ctx, "q", itUser(), 5, 0.5)
	gt.NoError(t, err).Required()
	gt.Array(t, got).Length(0)
}

func TestRetrieve_OrderPreserved(t *testing.T) {
	ctx := context.Background()
	index := memindex.New()

	near := newChunk("near", 0, types.TagGeneralAccess)
	mid := newChunk("mid", 0, types.TagGeneralAccess)
	far := newChunk("far", 0, types.TagGeneralAccess)
	near.Embedding = []float32{1, 0, 0}
	mid.Embedding = []float32{1, 1, 0}
	far.Embedding = []float32{1, 4, 0}
	blocked := newChunk("blocked", 0, types.TagHROnly)
	blocked.Embedding = []float32{1, 0.5, 0}
	for _, c := range []*model.Chunk{near, mid, far, blocked} {
		c.Embedding = append(c.Embedding, make([]float32, model.EmbeddingDimension-3)...)
	}
	gt.NoError(t, index.AddBatch(ctx, []*model.Chunk{far, blocked, near, mid})).Required()

	query := make([]float64, model.EmbeddingDimension)
	query[0] = 1

	svc, err := retrieval.New(&embedOnlyClient{embedding: query}, index)
	gt.NoError(t, err).Required()

	got, err := svc.Retrieve(ctx, "q", itUser(), 5, 1.0)
	gt.NoError(t, err).Required()

	// Filtering drops the blocked chunk without reordering the rest
	gt.Array(t, got).Length(3)
	gt.Value(t, string(got[0].Chunk.ID)).Equal("near")
	gt.Value(t, string(got[1].Chunk.ID)).Equal("mid")
	gt.Value(t, string(got[2].Chunk.ID)).Equal("far")
}

func TestRetrieve_NilRequester(t *testing.T) {
	index := memindex.New()
	svc, err := retrieval.New(&embedOnlyClient{embedding: make([]float64, model.EmbeddingDimension)}, index)
	gt.NoError(t, err).Required()

	_, err = svc.Retrieve(context.Background(), "q", nil, 5, 1.0)
	gt.Error(t, err)
}

func TestPolicy_Allow(t *testing.T) {
	user := itUser()
	in := &model.Candidate{
		Chunk:    newChunk("a", 0, types.TagITOnly),
		Distance: 0.3,
	}
	farAway := &model.Candidate{
		Chunk:    newChunk("b", 0, types.TagITOnly),
		Distance: 1.2,
	}
	wrongTag := &model.Candidate{
		Chunk:    newChunk("c", 0, types.TagHROnly),
		Distance: 0.3,
	}

	gt.Bool(t, retrieval.TagAndScorePolicy{}.Allow(in, user, 1.0)).True()
	gt.Bool(t, retrieval.TagAndScorePolicy{}.Allow(farAway, user, 1.0)).False()
	gt.Bool(t, retrieval.TagAndScorePolicy{}.Allow(wrongTag, user, 1.0)).False()

	gt.Bool(t, retrieval.TagOnlyPolicy{}.Allow(farAway, user, 1.0)).True()
	gt.Bool(t, retrieval.TagOnlyPolicy{}.Allow(wrongTag, user, 1.0)).False()

	gt.Bool(t, retrieval.ScoreOnlyPolicy{}.Allow(wrongTag, user, 1.0)).True()
	gt.Bool(t, retrieval.ScoreOnlyPolicy{}.Allow(farAway, user, 1.0)).False()
}

func TestParsePolicy(t *testing.T) {
	p, err := retrieval.ParsePolicy("")
	gt.NoError(t, err)
	gt.Value(t, p.Name()).Equal("tag_and_score")

	p, err = retrieval.ParsePolicy("tag_only")
	gt.NoError(t, err)
	gt.Value(t, p.Name()).Equal("tag_only")

	_, err = retrieval.ParsePolicy("everything")
	gt.Error(t, err)
}
