package ingest

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/cerberus/pkg/domain/interfaces"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
	"github.com/secmon-lab/cerberus/pkg/domain/types"
	"github.com/secmon-lab/cerberus/pkg/utils/logging"
)

// DefaultIndexBatchSize bounds how many chunks go to the vector index
// in one write, respecting backend batch limits
const DefaultIndexBatchSize = 5000

// Tagger assigns an access tag to document text when no manual tags
// are supplied
type Tagger interface {
	Classify(ctx context.Context, text string) (types.AccessTag, error)
}

// Pipeline chunks, embeds, tags, and persists documents into the
// vector index and the metadata store
type Pipeline struct {
	repo      interfaces.Repository
	index     interfaces.ChunkIndex
	llmClient gollem.LLMClient
	tagger    Tagger
	extractor Extractor

	chunkSize      int
	chunkOverlap   int
	indexBatchSize int
}

// Option is a functional option for Pipeline configuration
type Option func(*Pipeline)

// WithChunking overrides the sliding-window parameters
func WithChunking(size, overlap int) Option {
	return func(p *Pipeline) {
		p.chunkSize = size
		p.chunkOverlap = overlap
	}
}

// WithIndexBatchSize overrides the vector index write batch size
func WithIndexBatchSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.indexBatchSize = n
		}
	}
}

// WithExtractor replaces the text extractor
func WithExtractor(e Extractor) Option {
	return func(p *Pipeline) {
		p.extractor = e
	}
}

// New creates an ingestion Pipeline
func New(repo interfaces.Repository, index interfaces.ChunkIndex, llmClient gollem.LLMClient, tagger Tagger, opts ...Option) (*Pipeline, error) {
	if repo == nil {
		return nil, goerr.New("repository is required")
	}
	if index == nil {
		return nil, goerr.New("chunk index is required")
	}
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	if tagger == nil {
		return nil, goerr.New("tagger is required")
	}

	p := &Pipeline{
		repo:           repo,
		index:          index,
		llmClient:      llmClient,
		tagger:         tagger,
		extractor:      PlainTextExtractor{},
		chunkSize:      DefaultChunkSize,
		chunkOverlap:   DefaultChunkOverlap,
		indexBatchSize: DefaultIndexBatchSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Ingest processes each file independently and returns one result per
// file in input order. A failure in one file never aborts the batch;
// the call itself never fails for per-file problems.
func (p *Pipeline) Ingest(ctx context.Context, files []RawFile, tags types.TagSet, requester *model.User) []model.FileResult {
	logger := logging.From(ctx)

	results := make([]model.FileResult, 0, len(files))
	for _, file := range files {
		result, err := p.ingestFile(ctx, file, tags, requester)
		if err != nil {
			logger.Warn("failed to ingest file",
				"filename", file.Name,
				"error", err.Error(),
			)
			results = append(results, model.FileResult{
				Filename: file.Name,
				Status:   model.FileStatusFailed,
				Reason:   reasonOf(err),
			})
			continue
		}
		results = append(results, *result)
	}

	return results
}

// ingestErr ties a stable per-file failure reason to its cause
type ingestErr struct {
	reason string
	cause  error
}

func (e *ingestErr) Error() string {
	if e.cause != nil {
		return e.reason + ": " + e.cause.Error()
	}
	return e.reason
}

func (e *ingestErr) Unwrap() error { return e.cause }

func failWith(reason string, cause error) error {
	return &ingestErr{reason: reason, cause: cause}
}

func reasonOf(err error) string {
	if ie, ok := err.(*ingestErr); ok {
		return ie.reason
	}
	return err.Error()
}

func (p *Pipeline) ingestFile(ctx context.Context, file RawFile, tags types.TagSet, requester *model.User) (*model.FileResult, error) {
	logger := logging.From(ctx)

	content, err := p.extractor.Extract(ctx, file)
	if err != nil {
		return nil, failWith(model.ReasonEmpty, err)
	}
	if strings.TrimSpace(content) == "" {
		return nil, failWith(model.ReasonEmpty, nil)
	}

	chunkTexts := splitText(content, p.chunkSize, p.chunkOverlap)
	if len(chunkTexts) == 0 {
		return nil, failWith(model.ReasonNoChunks, nil)
	}

	// Manual tagging always takes precedence over automatic
	// classification. The classifier runs once per file and its single
	// tag applies to every chunk of the file.
	chunkTags := tags
	if chunkTags.IsEmpty() {
		tag, err := p.tagger.Classify(ctx, content)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to classify document", goerr.V("filename", file.Name))
		}
		chunkTags = types.TagSet{tag}
	}

	embeddings, err := p.llmClient.GenerateEmbedding(ctx, model.EmbeddingDimension, chunkTexts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embeddings", goerr.V("filename", file.Name))
	}
	// Hard precondition, not a retry: a mismatch means the embedding
	// backend dropped or duplicated inputs.
	if len(embeddings) != len(chunkTexts) {
		return nil, failWith(model.ReasonEmbeddingMismatch, nil)
	}

	docID := model.NewDocumentID()
	createdBy := ""
	if requester != nil {
		createdBy = requester.Name
	}

	chunks := make([]*model.Chunk, len(chunkTexts))
	for i, text := range chunkTexts {
		embedding := make([]float32, len(embeddings[i]))
		for j, v := range embeddings[i] {
			embedding[j] = float32(v)
		}
		chunks[i] = &model.Chunk{
			ID:         model.NewChunkID(docID, i),
			DocumentID: docID,
			Ordinal:    i,
			Text:       text,
			Embedding:  embedding,
			AccessTags: chunkTags,
			Filename:   file.Name,
			CreatedBy:  createdBy,
		}
	}

	for start := 0; start < len(chunks); start += p.indexBatchSize {
		end := start + p.indexBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := p.index.AddBatch(ctx, chunks[start:end]); err != nil {
			return nil, goerr.Wrap(err, "failed to store chunk batch",
				goerr.V("filename", file.Name),
				goerr.V("offset", start),
			)
		}
	}

	doc := &model.Document{
		ID:         docID,
		Title:      file.Name,
		Content:    content,
		CreatedBy:  createdBy,
		AccessTags: chunkTags,
		ChunkCount: len(chunks),
	}
	if _, err := p.repo.Document().Create(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to store document metadata", goerr.V("filename", file.Name))
	}

	logger.Info("ingested document",
		"filename", file.Name,
		"document_id", docID,
		"chunks", len(chunks),
		"tags", chunkTags.Strings(),
	)

	return &model.FileResult{
		Filename:       file.Name,
		Status:         model.FileStatusSuccess,
		DocumentID:     docID,
		ChunksUploaded: len(chunks),
	}, nil
}

// Purge removes a document's chunks from the vector index and its
// metadata from the store. Authorization is enforced by the caller.
func (p *Pipeline) Purge(ctx context.Context, docID model.DocumentID) error {
	if _, err := p.repo.Document().Get(ctx, docID); err != nil {
		return goerr.Wrap(err, "failed to look up document for purge", goerr.V("documentID", docID))
	}

	if err := p.index.DeleteByDocumentID(ctx, docID); err != nil {
		return goerr.Wrap(err, "failed to delete chunks", goerr.V("documentID", docID))
	}

	if err := p.repo.Document().Delete(ctx, docID); err != nil {
		return goerr.Wrap(err, "failed to delete document metadata", goerr.V("documentID", docID))
	}

	logging.From(ctx).Info("purged document", "document_id", docID)
	return nil
}
