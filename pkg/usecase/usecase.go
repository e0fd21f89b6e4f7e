package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/cerberus/pkg/agent"
	"github.com/secmon-lab/cerberus/pkg/domain/interfaces"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
	"github.com/secmon-lab/cerberus/pkg/domain/types"
	"github.com/secmon-lab/cerberus/pkg/service/answer"
	"github.com/secmon-lab/cerberus/pkg/service/ingest"
	"github.com/secmon-lab/cerberus/pkg/service/retrieval"
)

// Ingester is the ingestion surface the orchestrator depends on
type Ingester interface {
	Ingest(ctx context.Context, files []ingest.RawFile, tags types.TagSet, requester *model.User) []model.FileResult
	Purge(ctx context.Context, docID model.DocumentID) error
}

type UseCases struct {
	repo      interfaces.Repository
	pipeline  Ingester
	retrieval *retrieval.Service
	answer    *answer.Service
	llmClient gollem.LLMClient

	topK      int
	threshold float64
	maxSteps  int
}

type Option func(*UseCases)

// WithTopK sets how many candidates retrieval considers per query
func WithTopK(n int) Option {
	return func(uc *UseCases) {
		if n > 0 {
			uc.topK = n
		}
	}
}

// WithThreshold sets the maximum acceptable distance for retrieval
func WithThreshold(v float64) Option {
	return func(uc *UseCases) {
		uc.threshold = v
	}
}

// WithMaxSteps bounds the reasoning loop
func WithMaxSteps(n int) Option {
	return func(uc *UseCases) {
		if n > 0 {
			uc.maxSteps = n
		}
	}
}

func New(repo interfaces.Repository, pipeline Ingester, retrievalSvc *retrieval.Service, answerSvc *answer.Service, llmClient gollem.LLMClient, opts ...Option) (*UseCases, error) {
	if repo == nil {
		return nil, goerr.New("repository is required")
	}
	if pipeline == nil {
		return nil, goerr.New("ingestion pipeline is required")
	}
	if retrievalSvc == nil {
		return nil, goerr.New("retrieval service is required")
	}
	if answerSvc == nil {
		return nil, goerr.New("answer service is required")
	}
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	uc := &UseCases{
		repo:      repo,
		pipeline:  pipeline,
		retrieval: retrievalSvc,
		answer:    answerSvc,
		llmClient: llmClient,
		topK:      retrieval.DefaultTopK,
		threshold: retrieval.DefaultThreshold,
		maxSteps:  agent.DefaultMaxSteps,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc, nil
}
