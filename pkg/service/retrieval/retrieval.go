package retrieval

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/cerberus/pkg/domain/interfaces"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
	"github.com/secmon-lab/cerberus/pkg/utils/logging"
)

// Retrieval defaults from the reference policy
const (
	DefaultTopK      = 5
	DefaultThreshold = 1.0
)

// Service performs similarity search over the chunk index and applies
// the access policy before any content can reach a generation step
type Service struct {
	llmClient gollem.LLMClient
	index     interfaces.ChunkIndex
	policy    Policy
}

// Option is a functional option for Service configuration
type Option func(*Service)

// WithPolicy replaces the default tag-and-score policy
func WithPolicy(p Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// New creates a retrieval Service
func New(llmClient gollem.LLMClient, index interfaces.ChunkIndex, opts ...Option) (*Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	if index == nil {
		return nil, goerr.New("chunk index is required")
	}

	s := &Service{
		llmClient: llmClient,
		index:     index,
		policy:    TagAndScorePolicy{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Retrieve embeds the query, searches the index for up to topK
// candidates, and returns only those the policy admits for the
// requester, preserving the search order. An empty result is returned
// as an empty slice; substituting refusal text is the caller's job.
func (s *Service) Retrieve(ctx context.Context, query string, requester *model.User, topK int, threshold float64) ([]*model.Candidate, error) {
	if requester == nil {
		return nil, goerr.New("requester is required")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	embeddings, err := s.llmClient.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{query})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, goerr.New("embedding generation returned empty result")
	}

	embedding := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		embedding[i] = float32(v)
	}

	candidates, err := s.index.Search(ctx, embedding, topK)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search chunk index")
	}

	// No re-ranking: the search order survives filtering
	authorized := make([]*model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if s.policy.Allow(c, requester, threshold) {
			authorized = append(authorized, c)
		}
	}

	logging.From(ctx).Debug("retrieval filtered",
		"policy", s.policy.Name(),
		"candidates", len(candidates),
		"authorized", len(authorized),
		"user_id", requester.ID,
	)

	return authorized, nil
}
