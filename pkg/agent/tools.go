package agent

import (
	"context"
	"strings"

	"github.com/secmon-lab/cerberus/pkg/domain/model"
	"github.com/secmon-lab/cerberus/pkg/service/answer"
	"github.com/secmon-lab/cerberus/pkg/service/retrieval"
)

// Toolset builds the stock tools for one query. It carries the
// requester and the filtered context explicitly between tool
// invocations; nothing is threaded through ambient state, and a
// Toolset is never shared across invocations.
type Toolset struct {
	retrieval *retrieval.Service
	answer    *answer.Service
	requester *model.User
	topK      int
	threshold float64

	// contextParts holds the authorized chunk texts produced by the
	// most recent RBACFilter run, in search order
	contextParts []string
}

// NewToolset creates a per-invocation Toolset for the given requester
func NewToolset(retrievalSvc *retrieval.Service, answerSvc *answer.Service, requester *model.User, topK int, threshold float64) *Toolset {
	return &Toolset{
		retrieval: retrievalSvc,
		answer:    answerSvc,
		requester: requester,
		topK:      topK,
		threshold: threshold,
	}
}

// Tools returns the tool registry for the reasoning loop
func (ts *Toolset) Tools() []Tool {
	return []Tool{
		&rbacFilterTool{ts: ts},
		&generateAnswerTool{ts: ts},
	}
}

// rbacFilterTool retrieves chunks for the query and admits only those
// the requester is authorized to see
type rbacFilterTool struct {
	ts *Toolset
}

func (t *rbacFilterTool) Name() string { return "RBACFilter" }

func (t *rbacFilterTool) Description() string {
	return "Filters documents from the vector index by the user's access tags and similarity score. Input: the search query."
}

func (t *rbacFilterTool) Run(ctx context.Context, input string) (string, error) {
	candidates, err := t.ts.retrieval.Retrieve(ctx, input, t.ts.requester, t.ts.topK, t.ts.threshold)
	if err != nil {
		return "", err
	}

	parts := make([]string, len(candidates))
	for i, c := range candidates {
		parts[i] = c.Chunk.Text
	}
	t.ts.contextParts = parts

	if len(parts) == 0 {
		return "No authorized documents found.", nil
	}
	return strings.Join(parts, "\n"), nil
}

// generateAnswerTool synthesizes the final answer from the authorized
// context collected by RBACFilter
type generateAnswerTool struct {
	ts *Toolset
}

func (t *generateAnswerTool) Name() string { return "GenerateAnswer" }

func (t *generateAnswerTool) Description() string {
	return "Generates an answer from the authorized documents found by RBACFilter. Input: the user's question."
}

func (t *generateAnswerTool) Run(ctx context.Context, input string) (string, error) {
	contextText := strings.Join(t.ts.contextParts, "\n")

	result, err := t.ts.answer.Synthesize(ctx, input, contextText)
	if err != nil {
		return "", err
	}
	return result, nil
}
