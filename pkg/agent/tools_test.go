package agent_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/cerberus/pkg/agent"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
	"github.com/secmon-lab/cerberus/pkg/domain/types"
	"github.com/secmon-lab/cerberus/pkg/service/answer"
	"github.com/secmon-lab/cerberus/pkg/service/retrieval"

	memindex "github.com/secmon-lab/cerberus/pkg/index/memory"
)

// ragLLM adds working embeddings to the scripted completion client
type ragLLM struct {
	scriptedLLM
}

func (c *ragLLM) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	out := make([][]float64, len(input))
	for i := range out {
		out[i] = make([]float64, dimension)
		out[i][0] = 1
	}
	return out, nil
}

func embedAxis(axis int) []float32 {
	v := make([]float32, model.EmbeddingDimension)
	v[axis] = 1
	return v
}

func seedIndex(t *testing.T) *memindex.Index {
	t.Helper()
	index := memindex.New()
	gt.NoError(t, index.AddBatch(context.Background(), []*model.Chunk{
		{
			ID:         "vpn_0",
			DocumentID: "vpn",
			Text:       "Connect to the VPN with the corporate client and MFA.",
			Embedding:  embedAxis(0),
			AccessTags: types.NewTagSet(types.TagITOnly),
		},
		{
			ID:         "salary_0",
			DocumentID: "salary",
			Text:       "Salary bands are reviewed each April.",
			Embedding:  embedAxis(0),
			AccessTags: types.NewTagSet(types.TagHROnly),
		},
	})).Required()
	return index
}

func newToolset(t *testing.T, llm *ragLLM, user *model.User) *agent.Toolset {
	t.Helper()
	retrievalSvc, err := retrieval.New(llm, seedIndex(t))
	gt.NoError(t, err).Required()
	answerSvc, err := answer.New(llm)
	gt.NoError(t, err).Required()
	return agent.NewToolset(retrievalSvc, answerSvc, user, retrieval.DefaultTopK, retrieval.DefaultThreshold)
}

func findTool(t *testing.T, tools []agent.Tool, name string) agent.Tool {
	t.Helper()
	for _, tool := range tools {
		if tool.Name() == name {
			return tool
		}
	}
	t.Fatalf("tool %s not registered", name)
	return nil
}

func TestToolset_AuthorizedFlow(t *testing.T) {
	ctx := context.Background()
	llm := &ragLLM{scriptedLLM{outputs: []string{
		"Based on the context: connect with the corporate client and MFA.",
	}}}
	user := &model.User{
		ID:         "it_user",
		Name:       "IT User",
		AccessTags: types.NewTagSet(types.TagITOnly, types.TagGeneralAccess),
	}

	tools := newToolset(t, llm, user).Tools()
	rbac := findTool(t, tools, "RBACFilter")
	gen := findTool(t, tools, "GenerateAnswer")

	obs, err := rbac.Run(ctx, "how do I connect to the VPN")
	gt.NoError(t, err).Required()
	gt.String(t, obs).Contains("Connect to the VPN")
	// The hr_only chunk never reaches the observation
	gt.String(t, obs).NotEqual("Salary bands are reviewed each April.")

	got, err := gen.Run(ctx, "how do I connect to the VPN")
	gt.NoError(t, err).Required()
	gt.String(t, got).Contains("corporate client")
}

func TestToolset_UnauthorizedYieldsRefusal(t *testing.T) {
	ctx := context.Background()
	llm := &ragLLM{scriptedLLM{outputs: []string{"never used"}}}
	user := &model.User{
		ID:         "finance_user",
		Name:       "Finance User",
		AccessTags: types.NewTagSet(types.TagFinanceOnly),
	}

	tools := newToolset(t, llm, user).Tools()
	rbac := findTool(t, tools, "RBACFilter")
	gen := findTool(t, tools, "GenerateAnswer")

	obs, err := rbac.Run(ctx, "what are the salary bands")
	gt.NoError(t, err).Required()
	gt.Value(t, obs).Equal("No authorized documents found.")

	// Empty authorized context becomes the canonical refusal without a
	// model call
	got, err := gen.Run(ctx, "what are the salary bands")
	gt.NoError(t, err).Required()
	gt.Value(t, got).Equal(model.RefusalMessage)
}

func TestToolset_AnswerWithoutFilter(t *testing.T) {
	ctx := context.Background()
	llm := &ragLLM{scriptedLLM{outputs: []string{"never used"}}}
	user := &model.User{
		ID:         "it_user",
		Name:       "IT User",
		AccessTags: types.NewTagSet(types.TagITOnly),
	}

	gen := findTool(t, newToolset(t, llm, user).Tools(), "GenerateAnswer")

	// GenerateAnswer before any RBACFilter run sees no context at all
	got, err := gen.Run(ctx, "how do I connect to the VPN")
	gt.NoError(t, err).Required()
	gt.Value(t, got).Equal(model.RefusalMessage)
}
