package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cerberus/pkg/agent"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
	"github.com/secmon-lab/cerberus/pkg/domain/types"
	"github.com/secmon-lab/cerberus/pkg/service/ingest"
	"github.com/secmon-lab/cerberus/pkg/utils/logging"
)

type planInput struct {
	files []ingest.RawFile
	tags  types.TagSet
}

// PlanOption supplies inputs for the ingestion path
type PlanOption func(*planInput)

// WithFiles attaches files to ingest
func WithFiles(files []ingest.RawFile) PlanOption {
	return func(p *planInput) {
		p.files = files
	}
}

// WithAccessTags sets manual access tags that skip classification
func WithAccessTags(tags types.TagSet) PlanOption {
	return func(p *planInput) {
		p.tags = tags
	}
}

// Plan routes a task to ingestion or question answering. Authorization
// and task-recognition outcomes come back as structured results, not
// errors; an error means an infrastructure failure.
func (uc *UseCases) Plan(ctx context.Context, task string, requester *model.User, opts ...PlanOption) (*model.PlanResult, error) {
	if requester == nil {
		return &model.PlanResult{Result: model.UnauthorizedMessage}, nil
	}

	var input planInput
	for _, opt := range opts {
		opt(&input)
	}

	logger := logging.From(ctx)

	switch {
	case strings.Contains(strings.ToLower(task), "ingest"):
		// The admin gate comes before the pipeline is touched at all
		if !requester.IsAdmin() {
			logger.Warn("ingestion denied", "user_id", requester.ID)
			return &model.PlanResult{Result: model.IngestDeniedMessage}, nil
		}

		results := uc.pipeline.Ingest(ctx, input.files, input.tags, requester)
		return &model.PlanResult{
			Result: ingestSummary(results),
			Files:  results,
		}, nil

	case strings.TrimSpace(task) != "":
		answer, err := uc.Query(ctx, task, requester)
		if err != nil {
			return nil, err
		}
		return &model.PlanResult{Result: answer}, nil

	default:
		return &model.PlanResult{Result: model.UnknownTaskMessage}, nil
	}
}

func ingestSummary(results []model.FileResult) string {
	succeeded := 0
	for _, r := range results {
		if r.Status == model.FileStatusSuccess {
			succeeded++
		}
	}

	return fmt.Sprintf("Ingestion finished: %d/%d files succeeded.", succeeded, len(results))
}

// Query runs the bounded reasoning loop for a single question
func (uc *UseCases) Query(ctx context.Context, query string, requester *model.User) (string, error) {
	if requester == nil {
		return "", goerr.New("requester is required")
	}

	toolset := agent.NewToolset(uc.retrieval, uc.answer, requester, uc.topK, uc.threshold)
	loop, err := agent.New(uc.llmClient, toolset.Tools(), agent.WithMaxSteps(uc.maxSteps))
	if err != nil {
		return "", goerr.Wrap(err, "failed to build reasoning loop")
	}

	return loop.Run(ctx, query)
}

// Purge removes a document. Only admins may purge.
func (uc *UseCases) Purge(ctx context.Context, docID model.DocumentID, requester *model.User) error {
	if requester == nil || !requester.IsAdmin() {
		return goerr.New("purge requires admin access",
			goerr.V("documentID", docID),
		)
	}

	return uc.pipeline.Purge(ctx, docID)
}
