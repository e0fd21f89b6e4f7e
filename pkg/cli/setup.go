package cli

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cerberus/pkg/cli/config"
	"github.com/secmon-lab/cerberus/pkg/domain/interfaces"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
	"github.com/secmon-lab/cerberus/pkg/service/answer"
	"github.com/secmon-lab/cerberus/pkg/usecase"
	"github.com/secmon-lab/cerberus/pkg/utils/logging"

	fsrepo "github.com/secmon-lab/cerberus/pkg/repository/firestore"
	memrepo "github.com/secmon-lab/cerberus/pkg/repository/memory"
)

// stack bundles the configured backends behind the use cases so
// commands can tear everything down with one call
type stack struct {
	UseCases *usecase.UseCases
	Repo     interfaces.Repository
	index    interfaces.ChunkIndex
}

func (s *stack) Close(ctx context.Context) {
	logger := logging.From(ctx)
	if err := s.index.Close(); err != nil {
		logger.Error("failed to close index", "error", err.Error())
	}
	if err := s.Repo.Close(); err != nil {
		logger.Error("failed to close repository", "error", err.Error())
	}
}

func buildStack(ctx context.Context, geminiCfg *config.Gemini, repoCfg *config.Repository, indexCfg *config.Index, retrievalCfg *config.Retrieval, ingestCfg *config.Ingest) (*stack, error) {
	llmClient, err := geminiCfg.Configure(ctx)
	if err != nil {
		return nil, err
	}

	repo, err := repoCfg.Configure(ctx)
	if err != nil {
		return nil, err
	}

	index, err := indexCfg.Configure(ctx, repoCfg)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	retrievalSvc, err := retrievalCfg.Configure(llmClient, index)
	if err != nil {
		_ = index.Close()
		_ = repo.Close()
		return nil, err
	}

	answerSvc, err := answer.New(llmClient)
	if err != nil {
		_ = index.Close()
		_ = repo.Close()
		return nil, err
	}

	pipeline, err := ingestCfg.Configure(repo, index, llmClient)
	if err != nil {
		_ = index.Close()
		_ = repo.Close()
		return nil, err
	}

	uc, err := usecase.New(repo, pipeline, retrievalSvc, answerSvc, llmClient,
		usecase.WithTopK(retrievalCfg.TopK()),
		usecase.WithThreshold(retrievalCfg.Threshold()),
	)
	if err != nil {
		_ = index.Close()
		_ = repo.Close()
		return nil, err
	}

	return &stack{UseCases: uc, Repo: repo, index: index}, nil
}

// lookupUser resolves a user ID. An unknown user comes back as a nil
// user without error; the orchestrator turns that into the
// unauthorized result.
func lookupUser(ctx context.Context, repo interfaces.Repository, id string) (*model.User, error) {
	if id == "" {
		return nil, goerr.New("user ID is required")
	}

	user, err := repo.User().Get(ctx, id)
	if err != nil {
		if errors.Is(err, memrepo.ErrNotFound) || errors.Is(err, fsrepo.ErrNotFound) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to look up user", goerr.V("id", id))
	}

	return user, nil
}
