package answer

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
)

// Service produces the final natural-language answer strictly bounded
// to the supplied, already-authorized context
type Service struct {
	llmClient gollem.LLMClient
}

// New creates an answer Service
func New(llmClient gollem.LLMClient) (*Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &Service{llmClient: llmClient}, nil
}

// synthesizeSystemPrompt constrains generation to the supplied context.
// This is a contract on prompt construction; the model is not assumed
// to obey it perfectly.
const synthesizeSystemPrompt = `You are a company assistant.
Answer the user's query concisely based only on the provided context.
Do not use any outside knowledge.
If the context does not contain an explicit answer, reply with only:
"` + model.NotInContextMessage + `"`

// Synthesize answers the query from the given context. Empty context
// yields the canonical refusal verbatim; no model call is made.
func (s *Service) Synthesize(ctx context.Context, query, contextText string) (string, error) {
	if strings.TrimSpace(contextText) == "" {
		return model.RefusalMessage, nil
	}

	session, err := s.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(synthesizeSystemPrompt),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buildUserPrompt(query, contextText)))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate answer from LLM")
	}
	if len(resp.Texts) == 0 {
		return "", goerr.New("empty answer response from LLM")
	}

	return strings.TrimSpace(strings.Join(resp.Texts, "\n")), nil
}

func buildUserPrompt(query, contextText string) string {
	var sb strings.Builder
	sb.WriteString("## User query:\n\n")
	sb.WriteString(query)
	sb.WriteString("\n\n## Context:\n\n")
	sb.WriteString(contextText)
	sb.WriteString("\n")
	return sb.String()
}
