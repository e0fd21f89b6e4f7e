package agent

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
	"github.com/secmon-lab/cerberus/pkg/utils/errutil"
	"github.com/secmon-lab/cerberus/pkg/utils/logging"
)

//go:embed prompt/system.md
var systemPromptTmpl string

var systemPrompt = template.Must(template.New("agent_system").Parse(systemPromptTmpl))

// DefaultMaxSteps is the reference step bound: at most this many model
// completions per query
const DefaultMaxSteps = 3

// Tool is a deterministic capability the reasoning loop can invoke.
// A tool failure must be caught by the loop, never propagated raw.
type Tool interface {
	Name() string
	Description() string
	Run(ctx context.Context, input string) (string, error)
}

// Loop is a bounded tool-using control loop. It alternates model
// thought generation with tool invocation until a final answer, a tool
// failure, or step exhaustion. Conversation history is append-only
// within one invocation and discarded at termination.
type Loop struct {
	llmClient gollem.LLMClient
	tools     map[string]Tool
	order     []string
	maxSteps  int
}

// Option is a functional option for Loop configuration
type Option func(*Loop)

// WithMaxSteps overrides the iteration bound
func WithMaxSteps(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxSteps = n
		}
	}
}

// New creates a reasoning Loop with the given tool registry
func New(llmClient gollem.LLMClient, tools []Tool, opts ...Option) (*Loop, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	if len(tools) == 0 {
		return nil, goerr.New("at least one tool is required")
	}

	l := &Loop{
		llmClient: llmClient,
		tools:     make(map[string]Tool, len(tools)),
		maxSteps:  DefaultMaxSteps,
	}
	for _, t := range tools {
		if _, exists := l.tools[t.Name()]; exists {
			return nil, goerr.New("duplicate tool name", goerr.V("name", t.Name()))
		}
		l.tools[t.Name()] = t
		l.order = append(l.order, t.Name())
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Run turns a user query into a final answer. Outcomes such as tool
// failure and step exhaustion are returned as canonical answers; only
// infrastructure-level failures (model call errors) return an error.
func (l *Loop) Run(ctx context.Context, query string) (string, error) {
	logger := logging.From(ctx)

	system, err := l.buildSystemPrompt()
	if err != nil {
		return "", goerr.Wrap(err, "failed to build system prompt")
	}

	history := "User asked: " + query + "\n"

	for step := 0; step < l.maxSteps; step++ {
		output, err := l.complete(ctx, system, history+"Thought:")
		if err != nil {
			return "", goerr.Wrap(err, "failed to generate completion", goerr.V("step", step))
		}
		logger.Debug("model output", "step", step, "output", output)

		history += output + "\n"

		// Final-answer check takes precedence over action parsing
		if answer, ok := extractFinalAnswer(output); ok {
			return answer, nil
		}

		toolName, toolInput, ok := parseAction(output)
		if !ok {
			// No recognized action grammar; treat as a wasted turn,
			// not a terminal failure
			history += "Observation: Tool not recognized.\n"
			continue
		}

		tool, registered := l.tools[toolName]
		if !registered {
			history += "Observation: Tool not recognized.\n"
			continue
		}

		observation, err := tool.Run(ctx, toolInput)
		if err != nil {
			// Hard termination with the safe answer; the raw error is
			// logged and never surfaced to the caller
			_ = errutil.Handle(ctx, err, "tool execution failed")
			return model.ToolFailureMessage, nil
		}

		history += "Observation: " + observation + "\n"
	}

	logger.Warn("reasoning loop reached max steps without a final answer", "max_steps", l.maxSteps)
	return model.StepExhaustionMessage, nil
}

// complete runs one model completion over the accumulated history.
// Each iteration uses a fresh session so that the prompt alone carries
// the conversation state.
func (l *Loop) complete(ctx context.Context, system, prompt string) (string, error) {
	session, err := l.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(system),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content")
	}
	if len(resp.Texts) == 0 {
		return "", goerr.New("empty completion response")
	}

	return strings.TrimSpace(strings.Join(resp.Texts, "\n")), nil
}

// promptTool is the template view of a registered tool
type promptTool struct {
	Name        string
	Description string
}

func (l *Loop) buildSystemPrompt() (string, error) {
	data := struct {
		Refusal string
		Tools   []promptTool
	}{
		Refusal: model.RefusalMessage,
	}
	for _, name := range l.order {
		data.Tools = append(data.Tools, promptTool{
			Name:        name,
			Description: l.tools[name].Description(),
		})
	}

	var buf bytes.Buffer
	if err := systemPrompt.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to render system prompt")
	}
	return buf.String(), nil
}
