package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/cerberus/pkg/domain/types"
	"github.com/secmon-lab/cerberus/pkg/utils/logging"
)

// defaultHeadWords bounds how much of a document the keyword matcher
// inspects. Classification over the whole text would be wasteful and
// the opening of a document carries the strongest signal.
const defaultHeadWords = 100

// Classifier assigns an access tag to document text using rule-based
// keyword matching with a constrained-output LLM fallback
type Classifier struct {
	llmClient gollem.LLMClient
	patterns  PatternTable
	headWords int
}

// Option is a functional option for Classifier configuration
type Option func(*Classifier)

// WithPatternTable replaces the built-in keyword table
func WithPatternTable(table PatternTable) Option {
	return func(c *Classifier) {
		c.patterns = table
	}
}

// WithHeadWords overrides how many leading words are inspected
func WithHeadWords(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.headWords = n
		}
	}
}

// New creates a new Classifier with the provided LLM client for the
// fallback path
func New(llmClient gollem.LLMClient, opts ...Option) (*Classifier, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &Classifier{
		llmClient: llmClient,
		patterns:  DefaultPatternTable(),
		headWords: defaultHeadWords,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Classify returns exactly one access tag for the given text. Keyword
// matching over the leading words is tried first; when no keyword hits
// at all, a constrained-output LLM call decides. The result is always a
// member of the closed tag set.
func (c *Classifier) Classify(ctx context.Context, text string) (types.AccessTag, error) {
	head := headWords(text, c.headWords)

	if tag, ok := c.matchByKeywords(head); ok {
		return tag, nil
	}

	logging.From(ctx).Debug("no keyword match, falling back to LLM classification")
	return c.classifyWithLLM(ctx, head)
}

// headWords returns the first n whitespace-separated words of text
func headWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// matchByKeywords counts keyword hits per tag. The tag with the highest
// count wins; general_access wins any tie it is part of because it is
// the most permissive choice. A tie between two restrictive tags is
// resolved by lexicographic tag order.
func (c *Classifier) matchByKeywords(text string) (types.AccessTag, bool) {
	lower := strings.ToLower(text)

	counts := make(map[types.AccessTag]int, len(c.patterns))
	for tag, keywords := range c.patterns {
		for _, kw := range keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				counts[tag]++
			}
		}
	}

	best := 0
	for _, n := range counts {
		if n > best {
			best = n
		}
	}
	if best == 0 {
		return "", false
	}

	var winners []types.AccessTag
	for tag, n := range counts {
		if n == best {
			winners = append(winners, tag)
		}
	}

	for _, tag := range winners {
		if tag == types.TagGeneralAccess {
			return types.TagGeneralAccess, true
		}
	}

	sort.Slice(winners, func(i, j int) bool { return winners[i] < winners[j] })
	return winners[0], true
}

// llmResponse is the constrained output of the fallback classification
type llmResponse struct {
	Tag string `json:"tag"`
}

// classifyWithLLM asks the model for exactly one tag from the closed
// set. Any non-conforming output maps to general_access with a warning;
// the fallback can never introduce a tag outside the closed set.
func (c *Classifier) classifyWithLLM(ctx context.Context, text string) (types.AccessTag, error) {
	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(buildResponseSchema()),
		gollem.WithSessionSystemPrompt(classifySystemPrompt),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buildUserPrompt(text)))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate classification from LLM")
	}
	if len(resp.Texts) == 0 {
		return "", goerr.New("empty classification response from LLM")
	}

	var parsed llmResponse
	if err := json.Unmarshal([]byte(resp.Texts[0]), &parsed); err != nil {
		logging.From(ctx).Warn("unparsable LLM classification, defaulting to general_access",
			"response", resp.Texts[0])
		return types.TagGeneralAccess, nil
	}

	tag, err := types.ParseAccessTag(strings.ToLower(strings.TrimSpace(parsed.Tag)))
	if err != nil {
		logging.From(ctx).Warn("unexpected LLM classification tag, defaulting to general_access",
			"tag", parsed.Tag)
		return types.TagGeneralAccess, nil
	}

	return tag, nil
}

const classifySystemPrompt = `You are a document content classification assistant.

Classify the document into exactly one access tag:
- "general_access": documents suitable for all employees.
- "hr_only": HR or employee policy related content.
- "it_only": IT, tech, or infrastructure related content.
- "finance_only": financial or accounting related content.

If the content is suitable for everyone, choose "general_access".`

func buildUserPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("Classify the following document content.\n\n")
	sb.WriteString("## Document content:\n\n")
	sb.WriteString(text)
	sb.WriteString("\n")
	return sb.String()
}

// buildResponseSchema creates the JSON schema for structured output
func buildResponseSchema() *gollem.Parameter {
	tags := types.AllAccessTags()
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.String()
	}

	return &gollem.Parameter{
		Title:       "AccessTagClassification",
		Description: "Single access tag classifying the document content",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"tag": {
				Type:        gollem.TypeString,
				Description: fmt.Sprintf("Exactly one of: %s", strings.Join(names, ", ")),
				Required:    true,
			},
		},
	}
}
