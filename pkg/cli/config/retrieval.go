package config

import (
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/cerberus/pkg/domain/interfaces"
	"github.com/secmon-lab/cerberus/pkg/service/retrieval"
	"github.com/urfave/cli/v3"
)

// Retrieval holds CLI flags for the retrieval stage
type Retrieval struct {
	topK      int
	threshold float64
	policy    string
}

// Flags returns CLI flags for retrieval configuration
func (r *Retrieval) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "retrieval-top-k",
			Usage:       "Number of nearest chunks to consider per query",
			Value:       retrieval.DefaultTopK,
			Sources:     cli.EnvVars("CERBERUS_RETRIEVAL_TOP_K"),
			Destination: &r.topK,
		},
		&cli.FloatFlag{
			Name:        "retrieval-threshold",
			Usage:       "Maximum cosine distance for a chunk to qualify",
			Value:       retrieval.DefaultThreshold,
			Sources:     cli.EnvVars("CERBERUS_RETRIEVAL_THRESHOLD"),
			Destination: &r.threshold,
		},
		&cli.StringFlag{
			Name:        "retrieval-policy",
			Usage:       "Candidate admission policy (tag_and_score, tag_only, score_only)",
			Value:       "tag_and_score",
			Sources:     cli.EnvVars("CERBERUS_RETRIEVAL_POLICY"),
			Destination: &r.policy,
		},
	}
}

// TopK returns the configured candidate count
func (r *Retrieval) TopK() int {
	return r.topK
}

// Threshold returns the configured distance threshold
func (r *Retrieval) Threshold() float64 {
	return r.threshold
}

// Configure builds a retrieval service over the given index
func (r *Retrieval) Configure(llmClient gollem.LLMClient, index interfaces.ChunkIndex) (*retrieval.Service, error) {
	policy, err := retrieval.ParsePolicy(r.policy)
	if err != nil {
		return nil, err
	}

	return retrieval.New(llmClient, index, retrieval.WithPolicy(policy))
}
