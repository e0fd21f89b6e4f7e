package retrieval

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
)

// Policy decides whether a retrieval candidate is admitted for the
// given requester. The threshold is a maximum acceptable distance:
// lower distance means more similar.
type Policy interface {
	Name() string
	Allow(candidate *model.Candidate, requester *model.User, threshold float64) bool
}

// TagAndScorePolicy admits candidates whose access tags intersect the
// requester's and whose distance is within the threshold. This is the
// default and the only policy that satisfies both halves of the
// visibility invariant.
type TagAndScorePolicy struct{}

func (TagAndScorePolicy) Name() string { return "tag_and_score" }

func (TagAndScorePolicy) Allow(candidate *model.Candidate, requester *model.User, threshold float64) bool {
	if candidate.Distance > threshold {
		return false
	}
	return candidate.Chunk.AccessTags.Intersects(requester.AccessTags)
}

// TagOnlyPolicy admits any candidate whose access tags intersect the
// requester's, regardless of distance
type TagOnlyPolicy struct{}

func (TagOnlyPolicy) Name() string { return "tag_only" }

func (TagOnlyPolicy) Allow(candidate *model.Candidate, requester *model.User, threshold float64) bool {
	return candidate.Chunk.AccessTags.Intersects(requester.AccessTags)
}

// ScoreOnlyPolicy admits any candidate within the distance threshold.
// It performs no access control and is intended for corpora that are
// entirely general access.
type ScoreOnlyPolicy struct{}

func (ScoreOnlyPolicy) Name() string { return "score_only" }

func (ScoreOnlyPolicy) Allow(candidate *model.Candidate, requester *model.User, threshold float64) bool {
	return candidate.Distance <= threshold
}

// ParsePolicy resolves a policy by its configuration name
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "tag_and_score":
		return TagAndScorePolicy{}, nil
	case "tag_only":
		return TagOnlyPolicy{}, nil
	case "score_only":
		return ScoreOnlyPolicy{}, nil
	default:
		return nil, goerr.New("unknown retrieval policy", goerr.V("name", name))
	}
}
