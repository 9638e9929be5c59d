// Package scoring computes student↔project compatibility scores. Scoring is
// deterministic: the same profile and project always produce the same result,
// so shortlist generation is reproducible.
package scoring

import (
	"context"
	"errors"

	profiledomain "github.com/stagelink/stagelink/internal/profile/domain"
	projectdomain "github.com/stagelink/stagelink/internal/project/domain"
)

// Result is the outcome of scoring one candidate against one project.
type Result struct {
	Score     float64  `json:"score"`
	Strengths []string `json:"strengths"`
	Concerns  []string `json:"concerns"`
}

// Scorer scores a candidate profile against a project.
type Scorer interface {
	Score(ctx context.Context, profile *profiledomain.CandidateProfile, project *projectdomain.Project) (Result, error)
}

// NeutralScore is used when scoring is unavailable for a candidate. The
// candidate stays in the pool at a middle rank instead of being dropped.
const NeutralScore = 50.0

// ErrScoringUnavailable marks a per-candidate scoring failure. It is
// recoverable: the shortlist generator degrades that candidate to
// NeutralScore and flags the entry, it never aborts the batch.
var ErrScoringUnavailable = errors.New("scoring_unavailable")

// Degraded is the Result substituted for a candidate whose scoring failed.
func Degraded() Result {
	return Result{
		Score:     NeutralScore,
		Strengths: []string{},
		Concerns:  []string{"compatibility score unavailable, neutral score applied"},
	}
}
