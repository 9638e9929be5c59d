package scoring

import (
	"context"

	"github.com/stagelink/stagelink/internal/config"
	obsmetrics "github.com/stagelink/stagelink/internal/observability/metrics"
	profiledomain "github.com/stagelink/stagelink/internal/profile/domain"
	projectdomain "github.com/stagelink/stagelink/internal/project/domain"
	"go.uber.org/zap"
)

type timedScorer struct {
	inner  Scorer
	holder *config.FunnelConfigHolder
	log    *zap.Logger
}

// NewTimedScorer bounds each scoring call by the configured per-candidate
// timeout. An overrun returns ErrScoringUnavailable for that candidate only.
func NewTimedScorer(inner Scorer, holder *config.FunnelConfigHolder, log *zap.Logger) Scorer {
	return &timedScorer{
		inner:  inner,
		holder: holder,
		log:    log.Named("scoring.timeout"),
	}
}

// Score implements Scorer.
func (s *timedScorer) Score(ctx context.Context, profile *profiledomain.CandidateProfile, project *projectdomain.Project) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.holder.Get().ScorerTimeout())
	defer cancel()

	type outcome struct {
		result Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := s.inner.Score(ctx, profile, project)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		obsmetrics.Funnel().RecordScoringDegraded()
		s.log.Warn("scoring timed out",
			zap.String("user_id", profile.UserID.String()),
			zap.String("project_id", project.ID.String()),
		)
		return Result{}, ErrScoringUnavailable
	}
}
