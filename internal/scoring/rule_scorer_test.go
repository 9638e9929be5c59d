package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/stagelink/stagelink/internal/config"
	profiledomain "github.com/stagelink/stagelink/internal/profile/domain"
	projectdomain "github.com/stagelink/stagelink/internal/project/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func fullProfile() *profiledomain.CandidateProfile {
	return &profiledomain.CandidateProfile{
		FullName:       "Ada Student",
		University:     "TU Delft",
		Major:          "Computer Science",
		GraduationYear: 2027,
		Skills:         datatypes.NewJSONSlice([]string{"Go", "SQL", "Docker", "Kubernetes"}),
		Bio:            "Backend-minded student.",
		CVURL:          "https://example.com/cv.pdf",
	}
}

func backendProject() *projectdomain.Project {
	return &projectdomain.Project{
		Title:          "Backend Internship",
		RequiredSkills: datatypes.NewJSONSlice([]string{"go", "sql", "docker", "kubernetes"}),
		PreferredMajor: "Computer Science",
		Status:         projectdomain.StatusLive,
	}
}

func TestScore_Deterministic(t *testing.T) {
	scorer := NewRuleScorer(zap.NewNop())
	profile := fullProfile()
	project := backendProject()

	first, err := scorer.Score(context.Background(), profile, project)
	assert.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := scorer.Score(context.Background(), profile, project)
		assert.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestScore_PerfectMatch(t *testing.T) {
	scorer := NewRuleScorer(zap.NewNop())

	result, err := scorer.Score(context.Background(), fullProfile(), backendProject())
	assert.NoError(t, err)
	assert.Equal(t, 100.0, result.Score)
	assert.NotEmpty(t, result.Strengths)
	assert.Empty(t, result.Concerns)
}

func TestScore_MissingFieldsAreNeutralNotFatal(t *testing.T) {
	scorer := NewRuleScorer(zap.NewNop())

	// No profile row at all: empty profile bound to the user.
	result, err := scorer.Score(context.Background(), &profiledomain.CandidateProfile{}, backendProject())
	assert.NoError(t, err)
	assert.Greater(t, result.Score, 0.0)
	assert.Less(t, result.Score, NeutralScore)

	// Project with no required skills leaves the skills dimension neutral.
	result, err = scorer.Score(context.Background(), fullProfile(), &projectdomain.Project{Title: "Open Role"})
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, result.Score, NeutralScore)
}

func TestScore_SkillOverlapOrdering(t *testing.T) {
	scorer := NewRuleScorer(zap.NewNop())
	project := backendProject()

	strong := fullProfile()
	weak := fullProfile()
	weak.Skills = datatypes.NewJSONSlice([]string{"Photoshop"})

	strongResult, err := scorer.Score(context.Background(), strong, project)
	assert.NoError(t, err)
	weakResult, err := scorer.Score(context.Background(), weak, project)
	assert.NoError(t, err)

	assert.Greater(t, strongResult.Score, weakResult.Score)
	assert.NotEmpty(t, weakResult.Concerns)
}

type slowScorer struct{ delay time.Duration }

func (s *slowScorer) Score(ctx context.Context, _ *profiledomain.CandidateProfile, _ *projectdomain.Project) (Result, error) {
	select {
	case <-time.After(s.delay):
		return Result{Score: 99}, nil
	case <-ctx.Done():
		return Result{}, ErrScoringUnavailable
	}
}

func TestTimedScorer_DegradesOnTimeout(t *testing.T) {
	cfg := config.DefaultFunnelConfig()
	cfg.ScorerTimeoutMS = 10
	holder := config.NewFunnelConfigHolderWith(cfg)

	scorer := NewTimedScorer(&slowScorer{delay: time.Second}, holder, zap.NewNop())

	_, err := scorer.Score(context.Background(), fullProfile(), backendProject())
	assert.ErrorIs(t, err, ErrScoringUnavailable)
}

func TestTimedScorer_PassesThroughFastResults(t *testing.T) {
	holder := config.NewFunnelConfigHolderWith(config.DefaultFunnelConfig())
	scorer := NewTimedScorer(NewRuleScorer(zap.NewNop()), holder, zap.NewNop())

	result, err := scorer.Score(context.Background(), fullProfile(), backendProject())
	assert.NoError(t, err)
	assert.Equal(t, 100.0, result.Score)
}
