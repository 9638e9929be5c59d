package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	applicationdomain "github.com/stagelink/stagelink/internal/application/domain"
	applicationrepo "github.com/stagelink/stagelink/internal/application/repository"
	"github.com/stagelink/stagelink/internal/clock"
	"github.com/stagelink/stagelink/internal/config"
	profiledomain "github.com/stagelink/stagelink/internal/profile/domain"
	profilerepo "github.com/stagelink/stagelink/internal/profile/repository"
	projectdomain "github.com/stagelink/stagelink/internal/project/domain"
	projectrepo "github.com/stagelink/stagelink/internal/project/repository"
	"github.com/stagelink/stagelink/internal/scoring"
	shortlistdomain "github.com/stagelink/stagelink/internal/shortlist/domain"
	shortlistrepo "github.com/stagelink/stagelink/internal/shortlist/repository"
	tierdomain "github.com/stagelink/stagelink/internal/tier/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	svc   shortlistdomain.Service
	clock *clock.FakeClock
	node  *snowflake.Node
	cfg   config.FunnelConfig
}

// flatScorer gives every candidate the same score so ordering falls through
// to the tie-break rules.
type flatScorer struct{ score float64 }

func (s *flatScorer) Score(context.Context, *profiledomain.CandidateProfile, *projectdomain.Project) (scoring.Result, error) {
	return scoring.Result{Score: s.score, Strengths: []string{}, Concerns: []string{}}, nil
}

// failingScorer simulates an unavailable scoring backend.
type failingScorer struct{}

func (s *failingScorer) Score(context.Context, *profiledomain.CandidateProfile, *projectdomain.Project) (scoring.Result, error) {
	return scoring.Result{}, scoring.ErrScoringUnavailable
}

func newFixture(t *testing.T, scorer scoring.Scorer, cfg config.FunnelConfig) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&projectdomain.Project{},
		&applicationdomain.Application{},
		&profiledomain.CandidateProfile{},
		&shortlistdomain.Snapshot{},
		&shortlistdomain.SnapshotEntry{},
	))

	node, _ := snowflake.NewNode(1)
	fakeClock := clock.NewFakeClock(time.Date(2026, time.May, 20, 10, 0, 0, 0, time.UTC))

	if scorer == nil {
		scorer = scoring.NewRuleScorer(zap.NewNop())
	}

	svc := NewService(ServiceParam{
		DB:           db,
		Log:          zap.NewNop(),
		Clock:        fakeClock,
		GenID:        node,
		Holder:       config.NewFunnelConfigHolderWith(cfg),
		Scorer:       scorer,
		Repo:         shortlistrepo.Provide(),
		Applications: applicationrepo.Provide(),
		Profiles:     profilerepo.Provide(),
		Projects:     projectrepo.Provide(),
	})

	return &fixture{db: db, svc: svc, clock: fakeClock, node: node, cfg: cfg}
}

func (f *fixture) seedProject(t *testing.T) *projectdomain.Project {
	t.Helper()
	id := f.node.Generate()
	project := &projectdomain.Project{
		ID:             id,
		CompanyID:      f.node.Generate(),
		Title:          "Data Internship",
		Slug:           "data-internship-" + id.Base36(),
		RequiredSkills: datatypes.NewJSONSlice([]string{"python", "sql"}),
		PreferredMajor: "Data Science",
		Status:         projectdomain.StatusLive,
	}
	assert.NoError(t, f.db.Create(project).Error)
	return project
}

func (f *fixture) seedApplication(t *testing.T, projectID snowflake.ID, skills []string, submittedAt time.Time) *applicationdomain.Application {
	t.Helper()
	userID := f.node.Generate()
	assert.NoError(t, f.db.Create(&profiledomain.CandidateProfile{
		ID:        f.node.Generate(),
		UserID:    userID,
		Major:     "Data Science",
		Skills:    datatypes.NewJSONSlice(skills),
		UpdatedAt: submittedAt,
	}).Error)

	app := &applicationdomain.Application{
		ID:        f.node.Generate(),
		UserID:    userID,
		ProjectID: projectID,
		Status:    applicationdomain.StatusPending,
		CreatedAt: submittedAt,
	}
	assert.NoError(t, f.db.Create(app).Error)
	return app
}

func testConfig(threshold, size int) config.FunnelConfig {
	cfg := config.DefaultFunnelConfig()
	cfg.EligibilityThreshold = threshold
	cfg.ShortlistSize = size
	return cfg
}

func TestEvaluate_ThresholdBoundary(t *testing.T) {
	f := newFixture(t, nil, testConfig(30, 10))
	project := f.seedProject(t)
	base := f.clock.Now().Add(-time.Hour)

	for i := 0; i < 29; i++ {
		f.seedApplication(t, project.ID, []string{"python"}, base.Add(time.Duration(i)*time.Minute))
	}

	eligibility, err := f.svc.Evaluate(context.Background(), project.ID)
	assert.NoError(t, err)
	assert.False(t, eligibility.Eligible)
	assert.Equal(t, 29, eligibility.CurrentApplications)
	assert.Equal(t, 1, eligibility.RemainingNeeded)

	_, err = f.svc.Generate(context.Background(), project.ID, tierdomain.VisibilityShortlistedOnly)
	assert.ErrorIs(t, err, shortlistdomain.ErrNotEligible)

	f.seedApplication(t, project.ID, []string{"python"}, base.Add(29*time.Minute))
	eligibility, err = f.svc.Evaluate(context.Background(), project.ID)
	assert.NoError(t, err)
	assert.True(t, eligibility.Eligible)
	assert.Equal(t, 0, eligibility.RemainingNeeded)

	f.seedApplication(t, project.ID, []string{"python"}, base.Add(30*time.Minute))
	eligibility, err = f.svc.Evaluate(context.Background(), project.ID)
	assert.NoError(t, err)
	assert.True(t, eligibility.Eligible)
	assert.Equal(t, 31, eligibility.CurrentApplications)
}

func TestEvaluate_RejectedApplicationsDoNotCount(t *testing.T) {
	f := newFixture(t, nil, testConfig(3, 10))
	project := f.seedProject(t)
	base := f.clock.Now().Add(-time.Hour)

	for i := 0; i < 3; i++ {
		app := f.seedApplication(t, project.ID, []string{"python"}, base.Add(time.Duration(i)*time.Minute))
		if i == 0 {
			assert.NoError(t, f.db.Model(app).Update("status", applicationdomain.StatusRejected).Error)
		}
	}

	eligibility, err := f.svc.Evaluate(context.Background(), project.ID)
	assert.NoError(t, err)
	assert.False(t, eligibility.Eligible)
	assert.Equal(t, 2, eligibility.CurrentApplications)
}

func TestGenerate_RanksAndTruncates(t *testing.T) {
	f := newFixture(t, nil, testConfig(3, 2))
	project := f.seedProject(t)
	base := f.clock.Now().Add(-time.Hour)

	f.seedApplication(t, project.ID, []string{"python", "sql"}, base)
	f.seedApplication(t, project.ID, []string{"python"}, base.Add(time.Minute))
	f.seedApplication(t, project.ID, []string{"photoshop"}, base.Add(2*time.Minute))

	result, err := f.svc.Generate(context.Background(), project.ID, tierdomain.VisibilityFullPool)
	assert.NoError(t, err)
	assert.Len(t, result.Entries, 2)
	assert.Equal(t, 1, result.Entries[0].Rank)
	assert.Greater(t, result.Entries[0].Score, result.Entries[1].Score)
	assert.Equal(t, 3, result.Snapshot.TotalApplicationsAtGeneration)
	assert.Equal(t, tierdomain.VisibilityFullPool, result.Snapshot.VisibilityLevelAtGeneration)
	assert.True(t, result.Snapshot.Current)
	assert.False(t, result.Snapshot.ManualOverride)
}

func TestGenerate_Idempotent(t *testing.T) {
	f := newFixture(t, nil, testConfig(3, 10))
	project := f.seedProject(t)
	base := f.clock.Now().Add(-time.Hour)

	for i := 0; i < 4; i++ {
		skills := []string{"python"}
		if i%2 == 0 {
			skills = append(skills, "sql")
		}
		f.seedApplication(t, project.ID, skills, base.Add(time.Duration(i)*time.Minute))
	}

	first, err := f.svc.Generate(context.Background(), project.ID, tierdomain.VisibilityShortlistedOnly)
	assert.NoError(t, err)
	second, err := f.svc.Generate(context.Background(), project.ID, tierdomain.VisibilityShortlistedOnly)
	assert.NoError(t, err)

	assert.Len(t, second.Entries, len(first.Entries))
	for i := range first.Entries {
		assert.Equal(t, first.Entries[i].ApplicationID, second.Entries[i].ApplicationID)
		assert.Equal(t, first.Entries[i].Score, second.Entries[i].Score)
		assert.Equal(t, first.Entries[i].Rank, second.Entries[i].Rank)
	}

	// Only the latest snapshot stays current.
	var currentCount int64
	assert.NoError(t, f.db.Model(&shortlistdomain.Snapshot{}).
		Where("project_id = ? AND current = ?", project.ID, true).
		Count(&currentCount).Error)
	assert.EqualValues(t, 1, currentCount)
}

func TestGenerate_TieBreakIgnoresInsertionOrder(t *testing.T) {
	cfg := testConfig(2, 10)

	// Same pool, rows created in opposite orders. Submission times decide.
	early := time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)
	late := time.Date(2026, time.May, 1, 11, 0, 0, 0, time.UTC)

	f1 := newFixture(t, &flatScorer{score: 80}, cfg)
	p1 := f1.seedProject(t)
	a1 := f1.seedApplication(t, p1.ID, []string{"python"}, early)
	f1.seedApplication(t, p1.ID, []string{"python"}, late)

	f2 := newFixture(t, &flatScorer{score: 80}, cfg)
	p2 := f2.seedProject(t)
	f2.seedApplication(t, p2.ID, []string{"python"}, late)
	a2 := f2.seedApplication(t, p2.ID, []string{"python"}, early)

	r1, err := f1.svc.Generate(context.Background(), p1.ID, tierdomain.VisibilityShortlistedOnly)
	assert.NoError(t, err)
	r2, err := f2.svc.Generate(context.Background(), p2.ID, tierdomain.VisibilityShortlistedOnly)
	assert.NoError(t, err)

	// The earlier submission ranks first in both pools.
	assert.Equal(t, a1.ID, r1.Entries[0].ApplicationID)
	assert.Equal(t, a2.ID, r2.Entries[0].ApplicationID)
}

func TestGenerate_DegradedScoringFlagsEntries(t *testing.T) {
	f := newFixture(t, &failingScorer{}, testConfig(2, 10))
	project := f.seedProject(t)
	base := f.clock.Now().Add(-time.Hour)

	f.seedApplication(t, project.ID, []string{"python"}, base)
	f.seedApplication(t, project.ID, []string{"sql"}, base.Add(time.Minute))

	result, err := f.svc.Generate(context.Background(), project.ID, tierdomain.VisibilityShortlistedOnly)
	assert.NoError(t, err)
	assert.Len(t, result.Entries, 2)
	for _, entry := range result.Entries {
		assert.True(t, entry.ScoreDegraded)
		assert.Equal(t, scoring.NeutralScore, entry.Score)
		assert.NotEmpty(t, entry.Concerns)
	}
}

func TestGenerate_ReusesFreshScores(t *testing.T) {
	f := newFixture(t, nil, testConfig(2, 10))
	project := f.seedProject(t)
	base := f.clock.Now().Add(-time.Hour)

	f.seedApplication(t, project.ID, []string{"python", "sql"}, base)
	f.seedApplication(t, project.ID, []string{"python"}, base.Add(time.Minute))

	first, err := f.svc.Generate(context.Background(), project.ID, tierdomain.VisibilityShortlistedOnly)
	assert.NoError(t, err)

	// Swap the scorer for one that would change every score; stored scores
	// are still fresh, so the ranking must not move.
	f.svc.(*Service).scorer = &flatScorer{score: 1}

	second, err := f.svc.Generate(context.Background(), project.ID, tierdomain.VisibilityShortlistedOnly)
	assert.NoError(t, err)
	for i := range first.Entries {
		assert.Equal(t, first.Entries[i].Score, second.Entries[i].Score)
		assert.Equal(t, first.Entries[i].ApplicationID, second.Entries[i].ApplicationID)
	}
}

func TestManualOverride_TierGate(t *testing.T) {
	f := newFixture(t, nil, testConfig(1, 10))
	project := f.seedProject(t)
	app := f.seedApplication(t, project.ID, []string{"python"}, f.clock.Now().Add(-time.Hour))

	_, err := f.svc.ManualOverride(context.Background(), project.ID, []snowflake.ID{app.ID}, tierdomain.Entitlement{
		Plan:                 tierdomain.PlanCompanyGrowth,
		ShortlistVisibility:  tierdomain.VisibilityFullPool,
		AllowsManualOverride: false,
	})
	assert.ErrorIs(t, err, shortlistdomain.ErrUpgradeRequired)
}

func TestManualOverride_ReplacesCurrentSnapshot(t *testing.T) {
	f := newFixture(t, nil, testConfig(2, 10))
	project := f.seedProject(t)
	base := f.clock.Now().Add(-time.Hour)

	first := f.seedApplication(t, project.ID, []string{"python", "sql"}, base)
	second := f.seedApplication(t, project.ID, []string{"photoshop"}, base.Add(time.Minute))

	_, err := f.svc.Generate(context.Background(), project.ID, tierdomain.VisibilityCompleteTransparency)
	assert.NoError(t, err)

	premium := tierdomain.Entitlement{
		Plan:                 tierdomain.PlanCompanyPremium,
		ShortlistVisibility:  tierdomain.VisibilityCompleteTransparency,
		AllowsManualOverride: true,
	}

	// Reverse of the scored order, on purpose.
	result, err := f.svc.ManualOverride(context.Background(), project.ID, []snowflake.ID{second.ID, first.ID}, premium)
	assert.NoError(t, err)
	assert.True(t, result.Snapshot.ManualOverride)
	assert.Equal(t, second.ID, result.Entries[0].ApplicationID)
	assert.Equal(t, first.ID, result.Entries[1].ApplicationID)

	current, err := f.svc.GetCurrent(context.Background(), project.ID)
	assert.NoError(t, err)
	assert.Equal(t, result.Snapshot.ID, current.Snapshot.ID)
}

func TestManualOverride_RejectsForeignApplication(t *testing.T) {
	f := newFixture(t, nil, testConfig(1, 10))
	project := f.seedProject(t)
	other := f.seedProject(t)
	foreign := f.seedApplication(t, other.ID, []string{"python"}, f.clock.Now().Add(-time.Hour))

	premium := tierdomain.Entitlement{
		Plan:                 tierdomain.PlanCompanyPremium,
		ShortlistVisibility:  tierdomain.VisibilityCompleteTransparency,
		AllowsManualOverride: true,
	}

	_, err := f.svc.ManualOverride(context.Background(), project.ID, []snowflake.ID{foreign.ID}, premium)
	assert.ErrorIs(t, err, applicationdomain.ErrApplicationNotFound)
}

func TestGetCurrent_NilWhenNoSnapshot(t *testing.T) {
	f := newFixture(t, nil, testConfig(30, 10))
	project := f.seedProject(t)

	current, err := f.svc.GetCurrent(context.Background(), project.ID)
	assert.NoError(t, err)
	assert.Nil(t, current)
}
