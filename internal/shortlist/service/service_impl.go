package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	applicationdomain "github.com/stagelink/stagelink/internal/application/domain"
	"github.com/stagelink/stagelink/internal/clock"
	"github.com/stagelink/stagelink/internal/config"
	"github.com/stagelink/stagelink/internal/lock"
	obsmetrics "github.com/stagelink/stagelink/internal/observability/metrics"
	profiledomain "github.com/stagelink/stagelink/internal/profile/domain"
	projectdomain "github.com/stagelink/stagelink/internal/project/domain"
	"github.com/stagelink/stagelink/internal/scoring"
	shortlistdomain "github.com/stagelink/stagelink/internal/shortlist/domain"
	tierdomain "github.com/stagelink/stagelink/internal/tier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// lockRetryDelay is the single backoff before generation gives up on a
// contended project lock.
const lockRetryDelay = 150 * time.Millisecond

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	GenID        *snowflake.Node
	Holder       *config.FunnelConfigHolder
	Locker       *lock.Locker `optional:"true"`
	Scorer       scoring.Scorer
	Repo         shortlistdomain.Repository
	Applications applicationdomain.Repository
	Profiles     profiledomain.Repository
	Projects     projectdomain.Repository
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	genID        *snowflake.Node
	holder       *config.FunnelConfigHolder
	locker       *lock.Locker
	scorer       scoring.Scorer
	repo         shortlistdomain.Repository
	applications applicationdomain.Repository
	profiles     profiledomain.Repository
	projects     projectdomain.Repository
}

func NewService(p ServiceParam) shortlistdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("shortlist.service"),
		clock:        p.Clock,
		genID:        p.GenID,
		holder:       p.Holder,
		locker:       p.Locker,
		scorer:       p.Scorer,
		repo:         p.Repo,
		applications: p.Applications,
		profiles:     p.Profiles,
		projects:     p.Projects,
	}
}

// Evaluate implements domain.Service.
func (s *Service) Evaluate(ctx context.Context, projectID snowflake.ID) (shortlistdomain.Eligibility, error) {
	count, err := s.projects.CountActiveApplications(ctx, s.db, projectID)
	if err != nil {
		return shortlistdomain.Eligibility{}, err
	}

	threshold := s.holder.Get().EligibilityThreshold
	eligibility := shortlistdomain.Eligibility{
		Eligible:             count >= threshold,
		CurrentApplications:  count,
		RequiredApplications: threshold,
	}
	if !eligibility.Eligible {
		eligibility.RemainingNeeded = threshold - count
	}
	return eligibility, nil
}

// GetCurrent implements domain.Service.
func (s *Service) GetCurrent(ctx context.Context, projectID snowflake.ID) (*shortlistdomain.ShortlistWithEntries, error) {
	return s.repo.FindCurrent(ctx, s.db, projectID)
}

// Generate implements domain.Service.
func (s *Service) Generate(ctx context.Context, projectID snowflake.ID, visibility tierdomain.VisibilityLevel) (*shortlistdomain.ShortlistWithEntries, error) {
	started := time.Now()

	eligibility, err := s.Evaluate(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !eligibility.Eligible {
		obsmetrics.Funnel().RecordGeneration("not_eligible", time.Since(started))
		return nil, shortlistdomain.ErrNotEligible
	}

	// Generation survives a caller disconnect: once started, the snapshot
	// either fully commits or the previous one stays current.
	genCtx := context.WithoutCancel(ctx)

	release, err := s.acquireLock(genCtx, projectID)
	if err != nil {
		obsmetrics.Funnel().RecordGeneration("conflict", time.Since(started))
		return nil, err
	}
	defer release()

	result, err := s.generateLocked(genCtx, projectID, eligibility.CurrentApplications, visibility, false, nil)
	if err != nil {
		obsmetrics.Funnel().RecordGeneration("error", time.Since(started))
		return nil, err
	}

	obsmetrics.Funnel().RecordGeneration("ok", time.Since(started))
	s.log.Info("shortlist generated",
		zap.String("project_id", projectID.String()),
		zap.Int("pool", eligibility.CurrentApplications),
		zap.Int("entries", len(result.Entries)),
	)
	return result, nil
}

// ManualOverride implements domain.Service.
func (s *Service) ManualOverride(ctx context.Context, projectID snowflake.ID, applicationIDs []snowflake.ID, entitlement tierdomain.Entitlement) (*shortlistdomain.ShortlistWithEntries, error) {
	if !entitlement.AllowsManualOverride {
		return nil, shortlistdomain.ErrUpgradeRequired
	}
	if len(applicationIDs) == 0 {
		return nil, applicationdomain.ErrApplicationNotFound
	}

	genCtx := context.WithoutCancel(ctx)
	release, err := s.acquireLock(genCtx, projectID)
	if err != nil {
		return nil, err
	}
	defer release()

	count, err := s.projects.CountActiveApplications(genCtx, s.db, projectID)
	if err != nil {
		return nil, err
	}

	result, err := s.generateLocked(genCtx, projectID, count, entitlement.ShortlistVisibility, true, applicationIDs)
	if err != nil {
		return nil, err
	}

	s.log.Info("shortlist manually overridden",
		zap.String("project_id", projectID.String()),
		zap.Int("entries", len(result.Entries)),
	)
	return result, nil
}

// acquireLock serializes snapshot replacement per project. One retry, then
// the caller sees a conflict. A nil locker (no redis configured) means a
// single-instance deployment; generation proceeds unlocked.
func (s *Service) acquireLock(ctx context.Context, projectID snowflake.ID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	key := fmt.Sprintf("stagelink:shortlist:%s", projectID)
	ttl := s.holder.Get().GenerationLockTTL()

	token, ok, err := s.locker.TryLock(ctx, key, ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		time.Sleep(lockRetryDelay)
		token, ok, err = s.locker.TryLock(ctx, key, ttl)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, shortlistdomain.ErrSnapshotConflict
		}
	}

	return func() {
		if err := s.locker.Release(ctx, key, token); err != nil {
			s.log.Warn("lock release failed", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

type candidate struct {
	application applicationdomain.Application
	score       float64
	strengths   []string
	concerns    []string
	degraded    bool
}

func (s *Service) generateLocked(ctx context.Context, projectID snowflake.ID, poolSize int, visibility tierdomain.VisibilityLevel, manual bool, orderedIDs []snowflake.ID) (*shortlistdomain.ShortlistWithEntries, error) {
	project, err := s.projects.FindByID(ctx, s.db, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, projectdomain.ErrProjectNotFound
	}

	applications, err := s.applications.ListByProject(ctx, s.db, projectID, false)
	if err != nil {
		return nil, err
	}

	var candidates []candidate
	if manual {
		candidates, err = s.pickOrdered(applications, orderedIDs)
		if err != nil {
			return nil, err
		}
	} else {
		candidates = s.scorePool(ctx, project, applications)
		rankCandidates(candidates)
		size := s.holder.Get().ShortlistSize
		if len(candidates) > size {
			candidates = candidates[:size]
		}
	}

	snapshot := &shortlistdomain.Snapshot{
		ID:                            s.genID.Generate(),
		ProjectID:                     projectID,
		ManualOverride:                manual,
		TotalApplicationsAtGeneration: poolSize,
		VisibilityLevelAtGeneration:   visibility,
		GeneratedAt:                   s.clock.Now(),
	}

	entries := make([]shortlistdomain.SnapshotEntry, 0, len(candidates))
	for i, c := range candidates {
		entries = append(entries, shortlistdomain.SnapshotEntry{
			ID:            s.genID.Generate(),
			SnapshotID:    snapshot.ID,
			Rank:          i + 1,
			ApplicationID: c.application.ID,
			UserID:        c.application.UserID,
			Score:         c.score,
			Strengths:     c.strengths,
			Concerns:      c.concerns,
			ScoreDegraded: c.degraded,
		})
	}

	if err := s.repo.Replace(ctx, s.db, snapshot, entries); err != nil {
		return nil, err
	}
	return &shortlistdomain.ShortlistWithEntries{Snapshot: *snapshot, Entries: entries}, nil
}

// scorePool scores every application, reusing stored scores that are still
// fresh against the profile's last update. A scoring failure degrades that
// one candidate to the neutral score.
func (s *Service) scorePool(ctx context.Context, project *projectdomain.Project, applications []applicationdomain.Application) []candidate {
	candidates := make([]candidate, 0, len(applications))
	for _, app := range applications {
		profile, err := s.profiles.FindByUserID(ctx, s.db, app.UserID)
		if err != nil {
			s.log.Warn("profile load failed, scoring degraded",
				zap.String("application_id", app.ID.String()),
				zap.Error(err),
			)
			candidates = append(candidates, degradedCandidate(app))
			continue
		}

		if app.ScoredAt != nil && app.CompatibilityScore != nil && !profile.UpdatedAt.After(*app.ScoredAt) {
			detail := app.ScoreDetail.Data()
			candidates = append(candidates, candidate{
				application: app,
				score:       *app.CompatibilityScore,
				strengths:   detail.Strengths,
				concerns:    detail.Concerns,
				degraded:    detail.Degraded,
			})
			continue
		}

		result, err := s.scorer.Score(ctx, profile, project)
		if err != nil {
			candidates = append(candidates, degradedCandidate(app))
			continue
		}

		scoredAt := s.clock.Now()
		detail := applicationdomain.ScoreDetail{Strengths: result.Strengths, Concerns: result.Concerns}
		if err := s.applications.UpdateScore(ctx, s.db, app.ID, result.Score, detail, scoredAt); err != nil {
			s.log.Warn("score persist failed", zap.String("application_id", app.ID.String()), zap.Error(err))
		}

		candidates = append(candidates, candidate{
			application: app,
			score:       result.Score,
			strengths:   result.Strengths,
			concerns:    result.Concerns,
		})
	}
	return candidates
}

func degradedCandidate(app applicationdomain.Application) candidate {
	result := scoring.Degraded()
	return candidate{
		application: app,
		score:       result.Score,
		strengths:   result.Strengths,
		concerns:    result.Concerns,
		degraded:    true,
	}
}

// pickOrdered maps an explicit candidate ordering onto the project's pool.
// IDs outside the pool are rejected rather than silently skipped.
func (s *Service) pickOrdered(applications []applicationdomain.Application, orderedIDs []snowflake.ID) ([]candidate, error) {
	byID := make(map[snowflake.ID]applicationdomain.Application, len(applications))
	for _, app := range applications {
		byID[app.ID] = app
	}

	candidates := make([]candidate, 0, len(orderedIDs))
	for _, id := range orderedIDs {
		app, ok := byID[id]
		if !ok {
			return nil, applicationdomain.ErrApplicationNotFound
		}

		c := candidate{application: app, score: scoring.NeutralScore, strengths: []string{}, concerns: []string{}}
		if app.CompatibilityScore != nil {
			detail := app.ScoreDetail.Data()
			c.score = *app.CompatibilityScore
			c.strengths = detail.Strengths
			c.concerns = detail.Concerns
			c.degraded = detail.Degraded
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// rankCandidates orders by score descending; ties break on earliest
// submission, then ID, so repeated generations over the same pool agree.
func rankCandidates(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if !a.application.CreatedAt.Equal(b.application.CreatedAt) {
			return a.application.CreatedAt.Before(b.application.CreatedAt)
		}
		return a.application.ID < b.application.ID
	})
}
