package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/stagelink/stagelink/internal/account/domain"
	"github.com/stagelink/stagelink/internal/clock"
	obsmetrics "github.com/stagelink/stagelink/internal/observability/metrics"
	quotadomain "github.com/stagelink/stagelink/internal/quota/domain"
	tierdomain "github.com/stagelink/stagelink/internal/tier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Catalog tierdomain.Catalog
	Repo    accountdomain.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	catalog tierdomain.Catalog
	repo    accountdomain.Repository
}

func NewService(p ServiceParam) quotadomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("quota.service"),
		clock:   p.Clock,
		catalog: p.Catalog,
		repo:    p.Repo,
	}
}

// Check implements domain.Service.
func (s *Service) Check(ctx context.Context, userID snowflake.ID) (quotadomain.Decision, error) {
	user, err := s.loadWithLazyReset(ctx, userID)
	if err != nil {
		return quotadomain.Decision{}, err
	}

	entitlement := s.catalog.Lookup(user.SubscriptionPlan)
	decision := s.decision(user, entitlement)
	return decision, nil
}

// CheckAndReserve implements domain.Service.
func (s *Service) CheckAndReserve(ctx context.Context, userID snowflake.ID) (quotadomain.Decision, error) {
	user, err := s.loadWithLazyReset(ctx, userID)
	if err != nil {
		return quotadomain.Decision{}, err
	}

	entitlement := s.catalog.Lookup(user.SubscriptionPlan)

	ok, err := s.repo.ReserveApplicationSlot(ctx, s.db, user.ID, entitlement.MaxApplicationsPerMonth)
	if err != nil {
		return quotadomain.Decision{}, err
	}
	if !ok {
		decision := s.decision(user, entitlement)
		decision.Allowed = false
		decision.Reason = "monthly application limit reached"
		obsmetrics.Funnel().RecordQuotaCheck("denied")
		return decision, quotadomain.ErrQuotaExceeded
	}

	user.ApplicationsThisMonth++
	decision := s.decision(user, entitlement)
	decision.Allowed = true
	obsmetrics.Funnel().RecordQuotaCheck("allowed")

	s.log.Debug("application slot reserved",
		zap.String("user_id", user.ID.String()),
		zap.Int("used", decision.Used),
		zap.Int("max", decision.Max),
	)
	return decision, nil
}

// loadWithLazyReset fetches the user and applies the calendar-month reset if a
// period boundary has been crossed since the last reset. No background job is
// involved; the first request of a new month performs the reset.
func (s *Service) loadWithLazyReset(ctx context.Context, userID snowflake.ID) (*accountdomain.User, error) {
	user, err := s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, accountdomain.ErrUserNotFound
	}

	now := s.clock.Now()
	if samePeriod(user.LastMonthlyReset, now) {
		return user, nil
	}

	reset, err := s.repo.ResetMonthlyCounter(ctx, s.db, user.ID, user.ApplicationsThisMonth, startOfMonth(now))
	if err != nil {
		return nil, err
	}
	if !reset {
		// A concurrent request won the reset (or consumed a slot first);
		// re-read and let the conditional reserve decide.
		s.log.Debug("monthly reset lost race", zap.String("user_id", user.ID.String()))
	}

	user, err = s.repo.FindByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, accountdomain.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) decision(user *accountdomain.User, entitlement tierdomain.Entitlement) quotadomain.Decision {
	decision := quotadomain.Decision{
		Used:          user.ApplicationsThisMonth,
		Max:           entitlement.MaxApplicationsPerMonth,
		Unlimited:     entitlement.Unlimited(),
		NextResetDate: nextReset(s.clock.Now()),
	}

	if decision.Unlimited {
		decision.Allowed = true
		decision.Remaining = tierdomain.UnlimitedApplications
		return decision
	}

	decision.Remaining = entitlement.MaxApplicationsPerMonth - user.ApplicationsThisMonth
	if decision.Remaining < 0 {
		decision.Remaining = 0
	}
	decision.Allowed = user.ApplicationsThisMonth < entitlement.MaxApplicationsPerMonth
	if !decision.Allowed {
		decision.RequiresUpgrade = true
		if next, ok := s.catalog.NextTier(entitlement.Plan); ok {
			decision.UpgradePlan = next.Plan
		}
	}
	return decision
}

func samePeriod(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.Month() == b.Month()
}

func startOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func nextReset(t time.Time) time.Time {
	return startOfMonth(t).AddDate(0, 1, 0)
}
