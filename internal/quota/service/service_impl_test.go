package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/stagelink/stagelink/internal/account/domain"
	accountrepo "github.com/stagelink/stagelink/internal/account/repository"
	"github.com/stagelink/stagelink/internal/clock"
	quotadomain "github.com/stagelink/stagelink/internal/quota/domain"
	"github.com/stagelink/stagelink/internal/tier"
	tierdomain "github.com/stagelink/stagelink/internal/tier/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newQuotaFixture(t *testing.T, at time.Time) (*gorm.DB, quotadomain.Service, *clock.FakeClock, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&accountdomain.User{}))

	node, _ := snowflake.NewNode(1)
	fakeClock := clock.NewFakeClock(at)

	svc := NewService(ServiceParam{
		DB:      db,
		Log:     zap.NewNop(),
		Clock:   fakeClock,
		Catalog: tier.NewCatalog(),
		Repo:    accountrepo.Provide(),
	})

	return db, svc, fakeClock, node
}

func seedStudent(t *testing.T, db *gorm.DB, node *snowflake.Node, plan tierdomain.Plan, used int, lastReset time.Time) snowflake.ID {
	t.Helper()
	id := node.Generate()
	assert.NoError(t, db.Create(&accountdomain.User{
		ID:                    id,
		Email:                 id.String() + "@student.example",
		Role:                  accountdomain.RoleStudent,
		SubscriptionPlan:      plan,
		SubscriptionStatus:    accountdomain.SubscriptionStatusActive,
		ApplicationsThisMonth: used,
		LastMonthlyReset:      lastReset,
	}).Error)
	return id
}

func TestCheckAndReserve_IncrementsByExactlyOne(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	db, svc, _, node := newQuotaFixture(t, now)
	userID := seedStudent(t, db, node, tierdomain.PlanStudentFree, 0, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))

	decision, err := svc.CheckAndReserve(context.Background(), userID)
	assert.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, decision.Used)
	assert.Equal(t, 5, decision.Max)
	assert.Equal(t, 4, decision.Remaining)

	var user accountdomain.User
	assert.NoError(t, db.First(&user, "id = ?", userID).Error)
	assert.Equal(t, 1, user.ApplicationsThisMonth)
}

func TestCheckAndReserve_QuotaExceeded(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	db, svc, _, node := newQuotaFixture(t, now)
	userID := seedStudent(t, db, node, tierdomain.PlanStudentFree, 4, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))

	// Last slot.
	decision, err := svc.CheckAndReserve(context.Background(), userID)
	assert.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 5, decision.Used)
	assert.Equal(t, 0, decision.Remaining)

	// Exhausted: the conditional update refuses, the counter stays put.
	decision, err = svc.CheckAndReserve(context.Background(), userID)
	assert.ErrorIs(t, err, quotadomain.ErrQuotaExceeded)
	assert.False(t, decision.Allowed)
	assert.True(t, decision.RequiresUpgrade)
	assert.Equal(t, tierdomain.PlanStudentPro, decision.UpgradePlan)

	var user accountdomain.User
	assert.NoError(t, db.First(&user, "id = ?", userID).Error)
	assert.Equal(t, 5, user.ApplicationsThisMonth)
}

func TestCheckAndReserve_ConcurrentLastSlot(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	db, svc, _, node := newQuotaFixture(t, now)

	// One connection keeps sqlite happy under write contention; the
	// conditional update still decides who gets the slot.
	sqlDB, err := db.DB()
	assert.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	userID := seedStudent(t, db, node, tierdomain.PlanStudentFree, 4, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CheckAndReserve(context.Background(), userID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	allowed, denied := 0, 0
	for err := range results {
		if err == nil {
			allowed++
			continue
		}
		assert.ErrorIs(t, err, quotadomain.ErrQuotaExceeded)
		denied++
	}
	assert.Equal(t, 1, allowed)
	assert.Equal(t, workers-1, denied)

	var user accountdomain.User
	assert.NoError(t, db.First(&user, "id = ?", userID).Error)
	assert.Equal(t, 5, user.ApplicationsThisMonth)
}

func TestCheckAndReserve_LazyMonthlyReset(t *testing.T) {
	now := time.Date(2026, time.April, 1, 0, 30, 0, 0, time.UTC)
	db, svc, _, node := newQuotaFixture(t, now)
	userID := seedStudent(t, db, node, tierdomain.PlanStudentFree, 5, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))

	// The March counter was exhausted; crossing into April resets it before
	// the limit is evaluated.
	decision, err := svc.CheckAndReserve(context.Background(), userID)
	assert.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, decision.Used)

	var user accountdomain.User
	assert.NoError(t, db.First(&user, "id = ?", userID).Error)
	assert.Equal(t, 1, user.ApplicationsThisMonth)
	assert.Equal(t, time.April, user.LastMonthlyReset.UTC().Month())
}

func TestCheck_DoesNotConsumeSlot(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	db, svc, _, node := newQuotaFixture(t, now)
	userID := seedStudent(t, db, node, tierdomain.PlanStudentFree, 2, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))

	decision, err := svc.Check(context.Background(), userID)
	assert.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 2, decision.Used)
	assert.Equal(t, 3, decision.Remaining)
	assert.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), decision.NextResetDate)

	var user accountdomain.User
	assert.NoError(t, db.First(&user, "id = ?", userID).Error)
	assert.Equal(t, 2, user.ApplicationsThisMonth)
}

func TestCheckAndReserve_UnlimitedPlanAlwaysAllows(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	db, svc, _, node := newQuotaFixture(t, now)
	userID := seedStudent(t, db, node, tierdomain.PlanStudentPro, 9000, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))

	decision, err := svc.CheckAndReserve(context.Background(), userID)
	assert.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.True(t, decision.Unlimited)

	var user accountdomain.User
	assert.NoError(t, db.First(&user, "id = ?", userID).Error)
	assert.Equal(t, 9001, user.ApplicationsThisMonth)
}

func TestCheckAndReserve_UnknownUser(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	_, svc, _, node := newQuotaFixture(t, now)

	_, err := svc.CheckAndReserve(context.Background(), node.Generate())
	assert.ErrorIs(t, err, accountdomain.ErrUserNotFound)
}
