package authorization

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/stagelink/stagelink/internal/account/domain"
	accountrepo "github.com/stagelink/stagelink/internal/account/repository"
	tierdomain "github.com/stagelink/stagelink/internal/tier/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAuthFixture(t *testing.T) (*gorm.DB, Service, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&accountdomain.User{}))

	enforcer, err := NewEnforcer(db)
	assert.NoError(t, err)

	node, _ := snowflake.NewNode(1)
	svc := NewService(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Enforcer: enforcer,
		Users:    accountrepo.Provide(),
	})
	return db, svc, node
}

func seedRoleUser(t *testing.T, db *gorm.DB, node *snowflake.Node, role accountdomain.Role) snowflake.ID {
	t.Helper()
	id := node.Generate()
	assert.NoError(t, db.Create(&accountdomain.User{
		ID:                 id,
		Email:              id.String() + "@example.com",
		Role:               role,
		SubscriptionPlan:   tierdomain.PlanStudentFree,
		SubscriptionStatus: accountdomain.SubscriptionStatusActive,
		LastMonthlyReset:   time.Now().UTC(),
	}).Error)
	return id
}

func TestAuthorize_RoleMatrix(t *testing.T) {
	db, svc, node := newAuthFixture(t)
	ctx := context.Background()

	student := seedRoleUser(t, db, node, accountdomain.RoleStudent)
	company := seedRoleUser(t, db, node, accountdomain.RoleCompany)
	admin := seedRoleUser(t, db, node, accountdomain.RoleAdmin)

	assert.NoError(t, svc.Authorize(ctx, student, ObjectApplication, ActionApplicationCreate))
	assert.NoError(t, svc.Authorize(ctx, student, ObjectApplication, ActionApplicationCheckLimits))
	assert.ErrorIs(t, svc.Authorize(ctx, student, ObjectShortlist, ActionShortlistGenerate), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, student, ObjectProject, ActionProjectApprove), ErrForbidden)

	assert.NoError(t, svc.Authorize(ctx, company, ObjectShortlist, ActionShortlistGenerate))
	assert.NoError(t, svc.Authorize(ctx, company, ObjectApplication, ActionApplicationTransition))
	assert.NoError(t, svc.Authorize(ctx, company, ObjectProject, ActionProjectClose))
	assert.ErrorIs(t, svc.Authorize(ctx, company, ObjectApplication, ActionApplicationCreate), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, company, ObjectProject, ActionProjectApprove), ErrForbidden)

	assert.NoError(t, svc.Authorize(ctx, admin, ObjectProject, ActionProjectApprove))
	assert.NoError(t, svc.Authorize(ctx, admin, ObjectProject, ActionProjectReject))
	assert.NoError(t, svc.Authorize(ctx, admin, ObjectProject, ActionProjectClose))
	assert.ErrorIs(t, svc.Authorize(ctx, student, ObjectProject, ActionProjectClose), ErrForbidden)
}

func TestAuthorize_UnknownUser(t *testing.T) {
	_, svc, node := newAuthFixture(t)

	err := svc.Authorize(context.Background(), node.Generate(), ObjectProject, ActionProjectView)
	assert.ErrorIs(t, err, ErrInvalidActor)
}

func TestAuthorize_RoleChangeTakesEffect(t *testing.T) {
	db, svc, node := newAuthFixture(t)
	ctx := context.Background()

	id := seedRoleUser(t, db, node, accountdomain.RoleStudent)
	assert.ErrorIs(t, svc.Authorize(ctx, id, ObjectShortlist, ActionShortlistGenerate), ErrForbidden)

	assert.NoError(t, db.Model(&accountdomain.User{}).Where("id = ?", id).Update("role", accountdomain.RoleCompany).Error)
	assert.NoError(t, svc.Authorize(ctx, id, ObjectShortlist, ActionShortlistGenerate))
	assert.ErrorIs(t, svc.Authorize(ctx, id, ObjectApplication, ActionApplicationCreate), ErrForbidden)
}
