package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	accountdomain "github.com/stagelink/stagelink/internal/account/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	Users    accountdomain.Repository
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	users    accountdomain.Repository
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		users:    p.Users,
	}
}

// Authorize implements Service.
func (s *ServiceImpl) Authorize(ctx context.Context, userID snowflake.ID, object, action string) error {
	if userID == 0 {
		return ErrInvalidActor
	}
	if strings.TrimSpace(object) == "" {
		return ErrInvalidObject
	}
	if strings.TrimSpace(action) == "" {
		return ErrInvalidAction
	}

	user, err := s.users.FindByID(ctx, s.db, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidActor
	}

	subject := fmt.Sprintf("user:%s", userID)
	roleName := fmt.Sprintf("role:%s", strings.ToLower(string(user.Role)))
	if err := s.ensureGrouping(subject, roleName); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("subject", subject),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

// ensureGrouping keeps the subject bound to exactly its current role, so a
// role change on the user record takes effect on the next request.
func (s *ServiceImpl) ensureGrouping(subject, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 || rule[1] == roleName {
			continue
		}
		params := make([]interface{}, 0, len(rule))
		for _, value := range rule {
			params = append(params, value)
		}
		_, _ = s.enforcer.RemoveGroupingPolicy(params...)
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Students apply and watch their own quota.
		{"role:student", ObjectProject, ActionProjectView},
		{"role:student", ObjectApplication, ActionApplicationCreate},
		{"role:student", ObjectApplication, ActionApplicationCheckLimits},

		// Companies run the funnel on their projects. Manual override passes
		// here and is then gated on the subscription tier.
		{"role:company", ObjectProject, ActionProjectView},
		{"role:company", ObjectProject, ActionProjectCreate},
		{"role:company", ObjectProject, ActionProjectClose},
		{"role:company", ObjectApplication, ActionApplicationTransition},
		{"role:company", ObjectShortlist, ActionShortlistView},
		{"role:company", ObjectShortlist, ActionShortlistGenerate},
		{"role:company", ObjectShortlist, ActionShortlistOverride},

		// Admins moderate projects and can inspect everything.
		{"role:admin", ObjectProject, ActionProjectView},
		{"role:admin", ObjectProject, ActionProjectApprove},
		{"role:admin", ObjectProject, ActionProjectReject},
		{"role:admin", ObjectProject, ActionProjectClose},
		{"role:admin", ObjectApplication, ActionApplicationTransition},
		{"role:admin", ObjectShortlist, ActionShortlistView},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
