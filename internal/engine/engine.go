// Package engine is the recruitment funnel facade. HTTP handlers talk to this
// package only; it composes quota, scoring, shortlist, redaction, and the
// funnel state machine into the platform's entry points.
package engine

import (
	"context"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/stagelink/stagelink/internal/account/domain"
	applicationdomain "github.com/stagelink/stagelink/internal/application/domain"
	funneldomain "github.com/stagelink/stagelink/internal/funnel/domain"
	profiledomain "github.com/stagelink/stagelink/internal/profile/domain"
	projectdomain "github.com/stagelink/stagelink/internal/project/domain"
	quotadomain "github.com/stagelink/stagelink/internal/quota/domain"
	"github.com/stagelink/stagelink/internal/redaction"
	shortlistdomain "github.com/stagelink/stagelink/internal/shortlist/domain"
	tierdomain "github.com/stagelink/stagelink/internal/tier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ShortlistResponse is the API payload for shortlist reads and generation.
// Shortlist is nil when the project has no current snapshot.
type ShortlistResponse struct {
	Eligible    bool                        `json:"eligible"`
	Eligibility shortlistdomain.Eligibility `json:"eligibility"`
	Shortlist   *redaction.ShortlistView    `json:"shortlist"`
}

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Catalog      tierdomain.Catalog
	Quota        quotadomain.Service
	Funnel       funneldomain.Service
	Shortlist    shortlistdomain.Service
	GenID        *snowflake.Node
	Users        accountdomain.Repository
	Profiles     profiledomain.Repository
	Projects     projectdomain.Repository
	Applications applicationdomain.Repository
}

type Engine struct {
	db           *gorm.DB
	log          *zap.Logger
	catalog      tierdomain.Catalog
	quota        quotadomain.Service
	funnel       funneldomain.Service
	shortlist    shortlistdomain.Service
	genID        *snowflake.Node
	users        accountdomain.Repository
	profiles     profiledomain.Repository
	projects     projectdomain.Repository
	applications applicationdomain.Repository
}

func New(p ServiceParam) *Engine {
	return &Engine{
		db:           p.DB,
		log:          p.Log.Named("engine"),
		catalog:      p.Catalog,
		quota:        p.Quota,
		funnel:       p.Funnel,
		shortlist:    p.Shortlist,
		genID:        p.GenID,
		users:        p.Users,
		profiles:     p.Profiles,
		projects:     p.Projects,
		applications: p.Applications,
	}
}

// GetShortlist returns eligibility plus the redacted current snapshot. Reads
// never generate; a missing snapshot comes back as nil.
func (e *Engine) GetShortlist(ctx context.Context, projectID, companyID snowflake.ID) (*ShortlistResponse, error) {
	_, entitlement, err := e.projectForCompany(ctx, projectID, companyID)
	if err != nil {
		return nil, err
	}

	eligibility, err := e.shortlist.Evaluate(ctx, projectID)
	if err != nil {
		return nil, err
	}

	current, err := e.shortlist.GetCurrent(ctx, projectID)
	if err != nil {
		return nil, err
	}

	response := &ShortlistResponse{Eligible: eligibility.Eligible, Eligibility: eligibility}
	if current != nil {
		view, err := e.buildView(ctx, current)
		if err != nil {
			return nil, err
		}
		redacted := redaction.Redact(view, entitlement.ShortlistVisibility)
		response.Shortlist = &redacted
	}
	return response, nil
}

// GenerateShortlist runs the gate, generates a fresh snapshot, and returns it
// redacted for the requesting company's tier.
func (e *Engine) GenerateShortlist(ctx context.Context, projectID, companyID snowflake.ID) (*ShortlistResponse, error) {
	_, entitlement, err := e.projectForCompany(ctx, projectID, companyID)
	if err != nil {
		return nil, err
	}

	result, err := e.shortlist.Generate(ctx, projectID, entitlement.ShortlistVisibility)
	if err != nil {
		return nil, err
	}

	eligibility, err := e.shortlist.Evaluate(ctx, projectID)
	if err != nil {
		return nil, err
	}

	view, err := e.buildView(ctx, result)
	if err != nil {
		return nil, err
	}
	redacted := redaction.Redact(view, entitlement.ShortlistVisibility)
	return &ShortlistResponse{Eligible: eligibility.Eligible, Eligibility: eligibility, Shortlist: &redacted}, nil
}

// ApplyManualOverride replaces the current snapshot with an explicit ordering,
// gated on the company's tier.
func (e *Engine) ApplyManualOverride(ctx context.Context, projectID, companyID snowflake.ID, applicationIDs []snowflake.ID) (*ShortlistResponse, error) {
	_, entitlement, err := e.projectForCompany(ctx, projectID, companyID)
	if err != nil {
		return nil, err
	}

	result, err := e.shortlist.ManualOverride(ctx, projectID, applicationIDs, entitlement)
	if err != nil {
		return nil, err
	}

	eligibility, err := e.shortlist.Evaluate(ctx, projectID)
	if err != nil {
		return nil, err
	}

	view, err := e.buildView(ctx, result)
	if err != nil {
		return nil, err
	}
	redacted := redaction.Redact(view, entitlement.ShortlistVisibility)
	return &ShortlistResponse{Eligible: eligibility.Eligible, Eligibility: eligibility, Shortlist: &redacted}, nil
}

// BulkTransition applies a status change to each application the company
// owns. Applications on other companies' projects fail per-item, they never
// block the rest of the batch.
func (e *Engine) BulkTransition(ctx context.Context, companyID snowflake.ID, applicationIDs []snowflake.ID, target applicationdomain.Status) ([]funneldomain.ItemResult, error) {
	results := make([]funneldomain.ItemResult, 0, len(applicationIDs))
	owned := make([]snowflake.ID, 0, len(applicationIDs))
	skipped := map[snowflake.ID]funneldomain.ItemResult{}

	for _, id := range applicationIDs {
		ok, err := e.ownsApplication(ctx, companyID, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			skipped[id] = funneldomain.ItemResult{
				ApplicationID: id,
				OK:            false,
				Error:         applicationdomain.ErrApplicationNotFound.Error(),
			}
			continue
		}
		owned = append(owned, id)
	}

	transitioned := e.funnel.BulkTransition(ctx, owned, target)
	byID := make(map[snowflake.ID]funneldomain.ItemResult, len(transitioned))
	for _, item := range transitioned {
		byID[item.ApplicationID] = item
	}

	for _, id := range applicationIDs {
		if item, ok := skipped[id]; ok {
			results = append(results, item)
			continue
		}
		results = append(results, byID[id])
	}
	return results, nil
}

// RecordApplication enforces the quota, then creates the PENDING application
// and bumps the project counter. The quota slot is only consumed after the
// duplicate pre-check passes.
func (e *Engine) RecordApplication(ctx context.Context, userID, projectID snowflake.ID, motivation string) (*applicationdomain.Application, quotadomain.Decision, error) {
	project, err := e.projects.FindByID(ctx, e.db, projectID)
	if err != nil {
		return nil, quotadomain.Decision{}, err
	}
	if project == nil {
		return nil, quotadomain.Decision{}, projectdomain.ErrProjectNotFound
	}
	if project.Status != projectdomain.StatusLive {
		return nil, quotadomain.Decision{}, projectdomain.ErrProjectNotLive
	}

	existing, err := e.applications.FindByUserAndProject(ctx, e.db, userID, projectID)
	if err != nil {
		return nil, quotadomain.Decision{}, err
	}
	if existing != nil {
		return nil, quotadomain.Decision{}, applicationdomain.ErrAlreadyApplied
	}

	decision, err := e.quota.CheckAndReserve(ctx, userID)
	if err != nil {
		return nil, decision, err
	}

	application := &applicationdomain.Application{
		ID:         e.genID.Generate(),
		UserID:     userID,
		ProjectID:  projectID,
		Status:     applicationdomain.StatusPending,
		Motivation: motivation,
	}
	if err := e.applications.Create(ctx, e.db, application); err != nil {
		return nil, decision, err
	}

	if err := e.projects.IncrementApplicationCount(ctx, e.db, projectID); err != nil {
		e.log.Warn("application count bump failed",
			zap.String("project_id", projectID.String()),
			zap.Error(err),
		)
	}

	e.log.Info("application recorded",
		zap.String("user_id", userID.String()),
		zap.String("project_id", projectID.String()),
		zap.Int("quota_used", decision.Used),
	)
	return application, decision, nil
}

// CheckApplicationLimits reports the student's quota position without
// consuming a slot.
func (e *Engine) CheckApplicationLimits(ctx context.Context, userID snowflake.ID) (quotadomain.Decision, error) {
	return e.quota.Check(ctx, userID)
}

// projectForCompany loads the project and the requester's entitlement.
// Companies only reach their own projects; admins reach all. A project owned
// by someone else answers not-found, the same as one that does not exist.
func (e *Engine) projectForCompany(ctx context.Context, projectID, companyID snowflake.ID) (*projectdomain.Project, tierdomain.Entitlement, error) {
	user, err := e.users.FindByID(ctx, e.db, companyID)
	if err != nil {
		return nil, tierdomain.Entitlement{}, err
	}
	if user == nil {
		return nil, tierdomain.Entitlement{}, accountdomain.ErrUserNotFound
	}

	project, err := e.projects.FindByID(ctx, e.db, projectID)
	if err != nil {
		return nil, tierdomain.Entitlement{}, err
	}
	if project == nil {
		return nil, tierdomain.Entitlement{}, projectdomain.ErrProjectNotFound
	}
	if user.Role != accountdomain.RoleAdmin && project.CompanyID != companyID {
		return nil, tierdomain.Entitlement{}, projectdomain.ErrProjectNotFound
	}
	return project, e.catalog.Lookup(user.SubscriptionPlan), nil
}

func (e *Engine) ownsApplication(ctx context.Context, companyID, applicationID snowflake.ID) (bool, error) {
	application, err := e.applications.FindByID(ctx, e.db, applicationID)
	if err != nil {
		return false, err
	}
	if application == nil {
		return false, nil
	}

	project, err := e.projects.FindByID(ctx, e.db, application.ProjectID)
	if err != nil {
		return false, err
	}
	return project != nil && project.CompanyID == companyID, nil
}
