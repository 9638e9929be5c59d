package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	projectdomain "github.com/stagelink/stagelink/internal/project/domain"
	"github.com/stagelink/stagelink/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 25
	maxPageSize     = 250
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  projectdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  projectdomain.Repository
}

func NewService(p ServiceParam) projectdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("project.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// Get implements domain.Service.
func (s *Service) Get(ctx context.Context, id snowflake.ID) (*projectdomain.Project, error) {
	project, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, projectdomain.ErrProjectNotFound
	}
	return project, nil
}

// List implements domain.Service. Cursor pagination, newest first; the
// returned page info carries the token for the next page.
func (s *Service) List(ctx context.Context, companyID snowflake.ID, page pagination.Pagination) ([]*projectdomain.Project, *pagination.PageInfo, error) {
	limit := page.PageSize
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	var cursor *pagination.Cursor
	if page.PageToken != "" {
		decoded, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, nil, projectdomain.ErrInvalidPageToken
		}
		cursor = decoded
	}

	projects, err := s.repo.ListByCompany(ctx, s.db, companyID, cursor, limit)
	if err != nil {
		return nil, nil, err
	}

	pageInfo, projects := pagination.BuildCursorPageInfo(projects, limit, func(p *projectdomain.Project) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        p.ID.String(),
			CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		return token
	})
	return projects, pageInfo, nil
}

// Create implements domain.Service. New projects land in PENDING_APPROVAL;
// the admin approval flow promotes them to LIVE.
func (s *Service) Create(ctx context.Context, req projectdomain.CreateProjectRequest) (*projectdomain.Project, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, projectdomain.ErrInvalidProject
	}

	id := s.genID.Generate()
	project := &projectdomain.Project{
		ID:             id,
		CompanyID:      req.CompanyID,
		Title:          req.Title,
		Slug:           fmt.Sprintf("%s-%s", slug.Make(req.Title), id.Base36()),
		Description:    req.Description,
		RequiredSkills: req.RequiredSkills,
		PreferredMajor: req.PreferredMajor,
		Status:         projectdomain.StatusPendingApproval,
	}

	if err := s.repo.Create(ctx, s.db, project); err != nil {
		return nil, err
	}

	s.log.Info("project created",
		zap.String("project_id", project.ID.String()),
		zap.String("company_id", project.CompanyID.String()),
		zap.String("slug", project.Slug),
	)
	return project, nil
}

// Approve implements domain.Service.
func (s *Service) Approve(ctx context.Context, id snowflake.ID) (*projectdomain.Project, error) {
	return s.transition(ctx, id, projectdomain.StatusPendingApproval, projectdomain.StatusLive)
}

// Reject implements domain.Service.
func (s *Service) Reject(ctx context.Context, id snowflake.ID) (*projectdomain.Project, error) {
	return s.transition(ctx, id, projectdomain.StatusPendingApproval, projectdomain.StatusRejected)
}

// Close implements domain.Service.
func (s *Service) Close(ctx context.Context, id snowflake.ID) (*projectdomain.Project, error) {
	return s.transition(ctx, id, projectdomain.StatusLive, projectdomain.StatusClosed)
}

func (s *Service) transition(ctx context.Context, id snowflake.ID, from, to projectdomain.Status) (*projectdomain.Project, error) {
	project, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, projectdomain.ErrProjectNotFound
	}

	ok, err := s.repo.UpdateStatus(ctx, s.db, id, from, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, projectdomain.ErrInvalidStatus
	}

	project.Status = to
	s.log.Info("project status changed",
		zap.String("project_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return project, nil
}
