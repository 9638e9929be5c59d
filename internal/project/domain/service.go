package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/stagelink/stagelink/pkg/db/pagination"
)

// CreateProjectRequest is the payload for a company posting a project.
type CreateProjectRequest struct {
	CompanyID      snowflake.ID `json:"-"`
	Title          string       `json:"title" binding:"required"`
	Description    string       `json:"description"`
	RequiredSkills []string     `json:"required_skills"`
	PreferredMajor string       `json:"preferred_major"`
}

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*Project, error)
	// List pages through a company's projects newest first.
	List(ctx context.Context, companyID snowflake.ID, page pagination.Pagination) ([]*Project, *pagination.PageInfo, error)
	// Create stores a new project in DRAFT and submits it for approval.
	Create(ctx context.Context, req CreateProjectRequest) (*Project, error)
	// Approve moves a PENDING_APPROVAL project to LIVE. Admin only.
	Approve(ctx context.Context, id snowflake.ID) (*Project, error)
	// Reject moves a PENDING_APPROVAL project to REJECTED. Admin only.
	Reject(ctx context.Context, id snowflake.ID) (*Project, error)
	Close(ctx context.Context, id snowflake.ID) (*Project, error)
}

var ErrInvalidPageToken = errors.New("invalid_page_token")
