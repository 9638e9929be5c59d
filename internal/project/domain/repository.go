package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/stagelink/stagelink/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Project, error)
	Create(ctx context.Context, db *gorm.DB, project *Project) error

	// ListByCompany returns up to limit+1 projects newest first, resuming
	// after the cursor when one is given. The extra row lets the caller
	// detect a next page.
	ListByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID, cursor *pagination.Cursor, limit int) ([]*Project, error)

	// CountActiveApplications counts applications in the pool, excluding
	// rejected ones. The eligibility gate reads this, never the cached
	// ApplicationCount column.
	CountActiveApplications(ctx context.Context, db *gorm.DB, projectID snowflake.ID) (int, error)

	IncrementApplicationCount(ctx context.Context, db *gorm.DB, projectID snowflake.ID) error

	// UpdateStatus moves the project between lifecycle states, guarded by the
	// expected current status.
	UpdateStatus(ctx context.Context, db *gorm.DB, projectID snowflake.ID, from, to Status) (bool, error)
}
