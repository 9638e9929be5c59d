package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// Create inserts the application. A duplicate (user, project) pair returns
	// ErrAlreadyApplied.
	Create(ctx context.Context, db *gorm.DB, application *Application) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Application, error)
	FindByUserAndProject(ctx context.Context, db *gorm.DB, userID, projectID snowflake.ID) (*Application, error)

	// ListByProject returns the project's applications ordered by submission
	// time. Rejected applications are excluded when includeRejected is false.
	ListByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID, includeRejected bool) ([]Application, error)

	// UpdateStatus moves the application to target only while it still holds
	// the expected status, as a single guarded update.
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, expected, target Status) (bool, error)

	UpdateScore(ctx context.Context, db *gorm.DB, id snowflake.ID, score float64, detail ScoreDetail, scoredAt time.Time) error
}
