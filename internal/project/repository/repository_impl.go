package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	projectdomain "github.com/stagelink/stagelink/internal/project/domain"
	"github.com/stagelink/stagelink/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() projectdomain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*projectdomain.Project, error) {
	var project projectdomain.Project
	err := db.WithContext(ctx).Where("id = ?", id).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &project, nil
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, project *projectdomain.Project) error {
	return db.WithContext(ctx).Create(project).Error
}

func (r *repo) ListByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID, cursor *pagination.Cursor, limit int) ([]*projectdomain.Project, error) {
	query := db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if cursor != nil {
		createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, projectdomain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, projectdomain.ErrInvalidPageToken
		}
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", createdAt, createdAt, id)
	}

	var projects []*projectdomain.Project
	if err := query.Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *repo) CountActiveApplications(ctx context.Context, db *gorm.DB, projectID snowflake.ID) (int, error) {
	var count int64
	err := db.WithContext(ctx).
		Table("applications").
		Where("project_id = ? AND status <> ?", projectID, "REJECTED").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *repo) IncrementApplicationCount(ctx context.Context, db *gorm.DB, projectID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE projects SET application_count = application_count + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		projectID,
	).Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, projectID snowflake.ID, from, to projectdomain.Status) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE projects SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		to,
		projectID,
		from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
