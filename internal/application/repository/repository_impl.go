package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	applicationdomain "github.com/stagelink/stagelink/internal/application/domain"
	"github.com/stagelink/stagelink/pkg/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() applicationdomain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, dbc *gorm.DB, application *applicationdomain.Application) error {
	err := dbc.WithContext(ctx).Create(application).Error
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return applicationdomain.ErrAlreadyApplied
		}
		return err
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, dbc *gorm.DB, id snowflake.ID) (*applicationdomain.Application, error) {
	var application applicationdomain.Application
	err := dbc.WithContext(ctx).Where("id = ?", id).First(&application).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &application, nil
}

func (r *repo) FindByUserAndProject(ctx context.Context, dbc *gorm.DB, userID, projectID snowflake.ID) (*applicationdomain.Application, error) {
	var application applicationdomain.Application
	err := dbc.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		First(&application).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &application, nil
}

func (r *repo) ListByProject(ctx context.Context, dbc *gorm.DB, projectID snowflake.ID, includeRejected bool) ([]applicationdomain.Application, error) {
	query := dbc.WithContext(ctx).Where("project_id = ?", projectID)
	if !includeRejected {
		query = query.Where("status <> ?", applicationdomain.StatusRejected)
	}

	var applications []applicationdomain.Application
	if err := query.Order("created_at ASC, id ASC").Find(&applications).Error; err != nil {
		return nil, err
	}
	return applications, nil
}

func (r *repo) UpdateStatus(ctx context.Context, dbc *gorm.DB, id snowflake.ID, expected, target applicationdomain.Status) (bool, error) {
	res := dbc.WithContext(ctx).Exec(
		`UPDATE applications SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		target,
		id,
		expected,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) UpdateScore(ctx context.Context, dbc *gorm.DB, id snowflake.ID, score float64, detail applicationdomain.ScoreDetail, scoredAt time.Time) error {
	return dbc.WithContext(ctx).
		Model(&applicationdomain.Application{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"compatibility_score": score,
			"score_detail":        datatypes.NewJSONType(detail),
			"scored_at":           scoredAt,
		}).Error
}
