package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/stagelink/stagelink/internal/account/domain"
	tierdomain "github.com/stagelink/stagelink/internal/tier/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() accountdomain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*accountdomain.User, error) {
	var user accountdomain.User
	err := db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, user *accountdomain.User) error {
	return db.WithContext(ctx).Create(user).Error
}

func (r *repo) UpdateSubscription(ctx context.Context, db *gorm.DB, id snowflake.ID, plan tierdomain.Plan, status accountdomain.SubscriptionStatus) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET subscription_plan = ?, subscription_status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		plan,
		status,
		id,
	).Error
}

func (r *repo) ResetMonthlyCounter(ctx context.Context, db *gorm.DB, id snowflake.ID, observedCount int, resetAt time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE users
		 SET applications_this_month = 0, last_monthly_reset = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND applications_this_month = ?`,
		resetAt,
		id,
		observedCount,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) ReserveApplicationSlot(ctx context.Context, db *gorm.DB, id snowflake.ID, max int) (bool, error) {
	// The limit check and the increment are one statement so that two
	// concurrent applications cannot both take the last slot, regardless of
	// how many server instances are running.
	res := db.WithContext(ctx).Exec(
		`UPDATE users
		 SET applications_this_month = applications_this_month + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND (? < 0 OR applications_this_month < ?)`,
		id,
		max,
		max,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
