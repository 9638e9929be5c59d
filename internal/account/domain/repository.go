package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	tierdomain "github.com/stagelink/stagelink/internal/tier/domain"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	Create(ctx context.Context, db *gorm.DB, user *User) error
	UpdateSubscription(ctx context.Context, db *gorm.DB, id snowflake.ID, plan tierdomain.Plan, status SubscriptionStatus) error

	// ResetMonthlyCounter zeroes the counter and advances the reset marker,
	// but only if the counter still holds the observed value. A lost race
	// means another request already reset; callers re-read and continue.
	ResetMonthlyCounter(ctx context.Context, db *gorm.DB, id snowflake.ID, observedCount int, resetAt time.Time) (bool, error)

	// ReserveApplicationSlot increments the counter only while it is below
	// max, as a single conditional update. Returns false when the quota is
	// already exhausted. max < 0 means unlimited.
	ReserveApplicationSlot(ctx context.Context, db *gorm.DB, id snowflake.ID, max int) (bool, error)
}
