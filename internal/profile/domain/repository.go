package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// FindByUserID returns the student's profile, or an empty profile bound to
	// the user when none exists yet.
	FindByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*CandidateProfile, error)
	Upsert(ctx context.Context, db *gorm.DB, profile *CandidateProfile) error
}
