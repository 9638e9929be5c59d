package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	profiledomain "github.com/stagelink/stagelink/internal/profile/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() profiledomain.Repository {
	return &repo{}
}

func (r *repo) FindByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*profiledomain.CandidateProfile, error) {
	var profile profiledomain.CandidateProfile
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &profiledomain.CandidateProfile{UserID: userID}, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, profile *profiledomain.CandidateProfile) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"full_name", "university", "major", "graduation_year",
			"skills", "bio", "linkedin_url", "cv_url", "updated_at",
		}),
	}).Create(profile).Error
}
