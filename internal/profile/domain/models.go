// Package domain contains candidate profile models. Profiles are written by
// the profile-editing surface outside this service; the funnel only reads them
// for compatibility scoring.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// CandidateProfile is a student's scoring-relevant profile. A student without
// a profile row scores as an empty profile, not as an error.
type CandidateProfile struct {
	ID             snowflake.ID                `gorm:"primaryKey"`
	UserID         snowflake.ID                `gorm:"not null;uniqueIndex"`
	FullName       string                      `gorm:"type:text"`
	University     string                      `gorm:"type:text"`
	Major          string                      `gorm:"type:text"`
	GraduationYear int                         `gorm:"not null;default:0"`
	Skills         datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Bio            string                      `gorm:"type:text"`
	LinkedinURL    string                      `gorm:"type:text"`
	CVURL          string                      `gorm:"type:text"`
	CreatedAt      time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CandidateProfile) TableName() string { return "candidate_profiles" }

// Empty reports whether the profile carries no scoring signal.
func (p CandidateProfile) Empty() bool {
	return p.Major == "" && len(p.Skills) == 0 && p.University == "" && p.GraduationYear == 0
}
