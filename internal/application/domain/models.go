// Package domain contains application records and their funnel statuses.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status is an application's position in the recruitment funnel. Legal
// movements between statuses are owned by the funnel state machine.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusShortlisted Status = "SHORTLISTED"
	StatusInterviewed Status = "INTERVIEWED"
	StatusAccepted    Status = "ACCEPTED"
	StatusRejected    Status = "REJECTED"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// ScoreDetail is the stored output of a compatibility scoring run.
type ScoreDetail struct {
	Strengths []string `json:"strengths"`
	Concerns  []string `json:"concerns"`
	Degraded  bool     `json:"degraded,omitempty"`
}

// Application is one student's submission to one project. The unique index on
// (user_id, project_id) is what makes duplicate submissions fail atomically.
type Application struct {
	ID                 snowflake.ID                    `gorm:"primaryKey"`
	UserID             snowflake.ID                    `gorm:"not null;uniqueIndex:idx_applications_user_project;index"`
	ProjectID          snowflake.ID                    `gorm:"not null;uniqueIndex:idx_applications_user_project;index"`
	Status             Status                          `gorm:"type:text;not null;default:PENDING;index"`
	Motivation         string                          `gorm:"type:text"`
	CompatibilityScore *float64
	ScoreDetail        datatypes.JSONType[ScoreDetail] `gorm:"type:jsonb"`
	ScoredAt           *time.Time
	CreatedAt          time.Time                       `gorm:"not null;default:CURRENT_TIMESTAMP;index"`
	UpdatedAt          time.Time                       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Application) TableName() string { return "applications" }

var (
	ErrApplicationNotFound = errors.New("application_not_found")
	ErrAlreadyApplied      = errors.New("already_applied")
)
