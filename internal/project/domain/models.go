// Package domain contains company project models. Projects go through an
// external approval flow before they are visible to students; only LIVE
// projects accept applications.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status is the project lifecycle state.
type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusLive            Status = "LIVE"
	StatusRejected        Status = "REJECTED"
	StatusClosed          Status = "CLOSED"
)

// Project is a company's internship or work-experience posting.
// ApplicationCount is a denormalized counter bumped on each accepted
// submission; the eligibility gate counts rows, not this field.
type Project struct {
	ID               snowflake.ID                `gorm:"primaryKey"`
	CompanyID        snowflake.ID                `gorm:"not null;index"`
	Title            string                      `gorm:"type:text;not null"`
	Slug             string                      `gorm:"type:text;not null;uniqueIndex"`
	Description      string                      `gorm:"type:text"`
	RequiredSkills   datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	PreferredMajor   string                      `gorm:"type:text"`
	Status           Status                      `gorm:"type:text;not null;default:DRAFT;index"`
	ApplicationCount int                         `gorm:"not null;default:0"`
	CreatedAt        time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Project) TableName() string { return "projects" }

var (
	ErrProjectNotFound = errors.New("project_not_found")
	ErrProjectNotLive  = errors.New("project_not_live")
	ErrInvalidProject  = errors.New("invalid_project")
	ErrInvalidStatus   = errors.New("invalid_project_status")
)
