// Package domain contains shortlist snapshot models and the generation
// contract. A shortlist is an immutable snapshot: regenerating replaces it
// wholesale, readers never observe a half-written ranking.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	tierdomain "github.com/stagelink/stagelink/internal/tier/domain"
	"gorm.io/datatypes"
)

// Snapshot is one generated shortlist for a project. At most one snapshot per
// project is current; replacement demotes the previous one in the same
// transaction that inserts the new one.
type Snapshot struct {
	ID                            snowflake.ID               `gorm:"primaryKey"`
	ProjectID                     snowflake.ID               `gorm:"not null;index"`
	Current                       bool                       `gorm:"not null;default:false;index"`
	ManualOverride                bool                       `gorm:"not null;default:false"`
	TotalApplicationsAtGeneration int                        `gorm:"not null"`
	VisibilityLevelAtGeneration   tierdomain.VisibilityLevel `gorm:"type:text;not null"`
	GeneratedAt                   time.Time                  `gorm:"not null"`
	CreatedAt                     time.Time                  `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Snapshot) TableName() string { return "shortlist_snapshots" }

// SnapshotEntry is one ranked candidate inside a snapshot. ScoreDegraded
// marks entries whose score fell back to the neutral value because scoring
// was unavailable during generation.
type SnapshotEntry struct {
	ID            snowflake.ID                `gorm:"primaryKey"`
	SnapshotID    snowflake.ID                `gorm:"not null;index"`
	Rank          int                         `gorm:"not null"`
	ApplicationID snowflake.ID                `gorm:"not null"`
	UserID        snowflake.ID                `gorm:"not null"`
	Score         float64                     `gorm:"not null"`
	Strengths     datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Concerns      datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	ScoreDegraded bool                        `gorm:"not null;default:false"`
	CreatedAt     time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (SnapshotEntry) TableName() string { return "shortlist_entries" }

var (
	ErrNotEligible      = errors.New("not_eligible")
	ErrSnapshotConflict = errors.New("snapshot_conflict")
	ErrUpgradeRequired  = errors.New("upgrade_required")
)
