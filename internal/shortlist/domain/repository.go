package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// FindCurrent returns the current snapshot and its entries ordered by
	// rank, or nil when the project has no snapshot.
	FindCurrent(ctx context.Context, db *gorm.DB, projectID snowflake.ID) (*ShortlistWithEntries, error)

	// Replace demotes the project's current snapshot and inserts the new one
	// with its entries, all in one transaction.
	Replace(ctx context.Context, db *gorm.DB, snapshot *Snapshot, entries []SnapshotEntry) error
}
