package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	shortlistdomain "github.com/stagelink/stagelink/internal/shortlist/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() shortlistdomain.Repository {
	return &repo{}
}

func (r *repo) FindCurrent(ctx context.Context, db *gorm.DB, projectID snowflake.ID) (*shortlistdomain.ShortlistWithEntries, error) {
	var snapshot shortlistdomain.Snapshot
	err := db.WithContext(ctx).
		Where("project_id = ? AND current = ?", projectID, true).
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entries []shortlistdomain.SnapshotEntry
	err = db.WithContext(ctx).
		Where("snapshot_id = ?", snapshot.ID).
		Order("rank ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return &shortlistdomain.ShortlistWithEntries{Snapshot: snapshot, Entries: entries}, nil
}

func (r *repo) Replace(ctx context.Context, db *gorm.DB, snapshot *shortlistdomain.Snapshot, entries []shortlistdomain.SnapshotEntry) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&shortlistdomain.Snapshot{}).
			Where("project_id = ? AND current = ?", snapshot.ProjectID, true).
			Update("current", false).Error
		if err != nil {
			return err
		}

		snapshot.Current = true
		if err := tx.Create(snapshot).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	})
}
