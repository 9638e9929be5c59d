package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	projectdomain "github.com/stagelink/stagelink/internal/project/domain"
	projectrepo "github.com/stagelink/stagelink/internal/project/repository"
	"github.com/stagelink/stagelink/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newProjectFixture(t *testing.T) (*gorm.DB, projectdomain.Service, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&projectdomain.Project{}))

	node, _ := snowflake.NewNode(1)
	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  projectrepo.Provide(),
	})
	return db, svc, node
}

func seedProjectAt(t *testing.T, db *gorm.DB, node *snowflake.Node, companyID snowflake.ID, title string, createdAt time.Time) snowflake.ID {
	t.Helper()
	id := node.Generate()
	assert.NoError(t, db.Create(&projectdomain.Project{
		ID:        id,
		CompanyID: companyID,
		Title:     title,
		Slug:      fmt.Sprintf("%s-%s", title, id.Base36()),
		Status:    projectdomain.StatusLive,
		CreatedAt: createdAt,
	}).Error)
	return id
}

func TestList_CursorPagination(t *testing.T) {
	db, svc, node := newProjectFixture(t)
	ctx := context.Background()

	company := node.Generate()
	other := node.Generate()
	base := time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)

	ids := make([]snowflake.ID, 0, 5)
	for i := 0; i < 5; i++ {
		id := seedProjectAt(t, db, node, company, fmt.Sprintf("proj-%d", i), base.Add(time.Duration(i)*time.Minute))
		ids = append(ids, id)
	}
	seedProjectAt(t, db, node, other, "foreign", base.Add(time.Hour))

	// Newest first, two per page.
	page1, info1, err := svc.List(ctx, company, pagination.Pagination{PageSize: 2})
	assert.NoError(t, err)
	assert.Len(t, page1, 2)
	assert.True(t, info1.HasMore)
	assert.Equal(t, ids[4], page1[0].ID)
	assert.Equal(t, ids[3], page1[1].ID)

	page2, info2, err := svc.List(ctx, company, pagination.Pagination{PageSize: 2, PageToken: info1.NextPageToken})
	assert.NoError(t, err)
	assert.Len(t, page2, 2)
	assert.True(t, info2.HasMore)
	assert.Equal(t, ids[2], page2[0].ID)
	assert.Equal(t, ids[1], page2[1].ID)

	page3, info3, err := svc.List(ctx, company, pagination.Pagination{PageSize: 2, PageToken: info2.NextPageToken})
	assert.NoError(t, err)
	assert.Len(t, page3, 1)
	assert.False(t, info3.HasMore)
	assert.Equal(t, ids[0], page3[0].ID)

	// The other company's project never leaks into the listing.
	for _, p := range append(append(page1, page2...), page3...) {
		assert.Equal(t, company, p.CompanyID)
	}
}

func TestList_InvalidPageToken(t *testing.T) {
	_, svc, node := newProjectFixture(t)

	_, _, err := svc.List(context.Background(), node.Generate(), pagination.Pagination{PageToken: "not-a-cursor"})
	assert.ErrorIs(t, err, projectdomain.ErrInvalidPageToken)
}

func TestClose_LifecycleGuard(t *testing.T) {
	_, svc, _ := newProjectFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, projectdomain.CreateProjectRequest{
		CompanyID: 42,
		Title:     "Data Platform Internship",
	})
	assert.NoError(t, err)
	assert.Equal(t, projectdomain.StatusPendingApproval, created.Status)

	// Only LIVE projects close.
	_, err = svc.Close(ctx, created.ID)
	assert.ErrorIs(t, err, projectdomain.ErrInvalidStatus)

	approved, err := svc.Approve(ctx, created.ID)
	assert.NoError(t, err)
	assert.Equal(t, projectdomain.StatusLive, approved.Status)

	closed, err := svc.Close(ctx, created.ID)
	assert.NoError(t, err)
	assert.Equal(t, projectdomain.StatusClosed, closed.Status)

	_, err = svc.Close(ctx, created.ID)
	assert.ErrorIs(t, err, projectdomain.ErrInvalidStatus)
}
