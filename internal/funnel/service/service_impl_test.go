package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	applicationdomain "github.com/stagelink/stagelink/internal/application/domain"
	applicationrepo "github.com/stagelink/stagelink/internal/application/repository"
	funneldomain "github.com/stagelink/stagelink/internal/funnel/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newFunnelFixture(t *testing.T) (*gorm.DB, funneldomain.Service, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&applicationdomain.Application{}))

	node, _ := snowflake.NewNode(1)
	svc := NewService(ServiceParam{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: applicationrepo.Provide(),
	})
	return db, svc, node
}

func seedApplication(t *testing.T, db *gorm.DB, node *snowflake.Node, status applicationdomain.Status) snowflake.ID {
	t.Helper()
	id := node.Generate()
	assert.NoError(t, db.Create(&applicationdomain.Application{
		ID:        id,
		UserID:    node.Generate(),
		ProjectID: node.Generate(),
		Status:    status,
	}).Error)
	return id
}

func TestCanTransition_StatusGraph(t *testing.T) {
	_, svc, _ := newFunnelFixture(t)

	legal := []struct{ from, to applicationdomain.Status }{
		{applicationdomain.StatusPending, applicationdomain.StatusShortlisted},
		{applicationdomain.StatusPending, applicationdomain.StatusRejected},
		{applicationdomain.StatusShortlisted, applicationdomain.StatusInterviewed},
		{applicationdomain.StatusShortlisted, applicationdomain.StatusRejected},
		{applicationdomain.StatusInterviewed, applicationdomain.StatusAccepted},
		{applicationdomain.StatusInterviewed, applicationdomain.StatusRejected},
	}
	for _, edge := range legal {
		assert.True(t, svc.CanTransition(edge.from, edge.to), "%s -> %s", edge.from, edge.to)
	}

	illegal := []struct{ from, to applicationdomain.Status }{
		{applicationdomain.StatusPending, applicationdomain.StatusInterviewed},
		{applicationdomain.StatusPending, applicationdomain.StatusAccepted},
		{applicationdomain.StatusShortlisted, applicationdomain.StatusAccepted},
		{applicationdomain.StatusAccepted, applicationdomain.StatusRejected},
		{applicationdomain.StatusRejected, applicationdomain.StatusPending},
		{applicationdomain.StatusRejected, applicationdomain.StatusShortlisted},
		{applicationdomain.StatusPending, applicationdomain.StatusPending},
	}
	for _, edge := range illegal {
		assert.False(t, svc.CanTransition(edge.from, edge.to), "%s -> %s", edge.from, edge.to)
	}
}

func TestTransition_PersistsStatus(t *testing.T) {
	db, svc, node := newFunnelFixture(t)
	id := seedApplication(t, db, node, applicationdomain.StatusPending)

	application, err := svc.Transition(context.Background(), id, applicationdomain.StatusShortlisted)
	assert.NoError(t, err)
	assert.Equal(t, applicationdomain.StatusShortlisted, application.Status)

	var stored applicationdomain.Application
	assert.NoError(t, db.First(&stored, "id = ?", id).Error)
	assert.Equal(t, applicationdomain.StatusShortlisted, stored.Status)
}

func TestTransition_RejectsIllegalEdge(t *testing.T) {
	db, svc, node := newFunnelFixture(t)
	id := seedApplication(t, db, node, applicationdomain.StatusAccepted)

	_, err := svc.Transition(context.Background(), id, applicationdomain.StatusRejected)
	assert.ErrorIs(t, err, funneldomain.ErrInvalidTransition)

	var stored applicationdomain.Application
	assert.NoError(t, db.First(&stored, "id = ?", id).Error)
	assert.Equal(t, applicationdomain.StatusAccepted, stored.Status)
}

func TestTransition_UnknownApplication(t *testing.T) {
	_, svc, node := newFunnelFixture(t)

	_, err := svc.Transition(context.Background(), node.Generate(), applicationdomain.StatusShortlisted)
	assert.ErrorIs(t, err, applicationdomain.ErrApplicationNotFound)
}

func TestBulkTransition_PartialFailure(t *testing.T) {
	db, svc, node := newFunnelFixture(t)

	ids := make([]snowflake.ID, 0, 5)
	for i := 0; i < 4; i++ {
		ids = append(ids, seedApplication(t, db, node, applicationdomain.StatusPending))
	}
	// The fifth is already terminal; its transition must fail alone.
	ids = append(ids, seedApplication(t, db, node, applicationdomain.StatusRejected))

	results := svc.BulkTransition(context.Background(), ids, applicationdomain.StatusShortlisted)
	assert.Len(t, results, 5)

	for i := 0; i < 4; i++ {
		assert.True(t, results[i].OK, "item %d", i)
		assert.Equal(t, applicationdomain.StatusShortlisted, results[i].Status)
		assert.Equal(t, ids[i], results[i].ApplicationID)
	}
	assert.False(t, results[4].OK)
	assert.Equal(t, funneldomain.ErrInvalidTransition.Error(), results[4].Error)

	var count int64
	assert.NoError(t, db.Model(&applicationdomain.Application{}).
		Where("status = ?", applicationdomain.StatusShortlisted).
		Count(&count).Error)
	assert.EqualValues(t, 4, count)
}
