package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	applicationdomain "github.com/stagelink/stagelink/internal/application/domain"
	funneldomain "github.com/stagelink/stagelink/internal/funnel/domain"
	obsmetrics "github.com/stagelink/stagelink/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// allowedEdges is the entire status graph. ACCEPTED and REJECTED have no
// outgoing edges; same-state moves are not edges.
var allowedEdges = map[applicationdomain.Status][]applicationdomain.Status{
	applicationdomain.StatusPending:     {applicationdomain.StatusShortlisted, applicationdomain.StatusRejected},
	applicationdomain.StatusShortlisted: {applicationdomain.StatusInterviewed, applicationdomain.StatusRejected},
	applicationdomain.StatusInterviewed: {applicationdomain.StatusAccepted, applicationdomain.StatusRejected},
}

type ServiceParam struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo applicationdomain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo applicationdomain.Repository
}

func NewService(p ServiceParam) funneldomain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("funnel.service"),
		repo: p.Repo,
	}
}

// CanTransition implements domain.Service.
func (s *Service) CanTransition(from, to applicationdomain.Status) bool {
	for _, target := range allowedEdges[from] {
		if target == to {
			return true
		}
	}
	return false
}

// Transition implements domain.Service.
func (s *Service) Transition(ctx context.Context, applicationID snowflake.ID, target applicationdomain.Status) (*applicationdomain.Application, error) {
	application, err := s.repo.FindByID(ctx, s.db, applicationID)
	if err != nil {
		return nil, err
	}
	if application == nil {
		return nil, applicationdomain.ErrApplicationNotFound
	}

	if !s.CanTransition(application.Status, target) {
		obsmetrics.Funnel().RecordTransition(string(target), "invalid")
		return nil, funneldomain.ErrInvalidTransition
	}

	ok, err := s.repo.UpdateStatus(ctx, s.db, applicationID, application.Status, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		// A concurrent transition changed the status between read and write.
		obsmetrics.Funnel().RecordTransition(string(target), "conflict")
		return nil, funneldomain.ErrInvalidTransition
	}

	s.log.Info("application transitioned",
		zap.String("application_id", applicationID.String()),
		zap.String("from", string(application.Status)),
		zap.String("to", string(target)),
	)
	obsmetrics.Funnel().RecordTransition(string(target), "ok")

	application.Status = target
	return application, nil
}

// BulkTransition implements domain.Service.
func (s *Service) BulkTransition(ctx context.Context, applicationIDs []snowflake.ID, target applicationdomain.Status) []funneldomain.ItemResult {
	results := make([]funneldomain.ItemResult, 0, len(applicationIDs))
	for _, id := range applicationIDs {
		application, err := s.Transition(ctx, id, target)
		if err != nil {
			reason := "internal_error"
			if errors.Is(err, funneldomain.ErrInvalidTransition) || errors.Is(err, applicationdomain.ErrApplicationNotFound) {
				reason = err.Error()
			}
			results = append(results, funneldomain.ItemResult{
				ApplicationID: id,
				OK:            false,
				Error:         reason,
			})
			continue
		}
		results = append(results, funneldomain.ItemResult{
			ApplicationID: id,
			OK:            true,
			Status:        application.Status,
		})
	}
	return results
}
