// Package domain defines the funnel state machine contract. Every status
// change of an application goes through this service; nothing else writes the
// status column.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	applicationdomain "github.com/stagelink/stagelink/internal/application/domain"
)

// ItemResult is the outcome for one application of a bulk transition. Items
// are independent; one illegal transition never rolls back the others.
type ItemResult struct {
	ApplicationID snowflake.ID             `json:"application_id"`
	OK            bool                     `json:"ok"`
	Status        applicationdomain.Status `json:"status,omitempty"`
	Error         string                   `json:"error,omitempty"`
}

type Service interface {
	// CanTransition reports whether the edge from→to is on the status graph.
	CanTransition(from, to applicationdomain.Status) bool

	// Transition moves one application to target. The underlying write is
	// guarded by the expected current status, so two racing transitions
	// cannot both win.
	Transition(ctx context.Context, applicationID snowflake.ID, target applicationdomain.Status) (*applicationdomain.Application, error)

	// BulkTransition applies Transition to each id independently and reports
	// per-item results in input order.
	BulkTransition(ctx context.Context, applicationIDs []snowflake.ID, target applicationdomain.Status) []ItemResult
}

var ErrInvalidTransition = errors.New("invalid_transition")
