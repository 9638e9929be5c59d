// Package authorization enforces role-based access to funnel operations.
// Policies live in the database through the casbin gorm adapter; the model
// is embedded.
package authorization

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

const (
	ObjectProject     = "project"
	ObjectApplication = "application"
	ObjectShortlist   = "shortlist"
)

const (
	ActionProjectView    = "project.view"
	ActionProjectCreate  = "project.create"
	ActionProjectApprove = "project.approve"
	ActionProjectReject  = "project.reject"
	ActionProjectClose   = "project.close"

	ActionApplicationCreate      = "application.create"
	ActionApplicationTransition  = "application.transition"
	ActionApplicationCheckLimits = "application.check_limits"

	ActionShortlistView     = "shortlist.view"
	ActionShortlistGenerate = "shortlist.generate"
	ActionShortlistOverride = "shortlist.override"
)

type Service interface {
	// Authorize resolves the user's role and enforces the policy for the
	// object/action pair.
	Authorize(ctx context.Context, userID snowflake.ID, object, action string) error
}

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)
