package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	tierdomain "github.com/stagelink/stagelink/internal/tier/domain"
)

// Eligibility reports whether a project has collected enough applications for
// shortlist generation. The check is monotonic within a project's lifetime:
// applications are never un-counted.
type Eligibility struct {
	Eligible             bool `json:"eligible"`
	CurrentApplications  int  `json:"current_applications"`
	RequiredApplications int  `json:"required_applications"`
	RemainingNeeded      int  `json:"remaining_needed"`
}

// ShortlistWithEntries pairs a snapshot with its ranked entries.
type ShortlistWithEntries struct {
	Snapshot Snapshot        `json:"snapshot"`
	Entries  []SnapshotEntry `json:"entries"`
}

type Service interface {
	// Evaluate runs the eligibility gate without side effects.
	Evaluate(ctx context.Context, projectID snowflake.ID) (Eligibility, error)

	// GetCurrent returns the project's current snapshot, or nil when none has
	// been generated yet. Never triggers generation.
	GetCurrent(ctx context.Context, projectID snowflake.ID) (*ShortlistWithEntries, error)

	// Generate scores the pool and replaces the current snapshot. Fails with
	// ErrNotEligible below the threshold and ErrSnapshotConflict when another
	// generation holds the project lock after one retry.
	Generate(ctx context.Context, projectID snowflake.ID, visibility tierdomain.VisibilityLevel) (*ShortlistWithEntries, error)

	// ManualOverride replaces the current snapshot with an explicitly ordered
	// candidate list. The caller's tier must allow it.
	ManualOverride(ctx context.Context, projectID snowflake.ID, applicationIDs []snowflake.ID, entitlement tierdomain.Entitlement) (*ShortlistWithEntries, error)
}
