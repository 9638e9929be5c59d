// Package redaction applies tier-based field locking to shortlist views. It
// is a read-time transform over copies; stored snapshots and applications are
// never touched.
package redaction

import (
	"time"

	"github.com/bwmarrin/snowflake"
	tierdomain "github.com/stagelink/stagelink/internal/tier/domain"
)

// LockedValue replaces a field the viewer's tier does not unlock. The field
// stays present so clients render a stable locked placeholder instead of
// branching on missing keys.
const LockedValue = "🔒 Upgrade to unlock"

// CandidateView is one shortlist entry as returned to a company.
type CandidateView struct {
	Rank          int          `json:"rank"`
	ApplicationID snowflake.ID `json:"application_id"`
	UserID        snowflake.ID `json:"user_id"`
	FullName      string       `json:"full_name"`
	University    string       `json:"university"`
	Major         string       `json:"major"`
	Email         string       `json:"email"`
	LinkedinURL   string       `json:"linkedin_url"`
	Motivation    string       `json:"motivation"`
	Score         float64      `json:"score"`
	Strengths     []string     `json:"strengths"`
	Concerns      []string     `json:"concerns"`
	ScoreDegraded bool         `json:"score_degraded,omitempty"`
}

// ShortlistView is the API shape of a snapshot plus its candidates.
type ShortlistView struct {
	ProjectID         snowflake.ID               `json:"project_id"`
	GeneratedAt       time.Time                  `json:"generated_at"`
	TotalApplications int                        `json:"total_applications"`
	ManualOverride    bool                       `json:"manual_override"`
	VisibilityLevel   tierdomain.VisibilityLevel `json:"visibility_level"`
	Candidates        []CandidateView            `json:"candidates"`
}

// Redact returns a copy of the view with fields locked per the visibility
// level. SHORTLISTED_ONLY locks contact fields, motivation, and AI insights;
// FULL_POOL unlocks contact and motivation; COMPLETE_TRANSPARENCY unlocks
// everything.
func Redact(view ShortlistView, level tierdomain.VisibilityLevel) ShortlistView {
	out := view
	out.VisibilityLevel = level
	out.Candidates = make([]CandidateView, len(view.Candidates))

	lockContact := level.Rank() < tierdomain.VisibilityFullPool.Rank()
	lockInsights := level.Rank() < tierdomain.VisibilityCompleteTransparency.Rank()

	for i, c := range view.Candidates {
		redacted := c
		if lockContact {
			redacted.Email = LockedValue
			redacted.LinkedinURL = LockedValue
			redacted.Motivation = LockedValue
		}
		if lockInsights {
			redacted.Strengths = []string{LockedValue}
			redacted.Concerns = []string{LockedValue}
		} else {
			redacted.Strengths = append([]string{}, c.Strengths...)
			redacted.Concerns = append([]string{}, c.Concerns...)
		}
		out.Candidates[i] = redacted
	}
	return out
}
