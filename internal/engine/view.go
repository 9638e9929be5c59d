package engine

import (
	"context"

	"github.com/stagelink/stagelink/internal/redaction"
	shortlistdomain "github.com/stagelink/stagelink/internal/shortlist/domain"
)

// buildView assembles the unredacted shortlist view from the snapshot and its
// source records. Redaction happens afterwards, on the copy.
func (e *Engine) buildView(ctx context.Context, result *shortlistdomain.ShortlistWithEntries) (redaction.ShortlistView, error) {
	view := redaction.ShortlistView{
		ProjectID:         result.Snapshot.ProjectID,
		GeneratedAt:       result.Snapshot.GeneratedAt,
		TotalApplications: result.Snapshot.TotalApplicationsAtGeneration,
		ManualOverride:    result.Snapshot.ManualOverride,
		VisibilityLevel:   result.Snapshot.VisibilityLevelAtGeneration,
		Candidates:        make([]redaction.CandidateView, 0, len(result.Entries)),
	}

	for _, entry := range result.Entries {
		candidate := redaction.CandidateView{
			Rank:          entry.Rank,
			ApplicationID: entry.ApplicationID,
			UserID:        entry.UserID,
			Score:         entry.Score,
			Strengths:     entry.Strengths,
			Concerns:      entry.Concerns,
			ScoreDegraded: entry.ScoreDegraded,
		}

		user, err := e.users.FindByID(ctx, e.db, entry.UserID)
		if err != nil {
			return redaction.ShortlistView{}, err
		}
		if user != nil {
			candidate.Email = user.Email
			candidate.FullName = user.FullName
		}

		profile, err := e.profiles.FindByUserID(ctx, e.db, entry.UserID)
		if err != nil {
			return redaction.ShortlistView{}, err
		}
		if candidate.FullName == "" {
			candidate.FullName = profile.FullName
		}
		candidate.University = profile.University
		candidate.Major = profile.Major
		candidate.LinkedinURL = profile.LinkedinURL

		application, err := e.applications.FindByID(ctx, e.db, entry.ApplicationID)
		if err != nil {
			return redaction.ShortlistView{}, err
		}
		if application != nil {
			candidate.Motivation = application.Motivation
		}

		view.Candidates = append(view.Candidates, candidate)
	}
	return view, nil
}
