package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	profiledomain "github.com/stagelink/stagelink/internal/profile/domain"
	projectdomain "github.com/stagelink/stagelink/internal/project/domain"
	"go.uber.org/zap"
)

type ruleScorer struct {
	log *zap.Logger
}

// NewRuleScorer builds the default weighted rule-table scorer.
func NewRuleScorer(log *zap.Logger) Scorer {
	return &ruleScorer{log: log.Named("scoring.rules")}
}

// Score implements Scorer.
func (s *ruleScorer) Score(ctx context.Context, profile *profiledomain.CandidateProfile, project *projectdomain.Project) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, ErrScoringUnavailable
	}

	result := Result{Strengths: []string{}, Concerns: []string{}}

	skillScore := s.scoreSkills(profile, project, &result)
	majorScore := s.scoreMajor(profile, project, &result)
	completenessScore := s.scoreCompleteness(profile, &result)

	total := skillScore*weightSkills + majorScore*weightMajor + completenessScore*weightCompleteness
	result.Score = math.Round(total*100) / 100
	return result, nil
}

func (s *ruleScorer) scoreSkills(profile *profiledomain.CandidateProfile, project *projectdomain.Project, result *Result) float64 {
	required := normalizeSkills(project.RequiredSkills)
	if len(required) == 0 {
		return neutralDimension
	}

	have := map[string]bool{}
	for _, skill := range normalizeSkills(profile.Skills) {
		have[skill] = true
	}

	matched := make([]string, 0, len(required))
	missing := make([]string, 0, len(required))
	for _, skill := range required {
		if have[skill] {
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}

	overlap := float64(len(matched)) / float64(len(required))
	if overlap >= strongSkillOverlap {
		result.Strengths = append(result.Strengths, fmt.Sprintf("covers %d of %d required skills (%s)", len(matched), len(required), strings.Join(matched, ", ")))
	} else if overlap <= weakSkillOverlap && len(missing) > 0 {
		result.Concerns = append(result.Concerns, fmt.Sprintf("missing required skills: %s", strings.Join(missing, ", ")))
	}
	return overlap * 100
}

func (s *ruleScorer) scoreMajor(profile *profiledomain.CandidateProfile, project *projectdomain.Project, result *Result) float64 {
	preferred := strings.TrimSpace(strings.ToLower(project.PreferredMajor))
	major := strings.TrimSpace(strings.ToLower(profile.Major))
	if preferred == "" || major == "" {
		return neutralDimension
	}

	if strings.Contains(major, preferred) || strings.Contains(preferred, major) {
		result.Strengths = append(result.Strengths, fmt.Sprintf("field of study matches %s", project.PreferredMajor))
		return 100
	}

	result.Concerns = append(result.Concerns, fmt.Sprintf("field of study differs from preferred %s", project.PreferredMajor))
	return 20
}

func (s *ruleScorer) scoreCompleteness(profile *profiledomain.CandidateProfile, result *Result) float64 {
	filled := 0
	for _, field := range completenessFields {
		switch field {
		case "university":
			if profile.University != "" {
				filled++
			}
		case "major":
			if profile.Major != "" {
				filled++
			}
		case "graduation_year":
			if profile.GraduationYear != 0 {
				filled++
			}
		case "skills":
			if len(profile.Skills) > 0 {
				filled++
			}
		case "bio":
			if profile.Bio != "" {
				filled++
			}
		case "cv":
			if profile.CVURL != "" {
				filled++
			}
		}
	}

	share := float64(filled) / float64(len(completenessFields))
	if filled == len(completenessFields) {
		result.Strengths = append(result.Strengths, "complete profile")
	} else if share < 0.5 {
		result.Concerns = append(result.Concerns, "profile is mostly incomplete")
	}
	return share * 100
}

func normalizeSkills(skills []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(strings.ToLower(skill))
		if skill == "" || seen[skill] {
			continue
		}
		seen[skill] = true
		out = append(out, skill)
	}
	sort.Strings(out)
	return out
}
