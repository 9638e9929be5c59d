// Package domain defines the subscription tier entitlements read by the
// recruitment funnel. The catalog is static configuration: loaded once, never
// mutated at runtime. Billing and plan changes live outside this service.
package domain

import "errors"

// Plan identifies a subscription plan.
type Plan string

const (
	PlanStudentFree    Plan = "STUDENT_FREE"
	PlanStudentPro     Plan = "STUDENT_PRO"
	PlanCompanyFree    Plan = "COMPANY_FREE"
	PlanCompanyGrowth  Plan = "COMPANY_GROWTH"
	PlanCompanyPremium Plan = "COMPANY_PREMIUM"
)

// VisibilityLevel controls how much of a shortlist a company may see.
// Levels form a strict ordering; see Rank.
type VisibilityLevel string

const (
	VisibilityShortlistedOnly      VisibilityLevel = "SHORTLISTED_ONLY"
	VisibilityFullPool             VisibilityLevel = "FULL_POOL"
	VisibilityCompleteTransparency VisibilityLevel = "COMPLETE_TRANSPARENCY"
)

// Rank orders visibility levels; higher rank discloses more.
func (v VisibilityLevel) Rank() int {
	switch v {
	case VisibilityFullPool:
		return 1
	case VisibilityCompleteTransparency:
		return 2
	default:
		return 0
	}
}

// UnlimitedApplications is the sentinel for plans without a monthly cap.
const UnlimitedApplications = -1

// Entitlement captures what a plan grants.
type Entitlement struct {
	Plan                    Plan
	DisplayName             string
	MaxApplicationsPerMonth int
	ShortlistVisibility     VisibilityLevel
	AllowsManualOverride    bool
	AllowsCustomProjects    bool
}

// Unlimited reports whether the plan has no monthly application cap.
func (e Entitlement) Unlimited() bool {
	return e.MaxApplicationsPerMonth == UnlimitedApplications
}

// Catalog resolves plan entitlements and upgrade metadata.
type Catalog interface {
	Lookup(plan Plan) Entitlement
	// NextTier returns the next plan up for upgrade prompts, or false when the
	// plan is already the highest of its track.
	NextTier(plan Plan) (Entitlement, bool)
	Plans() []Entitlement
}

var ErrUnknownPlan = errors.New("unknown_plan")
