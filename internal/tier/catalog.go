package tier

import (
	"strings"

	tierdomain "github.com/stagelink/stagelink/internal/tier/domain"
	"go.uber.org/fx"
)

// Module provides the static tier catalog.
var Module = fx.Module("tier",
	fx.Provide(NewCatalog),
)

type catalog struct {
	entitlements map[tierdomain.Plan]tierdomain.Entitlement
	order        []tierdomain.Plan
	nextTier     map[tierdomain.Plan]tierdomain.Plan
}

// NewCatalog builds the entitlement table. Quotas and visibility levels per
// plan are product decisions; anything not listed here falls back to the free
// plan of its track.
func NewCatalog() tierdomain.Catalog {
	entitlements := []tierdomain.Entitlement{
		{
			Plan:                    tierdomain.PlanStudentFree,
			DisplayName:             "Student Free",
			MaxApplicationsPerMonth: 5,
			ShortlistVisibility:     tierdomain.VisibilityShortlistedOnly,
		},
		{
			Plan:                    tierdomain.PlanStudentPro,
			DisplayName:             "Student Pro",
			MaxApplicationsPerMonth: tierdomain.UnlimitedApplications,
			ShortlistVisibility:     tierdomain.VisibilityShortlistedOnly,
		},
		{
			Plan:                    tierdomain.PlanCompanyFree,
			DisplayName:             "Company Free",
			MaxApplicationsPerMonth: tierdomain.UnlimitedApplications,
			ShortlistVisibility:     tierdomain.VisibilityShortlistedOnly,
		},
		{
			Plan:                    tierdomain.PlanCompanyGrowth,
			DisplayName:             "Company Growth",
			MaxApplicationsPerMonth: tierdomain.UnlimitedApplications,
			ShortlistVisibility:     tierdomain.VisibilityFullPool,
			AllowsCustomProjects:    true,
		},
		{
			Plan:                    tierdomain.PlanCompanyPremium,
			DisplayName:             "Company Premium",
			MaxApplicationsPerMonth: tierdomain.UnlimitedApplications,
			ShortlistVisibility:     tierdomain.VisibilityCompleteTransparency,
			AllowsManualOverride:    true,
			AllowsCustomProjects:    true,
		},
	}

	c := &catalog{
		entitlements: make(map[tierdomain.Plan]tierdomain.Entitlement, len(entitlements)),
		order:        make([]tierdomain.Plan, 0, len(entitlements)),
		nextTier: map[tierdomain.Plan]tierdomain.Plan{
			tierdomain.PlanStudentFree:   tierdomain.PlanStudentPro,
			tierdomain.PlanCompanyFree:   tierdomain.PlanCompanyGrowth,
			tierdomain.PlanCompanyGrowth: tierdomain.PlanCompanyPremium,
		},
	}
	for _, e := range entitlements {
		c.entitlements[e.Plan] = e
		c.order = append(c.order, e.Plan)
	}
	return c
}

func (c *catalog) Lookup(plan tierdomain.Plan) tierdomain.Entitlement {
	if e, ok := c.entitlements[normalize(plan)]; ok {
		return e
	}
	// Unknown or legacy plan identifiers degrade to the free tier of their
	// track rather than failing the request.
	if strings.HasPrefix(string(normalize(plan)), "COMPANY") {
		return c.entitlements[tierdomain.PlanCompanyFree]
	}
	return c.entitlements[tierdomain.PlanStudentFree]
}

func (c *catalog) NextTier(plan tierdomain.Plan) (tierdomain.Entitlement, bool) {
	next, ok := c.nextTier[normalize(plan)]
	if !ok {
		return tierdomain.Entitlement{}, false
	}
	return c.entitlements[next], true
}

func (c *catalog) Plans() []tierdomain.Entitlement {
	out := make([]tierdomain.Entitlement, 0, len(c.order))
	for _, plan := range c.order {
		out = append(out, c.entitlements[plan])
	}
	return out
}

func normalize(plan tierdomain.Plan) tierdomain.Plan {
	return tierdomain.Plan(strings.ToUpper(strings.TrimSpace(string(plan))))
}
