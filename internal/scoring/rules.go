package scoring

// Dimension weights. They sum to 1.0; each dimension scores 0..100 and the
// weighted sum is the final 0..100 compatibility score.
const (
	weightSkills       = 0.50
	weightMajor        = 0.20
	weightCompleteness = 0.30
)

// A missing dimension scores neutral, never zero. A student who left the
// major field empty is unknown, not unqualified.
const neutralDimension = 50.0

// Completeness checklist. Each filled field contributes an equal share of the
// completeness dimension.
var completenessFields = []string{
	"university",
	"major",
	"graduation_year",
	"skills",
	"bio",
	"cv",
}

const (
	strongSkillOverlap = 0.75
	weakSkillOverlap   = 0.25
)
