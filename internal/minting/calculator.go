package minting

import (
	"math"
	"strings"

	"blue-carbon/registry-portal/registry-portal-backend/internal/projects"
)

// ecoFactors weights eligible CCT by ecosystem type, aligned with the
// registry standard. Unknown ecosystems fall back to 1.0.
var ecoFactors = map[string]float64{
	"mangrove":       1.2,
	"seagrass":       1.1,
	"coastal forest": 1.3,
}

// EcoFactor returns the standard weighting for an ecosystem type. Matching is
// case-insensitive and tolerates hyphenated names.
func EcoFactor(ecosystemType string) float64 {
	key := strings.ToLower(strings.TrimSpace(ecosystemType))
	key = strings.ReplaceAll(key, "-", " ")
	if factor, ok := ecoFactors[key]; ok {
		return factor
	}
	return 1.0
}

// EligibleCCT computes the credit units a project qualifies for:
// floor(area * saplings * survivalRate/100 * years * ecoFactor). The result
// is fixed on the mint request at creation; only this integer ever reaches
// the ledger.
func EligibleCCT(p *projects.Project) int64 {
	raw := float64(p.AreaHectares) *
		float64(p.Saplings) *
		(float64(p.SurvivalRate) / 100) *
		float64(p.ProjectYears) *
		EcoFactor(p.EcosystemType)
	return int64(math.Floor(raw))
}
