package persona

import (
	"strings"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/domain"
)

type moduleRule struct {
	keywords []string
	persona  ID
}

// Evaluated in order; the first rule with a matching keyword wins.
var moduleRules = []moduleRule{
	{keywords: []string{"legal", "compliance", "juridico"}, persona: LegalExpert},
	{keywords: []string{"strategy", "planning", "estrategia"}, persona: StrategyConsultant},
	{keywords: []string{"data", "report", "analytics"}, persona: DataAnalyst},
	{keywords: []string{"content", "marketing", "redacao"}, persona: GrowthWriter},
}

var leadershipRoles = []string{"manager", "director"}

// Select picks the persona for an aggregated context.
// The module accessed is checked first, then the user's role; Strategy
// Consultant is the fallback.
func Select(c domain.AggregatedContext) ID {
	module := strings.ToLower(c.ModuleAccessed)
	for _, rule := range moduleRules {
		if containsAny(module, rule.keywords) {
			return rule.persona
		}
	}

	if containsAny(strings.ToLower(c.UserProfile.Role), leadershipRoles) {
		return StrategyConsultant
	}

	return StrategyConsultant
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
