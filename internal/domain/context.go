package domain

import "strings"

// AggregatedContext is the request-scoped snapshot assembled before persona
// selection and prompt composition.
type AggregatedContext struct {
	UserProfile            UserProfile
	CompanyProfile         CompanyProfile
	ModuleAccessed         string
	CurrentInteractionData map[string]any
	InteractionHistory     []Turn
}

// Field is a single named value rendered into the prompt context block.
// A nil Value means the field is absent and is never rendered.
type Field struct {
	Key   string
	Value any
}

// AgentContext projects the aggregated context into the ordered, null-filtered
// fields interpolated into the final user message. An empty profile field or
// module counts as absent and is dropped; company_strategic_goals is always
// present, as "" when there are no goals.
func (c AggregatedContext) AgentContext() []Field {
	candidates := []Field{
		{Key: "user_role", Value: optional(c.UserProfile.Role)},
		{Key: "user_department", Value: optional(c.UserProfile.Department)},
		{Key: "company_sector", Value: optional(c.CompanyProfile.Sector)},
		{Key: "company_stage", Value: optional(c.CompanyProfile.Stage)},
		{Key: "company_strategic_goals", Value: strings.Join(c.CompanyProfile.StrategicGoals, ", ")},
		{Key: "module_accessed", Value: optional(c.ModuleAccessed)},
	}

	fields := make([]Field, 0, len(candidates))
	for _, f := range candidates {
		if f.Value != nil {
			fields = append(fields, f)
		}
	}
	return fields
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}
