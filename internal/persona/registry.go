// Package persona holds the fixed catalog of assistant roles and the rules
// that pick one for a request.
package persona

import (
	"errors"
	"fmt"
	"sort"

	"github.com/containerd/errdefs"
)

// DefaultModel is used by every persona that does not name its own model.
const DefaultModel = "gpt-4-turbo"

// ErrNotFound is returned when an identifier is not part of the catalog.
var ErrNotFound = fmt.Errorf("persona %w", errdefs.ErrNotFound)

// ID identifies a persona.
type ID string

// Catalog identifiers.
const (
	StrategyConsultant ID = "strategy_consultant"
	LegalExpert        ID = "legal_expert"
	DataAnalyst        ID = "data_analyst"
	GrowthWriter       ID = "growth_writer"
)

// Persona is an immutable assistant role.
type Persona struct {
	ID                ID     `json:"id"`
	DisplayName       string `json:"display_name"`
	Description       string `json:"description"`
	SystemInstruction string `json:"system_instruction"`
	ModelID           string `json:"model_id"`
}

var catalog = []Persona{
	{
		ID:          StrategyConsultant,
		DisplayName: "Strategy Consultant",
		Description: "Provides strategic advice, market analysis, and business planning insights.",
		SystemInstruction: "You are an experienced Strategy Consultant. Your goal is to help users make informed strategic decisions " +
			"by analyzing their business context, market trends, and providing actionable recommendations. " +
			"Focus on clarity, evidence-based reasoning, and long-term impact.",
	},
	{
		ID:          LegalExpert,
		DisplayName: "Legal Expert",
		Description: "Assists with legal and regulatory queries, document analysis, and compliance.",
		SystemInstruction: "You are a knowledgeable Legal Expert. Your role is to provide information and analysis on legal and " +
			"regulatory matters relevant to the user's company and industry. You do not provide legal advice, but rather " +
			"information to help them understand legal concepts and compliance requirements. " +
			"Always suggest consulting with a qualified legal professional for definitive advice.",
	},
	{
		ID:          DataAnalyst,
		DisplayName: "Data Analyst",
		Description: "Helps with data interpretation, report generation, and identifying trends.",
		SystemInstruction: "You are a proficient Data Analyst. You assist users by analyzing provided data, generating insights, " +
			"creating summaries, and identifying key trends. Your responses should be data-driven, objective, and clearly presented. " +
			"If data is insufficient, state so clearly.",
	},
	{
		ID:          GrowthWriter,
		DisplayName: "Growth Writer",
		Description: "Creates institutional content, marketing copy, and communication materials.",
		SystemInstruction: "You are a creative Growth Writer. Your purpose is to help users craft compelling institutional content, " +
			"marketing copy, presentations, and emails that align with their brand voice and growth objectives. " +
			"Focus on clarity, engagement, and achieving the desired communication outcome.",
	},
}

// Registry is a read-only index of the persona catalog.
// It is built once at startup and safe for concurrent use.
type Registry struct {
	byID map[ID]Persona
}

// NewRegistry builds the catalog, filling empty model identifiers with
// defaultModel (DefaultModel when empty).
func NewRegistry(defaultModel string) *Registry {
	if defaultModel == "" {
		defaultModel = DefaultModel
	}
	byID := make(map[ID]Persona, len(catalog))
	for _, p := range catalog {
		if p.ModelID == "" {
			p.ModelID = defaultModel
		}
		byID[p.ID] = p
	}
	return &Registry{byID: byID}
}

// Lookup returns the persona registered under id.
func (r *Registry) Lookup(id ID) (Persona, error) {
	p, ok := r.byID[id]
	if !ok {
		return Persona{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return p, nil
}

// All returns every persona sorted by identifier.
func (r *Registry) All() []Persona {
	out := make([]Persona, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IsNotFound reports whether err is a catalog miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
