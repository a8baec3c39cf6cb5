// Package aggregate assembles the per-request context snapshot from the store.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/domain"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/store"
)

// Request names what is being aggregated.
type Request struct {
	UserID                 string
	CompanyID              string
	ModuleAccessed         string
	CurrentInteractionData map[string]any
}

// Aggregator reads profiles and recent history for a request.
type Aggregator struct {
	repo         store.Repository
	historyLimit int
	logger       *slog.Logger
}

// New creates an Aggregator. A historyLimit of zero or less falls back to
// store.DefaultHistoryLimit.
func New(repo store.Repository, historyLimit int, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if historyLimit <= 0 {
		historyLimit = store.DefaultHistoryLimit
	}
	return &Aggregator{repo: repo, historyLimit: historyLimit, logger: logger}
}

// Aggregate builds the context snapshot. Missing profiles are replaced by
// Unknown-valued placeholders; the store is never written.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) (domain.AggregatedContext, error) {
	user, err := a.repo.GetUserProfile(ctx, req.UserID)
	if err != nil {
		return domain.AggregatedContext{}, fmt.Errorf("get user profile: %w", err)
	}
	company, err := a.repo.GetCompanyProfile(ctx, req.CompanyID)
	if err != nil {
		return domain.AggregatedContext{}, fmt.Errorf("get company profile: %w", err)
	}
	history, err := a.repo.RecentHistory(ctx, req.UserID, req.CompanyID, a.historyLimit)
	if err != nil {
		return domain.AggregatedContext{}, fmt.Errorf("get recent history: %w", err)
	}

	out := domain.AggregatedContext{
		ModuleAccessed:         req.ModuleAccessed,
		CurrentInteractionData: req.CurrentInteractionData,
		InteractionHistory:     history,
	}
	if out.CurrentInteractionData == nil {
		out.CurrentInteractionData = map[string]any{}
	}

	if user != nil {
		out.UserProfile = *user
	} else {
		a.logger.Debug("user profile not found, using defaults", "user_id", req.UserID)
		out.UserProfile = domain.DefaultUserProfile(req.UserID)
	}
	if company != nil {
		out.CompanyProfile = *company
	} else {
		a.logger.Debug("company profile not found, using defaults", "company_id", req.CompanyID)
		out.CompanyProfile = domain.DefaultCompanyProfile(req.CompanyID)
	}

	return out, nil
}
