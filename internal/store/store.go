// Package store provides context persistence interfaces and implementations.
package store

import (
	"context"
	"fmt"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/domain"
	"github.com/containerd/errdefs"
)

// Store drivers accepted by Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// DefaultHistoryLimit is the number of turns returned when a caller does not ask for a window.
const DefaultHistoryLimit = 3

// ErrInvalidLimit is returned for negative history windows.
var ErrInvalidLimit = fmt.Errorf("history limit must be >= 0: %w", errdefs.ErrInvalidArgument)

// Repository defines the interface for persisting profiles and conversation history.
type Repository interface {
	// GetUserProfile retrieves a user profile. Returns nil, nil when none is stored.
	GetUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error)

	// UpsertUserProfile creates or replaces a user profile.
	UpsertUserProfile(ctx context.Context, profile *domain.UserProfile) error

	// GetCompanyProfile retrieves a company profile. Returns nil, nil when none is stored.
	GetCompanyProfile(ctx context.Context, companyID string) (*domain.CompanyProfile, error)

	// UpsertCompanyProfile creates or replaces a company profile.
	UpsertCompanyProfile(ctx context.Context, profile *domain.CompanyProfile) error

	// RecentHistory returns the last limit turns for the pair, oldest first.
	RecentHistory(ctx context.Context, userID, companyID string, limit int) ([]domain.Turn, error)

	// AppendTurnPair appends a user turn followed by its assistant reply.
	AppendTurnPair(ctx context.Context, userID, companyID, userText, assistantText string) error

	// HistoryLen returns the total number of stored turns for the pair.
	HistoryLen(ctx context.Context, userID, companyID string) (int, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

func checkLimit(limit int) error {
	if limit < 0 {
		return fmt.Errorf("%w (got %d)", ErrInvalidLimit, limit)
	}
	return nil
}

// Open returns the repository for driver. path is only used by DriverSQLite.
func Open(driver, path string) (Repository, error) {
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		s, err := NewSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q: %w", driver, errdefs.ErrInvalidArgument)
	}
}
