package store

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/domain"
)

// MemoryStore implements Repository in process memory.
// History sequences are append-only; each key has its own lock so appends for
// one conversation never interleave.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]domain.UserProfile
	companies map[string]domain.CompanyProfile
	histories map[domain.HistoryKey]*history
}

type history struct {
	mu    sync.Mutex
	turns []domain.Turn
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]domain.UserProfile),
		companies: make(map[string]domain.CompanyProfile),
		histories: make(map[domain.HistoryKey]*history),
	}
}

// GetUserProfile retrieves a user profile.
func (s *MemoryStore) GetUserProfile(_ context.Context, userID string) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	p.Attributes = maps.Clone(p.Attributes)
	return &p, nil
}

// UpsertUserProfile creates or replaces a user profile.
func (s *MemoryStore) UpsertUserProfile(_ context.Context, profile *domain.UserProfile) error {
	p := *profile
	p.Attributes = maps.Clone(p.Attributes)
	p.UpdatedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[p.UserID] = p
	return nil
}

// GetCompanyProfile retrieves a company profile.
func (s *MemoryStore) GetCompanyProfile(_ context.Context, companyID string) (*domain.CompanyProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.companies[companyID]
	if !ok {
		return nil, nil
	}
	p.StrategicGoals = slices.Clone(p.StrategicGoals)
	return &p, nil
}

// UpsertCompanyProfile creates or replaces a company profile.
func (s *MemoryStore) UpsertCompanyProfile(_ context.Context, profile *domain.CompanyProfile) error {
	p := *profile
	p.StrategicGoals = slices.Clone(p.StrategicGoals)
	if p.StrategicGoals == nil {
		p.StrategicGoals = []string{}
	}
	p.UpdatedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies[p.CompanyID] = p
	return nil
}

// RecentHistory returns the last limit turns, oldest first.
func (s *MemoryStore) RecentHistory(_ context.Context, userID, companyID string, limit int) ([]domain.Turn, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	h := s.lookup(domain.HistoryKey{UserID: userID, CompanyID: companyID})
	if h == nil {
		return []domain.Turn{}, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return domain.RecentTurns(h.turns, limit), nil
}

// AppendTurnPair appends a user turn followed by its assistant reply.
func (s *MemoryStore) AppendTurnPair(_ context.Context, userID, companyID, userText, assistantText string) error {
	h := s.getOrCreate(domain.HistoryKey{UserID: userID, CompanyID: companyID})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns,
		domain.Turn{Role: domain.RoleUser, Content: userText},
		domain.Turn{Role: domain.RoleAssistant, Content: assistantText},
	)
	return nil
}

// HistoryLen returns the total number of stored turns for the pair.
func (s *MemoryStore) HistoryLen(_ context.Context, userID, companyID string) (int, error) {
	h := s.lookup(domain.HistoryKey{UserID: userID, CompanyID: companyID})
	if h == nil {
		return 0, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns), nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) lookup(key domain.HistoryKey) *history {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.histories[key]
}

func (s *MemoryStore) getOrCreate(key domain.HistoryKey) *history {
	if h := s.lookup(key); h != nil {
		return h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another writer may have created it between the two locks.
	if h, ok := s.histories[key]; ok {
		return h
	}
	h := &history{}
	s.histories[key] = h
	return h
}

// Ensure MemoryStore implements Repository.
var _ Repository = (*MemoryStore)(nil)
