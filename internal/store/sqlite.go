package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/domain"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/shared"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB

	keyMu sync.Mutex
	keys  map[domain.HistoryKey]*sync.Mutex
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db, keys: make(map[domain.HistoryKey]*sync.Mutex)}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS user_profiles (
		user_id TEXT PRIMARY KEY,
		role TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		attributes_json TEXT,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS company_profiles (
		company_id TEXT PRIMARY KEY,
		sector TEXT NOT NULL DEFAULT '',
		stage TEXT NOT NULL DEFAULT '',
		strategic_goals_json TEXT NOT NULL DEFAULT '[]',
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exchange_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		company_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_turns_key ON turns(user_id, company_id, id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// GetUserProfile retrieves a user profile by user ID.
func (s *SQLiteStore) GetUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	query := `
		SELECT user_id, role, department, attributes_json, updated_at
		FROM user_profiles WHERE user_id = ?`

	var p domain.UserProfile
	var attrs sql.NullString
	var updatedAt int64
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &p.Role, &p.Department, &attrs, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user profile row: %w", err)
	}

	if attrs.Valid && attrs.String != "" {
		if err := json.Unmarshal([]byte(attrs.String), &p.Attributes); err != nil {
			return nil, fmt.Errorf("decode user attributes: %w", err)
		}
	}
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}

// UpsertUserProfile creates or replaces a user profile.
func (s *SQLiteStore) UpsertUserProfile(ctx context.Context, profile *domain.UserProfile) error {
	query := `
	INSERT INTO user_profiles (user_id, role, department, attributes_json, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		role = excluded.role,
		department = excluded.department,
		attributes_json = excluded.attributes_json,
		updated_at = excluded.updated_at`

	var attrs interface{}
	if len(profile.Attributes) > 0 {
		data, err := json.Marshal(profile.Attributes)
		if err != nil {
			return fmt.Errorf("encode user attributes: %w", err)
		}
		attrs = string(data)
	}

	_, err := s.db.ExecContext(ctx, query,
		profile.UserID, profile.Role, profile.Department, attrs, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user profile: %w", err)
	}
	return nil
}

// GetCompanyProfile retrieves a company profile by company ID.
func (s *SQLiteStore) GetCompanyProfile(ctx context.Context, companyID string) (*domain.CompanyProfile, error) {
	query := `
		SELECT company_id, sector, stage, strategic_goals_json, updated_at
		FROM company_profiles WHERE company_id = ?`

	var p domain.CompanyProfile
	var goals string
	var updatedAt int64
	err := s.db.QueryRowContext(ctx, query, companyID).Scan(&p.CompanyID, &p.Sector, &p.Stage, &goals, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan company profile row: %w", err)
	}

	if err := json.Unmarshal([]byte(goals), &p.StrategicGoals); err != nil {
		return nil, fmt.Errorf("decode strategic goals: %w", err)
	}
	if p.StrategicGoals == nil {
		p.StrategicGoals = []string{}
	}
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}

// UpsertCompanyProfile creates or replaces a company profile.
func (s *SQLiteStore) UpsertCompanyProfile(ctx context.Context, profile *domain.CompanyProfile) error {
	query := `
	INSERT INTO company_profiles (company_id, sector, stage, strategic_goals_json, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(company_id) DO UPDATE SET
		sector = excluded.sector,
		stage = excluded.stage,
		strategic_goals_json = excluded.strategic_goals_json,
		updated_at = excluded.updated_at`

	goals := profile.StrategicGoals
	if goals == nil {
		goals = []string{}
	}
	data, err := json.Marshal(goals)
	if err != nil {
		return fmt.Errorf("encode strategic goals: %w", err)
	}

	_, err = s.db.ExecContext(ctx, query,
		profile.CompanyID, profile.Sector, profile.Stage, string(data), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert company profile: %w", err)
	}
	return nil
}

// RecentHistory returns the most recent limit turns, ordered chronologically (oldest first).
func (s *SQLiteStore) RecentHistory(ctx context.Context, userID, companyID string, limit int) ([]domain.Turn, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	if limit == 0 {
		return []domain.Turn{}, nil
	}

	query := `
		SELECT role, content FROM turns
		WHERE user_id = ? AND company_id = ?
		ORDER BY id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close history rows", "error", closeErr)
		}
	}()

	turns := []domain.Turn{}
	for rows.Next() {
		var t domain.Turn
		var role string
		if err := rows.Scan(&role, &t.Content); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		t.Role = domain.Role(role)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	// Reverse to chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// AppendTurnPair appends a user turn followed by its assistant reply in one transaction.
// Implements retry logic with exponential backoff to handle SQLITE_BUSY errors.
func (s *SQLiteStore) AppendTurnPair(ctx context.Context, userID, companyID, userText, assistantText string) error {
	key := domain.HistoryKey{UserID: userID, CompanyID: companyID}
	mu := s.keyLock(key)
	mu.Lock()
	defer mu.Unlock()

	maxRetries := 3
	baseDelay := 50 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		err := s.appendTurnPairOnce(ctx, key, userText, assistantText)
		if err == nil {
			return nil
		}

		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i) // exponential backoff: 50ms, 100ms, 200ms
			slog.Debug("AppendTurnPair hit a locked database, retrying",
				"user_id", userID,
				"company_id", companyID,
				"attempt", i+1,
				"delay", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}

		return fmt.Errorf("append turn pair for %s after %d attempts: %w", key, i+1, err)
	}

	return nil
}

func (s *SQLiteStore) appendTurnPairOnce(ctx context.Context, key domain.HistoryKey, userText, assistantText string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Warn("failed to roll back history append", "error", rbErr)
		}
	}()

	query := `
		INSERT INTO turns (exchange_id, user_id, company_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	exchangeID := uuid.NewString()
	now := time.Now().Unix()
	for _, t := range []domain.Turn{
		{Role: domain.RoleUser, Content: userText},
		{Role: domain.RoleAssistant, Content: assistantText},
	} {
		if _, err := tx.ExecContext(ctx, query, exchangeID, key.UserID, key.CompanyID, string(t.Role), t.Content, now); err != nil {
			return fmt.Errorf("insert %s turn: %w", t.Role, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history append: %w", err)
	}
	return nil
}

// HistoryLen returns the total number of stored turns for the pair.
func (s *SQLiteStore) HistoryLen(ctx context.Context, userID, companyID string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM turns WHERE user_id = ? AND company_id = ?`
	if err := s.db.QueryRowContext(ctx, query, userID, companyID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) keyLock(key domain.HistoryKey) *sync.Mutex {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	mu, ok := s.keys[key]
	if !ok {
		mu = &sync.Mutex{}
		s.keys[key] = mu
	}
	return mu
}

// Ensure SQLiteStore implements Repository.
var _ Repository = (*SQLiteStore)(nil)
