package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/domain"
	"github.com/containerd/errdefs"
)

// forEachRepo runs fn against every Repository implementation.
func forEachRepo(t *testing.T, fn func(t *testing.T, repo Repository)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		fn(t, NewMemory())
	})
	t.Run("sqlite", func(t *testing.T) {
		t.Parallel()
		repo, err := NewSQLite(filepath.Join(t.TempDir(), "data", "test.db"))
		if err != nil {
			t.Fatalf("NewSQLite failed: %v", err)
		}
		t.Cleanup(func() { _ = repo.Close() })
		fn(t, repo)
	})
}

func TestProfilesAbsentReturnNil(t *testing.T) {
	t.Parallel()

	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		u, err := repo.GetUserProfile(ctx, "nobody")
		if err != nil || u != nil {
			t.Fatalf("GetUserProfile = %v, %v; want nil, nil", u, err)
		}
		c, err := repo.GetCompanyProfile(ctx, "nothing")
		if err != nil || c != nil {
			t.Fatalf("GetCompanyProfile = %v, %v; want nil, nil", c, err)
		}
	})
}

func TestProfileUpsertRoundTrip(t *testing.T) {
	t.Parallel()

	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		user := &domain.UserProfile{
			UserID:     "u1",
			Role:       "Director",
			Department: "Finance",
			Attributes: map[string]string{"seniority": "senior"},
		}
		if err := repo.UpsertUserProfile(ctx, user); err != nil {
			t.Fatalf("UpsertUserProfile failed: %v", err)
		}
		got, err := repo.GetUserProfile(ctx, "u1")
		if err != nil || got == nil {
			t.Fatalf("GetUserProfile = %v, %v", got, err)
		}
		if got.Role != "Director" || got.Department != "Finance" || got.Attributes["seniority"] != "senior" {
			t.Errorf("unexpected user profile: %+v", got)
		}

		company := &domain.CompanyProfile{CompanyID: "c1", Sector: "Retail", Stage: "Seed"}
		if err := repo.UpsertCompanyProfile(ctx, company); err != nil {
			t.Fatalf("UpsertCompanyProfile failed: %v", err)
		}
		company.Sector = "Logistics"
		company.StrategicGoals = []string{"Scale", "Hire"}
		if err := repo.UpsertCompanyProfile(ctx, company); err != nil {
			t.Fatalf("UpsertCompanyProfile (update) failed: %v", err)
		}
		gotCompany, err := repo.GetCompanyProfile(ctx, "c1")
		if err != nil || gotCompany == nil {
			t.Fatalf("GetCompanyProfile = %v, %v", gotCompany, err)
		}
		if gotCompany.Sector != "Logistics" || len(gotCompany.StrategicGoals) != 2 || gotCompany.StrategicGoals[1] != "Hire" {
			t.Errorf("unexpected company profile: %+v", gotCompany)
		}
	})
}

func TestRecentHistoryEmpty(t *testing.T) {
	t.Parallel()

	forEachRepo(t, func(t *testing.T, repo Repository) {
		turns, err := repo.RecentHistory(context.Background(), "u", "c", DefaultHistoryLimit)
		if err != nil {
			t.Fatalf("RecentHistory failed: %v", err)
		}
		if turns == nil || len(turns) != 0 {
			t.Fatalf("expected empty non-nil history, got %#v", turns)
		}
	})
}

func TestRecentHistoryWindow(t *testing.T) {
	t.Parallel()

	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		for i := 1; i <= 3; i++ {
			if err := repo.AppendTurnPair(ctx, "u", "c", fmt.Sprintf("P%d.user", i), fmt.Sprintf("P%d.assistant", i)); err != nil {
				t.Fatalf("AppendTurnPair failed: %v", err)
			}
		}

		got, err := repo.RecentHistory(ctx, "u", "c", 3)
		if err != nil {
			t.Fatalf("RecentHistory failed: %v", err)
		}
		want := []domain.Turn{
			{Role: domain.RoleAssistant, Content: "P2.assistant"},
			{Role: domain.RoleUser, Content: "P3.user"},
			{Role: domain.RoleAssistant, Content: "P3.assistant"},
		}
		if len(got) != len(want) {
			t.Fatalf("expected %d turns, got %d: %#v", len(want), len(got), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("turn %d = %+v, want %+v", i, got[i], want[i])
			}
		}

		// The window is a view: the full sequence survives.
		n, err := repo.HistoryLen(ctx, "u", "c")
		if err != nil || n != 6 {
			t.Fatalf("HistoryLen = %d, %v; want 6", n, err)
		}

		all, err := repo.RecentHistory(ctx, "u", "c", 100)
		if err != nil || len(all) != 6 {
			t.Fatalf("RecentHistory(100) = %d turns, %v; want 6", len(all), err)
		}
		if all[0].Content != "P1.user" {
			t.Errorf("expected oldest turn first, got %+v", all[0])
		}

		none, err := repo.RecentHistory(ctx, "u", "c", 0)
		if err != nil || len(none) != 0 {
			t.Fatalf("RecentHistory(0) = %v, %v; want empty", none, err)
		}
	})
}

func TestRecentHistoryNegativeLimit(t *testing.T) {
	t.Parallel()

	forEachRepo(t, func(t *testing.T, repo Repository) {
		_, err := repo.RecentHistory(context.Background(), "u", "c", -1)
		if !errors.Is(err, ErrInvalidLimit) {
			t.Fatalf("expected ErrInvalidLimit, got %v", err)
		}
		if !errdefs.IsInvalidArgument(err) {
			t.Errorf("expected invalid-argument kind, got %v", err)
		}
	})
}

func TestHistoryKeysAreIsolated(t *testing.T) {
	t.Parallel()

	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		if err := repo.AppendTurnPair(ctx, "u", "c1", "hi", "hello"); err != nil {
			t.Fatalf("AppendTurnPair failed: %v", err)
		}
		n, err := repo.HistoryLen(ctx, "u", "c2")
		if err != nil || n != 0 {
			t.Fatalf("HistoryLen(other company) = %d, %v; want 0", n, err)
		}
	})
}

func TestConcurrentAppendsKeepPairs(t *testing.T) {
	t.Parallel()

	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		const writers = 8

		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- repo.AppendTurnPair(ctx, "u", "c", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("AppendTurnPair failed: %v", err)
			}
		}

		turns, err := repo.RecentHistory(ctx, "u", "c", writers*2)
		if err != nil {
			t.Fatalf("RecentHistory failed: %v", err)
		}
		if len(turns) != writers*2 {
			t.Fatalf("expected %d turns, got %d", writers*2, len(turns))
		}
		for i := 0; i < len(turns); i += 2 {
			u, a := turns[i], turns[i+1]
			if u.Role != domain.RoleUser || a.Role != domain.RoleAssistant {
				t.Fatalf("pair %d out of order: %+v %+v", i/2, u, a)
			}
			if "a"+u.Content[1:] != a.Content {
				t.Errorf("pair %d interleaved: %q / %q", i/2, u.Content, a.Content)
			}
		}
	})
}

func TestSeedIsIdempotent(t *testing.T) {
	t.Parallel()

	forEachRepo(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		custom := &domain.UserProfile{UserID: "user123", Role: "Analyst"}
		if err := repo.UpsertUserProfile(ctx, custom); err != nil {
			t.Fatalf("UpsertUserProfile failed: %v", err)
		}

		n, err := Seed(ctx, repo)
		if err != nil {
			t.Fatalf("Seed failed: %v", err)
		}
		if n != len(DemoUsers)+len(DemoCompanies)-1 {
			t.Errorf("Seed wrote %d profiles", n)
		}
		if n, _ := Seed(ctx, repo); n != 0 {
			t.Errorf("second Seed wrote %d profiles, want 0", n)
		}

		u, _ := repo.GetUserProfile(ctx, "user123")
		if u == nil || u.Role != "Analyst" {
			t.Errorf("Seed overwrote existing profile: %+v", u)
		}
		c, _ := repo.GetCompanyProfile(ctx, "comp456")
		if c == nil || c.Sector != "Technology" {
			t.Errorf("expected seeded comp456, got %+v", c)
		}
	})
}

func TestOpen(t *testing.T) {
	t.Parallel()

	mem, err := Open(DriverMemory, "")
	if err != nil {
		t.Fatalf("Open memory failed: %v", err)
	}
	if _, ok := mem.(*MemoryStore); !ok {
		t.Errorf("Open memory returned %T", mem)
	}

	lite, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "nested", "ctx.db"))
	if err != nil {
		t.Fatalf("Open sqlite failed: %v", err)
	}
	defer lite.Close()
	if _, ok := lite.(*SQLiteStore); !ok {
		t.Errorf("Open sqlite returned %T", lite)
	}

	if _, err := Open("postgres", ""); !errdefs.IsInvalidArgument(err) {
		t.Errorf("expected invalid argument, got %v", err)
	}
}
