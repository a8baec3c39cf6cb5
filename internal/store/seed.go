package store

import (
	"context"
	"fmt"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/domain"
)

// DemoUsers are the sample user profiles loaded by Seed.
var DemoUsers = []domain.UserProfile{
	{UserID: "user123", Role: "Manager", Department: "Sales"},
	{UserID: "user789", Role: "Legal Counsel", Department: "Legal"},
}

// DemoCompanies are the sample company profiles loaded by Seed.
var DemoCompanies = []domain.CompanyProfile{
	{
		CompanyID:      "comp456",
		Sector:         "Technology",
		Stage:          "Growth",
		StrategicGoals: []string{"Expand market share", "Improve customer retention"},
	},
	{
		CompanyID:      "comp001",
		Sector:         "Manufacturing",
		Stage:          "Mature",
		StrategicGoals: []string{"Optimize production costs", "Explore new product lines"},
	},
}

// Seed writes the demo profiles that are not already present.
// Existing profiles are left untouched.
func Seed(ctx context.Context, repo Repository) (int, error) {
	written := 0
	for i := range DemoUsers {
		u := DemoUsers[i]
		existing, err := repo.GetUserProfile(ctx, u.UserID)
		if err != nil {
			return written, fmt.Errorf("seed user %s: %w", u.UserID, err)
		}
		if existing != nil {
			continue
		}
		if err := repo.UpsertUserProfile(ctx, &u); err != nil {
			return written, fmt.Errorf("seed user %s: %w", u.UserID, err)
		}
		written++
	}
	for i := range DemoCompanies {
		c := DemoCompanies[i]
		existing, err := repo.GetCompanyProfile(ctx, c.CompanyID)
		if err != nil {
			return written, fmt.Errorf("seed company %s: %w", c.CompanyID, err)
		}
		if existing != nil {
			continue
		}
		if err := repo.UpsertCompanyProfile(ctx, &c); err != nil {
			return written, fmt.Errorf("seed company %s: %w", c.CompanyID, err)
		}
		written++
	}
	return written, nil
}
