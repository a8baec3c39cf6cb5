// Package domain contains core domain types for the NowGo-LLM service.
package domain

import (
	"time"
)

// UnknownValue is substituted for profile attributes that could not be resolved.
const UnknownValue = "Unknown"

// UserProfile describes who is asking.
type UserProfile struct {
	UserID     string            `json:"user_id"`
	Role       string            `json:"role,omitempty"`
	Department string            `json:"department,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitzero"`
}

// CompanyProfile describes the business the user is acting for.
type CompanyProfile struct {
	CompanyID      string    `json:"company_id"`
	Sector         string    `json:"sector,omitempty"`
	Stage          string    `json:"stage,omitempty"`
	StrategicGoals []string  `json:"strategic_goals"`
	UpdatedAt      time.Time `json:"updated_at,omitzero"`
}

// DefaultUserProfile returns the placeholder used when no profile is stored for userID.
func DefaultUserProfile(userID string) UserProfile {
	return UserProfile{
		UserID:     userID,
		Role:       UnknownValue,
		Department: UnknownValue,
	}
}

// DefaultCompanyProfile returns the placeholder used when no profile is stored for companyID.
func DefaultCompanyProfile(companyID string) CompanyProfile {
	return CompanyProfile{
		CompanyID:      companyID,
		Sector:         UnknownValue,
		Stage:          UnknownValue,
		StrategicGoals: []string{},
	}
}
