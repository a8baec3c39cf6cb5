package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/domain"
	"github.com/Helioguilhermediassilva/NowGo-LLM/internal/store"
	"github.com/go-chi/chi/v5"
)

// HandleGetUserProfile handles GET /v1/users/{userID}/profile.
func (h *Handler) HandleGetUserProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	profile, err := h.repo.GetUserProfile(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to load user profile", "user_id", userID, "error", err)
		Error(w, StatusFor(err), "failed to load user profile")
		return
	}
	if profile == nil {
		Error(w, http.StatusNotFound, "user profile not found")
		return
	}
	JSON(w, http.StatusOK, profile)
}

// HandlePutUserProfile handles PUT /v1/users/{userID}/profile.
func (h *Handler) HandlePutUserProfile(w http.ResponseWriter, r *http.Request) {
	var profile domain.UserProfile
	if !h.decodeJSON(w, r, &profile) {
		return
	}
	profile.UserID = chi.URLParam(r, "userID")

	if err := h.repo.UpsertUserProfile(r.Context(), &profile); err != nil {
		slog.Error("Failed to save user profile", "user_id", profile.UserID, "error", err)
		Error(w, StatusFor(err), "failed to save user profile")
		return
	}
	JSON(w, http.StatusOK, profile)
}

// HandleGetCompanyProfile handles GET /v1/companies/{companyID}/profile.
func (h *Handler) HandleGetCompanyProfile(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	profile, err := h.repo.GetCompanyProfile(r.Context(), companyID)
	if err != nil {
		slog.Error("Failed to load company profile", "company_id", companyID, "error", err)
		Error(w, StatusFor(err), "failed to load company profile")
		return
	}
	if profile == nil {
		Error(w, http.StatusNotFound, "company profile not found")
		return
	}
	JSON(w, http.StatusOK, profile)
}

// HandlePutCompanyProfile handles PUT /v1/companies/{companyID}/profile.
func (h *Handler) HandlePutCompanyProfile(w http.ResponseWriter, r *http.Request) {
	var profile domain.CompanyProfile
	if !h.decodeJSON(w, r, &profile) {
		return
	}
	profile.CompanyID = chi.URLParam(r, "companyID")
	if profile.StrategicGoals == nil {
		profile.StrategicGoals = []string{}
	}

	if err := h.repo.UpsertCompanyProfile(r.Context(), &profile); err != nil {
		slog.Error("Failed to save company profile", "company_id", profile.CompanyID, "error", err)
		Error(w, StatusFor(err), "failed to save company profile")
		return
	}
	JSON(w, http.StatusOK, profile)
}

// HandleGetHistory handles GET /v1/history/{userID}/{companyID}?limit=N.
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	companyID := chi.URLParam(r, "companyID")

	limit := store.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			Error(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	turns, err := h.repo.RecentHistory(r.Context(), userID, companyID, limit)
	if err != nil {
		Error(w, StatusFor(err), err.Error())
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"user_id":    userID,
		"company_id": companyID,
		"turns":      turns,
	})
}
