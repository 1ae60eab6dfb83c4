// Package api provides HTTP API handlers for the match engine.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/opencrew/matchengine/internal/engine"
	"github.com/opencrew/matchengine/internal/match"
	"github.com/opencrew/matchengine/internal/middleware"
)

// MatchHandlers serves the mission match and contributor recommendation routes.
type MatchHandlers struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewMatchHandlers creates handlers backed by the given engine.
func NewMatchHandlers(e *engine.Engine, logger *slog.Logger) *MatchHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchHandlers{engine: e, logger: logger}
}

// refreshRequest is the optional JSON body for POST /missions/{id}/matches/refresh.
type refreshRequest struct {
	Limit          int  `json:"limit"`
	MinimumScore   int  `json:"minimum_score"`
	StrictBudget   bool `json:"strict_budget"`
	DiversityBoost bool `json:"diversity_boost"`
}

// matchListResponse wraps a ranked match list.
type matchListResponse struct {
	MissionID string         `json:"mission_id"`
	Count     int            `json:"count"`
	Results   []match.Result `json:"results"`
}

// Missions dispatches requests under /missions/.
//
// Routes:
//
//	GET  /missions/{id}/matches                              stored matches
//	POST /missions/{id}/matches/refresh                      recompute and persist
//	GET  /missions/{id}/matches/{contributor_id}/preview     score without persisting
//	GET  /missions/{id}/matches/{contributor_id}/skill-gaps  gap analysis
func (h *MatchHandlers) Missions(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// parts[0] == "missions"
	if len(parts) < 3 || parts[1] == "" || parts[2] != "matches" {
		h.notFound(w, r)
		return
	}
	missionID := parts[1]

	switch {
	case len(parts) == 3:
		if r.Method != http.MethodGet {
			h.methodNotAllowed(w, r)
			return
		}
		h.storedMatches(w, r, missionID)
	case len(parts) == 4 && parts[3] == "refresh":
		if r.Method != http.MethodPost {
			h.methodNotAllowed(w, r)
			return
		}
		h.refreshMatches(w, r, missionID)
	case len(parts) == 5 && parts[4] == "preview":
		if r.Method != http.MethodGet {
			h.methodNotAllowed(w, r)
			return
		}
		h.previewMatch(w, r, missionID, parts[3])
	case len(parts) == 5 && parts[4] == "skill-gaps":
		if r.Method != http.MethodGet {
			h.methodNotAllowed(w, r)
			return
		}
		h.skillGaps(w, r, missionID, parts[3])
	default:
		h.notFound(w, r)
	}
}

// Contributors dispatches requests under /contributors/.
//
// Routes:
//
//	GET  /contributors/{id}/recommendations  ranked open missions for the contributor
//	POST /contributors/{id}/match-power      recompute and persist MatchPower
func (h *MatchHandlers) Contributors(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// parts[0] == "contributors"
	if len(parts) != 3 || parts[1] == "" {
		h.notFound(w, r)
		return
	}
	contributorID := parts[1]

	switch parts[2] {
	case "recommendations":
		if r.Method != http.MethodGet {
			h.methodNotAllowed(w, r)
			return
		}
		h.recommendations(w, r, contributorID)
	case "match-power":
		if r.Method != http.MethodPost {
			h.methodNotAllowed(w, r)
			return
		}
		h.matchPower(w, r, contributorID)
	default:
		h.notFound(w, r)
	}
}

func (h *MatchHandlers) refreshMatches(w http.ResponseWriter, r *http.Request, missionID string) {
	var req refreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Invalid JSON body")
			return
		}
	}
	if req.Limit < 0 || req.MinimumScore < 0 || req.MinimumScore > 100 {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "limit must be >= 0 and minimum_score within [0,100]")
		return
	}

	results, err := h.engine.RefreshMatches(r.Context(), missionID, engine.RefreshOptions{
		Limit:          req.Limit,
		MinimumScore:   req.MinimumScore,
		StrictBudget:   req.StrictBudget,
		DiversityBoost: req.DiversityBoost,
	})
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, matchListResponse{
		MissionID: missionID,
		Count:     len(results),
		Results:   results,
	})
}

func (h *MatchHandlers) storedMatches(w http.ResponseWriter, r *http.Request, missionID string) {
	results, err := h.engine.StoredMatches(r.Context(), missionID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	if limit, ok := parseLimit(r); ok && limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	h.writeJSON(w, http.StatusOK, matchListResponse{
		MissionID: missionID,
		Count:     len(results),
		Results:   results,
	})
}

func (h *MatchHandlers) previewMatch(w http.ResponseWriter, r *http.Request, missionID, contributorID string) {
	preview, err := h.engine.PreviewMatch(r.Context(), missionID, contributorID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, preview)
}

func (h *MatchHandlers) skillGaps(w http.ResponseWriter, r *http.Request, missionID, contributorID string) {
	gaps, err := h.engine.AnalyzeSkillGaps(r.Context(), missionID, contributorID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"mission_id":     missionID,
		"contributor_id": contributorID,
		"gaps":           gaps,
	})
}

func (h *MatchHandlers) recommendations(w http.ResponseWriter, r *http.Request, contributorID string) {
	limit, _ := parseLimit(r)
	recs, err := h.engine.MissionRecommendations(r.Context(), contributorID, limit)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"contributor_id":  contributorID,
		"recommendations": recs,
	})
}

func (h *MatchHandlers) matchPower(w http.ResponseWriter, r *http.Request, contributorID string) {
	power, err := h.engine.RefreshMatchPower(r.Context(), contributorID)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"contributor_id": contributorID,
		"match_power":    power,
	})
}

// writeEngineError maps engine errors to HTTP responses.
func (h *MatchHandlers) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, match.ErrMissionNotFound):
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeMissionNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeMissionNotFound, "Mission not found")
	case errors.Is(err, match.ErrContributorNotFound):
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeContributorNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeContributorNotFound, "Contributor not found")
	case errors.Is(err, engine.ErrRefreshTimeout):
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeRefreshTimeout)
		WriteError(w, ctx, http.StatusServiceUnavailable, ErrCodeRefreshTimeout, "Match refresh timed out; no results were persisted")
	default:
		h.logger.ErrorContext(r.Context(), "match operation failed", "error", err, "path", r.URL.Path)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Internal server error")
	}
}

func (h *MatchHandlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *MatchHandlers) notFound(w http.ResponseWriter, r *http.Request) {
	ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
	WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
}

func (h *MatchHandlers) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
	WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
}

// parseLimit reads an optional positive ?limit= query parameter.
// The bool reports whether a valid value was present.
func parseLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, false
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, false
	}
	return limit, true
}
