package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/citypulse/trafficguide/internal/logger"
	"github.com/citypulse/trafficguide/internal/models"
	"github.com/citypulse/trafficguide/internal/rules"
	"github.com/citypulse/trafficguide/internal/store"
)

// Guide is the analysis surface the API depends on
type Guide interface {
	AnalyzeRoute(ctx context.Context, origin, destination string, departureTime time.Time) models.TrafficAnalysis
	AnalyzeRouteWithPreferences(ctx context.Context, origin, destination string, departureTime time.Time, prefs models.FilterPreferences) models.TrafficAnalysis
	AreaInfo(ctx context.Context, name string) models.AreaInfo
	SuggestAreaAddition(name string) string
	ValidationReport() models.ValidationReport
}

// Handler handles HTTP requests for the API
type Handler struct {
	guide             Guide
	store             store.Store
	rules             *rules.Store
	maxLocationLength int
	recentLimit       int
	version           string
	buildTime         string
	gitCommit         string
	startTime         time.Time
}

// NewHandler creates a new API handler
func NewHandler(g Guide, st store.Store, rs *rules.Store, maxLocationLength, recentLimit int, version, buildTime, gitCommit string) *Handler {
	if maxLocationLength < 1 {
		maxLocationLength = 100
	}
	if recentLimit < 1 {
		recentLimit = 20
	}
	return &Handler{
		guide:             g,
		store:             st,
		rules:             rs,
		maxLocationLength: maxLocationLength,
		recentLimit:       recentLimit,
		version:           version,
		buildTime:         buildTime,
		gitCommit:         gitCommit,
		startTime:         time.Now(),
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/v1", func(r chi.Router) {
		// Health check endpoints
		r.Get("/health", h.healthHandler)
		r.Get("/health/ready", h.readinessHandler)
		r.Get("/health/live", h.livenessHandler)

		// API endpoints
		r.Post("/routes/analyze", h.analyzeRouteHandler)
		r.Get("/areas/{name}", h.getAreaHandler)
		r.Get("/analyses/recent", h.recentAnalysesHandler)
		r.Get("/analyses/{id}", h.getAnalysisHandler)

		// Rules document introspection
		r.Get("/rules", h.rulesHandler)
		r.Post("/rules/reload", h.reloadRulesHandler)

		// System info
		r.Get("/version", h.versionHandler)
	})

	// Root health check
	r.Get("/health", h.healthHandler)
}

// analyzeRequest is the body for POST /v1/routes/analyze
type analyzeRequest struct {
	Origin               string `json:"origin"`
	Destination          string `json:"destination"`
	DepartureTime        string `json:"departure_time"`
	AvoidNightlife       bool   `json:"avoid_nightlife"`
	PreferFamilyFriendly bool   `json:"prefer_family_friendly"`
}

// analyzeRouteHandler handles POST /routes/analyze. Domain-level failures
// (unknown areas, missing fields) come back as 200 with an explanatory
// analysis; only malformed requests get a 4xx.
func (h *Handler) analyzeRouteHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if len(req.Origin) > h.maxLocationLength {
		h.writeErrorResponse(w, r, http.StatusBadRequest,
			fmt.Sprintf("origin exceeds maximum length of %d characters", h.maxLocationLength))
		return
	}
	if len(req.Destination) > h.maxLocationLength {
		h.writeErrorResponse(w, r, http.StatusBadRequest,
			fmt.Sprintf("destination exceeds maximum length of %d characters", h.maxLocationLength))
		return
	}

	var departureTime time.Time
	if req.DepartureTime != "" {
		var err error
		departureTime, err = time.Parse(time.RFC3339, req.DepartureTime)
		if err != nil {
			h.writeErrorResponse(w, r, http.StatusBadRequest, "invalid departure_time format, want RFC3339")
			return
		}
	}

	prefs := models.FilterPreferences{
		AvoidNightlife:       req.AvoidNightlife,
		PreferFamilyFriendly: req.PreferFamilyFriendly,
	}

	var analysis models.TrafficAnalysis
	if prefs.Active() {
		analysis = h.guide.AnalyzeRouteWithPreferences(ctx, req.Origin, req.Destination, departureTime, prefs)
	} else {
		analysis = h.guide.AnalyzeRoute(ctx, req.Origin, req.Destination, departureTime)
	}

	h.writeJSONResponse(w, http.StatusOK, analysis)
}

// getAreaHandler handles GET /areas/{name}
func (h *Handler) getAreaHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	if name == "" {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "area name is required")
		return
	}

	info := h.guide.AreaInfo(ctx, name)
	response := map[string]interface{}{
		"area":      info,
		"known":     info.Known(),
		"timestamp": time.Now().UTC(),
	}
	if !info.Known() {
		response["suggestion"] = h.guide.SuggestAreaAddition(name)
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	h.writeJSONResponse(w, http.StatusOK, response)
}

// recentAnalysesHandler handles GET /analyses/recent
func (h *Handler) recentAnalysesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := h.recentLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 1000 {
			h.writeErrorResponse(w, r, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = parsed
	}

	records, err := h.store.RecentAnalyses(ctx, limit)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to query recent analyses", "error", err)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	response := map[string]interface{}{
		"data":      records,
		"count":     len(records),
		"timestamp": time.Now().UTC(),
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

// getAnalysisHandler handles GET /analyses/{id}
func (h *Handler) getAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if id == "" {
		h.writeErrorResponse(w, r, http.StatusBadRequest, "analysis ID is required")
		return
	}

	record, err := h.store.GetAnalysis(ctx, id)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to get analysis", "error", err, "analysis_id", id)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}
	if record == nil {
		h.writeErrorResponse(w, r, http.StatusNotFound, "Analysis not found")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, record)
}

// rulesHandler handles GET /rules
func (h *Handler) rulesHandler(w http.ResponseWriter, r *http.Request) {
	rs := h.rules.Current()
	if rs == nil {
		h.writeErrorResponse(w, r, http.StatusServiceUnavailable, "no ruleset loaded")
		return
	}

	response := map[string]interface{}{
		"fingerprint": rs.Fingerprint,
		"loaded_at":   rs.LoadedAt,
		"zones":       len(rs.Zones),
		"hotspots":    len(rs.Hotspots),
		"validation":  h.guide.ValidationReport(),
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

// reloadRulesHandler handles POST /rules/reload
func (h *Handler) reloadRulesHandler(w http.ResponseWriter, r *http.Request) {
	report, err := h.rules.Reload()
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusUnprocessableEntity, "reload failed: "+err.Error())
		return
	}

	rs := h.rules.Current()
	response := map[string]interface{}{
		"fingerprint": rs.Fingerprint,
		"validation":  report,
		"timestamp":   time.Now().UTC(),
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

// healthHandler provides basic health check
func (h *Handler) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   h.version,
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

// readinessHandler checks if the application is ready to serve traffic
func (h *Handler) readinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]string{
		"store": "ok",
		"rules": "ok",
	}
	statusCode := http.StatusOK

	if err := h.store.Health(ctx); err != nil {
		checks["store"] = "error: " + err.Error()
		statusCode = http.StatusServiceUnavailable
	}
	if h.rules.Current() == nil {
		checks["rules"] = "error: no ruleset loaded"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	}
	h.writeJSONResponse(w, statusCode, response)
}

// livenessHandler checks if the application is alive
func (h *Handler) livenessHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

// versionHandler returns version information
func (h *Handler) versionHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"version":    h.version,
		"build_time": h.buildTime,
		"git_commit": h.gitCommit,
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

// writeJSONResponse writes a JSON response
func (h *Handler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeErrorResponse writes a standardized error response
func (h *Handler) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	response := ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		Timestamp: time.Now().UTC(),
		RequestID: r.Header.Get("X-Request-ID"),
	}
	h.writeJSONResponse(w, statusCode, response)
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}
