// Package api provides the HTTP API for observing the game state.
// GET endpoints are public (read-only polling for presentation layers).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/engine"
)

// Server serves the game state over HTTP.
type Server struct {
	Game     *engine.Game
	Eng      *engine.Engine
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	limiter := NewRateLimiter(600, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", RateLimitMiddleware(limiter, s.handleStatus))
	mux.HandleFunc("/api/v1/resources", RateLimitMiddleware(limiter, s.handleResources))
	mux.HandleFunc("/api/v1/skills", RateLimitMiddleware(limiter, s.handleSkills))
	mux.HandleFunc("/api/v1/activities", RateLimitMiddleware(limiter, s.handleActivities))
	mux.HandleFunc("/api/v1/workers", RateLimitMiddleware(limiter, s.handleWorkers))
	mux.HandleFunc("/api/v1/buildings", RateLimitMiddleware(limiter, s.handleBuildings))
	mux.HandleFunc("/api/v1/building/", RateLimitMiddleware(limiter, s.handleBuildingDetail))

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// adminOnly gates a handler behind the bearer token. Admin endpoints are
// disabled entirely when no key is configured.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled", http.StatusForbidden)
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.AdminKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"tick":        s.Eng.Tick(),
		"speed":       s.Eng.Speed(),
		"sim_time_ms": s.Game.SimTimeMs(),
		"total_level": s.Game.TotalLevel(),
		"active_runs": len(s.Game.ActiveRuns()),
	})
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Game.Resources())
}

func (s *Server) handleSkills(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Game.Skills())
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	type activityStatus struct {
		Running  bool    `json:"running"`
		Progress float64 `json:"progress"`
		Auto     bool    `json:"auto"`
		CanRun   bool    `json:"can_run"`
		Halted   bool    `json:"halted"`
	}
	out := make(map[string]activityStatus)
	runs := s.Game.ActiveRuns()
	running := make(map[string]activityStatus, len(runs))
	for _, run := range runs {
		running[string(run.Activity)] = activityStatus{
			Running:  true,
			Progress: run.Progress,
			Auto:     run.Auto,
		}
	}
	for _, id := range s.Game.Defs().ActivityIDs() {
		st := running[string(id)]
		st.CanRun = s.Game.CanRun(id)
		st.Halted = s.Game.Halted(id)
		out[string(id)] = st
	}
	writeJSON(w, out)
}

func (s *Server) handleWorkers(w http.ResponseWriter, r *http.Request) {
	views, assignments := s.Game.Workers()
	writeJSON(w, map[string]any{
		"types":       views,
		"assignments": assignments,
	})
}

func (s *Server) handleBuildings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Game.Buildings())
}

func (s *Server) handleBuildingDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/building/")
	inst, ok := s.Game.BuildingInstance(id)
	if !ok {
		http.Error(w, "building not found", http.StatusNotFound)
		return
	}
	writeJSON(w, inst)
}

// handleSpeed sets the engine speed multiplier (0 pauses the simulation).
func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Speed < 0 || req.Speed > 100 {
		http.Error(w, "speed out of range", http.StatusBadRequest)
		return
	}
	s.Eng.SetSpeed(req.Speed)
	slog.Info("engine speed changed", "speed", req.Speed)
	writeJSON(w, map[string]string{"speed": strconv.FormatFloat(req.Speed, 'g', -1, 64)})
}
