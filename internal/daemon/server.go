package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/marketcraft/marketcraft/internal/catalog"
	"github.com/marketcraft/marketcraft/internal/config"
	"github.com/marketcraft/marketcraft/internal/domain"
	"github.com/marketcraft/marketcraft/internal/leaderboard"
	"github.com/marketcraft/marketcraft/internal/player"
	"github.com/marketcraft/marketcraft/internal/storage/sqlite"
)

const version = "0.1.0"

// GameService is the player-facing game loop surface the handlers call.
type GameService interface {
	Create(name, role string) (*domain.Player, error)
	Get(id string) (*domain.Player, error)
	Login(id string) (*domain.Player, bool, error)
	ClaimStreakBonus(id string) (int, error)
	Reset(id string) error
	Submit(ctx context.Context, id string, levelID int, sub domain.Submission) (*player.SubmitOutcome, error)
	CompleteChallenge(id, challengeID string) (int, error)
	AdvanceTime(id string, minutes int) (*domain.Player, error)
	SetClockedIn(id string, clockedIn bool) (*domain.Player, error)
	Levels(id string) ([]player.LevelView, error)
}

// AttemptReader exposes the attempt ledger to the history endpoints.
type AttemptReader interface {
	History(playerID string, levelID int) ([]sqlite.AttemptRecord, error)
	Recent(playerID string, limit int) ([]sqlite.AttemptRecord, error)
	Stats(playerID string) (sqlite.AttemptStats, error)
}

// Scoreboard reads the shared leaderboard. Nil when disabled.
type Scoreboard interface {
	Top(ctx context.Context, limit int) ([]leaderboard.Entry, error)
	Rank(ctx context.Context, playerID string) (int, error)
}

// CatalogView is the read-only content surface the handlers need.
type CatalogView interface {
	ListLevels() []*domain.Level
	Challenges() []domain.DailyChallenge
}

// Server represents the MarketCraft daemon HTTP server
type Server struct {
	cfg    *config.LocalConfig
	server *http.Server
	router *http.ServeMux

	game     GameService
	attempts AttemptReader
	board    Scoreboard
	catalog  CatalogView
	now      func() time.Time
}

// ServerConfig holds the assembled services for a new server
type ServerConfig struct {
	Config   *config.LocalConfig
	Game     GameService
	Attempts AttemptReader
	Board    Scoreboard // optional
	Catalog  CatalogView
	Now      func() time.Time
}

// NewServer creates a new daemon server
func NewServer(cfg ServerConfig) *Server {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Server{
		cfg:      cfg.Config,
		router:   http.NewServeMux(),
		game:     cfg.Game,
		attempts: cfg.Attempts,
		board:    cfg.Board,
		catalog:  cfg.Catalog,
		now:      cfg.Now,
	}

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Config.Daemon.Bind, cfg.Config.Daemon.Port)
	handler := recoveryMiddleware(correlationIDMiddleware(loggingMiddleware(s.router)))
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // evaluation can wait on a slow provider
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)

	// Config
	s.router.HandleFunc("GET /v1/config", s.handleGetConfig)
	s.router.HandleFunc("GET /v1/config/providers", s.handleListProviders)

	// Players
	s.router.HandleFunc("POST /v1/players", s.handleCreatePlayer)
	s.router.HandleFunc("GET /v1/players/{id}", s.handleGetPlayer)
	s.router.HandleFunc("DELETE /v1/players/{id}", s.handleResetPlayer)
	s.router.HandleFunc("POST /v1/players/{id}/login", s.handleLogin)
	s.router.HandleFunc("POST /v1/players/{id}/streak/claim", s.handleClaimStreak)
	s.router.HandleFunc("POST /v1/players/{id}/time", s.handleAdvanceTime)
	s.router.HandleFunc("POST /v1/players/{id}/clock", s.handleClock)

	// Levels & submissions
	s.router.HandleFunc("GET /v1/levels/{id}", s.handleGetLevel)
	s.router.HandleFunc("GET /v1/players/{id}/levels", s.handleListLevels)
	s.router.HandleFunc("POST /v1/players/{id}/submit", s.handleSubmit)
	s.router.HandleFunc("GET /v1/players/{id}/attempts", s.handleAttempts)
	s.router.HandleFunc("GET /v1/players/{id}/stats", s.handleStats)

	// Daily challenges
	s.router.HandleFunc("GET /v1/challenges/today", s.handleTodayChallenges)
	s.router.HandleFunc("POST /v1/players/{id}/challenges/{challenge}", s.handleCompleteChallenge)

	// Leaderboard
	s.router.HandleFunc("GET /v1/leaderboard", s.handleLeaderboard)
	s.router.HandleFunc("GET /v1/leaderboard/rank/{id}", s.handleRank)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting marketcraft daemon",
		"addr", s.server.Addr,
		"leaderboard", s.board != nil,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")
	return s.server.Shutdown(ctx)
}

// Handler implementations

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":      "running",
		"version":     version,
		"providers":   s.cfg.Evaluation.Chain,
		"leaderboard": s.board != nil,
		"levels":      len(s.catalog.ListLevels()),
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	// Return config without secrets
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"daemon":      s.cfg.Daemon,
		"judging":     s.cfg.Judging,
		"scheduler":   s.cfg.Scheduler,
		"leaderboard": map[string]interface{}{"enabled": s.cfg.Leaderboard.Enabled},
	})
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	providers := make([]map[string]interface{}, 0, len(s.cfg.Evaluation.Chain))
	for _, name := range s.cfg.Evaluation.Chain {
		cfg, ok := s.cfg.Evaluation.Providers[name]
		if !ok {
			continue
		}
		providers = append(providers, map[string]interface{}{
			"name":       name,
			"enabled":    cfg.Enabled,
			"configured": cfg.APIKey != "" || name == "textpool",
		})
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"chain":     s.cfg.Evaluation.Chain,
		"providers": providers,
	})
}

// Player handlers

func (s *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Name == "" {
		s.jsonError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	p, err := s.game.Create(req.Name, req.Role)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to create player", err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, p)
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	p, err := s.game.Get(r.PathValue("id"))
	if err != nil {
		s.playerError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, p)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p, changed, err := s.game.Login(r.PathValue("id"))
	if err != nil {
		s.playerError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"player":         p,
		"streak_changed": changed,
	})
}

func (s *Server) handleClaimStreak(w http.ResponseWriter, r *http.Request) {
	bonus, err := s.game.ClaimStreakBonus(r.PathValue("id"))
	if err != nil {
		s.playerError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"xp_awarded": bonus,
		"claimed":    bonus > 0,
	})
}

func (s *Server) handleAdvanceTime(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Minutes int `json:"minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Minutes <= 0 {
		s.jsonError(w, http.StatusBadRequest, "minutes must be positive", nil)
		return
	}

	p, err := s.game.AdvanceTime(r.PathValue("id"), req.Minutes)
	if err != nil {
		s.playerError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, p)
}

func (s *Server) handleClock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClockedIn bool `json:"clocked_in"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	p, err := s.game.SetClockedIn(r.PathValue("id"), req.ClockedIn)
	if err != nil {
		s.playerError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, p)
}

func (s *Server) handleResetPlayer(w http.ResponseWriter, r *http.Request) {
	if err := s.game.Reset(r.PathValue("id")); err != nil {
		s.playerError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"reset": true,
	})
}

// Level & submission handlers

func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid level id", err)
		return
	}
	for _, level := range s.catalog.ListLevels() {
		if level.ID == id {
			s.jsonResponse(w, http.StatusOK, level.Redacted())
			return
		}
	}
	s.jsonError(w, http.StatusNotFound, "level not found", nil)
}

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	views, err := s.game.Levels(r.PathValue("id"))
	if err != nil {
		s.playerError(w, err)
		return
	}
	for i, v := range views {
		if v.Level != nil {
			views[i].Level = v.Level.Redacted()
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"levels": views,
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LevelID    int               `json:"level_id"`
		Submission domain.Submission `json:"submission"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.LevelID <= 0 {
		s.jsonError(w, http.StatusBadRequest, "level_id is required", nil)
		return
	}

	outcome, err := s.game.Submit(r.Context(), r.PathValue("id"), req.LevelID, req.Submission)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPlayerNotFound), errors.Is(err, domain.ErrLevelNotFound):
			s.jsonError(w, http.StatusNotFound, "not found", err)
		case errors.Is(err, domain.ErrLevelLocked):
			s.jsonError(w, http.StatusForbidden, "level is locked", err)
		case errors.Is(err, domain.ErrNoLivesLeft):
			s.jsonError(w, http.StatusConflict, "no lives left", err)
		case errors.Is(err, domain.ErrNoAttemptsLeft):
			s.jsonError(w, http.StatusConflict, "no attempts left", err)
		default:
			s.jsonError(w, http.StatusInternalServerError, "submission failed", err)
		}
		return
	}

	s.jsonResponse(w, http.StatusOK, outcome)
}

func (s *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if levelStr := r.URL.Query().Get("level_id"); levelStr != "" {
		levelID, err := strconv.Atoi(levelStr)
		if err != nil {
			s.jsonError(w, http.StatusBadRequest, "invalid level_id", err)
			return
		}
		history, err := s.attempts.History(id, levelID)
		if err != nil {
			s.jsonError(w, http.StatusInternalServerError, "failed to load attempts", err)
			return
		}
		s.jsonResponse(w, http.StatusOK, map[string]interface{}{"attempts": history})
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, _ = strconv.Atoi(limitStr)
	}
	recent, err := s.attempts.Recent(id, limit)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to load attempts", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{"attempts": recent})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.attempts.Stats(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to load stats", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}

// Daily challenge handlers

func (s *Server) handleTodayChallenges(w http.ResponseWriter, r *http.Request) {
	set := catalog.DailyChallenges(s.catalog.Challenges(), s.now())
	s.jsonResponse(w, http.StatusOK, set)
}

func (s *Server) handleCompleteChallenge(w http.ResponseWriter, r *http.Request) {
	xp, err := s.game.CompleteChallenge(r.PathValue("id"), r.PathValue("challenge"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.jsonError(w, http.StatusNotFound, "challenge not found", err)
			return
		}
		s.playerError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"xp_awarded": xp,
		"completed":  xp > 0,
	})
}

// Leaderboard handlers

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.board == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "leaderboard is not enabled", nil)
		return
	}

	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.board.Top(r.Context(), limit)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to load leaderboard", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	if s.board == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "leaderboard is not enabled", nil)
		return
	}

	rank, err := s.board.Rank(r.Context(), r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to load rank", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"player_id": r.PathValue("id"),
		"rank":      rank,
		"ranked":    rank > 0,
	})
}

// playerError maps domain errors on player lookups to HTTP statuses.
func (s *Server) playerError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrPlayerNotFound) {
		s.jsonError(w, http.StatusNotFound, "player not found", nil)
		return
	}
	s.jsonError(w, http.StatusInternalServerError, "internal error", err)
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}
