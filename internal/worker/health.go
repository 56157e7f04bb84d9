package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aescanero/gerrit-link-router/internal/display"
	"github.com/aescanero/gerrit-link-router/internal/link"
	"github.com/aescanero/gerrit-link-router/internal/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Pinger checks the Redis connection
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// SessionStore reads and clears the screen remembered for a session
type SessionStore interface {
	Current(ctx context.Context, sessionID string) (link.Screen, error)
	Forget(ctx context.Context, sessionID string) error
}

// HealthServer provides HTTP health check endpoints and a dry-run route lookup
type HealthServer struct {
	port     int
	redis    Pinger
	router   *router.Router
	sessions SessionStore
	logger   *zap.Logger
	server   *http.Server
}

// NewHealthServer creates a new health server. routerInstance may be nil, in
// which case /route is not served
func NewHealthServer(port int, redisClient Pinger, routerInstance *router.Router, logger *zap.Logger) *HealthServer {
	return &HealthServer{
		port:   port,
		redis:  redisClient,
		router: routerInstance,
		logger: logger,
	}
}

// WithSessions enables /session on the server
func (hs *HealthServer) WithSessions(sessions SessionStore) *HealthServer {
	hs.sessions = sessions
	return hs
}

// Handler returns the HTTP handler of the server
func (hs *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", hs.handleHealth)
	mux.HandleFunc("/ready", hs.handleReady)
	if hs.router != nil {
		mux.HandleFunc("/route", hs.handleRoute)
	}
	if hs.sessions != nil {
		mux.HandleFunc("/session", hs.handleSession)
	}
	return mux
}

// Start starts the health check server
func (hs *HealthServer) Start() error {
	hs.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", hs.port),
		Handler:           hs.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	hs.logger.Info("starting health server", zap.Int("port", hs.port))

	go func() {
		if err := hs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			hs.logger.Error("health server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the health check server
func (hs *HealthServer) Stop() error {
	if hs.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hs.logger.Info("stopping health server")
	return hs.server.Shutdown(ctx)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// handleHealth handles the /health endpoint
func (hs *HealthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string)

	if err := hs.redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = fmt.Sprintf("unhealthy: %v", err)
		hs.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unhealthy",
			Checks: checks,
		})
		return
	}
	checks["redis"] = "healthy"

	hs.respondJSON(w, http.StatusOK, HealthResponse{
		Status: "healthy",
		Checks: checks,
	})
}

// handleReady handles the /ready endpoint
func (hs *HealthServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := hs.redis.Ping(ctx).Err(); err != nil {
		hs.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "not ready",
		})
		return
	}

	hs.respondJSON(w, http.StatusOK, HealthResponse{
		Status: "ready",
	})
}

// RouteError is the body of a failed /route lookup
type RouteError struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// handleRoute handles /route?token=..., routing the token without displaying it
func (hs *HealthServer) handleRoute(w http.ResponseWriter, r *http.Request) {
	req := &router.Request{
		SessionID: r.URL.Query().Get("session_id"),
		Token:     r.URL.Query().Get("token"),
	}

	decision, err := hs.router.Route(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, link.ErrInvalidChangeID) {
			status = http.StatusBadRequest
		}
		hs.respondJSON(w, status, RouteError{Kind: errorKind(err), Error: err.Error()})
		return
	}

	hs.respondJSON(w, http.StatusOK, decision)
}

// SessionResponse is the body of a /session lookup
type SessionResponse struct {
	SessionID string      `json:"session_id"`
	Screen    link.Screen `json:"screen"`
	Token     string      `json:"token"`
}

// handleSession handles /session?id=...: GET returns the screen last displayed
// to the session, DELETE forgets it
func (hs *HealthServer) handleSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("id")
	if sessionID == "" {
		hs.respondJSON(w, http.StatusBadRequest, RouteError{Kind: "bad_request", Error: "missing session id"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		screen, err := hs.sessions.Current(r.Context(), sessionID)
		if err != nil {
			if errors.Is(err, display.ErrNoSession) {
				hs.respondJSON(w, http.StatusNotFound, RouteError{Kind: "not_found", Error: err.Error()})
				return
			}
			hs.logger.Error("failed to load session", zap.String("session_id", sessionID), zap.Error(err))
			hs.respondJSON(w, http.StatusInternalServerError, RouteError{Kind: "internal", Error: err.Error()})
			return
		}
		hs.respondJSON(w, http.StatusOK, SessionResponse{SessionID: sessionID, Screen: screen, Token: screen.Token()})

	case http.MethodDelete:
		if err := hs.sessions.Forget(r.Context(), sessionID); err != nil {
			hs.logger.Error("failed to forget session", zap.String("session_id", sessionID), zap.Error(err))
			hs.respondJSON(w, http.StatusInternalServerError, RouteError{Kind: "internal", Error: err.Error()})
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, DELETE")
		hs.respondJSON(w, http.StatusMethodNotAllowed, RouteError{Kind: "bad_request", Error: "method not allowed"})
	}
}

// respondJSON writes a JSON response
func (hs *HealthServer) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		hs.logger.Error("failed to encode response", zap.Error(err))
	}
}
