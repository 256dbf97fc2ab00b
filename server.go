package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

// httpOptions configures the Streamable HTTP transport.
type httpOptions struct {
	Port           string
	EndpointPath   string
	AuthToken      string
	SessionTimeout time.Duration
}

// startStreamableHTTPServer serves mcpServer over Streamable HTTP until ctx is cancelled.
func startStreamableHTTPServer(ctx context.Context, opts httpOptions, mcpServer *mcpserver.MCPServer, logger *logrus.Logger) error {
	heartbeatInterval := 30 * time.Second
	if opts.SessionTimeout > 0 {
		heartbeatInterval = opts.SessionTimeout / 4
	}

	serverOpts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(opts.EndpointPath),
		mcpserver.WithHeartbeatInterval(heartbeatInterval),
		mcpserver.WithLogger(&logrusAdapter{logger: logger}),
	}
	if opts.SessionTimeout > 0 {
		serverOpts = append(serverOpts, mcpserver.WithSessionIdManager(NewSessionManager(opts.SessionTimeout, logger)))
	}

	mux := http.NewServeMux()
	mux.Handle(opts.EndpointPath, requireBearerToken(opts.AuthToken, logger, mcpserver.NewStreamableHTTPServer(mcpServer, serverOpts...)))

	server := &http.Server{
		Addr:              ":" + opts.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Starting Streamable HTTP server on port %s with endpoint %s", opts.Port, opts.EndpointPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	logger.Info("HTTP server stopped gracefully")
	return nil
}

// requireBearerToken rejects requests without "Authorization: Bearer <token>".
// An empty token disables the check.
func requireBearerToken(token string, logger *logrus.Logger, next http.Handler) http.Handler {
	if token == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const bearerPrefix = "Bearer "
		header := r.Header.Get("Authorization")
		provided, ok := strings.CutPrefix(header, bearerPrefix)
		if !ok || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			logger.WithField("remote", r.RemoteAddr).Warn("Rejected request with missing or invalid bearer token")
			w.Header().Set("WWW-Authenticate", `Bearer realm="mcp-mq"`)
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionManager issues UUID session IDs that expire after a period of inactivity.
type SessionManager struct {
	timeout  time.Duration
	logger   *logrus.Logger
	now      func() time.Time
	mu       sync.Mutex
	lastSeen map[string]time.Time
}

// NewSessionManager creates a session manager with the given idle timeout.
func NewSessionManager(timeout time.Duration, logger *logrus.Logger) *SessionManager {
	return &SessionManager{
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
		lastSeen: make(map[string]time.Time),
	}
}

// Generate returns a new session ID and drops expired sessions.
func (s *SessionManager) Generate() string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for sid, seen := range s.lastSeen {
		if now.Sub(seen) > s.timeout {
			delete(s.lastSeen, sid)
		}
	}
	s.lastSeen[id] = now

	s.logger.WithField("session", id).Debug("Session created")
	return id
}

// Validate reports an expired session as terminated so the client re-initialises.
func (s *SessionManager) Validate(sessionID string) (bool, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return false, fmt.Errorf("invalid session ID: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen, ok := s.lastSeen[sessionID]
	if !ok {
		return false, fmt.Errorf("unknown session ID: %s", sessionID)
	}
	now := s.now()
	if now.Sub(seen) > s.timeout {
		delete(s.lastSeen, sessionID)
		s.logger.WithField("session", sessionID).Debug("Session expired")
		return true, nil
	}
	s.lastSeen[sessionID] = now
	return false, nil
}

// Terminate ends a session at the client's request.
func (s *SessionManager) Terminate(sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.lastSeen, sessionID)
	s.logger.WithField("session", sessionID).Debug("Session terminated")
	return false, nil
}

// logrusAdapter adapts logrus.Logger to the mcp-go util.Logger interface
type logrusAdapter struct {
	logger *logrus.Logger
}

func (l *logrusAdapter) Infof(format string, args ...any) {
	l.logger.Infof(format, args...)
}

func (l *logrusAdapter) Errorf(format string, args ...any) {
	l.logger.Errorf(format, args...)
}
