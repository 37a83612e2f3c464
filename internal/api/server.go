package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"coworking/internal/service"
	"github.com/rs/zerolog"
)

// HTTPServer exposes the reservation engine as a JSON API.
type HTTPServer struct {
	engine  *service.Engine
	server  *http.Server
	apiKey  string
	limiter *userLimiter
	logger  *zerolog.Logger
}

type Options struct {
	Port               int
	APIKey             string
	RateLimitPerMinute int
}

func NewHTTPServer(opts Options, engine *service.Engine, logger *zerolog.Logger) *HTTPServer {
	l := logger.With().Str("component", "api").Logger()
	s := &HTTPServer{
		engine:  engine,
		apiKey:  opts.APIKey,
		limiter: newUserLimiter(opts.RateLimitPerMinute),
		logger:  &l,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/resource-types", s.handleResourceTypes)
	mux.Handle("/api/bookings", s.requireUser(http.HandlerFunc(s.handleBookings)))
	mux.HandleFunc("/api/availability", s.handleAvailability)
	mux.HandleFunc("/api/reports/bookings", s.handleBookingsReport)
	mux.HandleFunc("/api/reports/summary", s.handleSummary)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.withRequestID(s.withAPIKey(mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.server.Addr).Msg("API server started")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
