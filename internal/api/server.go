// Package api serves the parsing operations over HTTP for the CRM front end.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/vijay-prabhu/mailsplit/internal/database"
	"github.com/vijay-prabhu/mailsplit/internal/logging"
	"github.com/vijay-prabhu/mailsplit/internal/mailparse"
)

// bodySlack is request overhead allowed on top of the parser input limit
const bodySlack = 64 << 10

// Server exposes a Parser and the activity store as JSON endpoints
type Server struct {
	db     *database.DB
	parser *mailparse.Parser
	logger zerolog.Logger
}

// New creates a Server. db may be nil, in which case the activity routes
// answer 503.
func New(db *database.DB, parser *mailparse.Parser, logger zerolog.Logger) *Server {
	return &Server{
		db:     db,
		parser: parser,
		logger: logging.Component(logger, "api"),
	}
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limitBody)
		r.Post("/parse", s.Parse)
		r.Post("/thread", s.Thread)
		r.Post("/paragraphs", s.Paragraphs)
		r.Post("/signature", s.Signature)
		r.Get("/activities", s.ListActivities)
		r.Get("/activities/{id}", s.GetActivity)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down HTTP API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("Request")
	})
}

// limitBody caps request bodies a little above the parser's input limit
func (s *Server) limitBody(next http.Handler) http.Handler {
	limit := int64(s.parser.Options().MaxInputBytes)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limit > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, limit+bodySlack)
		}
		next.ServeHTTP(w, r)
	})
}
