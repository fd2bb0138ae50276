package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/entity"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/tictactoe"
)

const shutdownTimeout = 5 * time.Second

type gameController interface {
	ApplyMove(cell int) tictactoe.MoveResult
	Reset() entity.Game
	Snapshot() entity.Game
}

type Server struct {
	logger *slog.Logger
	game   gameController
	router chi.Router
}

func New(logger *slog.Logger, game gameController) *Server {
	server := &Server{
		logger: logger.With("component", "rest"),
		game:   game,
		router: chi.NewRouter(),
	}

	server.router.Use(middleware.RequestID)
	server.router.Use(middleware.Recoverer)
	server.router.Use(server.logRequests)

	server.router.Get("/ping", server.handlePing)
	server.router.Route("/api/game", func(r chi.Router) {
		r.Get("/", server.handleGetGame)
		r.Post("/moves", server.handleMove)
		r.Post("/reset", server.handleReset)
	})

	return server
}

func (that *Server) Handler() http.Handler {
	return that.router
}

// Start - starts HTTP server and stops it when ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		that.logger.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
