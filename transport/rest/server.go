package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rocketscienceinc/gomoku-backend/internal/config"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type uGame interface {
	FindGame(ctx context.Context, gameID string) (entity.GameSnapshot, error)
	PublicGames(ctx context.Context) []usecase.PublicGame
}

type Server struct {
	logger *slog.Logger
	uGame  uGame
	cors   config.CORS
}

func New(logger *slog.Logger, uGame uGame, cors config.CORS) *Server {
	return &Server{
		logger: logger.With("component", "rest"),
		uGame:  uGame,
		cors:   cors,
	}
}

func (that *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/ping", pingHandler).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/games", that.handleListGames).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", that.handleGetGame).Methods(http.MethodGet)

	// preflights are answered before routing, so OPTIONS needs no route
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(that.logger.Handler(), slog.LevelError)),
	)

	return recovery(that.corsHandler()(router))
}

func (that *Server) corsHandler() func(http.Handler) http.Handler {
	origins := that.cors.AllowedOrigins
	if that.cors.AllowsAnyOrigin() {
		origins = []string{"*"}
	}

	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.OptionStatusCode(http.StatusNoContent),
	)
}

// Start - starts HTTP server and blocks until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start server: %w", err)
			return
		}

		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
