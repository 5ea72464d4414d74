package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"portfolio-server/internal/handlers"
	"portfolio-server/internal/highscore"
	"portfolio-server/internal/site"
	"portfolio-server/internal/websocket"
	"portfolio-server/pkg/config"
)

// Server is the portfolio HTTP server: static pages, the high score API and
// the live high score feed behind a single chi router.
type Server struct {
	router chi.Router
	addr   string
	hub    *websocket.Hub
}

// New creates a Server serving cfg's content and the given store.
// New high scores accepted by the store are pushed to WebSocket clients.
func New(cfg config.Config, store *highscore.Store) *Server {
	hub := websocket.NewHub(cfg.NewUpgrader(), store.Get)
	store.OnRecord(hub.BroadcastHighScore)

	s := &Server{
		addr: cfg.Addr(),
		hub:  hub,
	}
	s.router = s.buildRouter(cfg, handlers.NewHighScoreHandler(store))
	return s
}

// ServeHTTP delegates to the chi router, satisfying http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter(cfg config.Config, scores *handlers.HighScoreHandler) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/highscore", scores.Get)
		r.Post("/highscore", scores.Submit)
	})
	r.Get("/ws", s.hub.ServeHTTP)

	site.NewTable(cfg.ContentDir, cfg.PublicDir).Register(r)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("Server running at http://localhost%s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logrus.Info("Server exiting")
	return nil
}
