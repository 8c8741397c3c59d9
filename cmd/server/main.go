package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heliumproject/editor-go/internal/auth"
	"github.com/heliumproject/editor-go/internal/config"
	"github.com/heliumproject/editor-go/internal/document"
	mw "github.com/heliumproject/editor-go/internal/middleware"
	"github.com/heliumproject/editor-go/internal/render"
	"github.com/heliumproject/editor-go/internal/scene"
	"github.com/heliumproject/editor-go/internal/session"
	"github.com/heliumproject/editor-go/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var snapshots *store.Store
	if cfg.DatabaseURL != "" {
		pool, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		snapshots = store.New(pool)
		if err := snapshots.EnsureSchema(ctx); err != nil {
			slog.Error("prepare database", "error", err)
			os.Exit(1)
		}
	}

	s := scene.New(cfg.UndoMaxLength)
	renderer := render.NewRenderer()
	if err := loadScene(ctx, cfg, s, renderer, snapshots); err != nil {
		slog.Error("load scene", "error", err)
		os.Exit(1)
	}

	opts := session.Options{Interval: cfg.SnapshotInterval}
	if snapshots != nil {
		opts.Saver = snapshots
	}
	hub := session.NewHub(s, renderer, opts)
	go hub.Run()

	authService := auth.NewService(cfg.JWTSecret)
	if cfg.DevSubject != "" {
		token, err := authService.IssueToken(cfg.DevSubject)
		if err != nil {
			slog.Error("issue development token", "error", err)
			os.Exit(1)
		}
		slog.Info("development token", "subject", cfg.DevSubject, "token", token)
	}

	var wsTokens session.TokenValidator = authService
	if cfg.AnonymousWS {
		wsTokens = nil
	}
	sceneHandler := session.NewHandler(hub, wsTokens, cfg.Origins())

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Protected scene routes
	api := r.PathPrefix("/scene").Subrouter()
	api.Use(authService.Middleware)

	api.HandleFunc("/nodes", sceneHandler.Nodes).Methods("GET")
	api.HandleFunc("/render", sceneHandler.Render).Methods("GET")
	api.HandleFunc("/pick", sceneHandler.Pick).Methods("GET")
	api.HandleFunc("/snapshot", sceneHandler.Snapshot).Methods("GET")
	api.HandleFunc("/ops", sceneHandler.SubmitOp).Methods("POST", "OPTIONS")

	// WebSocket endpoint
	r.HandleFunc("/ws/scene", sceneHandler.WebSocket)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "scene", s.ID(), "nodes", s.Len())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	// Stop the hub after the listener so edits that raced the shutdown are saved
	slog.Info("saving scene...")
	hub.Stop()
}

// loadScene restores the newest stored snapshot, or seeds the sample room
// when there is none and seeding is enabled.
func loadScene(ctx context.Context, cfg *config.Config, s *scene.Scene, r *render.Renderer, snapshots *store.Store) error {
	sample := document.NewSampleDescription()

	if snapshots != nil {
		snap, err := snapshots.LatestSnapshot(ctx, "")
		switch {
		case err == nil:
			// Register the sample's types first so its nodes resolve.
			if _, err := (&document.Description{Name: sample.Name, Types: sample.Types}).Build(s); err != nil {
				return err
			}
			sample.RegisterDrawing(s, r)
			decoded, err := scene.UnmarshalSnapshot(snap.Data)
			if err != nil {
				return err
			}
			if err := s.Restore(decoded); err != nil {
				return err
			}
			slog.Info("restored snapshot", "scene", snap.SceneID, "version", snap.Version)
			return nil
		case !errors.Is(err, store.ErrNoSnapshot):
			return err
		}
	}

	if !cfg.SeedSample {
		return nil
	}
	built, err := sample.Build(s)
	if err != nil {
		return err
	}
	sample.RegisterDrawing(s, r)
	slog.Info("seeded sample scene", "objects", len(built))
	return nil
}
