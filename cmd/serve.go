package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/naaf-labs/naaf-cli/internal/model"
	"github.com/naaf-labs/naaf-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the assessment HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/api/assess", handleAssess(ctx, env))
		r.Get("/api/assess/{runID}/events", handleEvents(env))
		r.Get("/api/runs/{runID}", handleGetRun(env))
		r.Get("/api/entities", handleListEntities(env))
		r.Get("/api/entities/{entity}/runs/latest", handleLatestRun(env))
		r.Get("/api/entities/{entity}/news", handleNews(env))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// handleAssess accepts an assessment request and runs it asynchronously.
// The run executes on the server lifetime context so closing the client
// connection does not cancel research.
func handleAssess(serverCtx context.Context, env *assessEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Country string `json:"country"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		run, err := env.Coordinator.NewRun(req.Country)
		if err != nil {
			writeError(w, http.StatusBadRequest, "country is required")
			return
		}

		go func() {
			if _, err := env.Coordinator.Execute(serverCtx, run); err != nil {
				zap.L().Error("assessment failed",
					zap.String("run_id", run.ID),
					zap.Error(err),
				)
			}
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"run_id":  run.ID,
			"country": run.Entity.Name,
			"status":  string(run.Status),
		})
	}
}

// handleEvents streams run progress as server-sent events until the
// terminal event or client disconnect.
func handleEvents(env *assessEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := chi.URLParam(r, "runID")

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}

		events, cancel := env.Broker.Subscribe(runID)
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case ev, open := <-events:
				if !open {
					return
				}
				data, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
				flusher.Flush()
			}
		}
	}
}

func handleGetRun(env *assessEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := env.Store.GetRun(r.Context(), chi.URLParam(r, "runID"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}

func handleListEntities(env *assessEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entities, err := env.Store.ListEntities(r.Context())
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if entities == nil {
			entities = []model.EntitySummary{}
		}
		writeJSON(w, http.StatusOK, entities)
	}
}

func handleLatestRun(env *assessEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := model.NormalizeEntityKey(chi.URLParam(r, "entity"))
		run, err := env.Store.LatestRun(r.Context(), key)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}

func handleNews(env *assessEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity := model.NewEntity(chi.URLParam(r, "entity"))
		if entity.Key == "" {
			writeError(w, http.StatusBadRequest, "entity is required")
			return
		}
		feed := env.News.Get(r.Context(), entity)
		writeJSON(w, http.StatusOK, feed)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	zap.L().Error("store error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
