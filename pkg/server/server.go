package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/levenlabs/go-lflag"
	"github.com/soltwin/soltwin/pkg/forecast"
	"github.com/soltwin/soltwin/pkg/log"
	"github.com/soltwin/soltwin/pkg/mlmodel"
	"github.com/soltwin/soltwin/pkg/storage"
	"github.com/soltwin/soltwin/pkg/sysconfig"
	"github.com/soltwin/soltwin/pkg/types"
	"github.com/soltwin/soltwin/pkg/weather"
)

// blackoutLookahead bounds how far ahead of now schedules are loaded for the
// prediction endpoints.
const blackoutLookahead = 48 * time.Hour

// tokenVerifier is a function that validates an OIDC ID token.
type tokenVerifier func(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)

// Server handles the HTTP API for the digital twin. It orchestrates the
// weather service, the prediction engine, the trained models and storage.
type Server struct {
	storage storage.Database
	weather *weather.Service
	engine  *forecast.Engine
	models  *mlmodel.Models

	listenAddr string
	httpServer *http.Server

	oidcAudience string
	oidcVerifier tokenVerifier
	serverName   string

	now func() time.Time
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(db storage.Database, w *weather.Service, e *forecast.Engine, m *mlmodel.Models) *Server {
	srv := &Server{
		storage:    db,
		weather:    w,
		engine:     e,
		models:     m,
		serverName: "soltwin",
		now:        time.Now,
	}
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		// otherwise default to 8080
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	oidcAudience := lflag.String("oidc-audience", "", "audience/client ID to validate on write requests, empty disables auth")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		if *oidcAudience != "" {
			provider, err := oidc.NewProvider(context.Background(), "https://accounts.google.com")
			if err != nil {
				log.Ctx(context.Background()).Error("failed to initialize Google OIDC provider", slog.Any("error", err))
				os.Exit(1)
			}
			srv.oidcAudience = *oidcAudience
			srv.oidcVerifier = provider.Verifier(&oidc.Config{ClientID: *oidcAudience}).Verify
		}
	})

	return srv
}

func (s *Server) setupHandler() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/solar", s.handleSolar)
	apiMux.HandleFunc("GET /api/weather", s.handleWeather)
	apiMux.HandleFunc("GET /api/predictions", s.handlePredictions)
	apiMux.HandleFunc("GET /api/config", s.handleGetConfig)

	apiMux.HandleFunc("GET /api/panels", s.handleListPanels)
	apiMux.HandleFunc("POST /api/panels", s.handleCreatePanel)
	apiMux.HandleFunc("GET /api/panels/{id}", s.handleGetPanel)
	apiMux.HandleFunc("PUT /api/panels/{id}", s.handleUpdatePanel)
	apiMux.HandleFunc("DELETE /api/panels/{id}", s.handleDeletePanel)

	apiMux.HandleFunc("GET /api/batteries", s.handleListBatteries)
	apiMux.HandleFunc("POST /api/batteries", s.handleCreateBattery)
	apiMux.HandleFunc("GET /api/batteries/{id}", s.handleGetBattery)
	apiMux.HandleFunc("PUT /api/batteries/{id}", s.handleUpdateBattery)
	apiMux.HandleFunc("DELETE /api/batteries/{id}", s.handleDeleteBattery)

	apiMux.HandleFunc("GET /api/blackouts", s.handleListBlackouts)
	apiMux.HandleFunc("POST /api/blackouts", s.handleUpsertBlackout)
	apiMux.HandleFunc("GET /api/blackouts/{id}", s.handleGetBlackout)
	apiMux.HandleFunc("PUT /api/blackouts/{id}", s.handleUpdateBlackout)
	apiMux.HandleFunc("DELETE /api/blackouts/{id}", s.handleDeleteBlackout)

	apiMux.HandleFunc("GET /api/ml/production", s.handleMLProduction)
	apiMux.HandleFunc("POST /api/ml/production", s.handleMLProductionBatch)
	apiMux.HandleFunc("GET /api/ml/consumption", s.handleMLConsumption)
	apiMux.HandleFunc("GET /api/ml/info", s.handleMLInfo)

	apiMux.HandleFunc("GET /api/discharge", s.handleDischarge)
	apiMux.HandleFunc("GET /api/live", s.handleLive)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.authMiddleware(apiMux))
	mux.HandleFunc("/healthz", s.handleHealthz)
	return s.revisionMiddleware(gziphandler.GzipHandler(mux))
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	// use a channel to capturing server errors
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		// Context canceled, shut down gracefully
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}

// systemConfig aggregates the stored inventory into the effective system
// configuration. Storage failures degrade to the default bundle so the
// prediction endpoints keep working.
func (s *Server) systemConfig(ctx context.Context) types.SystemConfig {
	panels, err := s.storage.ListPanels(ctx)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to list panels, using defaults", slog.Any("error", err))
		return types.DefaultSystemConfig()
	}
	batteries, err := s.storage.ListBatteries(ctx)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to list batteries, using defaults", slog.Any("error", err))
		return types.DefaultSystemConfig()
	}
	return sysconfig.Aggregate(panels, batteries)
}

// upcomingBlackouts loads the schedules that could affect the prediction
// horizon. Failures are logged and treated as no scheduled outages.
func (s *Server) upcomingBlackouts(ctx context.Context) []types.BlackoutSchedule {
	now := s.now().UTC()
	schedules, err := s.storage.GetBlackoutsForRange(ctx, types.StartOfDay(now), now.Add(blackoutLookahead))
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to load blackout schedules", slog.Any("error", err))
		return nil
	}
	return schedules
}
