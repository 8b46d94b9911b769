// Command server runs the einlass authentication gateway.
//
// Configuration is loaded from a YAML file (see pkg/config for the
// discovery order) with EINLASS_* environment variable overrides:
//
//	EINLASS_CONFIG         - Config file path
//	EINLASS_PORT           - Listen port (default: 8080)
//	EINLASS_REALM          - Basic challenge realm (default: "einlass")
//	EINLASS_IGNORE_FAILURE - Let failed attempts pass through as anonymous
//	EINLASS_AUTH_STORE     - Credential backend: "memory" or "postgres"
//	EINLASS_USERS          - JSON array of users for the memory store
//	EINLASS_POSTGRES_DSN   - PostgreSQL connection string
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/einlass-dev/einlass/pkg/config"
	"github.com/einlass-dev/einlass/pkg/debug"
	"github.com/einlass-dev/einlass/pkg/gate"
	"github.com/einlass-dev/einlass/pkg/observability"
	"github.com/einlass-dev/einlass/pkg/transport"
	"github.com/einlass-dev/einlass/pkg/userstore/memory"
	"github.com/einlass-dev/einlass/pkg/userstore/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	debug.Init(cfg.Logging.Debug, cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Build the credential backend.
	var authn gate.Authenticator
	switch cfg.Auth.Store {
	case "memory":
		users := make([]memory.User, 0, len(cfg.Auth.Users))
		for _, u := range cfg.Auth.Users {
			users = append(users, memory.User{
				Username:    u.Username,
				Password:    u.Password,
				Authorities: u.Authorities,
				Disabled:    u.Disabled,
			})
		}
		authn = memory.New(users)
		slog.Info("credential store ready", "type", "memory", "users", len(users))
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Auth.Postgres.DSN,
			MaxConns:       cfg.Auth.Postgres.MaxConns,
			MigrateOnStart: cfg.Auth.Postgres.MigrateOnStart,
		})
		if err != nil {
			return fmt.Errorf("creating postgres store: %w", err)
		}
		defer store.Close()
		authn = store
		slog.Info("credential store ready", "type", "postgres")
	default:
		return fmt.Errorf("unknown auth store %q", cfg.Auth.Store)
	}

	// Build the gate. A missing collaborator fails here, before any
	// request is served.
	g, err := gate.New(gate.Config{
		Authenticator: authn,
		Challenge:     &gate.BasicChallenge{Realm: cfg.Auth.Realm},
		IgnoreFailure: cfg.Auth.IgnoreFailure,
	})
	if err != nil {
		return err
	}

	// Routes.
	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)
	if cfg.Observability.Metrics.Enabled {
		router.Handle(cfg.Observability.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
	}
	router.HandleFunc("/whoami", whoami).Methods(http.MethodGet)

	// The middleware pipeline, composed once at startup. Order matters:
	// request IDs first so every later stage can log them, the gate last
	// so it decides just before the router runs.
	pipeline := transport.Chain(
		transport.RequestID(),
		transport.Recovery(),
		transport.AccessLog(slog.Default()),
		observability.MetricsMiddleware,
		g.Middleware(),
	)

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      pipeline(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting",
			"port", cfg.Server.Port,
			"realm", cfg.Auth.Realm,
			"store", cfg.Auth.Store,
			"ignore_failure", cfg.Auth.IgnoreFailure,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// whoami reports the identity the gate established for this request, or
// an anonymous marker when the request passed through unauthenticated.
func whoami(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id := gate.IdentityFromContext(r.Context())
	if id == nil {
		json.NewEncoder(w).Encode(map[string]any{"anonymous": true})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"username":    id.Username,
		"authorities": id.Authorities,
	})
}
