// Package integration provides integration tests for the einlass gateway.
//
// Tests run against a real HTTP server composed exactly like production
// (pipeline, gate, router), started in-process using net/http/httptest.
package integration

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/gorilla/mux"

	"github.com/einlass-dev/einlass/pkg/gate"
	"github.com/einlass-dev/einlass/pkg/observability"
	"github.com/einlass-dev/einlass/pkg/transport"
	"github.com/einlass-dev/einlass/pkg/userstore/memory"
)

// startGateway builds the production pipeline around an in-memory store
// holding the rod/koala account and returns a running test server.
func startGateway(ignoreFailure bool) (*httptest.Server, error) {
	store := memory.New([]memory.User{
		{Username: "rod", Password: "koala", Authorities: []string{"ROLE_ONE", "ROLE_TWO"}},
	})

	g, err := gate.New(gate.Config{
		Authenticator: store,
		Challenge:     &gate.BasicChallenge{Realm: "einlass-test"},
		IgnoreFailure: ignoreFailure,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gate: %w", err)
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	router.HandleFunc("/whoami", func(w http.ResponseWriter, r *http.Request) {
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
	}).Methods(http.MethodGet)

	pipeline := transport.Chain(
		transport.RequestID(),
		transport.Recovery(),
		transport.AccessLog(slog.Default()),
		observability.MetricsMiddleware,
		g.Middleware(),
	)

	return httptest.NewServer(pipeline(router)), nil
}
