package gate

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/einlass-dev/einlass/pkg/observability"
)

// Config holds the gate's immutable per-instance configuration.
type Config struct {
	// Authenticator verifies decoded credentials. Required.
	Authenticator Authenticator

	// Challenge produces the rejection response. Required.
	Challenge Challenge

	// IgnoreFailure lets rejected attempts fall through as anonymous
	// instead of short-circuiting the pipeline. Default false.
	IgnoreFailure bool

	// Logger receives attempt logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Gate is the authentication gate. It holds no cross-request mutable
// state, so a single instance serves concurrent requests.
type Gate struct {
	authn         Authenticator
	challenge     Challenge
	ignoreFailure bool
	logger        *slog.Logger
}

// New validates the configuration and builds a gate. Both collaborators
// are mandatory; a missing one is a fatal configuration error that must
// surface before any request is served.
func New(cfg Config) (*Gate, error) {
	if cfg.Authenticator == nil {
		return nil, fmt.Errorf("gate: an Authenticator is required")
	}
	if cfg.Challenge == nil {
		return nil, fmt.Errorf("gate: a Challenge is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		authn:         cfg.Authenticator,
		challenge:     cfg.Challenge,
		ignoreFailure: cfg.IgnoreFailure,
		logger:        logger,
	}, nil
}

// IgnoreFailure reports the configured failure policy.
func (g *Gate) IgnoreFailure() bool {
	return g.ignoreFailure
}

// Middleware returns the HTTP middleware implementing the gate.
//
// Per request: a fresh identity holder is installed (unless an upstream
// stage already provided one), cleared before processing, and cleared
// again when the downstream handler returns. The Authorization header is
// decoded, the authenticator consulted, and the pipeline either continues
// or the challenge responder takes over, depending on the outcome and the
// IgnoreFailure policy.
func (g *Gate) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			holder := HolderFromContext(r.Context())
			if holder == nil {
				holder = &Holder{}
				r = r.WithContext(WithHolder(r.Context(), holder))
			} else if holder.Get() != nil {
				// Already authenticated by an upstream mechanism.
				next.ServeHTTP(w, r)
				return
			}

			// Clear on entry in case the execution context is reused,
			// and again once control passes back out of the gate.
			holder.Clear()
			defer holder.Clear()

			outcome := NoAttempt

			creds, ok := DecodeBasic(r.Header.Get("Authorization"))
			if !ok {
				// No attempt made. Malformed headers are treated exactly
				// like absent ones: silent pass-through, the resource
				// behind the gate may be public.
				observability.AuthOutcomesTotal.WithLabelValues(outcome.String()).Inc()
				next.ServeHTTP(w, r)
				return
			}

			outcome = Attempting
			identity, err := g.authn.Authenticate(r.Context(), creds.Username, creds.Password)
			if err != nil {
				outcome = Rejected
				observability.AuthOutcomesTotal.WithLabelValues(outcome.String()).Inc()
				g.logger.Warn("authentication failed",
					"username", creds.Username,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", err,
				)

				if g.ignoreFailure {
					// Policy: fall through as anonymous. The failure is
					// visible only in logs and metrics.
					next.ServeHTTP(w, r)
					return
				}

				observability.ChallengesTotal.Inc()
				g.challenge.Respond(w, r, err)
				return
			}

			if identity == nil || identity.Username == "" {
				g.logger.Error("authenticator returned an empty identity",
					"username", creds.Username,
				)
				http.Error(w, `{"error":{"type":"server_error","message":"internal authentication error"}}`, http.StatusInternalServerError)
				return
			}

			outcome = Authenticated
			observability.AuthOutcomesTotal.WithLabelValues(outcome.String()).Inc()
			g.logger.Debug("authentication succeeded",
				"username", identity.Username,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			holder.Set(identity)
			next.ServeHTTP(w, r)
		})
	}
}
