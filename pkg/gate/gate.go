package gate

import (
	"context"
	"errors"
	"slices"
)

// Outcome represents the per-request state of the gate.
type Outcome int

const (
	// NoAttempt means no Basic credentials were supplied. The pipeline
	// continues unauthenticated.
	NoAttempt Outcome = iota

	// Attempting means credentials were decoded and the authenticator
	// call is in flight.
	Attempting

	// Authenticated means the authenticator accepted the credentials and
	// an identity was established for the request.
	Authenticated

	// Rejected means the authenticator refused the credentials.
	Rejected
)

// String returns the outcome name used in logs and metric labels.
func (o Outcome) String() string {
	switch o {
	case NoAttempt:
		return "no_attempt"
	case Attempting:
		return "attempting"
	case Authenticated:
		return "authenticated"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Identity represents an authenticated caller.
type Identity struct {
	// Username is the unique identifier (required, non-empty).
	Username string

	// Authorities lists the granted authorities (roles).
	Authorities []string
}

// HasAuthority reports whether the identity carries the given authority.
func (id *Identity) HasAuthority(name string) bool {
	if id == nil {
		return false
	}
	return slices.Contains(id.Authorities, name)
}

// Authenticator verifies a username/password pair against a trust source.
// On success it returns the verified identity. On failure it returns one
// of the sentinel errors below (possibly wrapped); the gate treats all
// failures identically, the distinction exists for logging and audit.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*Identity, error)
}

// Failure causes returned by authenticators.
var (
	ErrUnknownUser     = errors.New("unknown user")
	ErrBadPassword     = errors.New("bad password")
	ErrAccountDisabled = errors.New("account disabled")
)
