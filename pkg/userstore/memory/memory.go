// Package memory provides an in-memory username/password authenticator
// backed by a static user map. Passwords are held as SHA-256 hashes and
// compared in constant time.
package memory

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"slices"

	"github.com/einlass-dev/einlass/pkg/gate"
)

// User is the configuration format for a single account.
type User struct {
	Username    string
	Password    string
	Authorities []string
	Disabled    bool
}

// record is the stored form of a user; plaintext passwords are not kept.
type record struct {
	passwordHash [32]byte
	authorities  []string
	disabled     bool
}

// Store verifies credentials against a static user map.
type Store struct {
	users map[string]record
}

// Ensure Store implements gate.Authenticator at compile time.
var _ gate.Authenticator = (*Store)(nil)

// New creates an in-memory authenticator from a list of users.
// Passwords are hashed immediately. Later entries with a duplicate
// username replace earlier ones.
func New(users []User) *Store {
	s := &Store{users: make(map[string]record, len(users))}
	for _, u := range users {
		s.users[u.Username] = record{
			passwordHash: sha256.Sum256([]byte(u.Password)),
			authorities:  slices.Clone(u.Authorities),
			disabled:     u.Disabled,
		}
	}
	return s
}

// Authenticate verifies the username/password pair. The failure cause
// distinguishes unknown users, disabled accounts, and bad passwords for
// audit purposes; callers treat all three as one rejection.
func (s *Store) Authenticate(_ context.Context, username, password string) (*gate.Identity, error) {
	rec, ok := s.users[username]
	if !ok {
		return nil, gate.ErrUnknownUser
	}
	if rec.disabled {
		return nil, gate.ErrAccountDisabled
	}

	hash := sha256.Sum256([]byte(password))
	if subtle.ConstantTimeCompare(hash[:], rec.passwordHash[:]) != 1 {
		return nil, gate.ErrBadPassword
	}

	// Copy authorities to keep the stored slice immutable.
	return &gate.Identity{
		Username:    username,
		Authorities: slices.Clone(rec.authorities),
	}, nil
}
