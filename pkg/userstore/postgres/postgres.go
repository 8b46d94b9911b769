// Package postgres provides a PostgreSQL-backed implementation of
// gate.Authenticator. It uses pgx/v5 for connection pooling and stores
// passwords as SHA-256 digests compared in constant time.
package postgres

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/einlass-dev/einlass/pkg/debug"
	"github.com/einlass-dev/einlass/pkg/gate"
)

// ErrDuplicateUser is returned by CreateUser for an existing username.
var ErrDuplicateUser = errors.New("user already exists")

// User is the input format for account provisioning.
type User struct {
	Username    string
	Password    string
	Authorities []string
	Disabled    bool
}

// Store is a PostgreSQL-backed authenticator.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements gate.Authenticator at compile time.
var _ gate.Authenticator = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Authenticate looks up the account and verifies the password digest.
// Failure causes carry the unknown/disabled/bad-password distinction for
// audit; the gate treats them all as one rejection.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*gate.Identity, error) {
	debug.Log("store", "looking up user", "username", username)

	var (
		storedDigest string
		authorities  []string
		disabled     bool
	)
	err := s.pool.QueryRow(ctx,
		`SELECT password_sha256, authorities, disabled FROM users WHERE username = $1`,
		username,
	).Scan(&storedDigest, &authorities, &disabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, gate.ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	if disabled {
		return nil, gate.ErrAccountDisabled
	}

	digest := hashPassword(password)
	if subtle.ConstantTimeCompare([]byte(digest), []byte(storedDigest)) != 1 {
		return nil, gate.ErrBadPassword
	}

	return &gate.Identity{Username: username, Authorities: authorities}, nil
}

// CreateUser provisions an account. The plaintext password is hashed
// before it reaches the database.
func (s *Store) CreateUser(ctx context.Context, u User) error {
	authorities := u.Authorities
	if authorities == nil {
		authorities = []string{}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (username, password_sha256, authorities, disabled) VALUES ($1, $2, $3, $4)`,
		u.Username, hashPassword(u.Password), authorities, u.Disabled,
	)
	if isDuplicateKey(err) {
		return ErrDuplicateUser
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// SetDisabled flips the account's disabled flag.
func (s *Store) SetDisabled(ctx context.Context, username string, disabled bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET disabled = $2 WHERE username = $1`,
		username, disabled,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return gate.ErrUnknownUser
	}
	return nil
}

// hashPassword returns the hex-encoded SHA-256 digest of the password.
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
