package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	// auth.store must be a known value.
	switch c.Auth.Store {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.store must be \"memory\" or \"postgres\", got %q", c.Auth.Store))
	}

	// The memory store needs at least one account to be of any use.
	if c.Auth.Store == "memory" && len(c.Auth.Users) == 0 {
		errs = append(errs, fmt.Errorf("auth.users must list at least one user when auth.store is \"memory\""))
	}

	// If auth.store is "postgres", DSN or DSNFile must be set.
	if c.Auth.Store == "postgres" {
		if c.Auth.Postgres.DSN == "" && c.Auth.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("auth.postgres.dsn or auth.postgres.dsn_file is required when auth.store is \"postgres\""))
		}
	}

	// Every memory-store user needs a username and a password source.
	seen := make(map[string]bool, len(c.Auth.Users))
	for i, u := range c.Auth.Users {
		if u.Username == "" {
			errs = append(errs, fmt.Errorf("auth.users[%d].username is required", i))
			continue
		}
		if u.Password == "" && u.PasswordFile == "" {
			errs = append(errs, fmt.Errorf("auth.users[%d].password or password_file is required", i))
		}
		if seen[u.Username] {
			errs = append(errs, fmt.Errorf("auth.users[%d]: duplicate username %q", i, u.Username))
		}
		seen[u.Username] = true
	}

	return errors.Join(errs...)
}
