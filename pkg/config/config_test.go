package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("default server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("default server.read_timeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 60*time.Second {
		t.Errorf("default server.write_timeout = %v, want 60s", cfg.Server.WriteTimeout)
	}
	if cfg.Auth.Realm != "einlass" {
		t.Errorf("default auth.realm = %q, want \"einlass\"", cfg.Auth.Realm)
	}
	if cfg.Auth.IgnoreFailure {
		t.Error("default auth.ignore_failure should be false")
	}
	if cfg.Auth.Store != "memory" {
		t.Errorf("default auth.store = %q, want \"memory\"", cfg.Auth.Store)
	}
	if cfg.Auth.Postgres.MaxConns != 10 {
		t.Errorf("default auth.postgres.max_conns = %d, want 10", cfg.Auth.Postgres.MaxConns)
	}
	if !cfg.Observability.Metrics.Enabled {
		t.Error("default observability.metrics.enabled should be true")
	}
	if cfg.Observability.Metrics.Path != "/metrics" {
		t.Errorf("default metrics path = %q, want \"/metrics\"", cfg.Observability.Metrics.Path)
	}
}

func TestLoadFromYAML(t *testing.T) {
	yamlContent := `
server:
  port: 9090
  read_timeout: 60s
  write_timeout: 180s
auth:
  realm: "staging"
  ignore_failure: true
  store: memory
  users:
    - username: rod
      password: koala
      authorities: [ROLE_ONE, ROLE_TWO]
    - username: peter
      password: opal
      disabled: true
logging:
  level: DEBUG
  debug: gate,store
observability:
  metrics:
    enabled: true
    path: /internal/metrics
`

	tmpFile := writeTemp(t, "config-*.yaml", yamlContent)

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Server
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("server.read_timeout = %v, want 60s", cfg.Server.ReadTimeout)
	}

	// Auth
	if cfg.Auth.Realm != "staging" {
		t.Errorf("auth.realm = %q, want \"staging\"", cfg.Auth.Realm)
	}
	if !cfg.Auth.IgnoreFailure {
		t.Error("auth.ignore_failure should be true")
	}
	if len(cfg.Auth.Users) != 2 {
		t.Fatalf("len(auth.users) = %d, want 2", len(cfg.Auth.Users))
	}
	if cfg.Auth.Users[0].Username != "rod" || cfg.Auth.Users[0].Password != "koala" {
		t.Errorf("users[0] = %+v, want rod/koala", cfg.Auth.Users[0])
	}
	if len(cfg.Auth.Users[0].Authorities) != 2 {
		t.Errorf("users[0].authorities = %v, want two entries", cfg.Auth.Users[0].Authorities)
	}
	if !cfg.Auth.Users[1].Disabled {
		t.Error("users[1].disabled should be true")
	}

	// Logging
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("logging.level = %q, want DEBUG", cfg.Logging.Level)
	}
	if cfg.Logging.Debug != "gate,store" {
		t.Errorf("logging.debug = %q, want \"gate,store\"", cfg.Logging.Debug)
	}

	// Observability
	if cfg.Observability.Metrics.Path != "/internal/metrics" {
		t.Errorf("metrics path = %q, want \"/internal/metrics\"", cfg.Observability.Metrics.Path)
	}
}

func TestEnvOverrides(t *testing.T) {
	tmpFile := writeTemp(t, "config-*.yaml", `
auth:
  users:
    - username: rod
      password: koala
`)

	t.Setenv("EINLASS_PORT", "7070")
	t.Setenv("EINLASS_REALM", "from-env")
	t.Setenv("EINLASS_IGNORE_FAILURE", "true")

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("server.port = %d, want 7070 (env override)", cfg.Server.Port)
	}
	if cfg.Auth.Realm != "from-env" {
		t.Errorf("auth.realm = %q, want \"from-env\"", cfg.Auth.Realm)
	}
	if !cfg.Auth.IgnoreFailure {
		t.Error("auth.ignore_failure should be true (env override)")
	}
}

func TestUsersFromEnvJSON(t *testing.T) {
	t.Setenv("EINLASS_USERS", `[{"username":"rod","password":"koala","authorities":["ROLE_ONE"]}]`)

	cfg, err := Load(writeTemp(t, "config-*.yaml", "{}"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(cfg.Auth.Users) != 1 || cfg.Auth.Users[0].Username != "rod" {
		t.Errorf("auth.users = %+v, want rod from env JSON", cfg.Auth.Users)
	}
}

func TestPasswordFileResolution(t *testing.T) {
	dir := t.TempDir()
	secretPath := filepath.Join(dir, "password")
	if err := os.WriteFile(secretPath, []byte("koala\n"), 0o600); err != nil {
		t.Fatalf("writing secret file: %v", err)
	}

	tmpFile := writeTemp(t, "config-*.yaml", `
auth:
  users:
    - username: rod
      password_file: `+secretPath+`
`)

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Auth.Users[0].Password != "koala" {
		t.Errorf("resolved password = %q, want \"koala\" (trimmed)", cfg.Auth.Users[0].Password)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantSub: "server.port",
		},
		{
			name:    "unknown store",
			mutate:  func(c *Config) { c.Auth.Store = "ldap" },
			wantSub: "auth.store",
		},
		{
			name:    "memory store without users",
			mutate:  func(c *Config) { c.Auth.Users = nil },
			wantSub: "at least one user",
		},
		{
			name: "postgres store without dsn",
			mutate: func(c *Config) {
				c.Auth.Store = "postgres"
				c.Auth.Postgres.DSN = ""
			},
			wantSub: "auth.postgres.dsn",
		},
		{
			name: "user without username",
			mutate: func(c *Config) {
				c.Auth.Users = []UserConfig{{Password: "koala"}}
			},
			wantSub: "username is required",
		},
		{
			name: "user without password",
			mutate: func(c *Config) {
				c.Auth.Users = []UserConfig{{Username: "rod"}}
			},
			wantSub: "password or password_file",
		},
		{
			name: "duplicate username",
			mutate: func(c *Config) {
				c.Auth.Users = []UserConfig{
					{Username: "rod", Password: "a"},
					{Username: "rod", Password: "b"},
				}
			},
			wantSub: "duplicate username",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Auth.Users = []UserConfig{{Username: "rod", Password: "koala"}}
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error = %q, want substring %q", err, tt.wantSub)
			}
		})
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := Defaults()
	cfg.Auth.Users = []UserConfig{{Username: "rod", Password: "koala"}}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

// writeTemp writes content to a temp file and returns its path.
func writeTemp(t *testing.T, pattern, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), pattern)
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing temp file: %v", err)
	}
	return f.Name()
}
