package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, EINLASS_CONFIG env, ./config.yaml, /etc/einlass/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. EINLASS_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/einlass/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("EINLASS_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/einlass/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EINLASS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("EINLASS_REALM"); v != "" {
		cfg.Auth.Realm = v
	}
	if v := os.Getenv("EINLASS_IGNORE_FAILURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Auth.IgnoreFailure = b
		}
	}
	if v := os.Getenv("EINLASS_AUTH_STORE"); v != "" {
		cfg.Auth.Store = v
	}
	if v := os.Getenv("EINLASS_POSTGRES_DSN"); v != "" {
		cfg.Auth.Postgres.DSN = v
	}
	if v := os.Getenv("EINLASS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("EINLASS_DEBUG"); v != "" {
		cfg.Logging.Debug = v
	}

	// EINLASS_USERS: JSON array of user configs.
	if v := os.Getenv("EINLASS_USERS"); v != "" {
		users, err := parseUsersJSON(v)
		if err == nil && len(users) > 0 {
			cfg.Auth.Users = users
		}
	}
}

// parseUsersJSON parses a JSON array of user configurations.
func parseUsersJSON(jsonStr string) ([]UserConfig, error) {
	var users []UserConfig
	if err := json.Unmarshal([]byte(jsonStr), &users); err != nil {
		return nil, fmt.Errorf("parsing users JSON: %w", err)
	}
	return users, nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// auth.postgres.dsn_file -> auth.postgres.dsn
	if cfg.Auth.Postgres.DSNFile != "" && cfg.Auth.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Auth.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("auth.postgres.dsn_file: %w", err)
		}
		cfg.Auth.Postgres.DSN = val
	}

	// auth.users[*].password_file -> auth.users[*].password
	for i := range cfg.Auth.Users {
		if cfg.Auth.Users[i].PasswordFile != "" && cfg.Auth.Users[i].Password == "" {
			val, err := readSecretFile(cfg.Auth.Users[i].PasswordFile)
			if err != nil {
				return fmt.Errorf("auth.users[%d].password_file: %w", i, err)
			}
			cfg.Auth.Users[i].Password = val
		}
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
