package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the root configuration for planpilot, stored in
// ~/.planpilot/config.json. The file supports single-line // comments for
// documentation purposes.
type Config struct {
	API APIConfig `json:"api"`
}

// APIConfig holds planner backend connection settings.
type APIConfig struct {
	// BaseURL is the backend root, without a trailing slash.
	BaseURL string `json:"base_url"`
	// TimeoutSeconds is the per-request HTTP timeout. 0 disables it.
	TimeoutSeconds int `json:"timeout_seconds"`
}

const (
	// DefaultBaseURL is the hosted backend used when nothing is configured.
	DefaultBaseURL = "https://planner-api.fly.dev"
	// DefaultTimeoutSeconds is the per-request timeout applied by default.
	DefaultTimeoutSeconds = 15
	// EnvBaseURL, when set, overrides the configured base URL. It is the
	// deploy-time override knob.
	EnvBaseURL = "PLANPILOT_API_URL"
)

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:        DefaultBaseURL,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
	}
}

// configTemplate is the annotated config written on first run. Lines whose
// trimmed content starts with // are stripped before JSON parsing, allowing
// human-readable documentation inside the file.
const configTemplate = `// planpilot configuration – ~/.planpilot/config.json
//
// All settings are optional; the built-in defaults shown below work out of
// the box. Edit this file to point planpilot at another backend.
{
  "api": {
    // Planner backend root URL, no trailing slash.
    // Can also be overridden with the PLANPILOT_API_URL environment variable.
    "base_url": "https://planner-api.fly.dev",

    // Per-request HTTP timeout in seconds. 0 disables the timeout.
    "timeout_seconds": 15
  }
}
`

// BaseDir returns the planpilot data directory (~/.planpilot), creating it
// if needed.
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".planpilot")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	return dir, nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not
// stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads the config file under dir, creating it with annotated defaults
// on first run, and applies the environment override.
func Load(dir string) (Config, error) {
	path := filepath.Join(dir, "config.json")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := os.WriteFile(path, []byte(configTemplate), 0o600); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		return applyEnv(defaultConfig()), nil
	}
	if err != nil {
		return applyEnv(defaultConfig()), fmt.Errorf("reading config file %s: %w", path, err)
	}

	cleaned := stripLineComments(data)
	var cfg Config
	if err := json.Unmarshal(cleaned, &cfg); err != nil {
		return applyEnv(defaultConfig()), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	// Fill zero-value fields so callers always get a usable Config even if
	// the user only partially fills in the file.
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	if cfg.API.TimeoutSeconds == 0 {
		cfg.API.TimeoutSeconds = DefaultTimeoutSeconds
	}
	return applyEnv(cfg), nil
}

func applyEnv(cfg Config) Config {
	if url := os.Getenv(EnvBaseURL); url != "" {
		cfg.API.BaseURL = url
	}
	return cfg
}
