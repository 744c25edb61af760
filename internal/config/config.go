package config

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultRequestTimeout bounds every outbound API call.
	DefaultRequestTimeout = 10 * time.Second

	// DefaultRefreshThreshold is how close to expiry a token must be
	// before a proactive refresh is attempted.
	DefaultRefreshThreshold = 10 * time.Minute
)

// Config holds the client configuration persisted in ~/.orgcli/config.yaml.
type Config struct {
	ServerURL        string        `yaml:"server_url"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	RefreshThreshold time.Duration `yaml:"refresh_threshold"`

	// DeviceID identifies this install to the captcha endpoint. Generated
	// once and kept for the lifetime of the config file.
	DeviceID string `yaml:"device_id"`

	baseDir string `yaml:"-"`
}

// Dir returns the directory holding the config and session files.
func (c *Config) Dir() string {
	return c.baseDir
}

// Load reads the config file from baseDir, creating it with defaults when
// absent. If baseDir is empty, uses ~/.orgcli/
func Load(baseDir string) (*Config, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".orgcli")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{baseDir: baseDir}

	configPath := filepath.Join(baseDir, "config.yaml")
	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		// First run, fall through to defaults.
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	changed := cfg.applyDefaults()

	if changed {
		if err := cfg.Save(); err != nil {
			return nil, err
		}
	}

	log.Debug().Str("baseDir", baseDir).Str("serverURL", cfg.ServerURL).Msg("config loaded")

	return cfg, nil
}

// Save writes the config file atomically.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(c.baseDir, "config.yaml")
	tempPath := configPath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// applyDefaults fills zero-valued fields and reports whether anything changed.
func (c *Config) applyDefaults() bool {
	changed := false

	if c.ServerURL == "" {
		c.ServerURL = "http://localhost:8080"
		changed = true
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
		changed = true
	}
	if c.RefreshThreshold <= 0 {
		c.RefreshThreshold = DefaultRefreshThreshold
		changed = true
	}
	if c.DeviceID == "" {
		c.DeviceID = newDeviceID()
		changed = true
	}

	return changed
}

// newDeviceID derives a stable opaque device identifier: a Base58-encoded
// SHA256 of a fresh UUID, so the raw UUID never leaves the machine.
func newDeviceID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		// uuid only fails when the platform RNG does; degrade to raw bytes.
		var b [16]byte
		_, _ = rand.Read(b[:])
		id = uuid.UUID(b)
	}
	hash := sha256.Sum256(id[:])
	return base58.Encode(hash[:])
}
