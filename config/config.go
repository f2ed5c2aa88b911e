package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the client persists between runs: where the
// backend lives, display tuning, and the saved login and Gemini key.
type Config struct {
	BackendURL            string `json:"backend_url"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
	TypingIndicatorMS     int    `json:"typing_indicator_ms"`
	HistoryPageSize       int    `json:"history_page_size"`
	ExportDir             string `json:"export_dir"`
	Debug                 bool   `json:"debug"`

	// Saved session. The token is a bearer JWT; the Gemini key is only
	// stored here for anonymous users, logged-in users keep it
	// server-side.
	AuthToken    string `json:"auth_token,omitempty"`
	UserName     string `json:"user_name,omitempty"`
	UserEmail    string `json:"user_email,omitempty"`
	GeminiAPIKey string `json:"gemini_api_key,omitempty"`

	// LastSessionID lets a new run resume the previous consultation.
	LastSessionID string `json:"last_session_id,omitempty"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()
	cfg := DefaultConfigWithRoot(currentDir)

	// Load environment variables from .env file
	_ = godotenv.Load()
	cfg.loadFromEnv()

	return cfg
}

// DefaultConfigWithRoot returns the defaults with all paths rooted
// under dir. No environment is consulted.
func DefaultConfigWithRoot(dir string) *Config {
	return &Config{
		BackendURL:            "http://localhost:5000/api",
		RequestTimeoutSeconds: 30,
		TypingIndicatorMS:     500,
		HistoryPageSize:       20,
		ExportDir:             filepath.Join(dir, "prescriptions"),
	}
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("DOCONGO_BACKEND_URL"); val != "" {
		c.BackendURL = val
	}
	if val := os.Getenv("DOCONGO_EXPORT_DIR"); val != "" {
		c.ExportDir = val
	}
	if val := os.Getenv("DOCONGO_AUTH_TOKEN"); val != "" {
		c.AuthToken = val
	}
	if val := os.Getenv("GEMINI_API_KEY"); val != "" {
		c.GeminiAPIKey = val
	}

	if val := os.Getenv("DOCONGO_REQUEST_TIMEOUT"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.RequestTimeoutSeconds = v
		}
	}
	if val := os.Getenv("DOCONGO_TYPING_INDICATOR_MS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.TypingIndicatorMS = v
		}
	}
	if val := os.Getenv("DOCONGO_HISTORY_PAGE_SIZE"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.HistoryPageSize = v
		}
	}
	if val := os.Getenv("DOCONGO_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.BackendURL) == "" {
		return fmt.Errorf("backend_url must not be empty")
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request_timeout_seconds must be positive, got %d", c.RequestTimeoutSeconds)
	}
	if c.TypingIndicatorMS < 0 {
		return fmt.Errorf("typing_indicator_ms must not be negative, got %d", c.TypingIndicatorMS)
	}
	if c.HistoryPageSize <= 0 {
		return fmt.Errorf("history_page_size must be positive, got %d", c.HistoryPageSize)
	}
	return nil
}

// RequestTimeout returns the configured HTTP timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// TypingDelay returns how long a reply may be pending before the
// typing indicator appears.
func (c *Config) TypingDelay() time.Duration {
	return time.Duration(c.TypingIndicatorMS) * time.Millisecond
}

func (c *Config) EnsureDirectories() error {
	path := strings.TrimSpace(c.ExportDir)
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}
