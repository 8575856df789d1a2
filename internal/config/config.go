package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything the core needs, injected into adapters and
// executors instead of being read ambiently at call sites.
type Config struct {
	ArsenalBaseURL string
	PostSVBaseURL  string

	CredentialsFile string
	PreferencesFile string
	HistoryFile     string

	// DatabaseURL switches the history stores from JSON files to Postgres
	// when set. Empty is fine for CLI use.
	DatabaseURL string

	HTTPTimeout     time.Duration
	BrowserFallback bool

	// web server
	ListenAddr     string
	CookieHashKey  []byte
	CookieBlockKey []byte
}

func FromEnv() (Config, error) {
	cfg := Config{
		ArsenalBaseURL:  getenv("ARSENAL_BASE_URL", "https://reservierung.dasspiel.at"),
		PostSVBaseURL:   getenv("POSTSV_BASE_URL", "https://buchen.postsv-wien.at"),
		CredentialsFile: getenv("CREDENTIALS_FILE", "credentials.json"),
		PreferencesFile: getenv("PREFERENCES_FILE", "user_preferences.json"),
		HistoryFile:     getenv("BOOKING_HISTORY_FILE", "booking_history.json"),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ListenAddr:      getenv("LISTEN_ADDR", ":8080"),
		BrowserFallback: getenv("BROWSER_FALLBACK", "1") != "0",
	}

	timeoutSec, err := strconv.Atoi(getenv("HTTP_TIMEOUT_SECONDS", "10"))
	if err != nil || timeoutSec < 1 {
		return Config{}, fmt.Errorf("invalid HTTP_TIMEOUT_SECONDS")
	}
	cfg.HTTPTimeout = time.Duration(timeoutSec) * time.Second

	return cfg, nil
}

// LoadServerKeys decodes the securecookie key pair. Only the server command
// needs these; CLI commands never call it.
func (c *Config) LoadServerKeys() error {
	var err error
	c.CookieHashKey, err = mustB64("COOKIE_HASH_KEY")
	if err != nil {
		return err
	}
	c.CookieBlockKey, err = mustB64("COOKIE_BLOCK_KEY")
	return err
}

// RequireDatabase is called by commands that cannot run on the file stores.
func (c Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func mustB64(k string) ([]byte, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return nil, fmt.Errorf("%s is required (base64)", k)
	}
	if b, err := base64.StdEncoding.DecodeString(v); err == nil {
		return b, nil
	}
	b, err := base64.RawStdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}
