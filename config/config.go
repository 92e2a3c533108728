// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// For required credentials (chat, Twitch API, delivery) use the Validate helpers.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Twitch API (client credentials for Helix/GQL)
	TwitchClientID     string
	TwitchClientSecret string

	// Twitch chat (IRC)
	TwitchChannel     string
	TwitchBotUsername string
	TwitchIRCToken    string

	// Delivery
	WebhookURL string

	// Destination size-limit class (0..3); unknown values fall back to the
	// base ceiling at lookup time.
	BoostTier int

	// Storage
	DataDir string

	// Database (optional; empty disables run history)
	DBDsn string

	// HTTP surface
	HTTPAddr string

	// Bounded timeouts per external call. Download and upload get their own
	// (longer) budgets since artifacts run to tens of MiB.
	HTTPTimeout      time.Duration
	DownloadTimeout  time.Duration
	UploadTimeout    time.Duration
	ProbeTimeout     time.Duration
	TranscodeTimeout time.Duration

	// Pipeline concurrency ceiling
	MaxConcurrentRuns int

	// External media tools
	FFmpegPath  string
	FFprobePath string
	ProbeFormat string // json | plain
}

// Load reads environment variables and applies defaults. Missing optional
// variables disable features (run history, tracing) rather than failing.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.TwitchClientID = os.Getenv("TWITCH_CLIENT_ID")
	cfg.TwitchClientSecret = os.Getenv("TWITCH_CLIENT_SECRET")
	cfg.TwitchChannel = os.Getenv("TWITCH_CHANNEL")
	cfg.TwitchBotUsername = os.Getenv("TWITCH_BOT_USERNAME")
	cfg.TwitchIRCToken = os.Getenv("TWITCH_OAUTH_TOKEN")

	cfg.WebhookURL = os.Getenv("WEBHOOK_URL")

	cfg.BoostTier = intEnv("BOOST_TIER", 0)

	cfg.DataDir = os.Getenv("DATA_DIR")
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}

	cfg.DBDsn = os.Getenv("DB_DSN")

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	var err error
	if cfg.HTTPTimeout, err = durationEnv("HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.DownloadTimeout, err = durationEnv("DOWNLOAD_TIMEOUT", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.UploadTimeout, err = durationEnv("UPLOAD_TIMEOUT", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ProbeTimeout, err = durationEnv("PROBE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.TranscodeTimeout, err = durationEnv("TRANSCODE_TIMEOUT", 10*time.Minute); err != nil {
		return nil, err
	}

	cfg.MaxConcurrentRuns = intEnv("MAX_CONCURRENT_RUNS", 4)
	if cfg.MaxConcurrentRuns < 1 {
		cfg.MaxConcurrentRuns = 1
	}

	cfg.FFmpegPath = os.Getenv("FFMPEG_PATH")
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	cfg.FFprobePath = os.Getenv("FFPROBE_PATH")
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	cfg.ProbeFormat = os.Getenv("PROBE_FORMAT")
	if cfg.ProbeFormat == "" {
		cfg.ProbeFormat = "json"
	}

	return cfg, nil
}

// ValidateChatReady checks required fields for joining Twitch chat.
func (c *Config) ValidateChatReady() error {
	if c.TwitchChannel == "" || c.TwitchBotUsername == "" || c.TwitchIRCToken == "" {
		return fmt.Errorf("missing twitch env: require TWITCH_CHANNEL, TWITCH_BOT_USERNAME, TWITCH_OAUTH_TOKEN")
	}
	return nil
}

// ValidateAPIReady checks required fields for Helix/GQL clip resolution.
func (c *Config) ValidateAPIReady() error {
	if c.TwitchClientID == "" || c.TwitchClientSecret == "" {
		return fmt.Errorf("missing twitch env: require TWITCH_CLIENT_ID, TWITCH_CLIENT_SECRET")
	}
	return nil
}

// ValidateDeliveryReady checks the delivery endpoint is configured.
func (c *Config) ValidateDeliveryReady() error {
	if c.WebhookURL == "" {
		return fmt.Errorf("missing WEBHOOK_URL")
	}
	return nil
}

func intEnv(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
