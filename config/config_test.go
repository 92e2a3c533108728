package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"DATA_DIR", "HTTP_ADDR", "HTTP_TIMEOUT", "DOWNLOAD_TIMEOUT", "UPLOAD_TIMEOUT", "MAX_CONCURRENT_RUNS", "FFMPEG_PATH", "PROBE_FORMAT", "BOOST_TIER"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir != "data" {
		t.Errorf("DataDir = %q, want data", cfg.DataDir)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want 30s", cfg.HTTPTimeout)
	}
	if cfg.DownloadTimeout != 5*time.Minute {
		t.Errorf("DownloadTimeout = %v, want 5m", cfg.DownloadTimeout)
	}
	if cfg.UploadTimeout != 5*time.Minute {
		t.Errorf("UploadTimeout = %v, want 5m", cfg.UploadTimeout)
	}
	if cfg.TranscodeTimeout != 10*time.Minute {
		t.Errorf("TranscodeTimeout = %v, want 10m", cfg.TranscodeTimeout)
	}
	if cfg.MaxConcurrentRuns != 4 {
		t.Errorf("MaxConcurrentRuns = %d, want 4", cfg.MaxConcurrentRuns)
	}
	if cfg.FFmpegPath != "ffmpeg" || cfg.FFprobePath != "ffprobe" {
		t.Errorf("tool paths = %q/%q, want ffmpeg/ffprobe", cfg.FFmpegPath, cfg.FFprobePath)
	}
	if cfg.ProbeFormat != "json" {
		t.Errorf("ProbeFormat = %q, want json", cfg.ProbeFormat)
	}
	if cfg.BoostTier != 0 {
		t.Errorf("BoostTier = %d, want 0", cfg.BoostTier)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BOOST_TIER", "2")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("DOWNLOAD_TIMEOUT", "2m")
	t.Setenv("UPLOAD_TIMEOUT", "90s")
	t.Setenv("MAX_CONCURRENT_RUNS", "0") // floored to 1
	t.Setenv("PROBE_FORMAT", "plain")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BoostTier != 2 {
		t.Errorf("BoostTier = %d, want 2", cfg.BoostTier)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("HTTPTimeout = %v, want 5s", cfg.HTTPTimeout)
	}
	if cfg.DownloadTimeout != 2*time.Minute {
		t.Errorf("DownloadTimeout = %v, want 2m", cfg.DownloadTimeout)
	}
	if cfg.UploadTimeout != 90*time.Second {
		t.Errorf("UploadTimeout = %v, want 90s", cfg.UploadTimeout)
	}
	if cfg.MaxConcurrentRuns != 1 {
		t.Errorf("MaxConcurrentRuns = %d, want 1", cfg.MaxConcurrentRuns)
	}
	if cfg.ProbeFormat != "plain" {
		t.Errorf("ProbeFormat = %q, want plain", cfg.ProbeFormat)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT", "not-a-duration")
	if _, err := Load(); err == nil {
		t.Error("Load() with invalid HTTP_TIMEOUT should return error")
	}
}

func TestValidateChatReady(t *testing.T) {
	cfg := &Config{TwitchChannel: "c", TwitchBotUsername: "b", TwitchIRCToken: "t"}
	if err := cfg.ValidateChatReady(); err != nil {
		t.Errorf("ValidateChatReady() = %v, want nil", err)
	}
	cfg.TwitchIRCToken = ""
	if err := cfg.ValidateChatReady(); err == nil {
		t.Error("ValidateChatReady() with missing token should return error")
	}
}
