// Command clip-courier is a Twitch chat bot that mirrors linked media
// inline. It:
//   - Watches one channel for Twitch clip links, Streamable links, social
//     status links, and direct .mkv attachments.
//   - Resolves clips through Helix plus the GQL quality listing and builds
//     signed playback URLs.
//   - Downloads media, re-encodes files that exceed the destination's size
//     ceiling, remuxes mkv attachments, and posts the result via webhook.
//   - Exposes a minimal HTTP server with /healthz, /status, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/clip-courier/chat"
	"github.com/onnwee/clip-courier/config"
	"github.com/onnwee/clip-courier/db"
	"github.com/onnwee/clip-courier/delivery"
	"github.com/onnwee/clip-courier/media"
	"github.com/onnwee/clip-courier/pipeline"
	"github.com/onnwee/clip-courier/server"
	"github.com/onnwee/clip-courier/streamable"
	"github.com/onnwee/clip-courier/telemetry"
	"github.com/onnwee/clip-courier/twitchapi"
)

func main() {
	// Load .env if present (local dev convenience; production uses real env)
	_ = godotenv.Load()

	initLogging()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateChatReady(); err != nil {
		slog.Error("chat config invalid", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateDeliveryReady(); err != nil {
		slog.Error("delivery config invalid", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry.Init()
	shutdownTracing, err := telemetry.InitTracing(ctx, "clip-courier", os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Error("tracing shutdown error", slog.Any("err", err))
		}
	}()

	// Optional run history; an empty DSN disables it entirely.
	var store *db.Store
	if cfg.DBDsn != "" {
		database, err := db.Connect(cfg.DBDsn)
		if err != nil {
			slog.Error("failed to open db", slog.Any("err", err))
			os.Exit(1)
		}
		defer database.Close()
		if err := db.Migrate(ctx, database); err != nil {
			slog.Error("migrations failed", slog.Any("err", err))
			os.Exit(1)
		}
		store = &db.Store{DB: database}
		go heartbeatLoop(ctx, store)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var twitchClient *twitchapi.Client
	if err := cfg.ValidateAPIReady(); err != nil {
		slog.Warn("twitch api credentials missing; clip links will be ignored", slog.Any("err", err))
	} else {
		twitchClient = &twitchapi.Client{
			Tokens: &twitchapi.TokenSource{
				ClientID:     cfg.TwitchClientID,
				ClientSecret: cfg.TwitchClientSecret,
				HTTPClient:   httpClient,
			},
			ClientID:   cfg.TwitchClientID,
			HTTPClient: httpClient,
		}
	}

	prober := &media.Prober{FFprobePath: cfg.FFprobePath, Format: cfg.ProbeFormat, Timeout: cfg.ProbeTimeout}
	webhook := &delivery.Webhook{URL: cfg.WebhookURL, HTTPClient: &http.Client{Timeout: cfg.UploadTimeout}}
	watcher := chat.New(cfg.TwitchBotUsername, cfg.TwitchIRCToken, cfg.TwitchChannel)
	limiter := pipeline.NewLimiter(cfg.MaxConcurrentRuns)

	pipe := &pipeline.Pipeline{
		Fetch:   &media.Fetcher{HTTPClient: &http.Client{Timeout: cfg.DownloadTimeout}, DataDir: cfg.DataDir},
		Shrink:  &media.Transcoder{FFmpegPath: cfg.FFmpegPath, Prober: prober, Timeout: cfg.TranscodeTimeout},
		Deliver: webhook,
		Notify:  watcher,
		History: store,
		Limiter: limiter,
		Tier:    media.Tier(cfg.BoostTier),
	}
	dispatcher := &pipeline.Dispatcher{
		Pipeline:   pipe,
		Twitch:     twitchClient,
		Streamable: &streamable.Client{HTTPClient: httpClient},
		Text:       webhook,
	}

	go func() {
		if err := server.Start(ctx, cfg.HTTPAddr, server.Deps{Store: store, Limiter: limiter, Started: time.Now()}); err != nil {
			slog.Error("http server exited", slog.Any("err", err))
		}
	}()

	slog.Info("joining chat",
		slog.String("channel", cfg.TwitchChannel),
		slog.Int("max_concurrent_runs", cfg.MaxConcurrentRuns))
	if err := watcher.Run(ctx, dispatcher.HandleMessage); err != nil {
		slog.Error("chat watcher exited", slog.Any("err", err))
	}
	dispatcher.Wait()
	slog.Info("shut down")
}

// initLogging configures level and format from LOG_LEVEL / LOG_FORMAT.
// Defaults: level=info, format=text.
func initLogging() {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
}

// heartbeatLoop records liveness into kv once a minute while the context
// lives.
func heartbeatLoop(ctx context.Context, store *db.Store) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		if err := store.Heartbeat(ctx, "clip-courier"); err != nil {
			slog.Warn("heartbeat failed", slog.Any("err", err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
