// Package pipeline sequences one mirror run: resolve a link to a media URL,
// fetch the file, shrink or remux it when needed, deliver it, and leave no
// files behind regardless of outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/clip-courier/clip"
	"github.com/onnwee/clip-courier/media"
	"github.com/onnwee/clip-courier/telemetry"
)

// Fetcher downloads a media URL into the working directory.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, filename string) (clip.Artifact, error)
}

// Shrinker re-encodes oversized artifacts and remuxes normalization-only ones.
type Shrinker interface {
	Shrink(ctx context.Context, art clip.Artifact, budgetBytes int64) (clip.Artifact, error)
	Repackage(ctx context.Context, art clip.Artifact) (clip.Artifact, error)
}

// Deliverer posts the finished artifact with its caption.
type Deliverer interface {
	DeliverFile(ctx context.Context, caption, path string) error
}

// Notifier sends short status lines back to the originating chat. May be nil.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// RunRecord is the persisted outcome of one run.
type RunRecord struct {
	ID         string
	Kind       string
	Identifier string
	Stage      string // empty on success
	Error      string
	Size       int64
	Elapsed    time.Duration
}

// History records run outcomes. May be nil; recording is best-effort.
type History interface {
	RecordRun(ctx context.Context, rec RunRecord)
}

// Pipeline owns the stage implementations for mirror runs.
type Pipeline struct {
	Fetch   Fetcher
	Shrink  Shrinker
	Deliver Deliverer
	Notify  Notifier
	History History
	Limiter *Limiter
	Tier    media.Tier
}

// Run executes one mirror run for src. Every file the run creates is removed
// before it returns; on the success path exactly one artifact exists at the
// moment of delivery.
func (p *Pipeline) Run(ctx context.Context, src Source) error {
	telemetry.Init()
	runID := uuid.NewString()
	ctx = telemetry.WithCorrelation(ctx, runID)
	log := telemetry.LoggerWithCorr(ctx).With(
		slog.String("kind", src.Kind()),
		slog.String("id", src.Identifier()),
	)

	telemetry.RunsStarted.Inc()
	telemetry.ActiveRunsGauge.Inc()
	defer telemetry.ActiveRunsGauge.Dec()
	ctx, span := telemetry.StartSpan(ctx, "pipeline.run")
	defer span.End()
	started := time.Now()
	defer func() { telemetry.RunDuration.Observe(time.Since(started).Seconds()) }()

	size, err := p.run(ctx, src, log)
	elapsed := time.Since(started)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Ordinary shutdown path; no chat notice for it.
			telemetry.RecordFailure("canceled")
			log.Info("run canceled", slog.Duration("elapsed", elapsed))
			p.record(ctx, RunRecord{ID: runID, Kind: src.Kind(), Identifier: src.Identifier(), Stage: "canceled", Error: err.Error(), Elapsed: elapsed})
			return err
		}
		stage := clip.Stage(err)
		telemetry.RecordFailure(stage)
		telemetry.RecordError(span, err)
		log.Error("run failed", slog.String("stage", stage), slog.String("error", err.Error()))
		p.notify(ctx, fmt.Sprintf("could not mirror %s (%s failed)", src.Identifier(), stage))
		p.record(ctx, RunRecord{ID: runID, Kind: src.Kind(), Identifier: src.Identifier(), Stage: stage, Error: err.Error(), Elapsed: elapsed})
		return err
	}
	telemetry.RunsDelivered.Inc()
	telemetry.SetSpanSuccess(span)
	log.Info("run delivered", slog.Int64("bytes", size), slog.Duration("elapsed", elapsed))
	p.record(ctx, RunRecord{ID: runID, Kind: src.Kind(), Identifier: src.Identifier(), Size: size, Elapsed: elapsed})
	return nil
}

func (p *Pipeline) run(ctx context.Context, src Source, log *slog.Logger) (int64, error) {
	resolved, err := src.Resolve(ctx)
	if err != nil {
		return 0, err
	}
	log.Info("resolved", slog.String("file", resolved.Filename))

	if p.Limiter != nil {
		if !p.Limiter.Acquire(ctx) {
			return 0, ctx.Err()
		}
		defer p.Limiter.Release()
	}

	var produced []string
	defer func() {
		for _, path := range produced {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				log.Warn("cleanup failed", slog.String("path", path), slog.String("error", err.Error()))
			}
		}
	}()

	var art clip.Artifact
	telemetry.TimeFunc(telemetry.FetchDuration, func() {
		art, err = p.Fetch.Fetch(ctx, resolved.MediaURL, resolved.Filename)
	})
	if err != nil {
		return 0, err
	}
	produced = append(produced, art.Path)
	log.Info("fetched", slog.Int64("bytes", art.Size))

	budget := media.BudgetFor(p.Tier)
	switch {
	case art.Size > budget:
		p.notify(ctx, fmt.Sprintf("%s is %.1f MiB, shrinking to fit %d MiB", src.Identifier(), float64(art.Size)/float64(media.MiB), budget/media.MiB))
		var shrunk clip.Artifact
		telemetry.TimeFunc(telemetry.TranscodeDuration, func() {
			shrunk, err = p.Shrink.Shrink(ctx, art, budget)
		})
		if err != nil {
			return 0, err
		}
		telemetry.Transcodes.Inc()
		produced = append(produced, shrunk.Path)
		os.Remove(art.Path)
		art = shrunk
		log.Info("shrunk", slog.Int64("bytes", art.Size))
	case resolved.Normalize:
		repacked, err := p.Shrink.Repackage(ctx, art)
		if err != nil {
			return 0, err
		}
		telemetry.Repackages.Inc()
		produced = append(produced, repacked.Path)
		os.Remove(art.Path)
		art = repacked
		log.Info("repackaged", slog.Int64("bytes", art.Size))
	}

	if err := p.Deliver.DeliverFile(ctx, resolved.Caption, art.Path); err != nil {
		return 0, err
	}
	return art.Size, nil
}

func (p *Pipeline) notify(ctx context.Context, text string) {
	if p.Notify != nil {
		p.Notify.Notify(ctx, text)
	}
}

func (p *Pipeline) record(ctx context.Context, rec RunRecord) {
	if p.History != nil {
		// Outcomes of canceled runs still get recorded, so detach from the
		// (possibly dead) run context.
		p.History.RecordRun(context.WithoutCancel(ctx), rec)
	}
}
