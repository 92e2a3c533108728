package media

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/onnwee/clip-courier/clip"
)

// Transcoder re-encodes oversized artifacts to a bitrate derived from the
// size budget, and remuxes artifacts that only need container normalization.
type Transcoder struct {
	Runner     Runner
	FFmpegPath string
	Prober     *Prober
	Timeout    time.Duration
}

func (t *Transcoder) runner() Runner {
	if t.Runner != nil {
		return t.Runner
	}
	return DefaultRunner
}

func (t *Transcoder) tool() string {
	if t.FFmpegPath != "" {
		return t.FFmpegPath
	}
	return "ffmpeg"
}

// TargetBitrateMbps computes the video bitrate (megabits/second) that fits
// budgetBytes over durationSeconds. Audio and container overhead are ignored,
// so output may exceed the budget by a small margin; that is accepted, not
// corrected.
func TargetBitrateMbps(budgetBytes int64, durationSeconds float64) float64 {
	return 8 * (float64(budgetBytes) / float64(MiB)) / durationSeconds
}

// Shrink probes the artifact's duration, derives a target bitrate from the
// budget, and re-encodes the video stream into a new container next to the
// original. On failure no replacement artifact exists.
func (t *Transcoder) Shrink(ctx context.Context, art clip.Artifact, budgetBytes int64) (clip.Artifact, error) {
	duration, err := t.Prober.Duration(ctx, art.Path)
	if err != nil {
		return clip.Artifact{}, err
	}
	bitrate := TargetBitrateMbps(budgetBytes, duration)
	out := art.Path + ".transcode.mp4"
	args := []string{"-y", "-i", art.Path, "-c:v", "libx264", "-b:v", fmt.Sprintf("%.3fM", bitrate), out}
	if err := t.run(ctx, "encode", out, args); err != nil {
		return clip.Artifact{}, err
	}
	return t.artifactAt(out, duration)
}

// Repackage rewrites the container with all streams copied (no re-encode),
// for artifacts that need format normalization rather than size reduction.
func (t *Transcoder) Repackage(ctx context.Context, art clip.Artifact) (clip.Artifact, error) {
	out := art.Path + ".transcode.mp4"
	args := []string{"-y", "-i", art.Path, "-c", "copy", out}
	if err := t.run(ctx, "repackage", out, args); err != nil {
		return clip.Artifact{}, err
	}
	return t.artifactAt(out, art.Duration)
}

func (t *Transcoder) run(ctx context.Context, op, out string, args []string) error {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}
	combined, err := t.runner().Combined(ctx, t.tool(), args...)
	if err != nil {
		os.Remove(out)
		return &clip.TranscodeError{Op: op, Output: string(combined), Err: err}
	}
	return nil
}

func (t *Transcoder) artifactAt(path string, duration float64) (clip.Artifact, error) {
	st, err := os.Stat(path)
	if err != nil {
		return clip.Artifact{}, &clip.TranscodeError{Op: "encode", Err: fmt.Errorf("output missing: %w", err)}
	}
	return clip.Artifact{Path: path, Size: st.Size(), Duration: duration}, nil
}
