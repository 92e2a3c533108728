package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/onnwee/clip-courier/clip"
)

// Prober measures media duration via ffprobe.
type Prober struct {
	Runner      Runner
	FFprobePath string
	// Format selects the invocation mode: "json" emits a document with a
	// format.duration field, "plain" emits a bare decimal string. The parser
	// accepts either output regardless.
	Format  string
	Timeout time.Duration
}

func (p *Prober) runner() Runner {
	if p.Runner != nil {
		return p.Runner
	}
	return DefaultRunner
}

func (p *Prober) tool() string {
	if p.FFprobePath != "" {
		return p.FFprobePath
	}
	return "ffprobe"
}

// Duration probes the file and returns its duration in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	var args []string
	if p.Format == "plain" {
		args = []string{"-v", "quiet", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path}
	} else {
		args = []string{"-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", path}
	}
	out, err := p.runner().Output(ctx, p.tool(), args...)
	if err != nil {
		var exitErr *exec.ExitError
		diag := ""
		if errors.As(err, &exitErr) {
			diag = string(exitErr.Stderr)
		}
		return 0, &clip.TranscodeError{Op: "probe", Output: diag, Err: err}
	}
	d, err := parseProbeDuration(out)
	if err != nil {
		return 0, &clip.TranscodeError{Op: "probe", Output: string(out), Err: err}
	}
	return d, nil
}

// parseProbeDuration accepts either ffprobe output form: a JSON document
// carrying format.duration, or a bare decimal string.
func parseProbeDuration(out []byte) (float64, error) {
	s := strings.TrimSpace(string(out))
	if s == "" {
		return 0, errors.New("empty probe output")
	}
	if strings.HasPrefix(s, "{") {
		var doc struct {
			Format struct {
				Duration string `json:"duration"`
			} `json:"format"`
		}
		if err := json.Unmarshal([]byte(s), &doc); err != nil {
			return 0, fmt.Errorf("parse probe json: %w", err)
		}
		s = doc.Format.Duration
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse probe duration %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("probe reported non-positive duration %v", d)
	}
	return d, nil
}
