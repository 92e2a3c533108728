package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/onnwee/clip-courier/clip"
)

// Fetcher streams located media to local storage.
type Fetcher struct {
	HTTPClient *http.Client
	DataDir    string
}

func (f *Fetcher) http() *http.Client {
	if f.HTTPClient != nil {
		return f.HTTPClient
	}
	return http.DefaultClient
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Path returns the stable on-disk location for a given artifact filename.
// Names derive from the clip identifier, so repeated fetches of the same
// identifier overwrite rather than accumulate.
func (f *Fetcher) Path(filename string) string {
	return filepath.Join(f.DataDir, unsafeNameChars.ReplaceAllString(filename, "_"))
}

// Fetch performs a streaming GET and writes the body to DataDir/filename.
// The artifact size is measured from disk after the write completes, never
// trusted from a content-length header.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, filename string) (clip.Artifact, error) {
	if err := os.MkdirAll(f.DataDir, 0o755); err != nil {
		return clip.Artifact{}, fmt.Errorf("mkdir data dir: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return clip.Artifact{}, &clip.FetchError{Err: err}
	}
	resp, err := f.http().Do(req)
	if err != nil {
		return clip.Artifact{}, &clip.FetchError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return clip.Artifact{}, &clip.FetchError{Status: resp.Status, Body: string(b)}
	}

	path := f.Path(filename)
	out, err := os.Create(path)
	if err != nil {
		return clip.Artifact{}, &clip.FetchError{Err: err}
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(path)
		return clip.Artifact{}, &clip.FetchError{Err: err}
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return clip.Artifact{}, &clip.FetchError{Err: err}
	}
	st, err := os.Stat(path)
	if err != nil {
		return clip.Artifact{}, &clip.FetchError{Err: err}
	}
	return clip.Artifact{Path: path, Size: st.Size()}, nil
}
