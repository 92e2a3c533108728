// Package streamable resolves streamable.com slugs to direct mp4 URLs via the
// public videos API (no auth required).
package streamable

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/onnwee/clip-courier/clip"
)

const apiURL = "https://api.streamable.com/videos/"

type Client struct {
	HTTPClient *http.Client
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// ResolveVideo looks up a video by slug and returns its title and the direct
// mp4 URL.
func (c *Client) ResolveVideo(ctx context.Context, slug string) (title, mediaURL string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+slug, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := c.http().Do(req)
	if err != nil {
		return "", "", &clip.UpstreamError{Op: "streamable lookup", Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode == http.StatusNotFound {
		return "", "", &clip.NotFoundError{Slug: slug}
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", "", &clip.UpstreamError{Op: "streamable lookup", Status: resp.Status, Body: string(b)}
	}
	var body struct {
		Title string `json:"title"`
		Files struct {
			MP4 struct {
				URL string `json:"url"`
			} `json:"mp4"`
		} `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", &clip.UpstreamError{Op: "streamable lookup", Err: err}
	}
	if body.Files.MP4.URL == "" {
		return "", "", &clip.LocationError{Reason: "no mp4 file for streamable video"}
	}
	return body.Title, body.Files.MP4.URL, nil
}
