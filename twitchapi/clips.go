package twitchapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/onnwee/clip-courier/clip"
)

const (
	helixClipsURL = "https://api.twitch.tv/helix/clips"
	gqlURL        = "https://gql.twitch.tv/gql"

	// Public web player client id; the playbackAccessToken field of the GQL
	// VideoQualities query is only served to this identity.
	gqlWebClientID = "kimne78kx3ncx6brgo4mv6wki5h1ko"

	maxDiagnosticBody = 1024
)

const videoQualitiesQuery = `
query VideoQualities($clipSlug: ID!) {
    clip(slug: $clipSlug) {
        durationSeconds
        videoQualities {
            quality
            frameRate
            sourceURL
        }
        playbackAccessToken(params: { disableHTTPS: false, hasAdblock: false, platform: "web", playerBackend: "mediaplayer", playerType: "video" }) {
            signature
            value
        }
    }
}
`

// Client resolves clip slugs against Helix and GQL using an app token.
type Client struct {
	Tokens     *TokenSource
	ClientID   string
	HTTPClient *http.Client
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// ResolveClip combines the Helix clip lookup (title, broadcaster) with the
// GQL VideoQualities query (duration, renditions, signed access pair). Both
// calls must succeed for a usable result. The access pair is transient: it
// feeds BuildMediaURL and is not part of the durable metadata.
func (c *Client) ResolveClip(ctx context.Context, slug string) (clip.Metadata, clip.AccessPair, error) {
	md := clip.Metadata{Slug: slug}

	title, broadcaster, err := c.lookupClip(ctx, slug)
	if err != nil {
		return clip.Metadata{}, clip.AccessPair{}, err
	}
	md.Title = title
	md.Broadcaster = broadcaster

	duration, renditions, pair, err := c.videoQualities(ctx, slug)
	if err != nil {
		return clip.Metadata{}, clip.AccessPair{}, err
	}
	if len(renditions) > 0 && duration <= 0 {
		return clip.Metadata{}, clip.AccessPair{}, &clip.UpstreamError{
			Op:  "video qualities",
			Err: fmt.Errorf("clip %s has renditions but no duration", slug),
		}
	}
	md.Duration = duration
	md.Renditions = renditions
	return md, pair, nil
}

// lookupClip is the Helix GET /clips call. An empty data array means the
// identifier has no record upstream.
func (c *Client) lookupClip(ctx context.Context, slug string) (title, broadcaster string, err error) {
	resp, err := c.doAuthed(ctx, func(token string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, helixClipsURL, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("id", slug)
		req.URL.RawQuery = q.Encode()
		req.Header.Set("Client-Id", c.ClientID)
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	})
	if err != nil {
		return "", "", err
	}
	defer closeBody(resp)
	if resp.StatusCode != http.StatusOK {
		return "", "", &clip.UpstreamError{Op: "clip lookup", Status: resp.Status, Body: readDiagnostic(resp.Body)}
	}
	var body struct {
		Data []struct {
			Title           string `json:"title"`
			BroadcasterName string `json:"broadcaster_name"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", &clip.UpstreamError{Op: "clip lookup", Err: err}
	}
	if len(body.Data) == 0 {
		return "", "", &clip.NotFoundError{Slug: slug}
	}
	return body.Data[0].Title, body.Data[0].BroadcasterName, nil
}

// videoQualities is the fixed-operation GQL call parameterized by the clip
// slug. Quality labels arrive as strings ("1080") and compare as integers.
func (c *Client) videoQualities(ctx context.Context, slug string) (float64, []clip.Rendition, clip.AccessPair, error) {
	payload, err := json.Marshal(map[string]any{
		"operationName": "VideoQualities",
		"variables":     map[string]string{"clipSlug": slug},
		"query":         videoQualitiesQuery,
	})
	if err != nil {
		return 0, nil, clip.AccessPair{}, err
	}
	resp, err := c.doAuthed(ctx, func(token string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, gqlURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Client-ID", gqlWebClientID)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return 0, nil, clip.AccessPair{}, err
	}
	defer closeBody(resp)
	if resp.StatusCode != http.StatusOK {
		return 0, nil, clip.AccessPair{}, &clip.UpstreamError{Op: "video qualities", Status: resp.Status, Body: readDiagnostic(resp.Body)}
	}
	var body struct {
		Data struct {
			Clip struct {
				DurationSeconds float64 `json:"durationSeconds"`
				VideoQualities  []struct {
					Quality   string  `json:"quality"`
					FrameRate float64 `json:"frameRate"`
					SourceURL string  `json:"sourceURL"`
				} `json:"videoQualities"`
				PlaybackAccessToken struct {
					Signature string `json:"signature"`
					Value     string `json:"value"`
				} `json:"playbackAccessToken"`
			} `json:"clip"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, nil, clip.AccessPair{}, &clip.UpstreamError{Op: "video qualities", Err: err}
	}
	cl := body.Data.Clip
	renditions := make([]clip.Rendition, 0, len(cl.VideoQualities))
	for _, q := range cl.VideoQualities {
		quality, err := strconv.Atoi(q.Quality)
		if err != nil {
			slog.Warn("skipping rendition with unparsable quality label",
				slog.String("slug", slug), slog.String("quality", q.Quality))
			continue
		}
		renditions = append(renditions, clip.Rendition{Quality: quality, FrameRate: q.FrameRate, SourceURL: q.SourceURL})
	}
	pair := clip.AccessPair{Signature: cl.PlaybackAccessToken.Signature, Value: cl.PlaybackAccessToken.Value}
	return cl.DurationSeconds, renditions, pair, nil
}

// doAuthed issues a request with a bearer token; a 401 triggers exactly one
// token reissue and retry.
func (c *Client) doAuthed(ctx context.Context, build func(token string) (*http.Request, error)) (*http.Response, error) {
	tok, err := c.Tokens.Get(ctx)
	if err != nil {
		return nil, err
	}
	req, err := build(tok)
	if err != nil {
		return nil, err
	}
	resp, err := c.http().Do(req)
	if err != nil {
		return nil, &clip.UpstreamError{Op: "twitch api", Err: err}
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	closeBody(resp)
	c.Tokens.Invalidate()
	if tok, err = c.Tokens.Get(ctx); err != nil {
		return nil, err
	}
	if req, err = build(tok); err != nil {
		return nil, err
	}
	resp, err = c.http().Do(req)
	if err != nil {
		return nil, &clip.UpstreamError{Op: "twitch api", Err: err}
	}
	return resp, nil
}

func readDiagnostic(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxDiagnosticBody))
	return string(b)
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		slog.Warn("failed to close response body", slog.Any("err", err))
	}
}
