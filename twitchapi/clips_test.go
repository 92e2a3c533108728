package twitchapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onnwee/clip-courier/clip"
)

func seededTokenSource(token string) *TokenSource {
	ts := &TokenSource{ClientID: "test-client-id", ClientSecret: "test-secret"}
	ts.token = token
	ts.expiresAt = time.Now().Add(time.Hour)
	return ts
}

func clipClient(serverURL string, ts *TokenSource) *Client {
	hc := &http.Client{Transport: &rewriteTransport{host: serverURL}}
	if ts.HTTPClient == nil {
		ts.HTTPClient = hc
	}
	return &Client{Tokens: ts, ClientID: "test-client-id", HTTPClient: hc}
}

func gqlResponse(duration float64, qualities []map[string]any, sig, value string) map[string]any {
	clipBody := map[string]any{
		"durationSeconds": duration,
		"videoQualities":  qualities,
	}
	if sig != "" || value != "" {
		clipBody["playbackAccessToken"] = map[string]string{"signature": sig, "value": value}
	}
	return map[string]any{"data": map[string]any{"clip": clipBody}}
}

func TestClient_ResolveClip(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/helix/clips", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "abc123" {
			t.Errorf("clip id query = %s, want abc123", r.URL.Query().Get("id"))
		}
		if r.Header.Get("Client-Id") != "test-client-id" {
			t.Errorf("missing or wrong Client-Id header")
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("missing or wrong Authorization header")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"title": "big play", "broadcaster_name": "streamer"}},
		})
	})
	mux.HandleFunc("/gql", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Client-ID") != gqlWebClientID {
			t.Errorf("gql Client-ID = %s, want web client id", r.Header.Get("Client-ID"))
		}
		var body struct {
			OperationName string            `json:"operationName"`
			Variables     map[string]string `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode gql body: %v", err)
		}
		if body.OperationName != "VideoQualities" || body.Variables["clipSlug"] != "abc123" {
			t.Errorf("gql body = %+v, want VideoQualities for abc123", body)
		}
		json.NewEncoder(w).Encode(gqlResponse(12.0, []map[string]any{
			{"quality": "480", "frameRate": 30.0, "sourceURL": "https://cdn.example/480.mp4"},
			{"quality": "1080", "frameRate": 60.0, "sourceURL": "https://cdn.example/1080.mp4"},
		}, "sig-1", "token-value"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := clipClient(server.URL, seededTokenSource("test-token"))
	md, pair, err := c.ResolveClip(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("ResolveClip() error = %v", err)
	}
	if md.Title != "big play" || md.Broadcaster != "streamer" {
		t.Errorf("metadata = %+v, want title/broadcaster from helix", md)
	}
	if md.Duration != 12.0 {
		t.Errorf("Duration = %v, want 12.0", md.Duration)
	}
	if len(md.Renditions) != 2 || md.Renditions[0].Quality != 480 || md.Renditions[1].Quality != 1080 {
		t.Errorf("Renditions = %+v, want parsed 480/1080 in listing order", md.Renditions)
	}
	if pair.Signature != "sig-1" || pair.Value != "token-value" {
		t.Errorf("AccessPair = %+v, want sig-1/token-value", pair)
	}
}

func TestClient_ResolveClipNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/helix/clips", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]string{}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := clipClient(server.URL, seededTokenSource("test-token"))
	_, _, err := c.ResolveClip(context.Background(), "missing")
	var nf *clip.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("ResolveClip() error = %v, want *clip.NotFoundError", err)
	}
	if nf.Slug != "missing" {
		t.Errorf("NotFoundError.Slug = %s, want missing", nf.Slug)
	}
}

func TestClient_ResolveClipUpstreamError(t *testing.T) {
	tests := []struct {
		name   string
		helix  http.HandlerFunc
		gql    http.HandlerFunc
		wantOp string
	}{
		{
			name: "helix server error",
			helix: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("helix exploded"))
			},
			wantOp: "clip lookup",
		},
		{
			name: "gql server error",
			helix: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"data": []map[string]string{{"title": "x", "broadcaster_name": "y"}}})
			},
			gql: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte("gql exploded"))
			},
			wantOp: "video qualities",
		},
		{
			name: "gql malformed payload",
			helix: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"data": []map[string]string{{"title": "x", "broadcaster_name": "y"}}})
			},
			gql: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("{not json"))
			},
			wantOp: "video qualities",
		},
		{
			name: "renditions without duration",
			helix: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"data": []map[string]string{{"title": "x", "broadcaster_name": "y"}}})
			},
			gql: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(gqlResponse(0, []map[string]any{
					{"quality": "720", "frameRate": 30.0, "sourceURL": "https://cdn.example/720.mp4"},
				}, "s", "v"))
			},
			wantOp: "video qualities",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/helix/clips", tt.helix)
			if tt.gql != nil {
				mux.HandleFunc("/gql", tt.gql)
			}
			server := httptest.NewServer(mux)
			defer server.Close()

			c := clipClient(server.URL, seededTokenSource("test-token"))
			_, _, err := c.ResolveClip(context.Background(), "abc123")
			var ue *clip.UpstreamError
			if !errors.As(err, &ue) {
				t.Fatalf("ResolveClip() error = %v, want *clip.UpstreamError", err)
			}
			if ue.Op != tt.wantOp {
				t.Errorf("UpstreamError.Op = %s, want %s", ue.Op, tt.wantOp)
			}
		})
	}
}

type failingTransport struct {
	err error
}

func (ft *failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, ft.err
}

func TestClient_ResolveClipTransportFailure(t *testing.T) {
	// A timed-out or refused request must classify as the resolve stage,
	// not fall through as an internal error.
	ts := seededTokenSource("test-token")
	ts.HTTPClient = &http.Client{Transport: &failingTransport{err: context.DeadlineExceeded}}
	c := &Client{
		Tokens:     ts,
		ClientID:   "test-client-id",
		HTTPClient: &http.Client{Transport: &failingTransport{err: context.DeadlineExceeded}},
	}

	_, _, err := c.ResolveClip(context.Background(), "abc123")
	var ue *clip.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("ResolveClip() error = %v, want *clip.UpstreamError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error chain = %v, want wrapped deadline exceeded", err)
	}
	if got := clip.Stage(err); got != "resolve" {
		t.Errorf("Stage() = %s, want resolve", got)
	}
}

func TestClient_ResolveClipSkipsUnparsableQuality(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/helix/clips", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]string{{"title": "x", "broadcaster_name": "y"}}})
	})
	mux.HandleFunc("/gql", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gqlResponse(9.5, []map[string]any{
			{"quality": "source", "frameRate": 60.0, "sourceURL": "https://cdn.example/source.mp4"},
			{"quality": "720", "frameRate": 30.0, "sourceURL": "https://cdn.example/720.mp4"},
		}, "s", "v"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := clipClient(server.URL, seededTokenSource("test-token"))
	md, _, err := c.ResolveClip(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("ResolveClip() error = %v", err)
	}
	if len(md.Renditions) != 1 || md.Renditions[0].Quality != 720 {
		t.Errorf("Renditions = %+v, want the unparsable label dropped and 720 kept", md.Renditions)
	}
}

func TestClient_ResolveClipReissuesTokenOnce(t *testing.T) {
	tokenFetches := 0
	helixCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		tokenFetches++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fresh-token",
			"expires_in":   3600,
			"token_type":   "bearer",
		})
	})
	mux.HandleFunc("/helix/clips", func(w http.ResponseWriter, r *http.Request) {
		helixCalls++
		if helixCalls == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Authorization") != "Bearer fresh-token" {
			t.Errorf("retry Authorization = %s, want fresh token", r.Header.Get("Authorization"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"title": "t", "broadcaster_name": "b"}},
		})
	})
	mux.HandleFunc("/gql", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gqlResponse(9.5, []map[string]any{
			{"quality": "720", "frameRate": 30.0, "sourceURL": "https://cdn.example/720.mp4"},
		}, "s", "v"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	// Stale seeded token forces the 401 path on the first Helix call.
	ts := seededTokenSource("stale-token")
	ts.HTTPClient = &http.Client{Transport: &rewriteTransport{host: server.URL}}
	c := clipClient(server.URL, ts)

	md, _, err := c.ResolveClip(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("ResolveClip() error = %v", err)
	}
	if md.Title != "t" {
		t.Errorf("Title = %s, want t", md.Title)
	}
	if helixCalls != 2 {
		t.Errorf("helix calls = %d, want 2 (401 then retry)", helixCalls)
	}
	if tokenFetches != 1 {
		t.Errorf("token fetches = %d, want exactly 1 reissue", tokenFetches)
	}
}
