package streamable

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/onnwee/clip-courier/clip"
)

// rewriteTransport redirects api.streamable.com requests to a test server.
type rewriteTransport struct {
	host string
}

func (tr *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = strings.TrimPrefix(tr.host, "http://")
	return http.DefaultTransport.RoundTrip(req)
}

func testClient(serverURL string) *Client {
	return &Client{HTTPClient: &http.Client{Transport: &rewriteTransport{host: serverURL}}}
}

func TestClient_ResolveVideo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos/xyz9" {
			t.Errorf("path = %s, want /videos/xyz9", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"title": "funny moment",
			"files": map[string]any{"mp4": map[string]string{"url": "https://cdn.streamable.example/xyz9.mp4"}},
		})
	}))
	defer server.Close()

	title, mediaURL, err := testClient(server.URL).ResolveVideo(context.Background(), "xyz9")
	if err != nil {
		t.Fatalf("ResolveVideo() error = %v", err)
	}
	if title != "funny moment" {
		t.Errorf("title = %q, want funny moment", title)
	}
	if mediaURL != "https://cdn.streamable.example/xyz9.mp4" {
		t.Errorf("mediaURL = %q, want direct mp4 url", mediaURL)
	}
}

func TestClient_ResolveVideoNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, _, err := testClient(server.URL).ResolveVideo(context.Background(), "gone")
	var nf *clip.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("ResolveVideo() error = %v, want *clip.NotFoundError", err)
	}
}

func TestClient_ResolveVideoErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("oops"))
			},
			check: func(t *testing.T, err error) {
				var ue *clip.UpstreamError
				if !errors.As(err, &ue) {
					t.Errorf("error = %v, want *clip.UpstreamError", err)
				}
			},
		},
		{
			name: "missing mp4",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"title": "t", "files": map[string]any{}})
			},
			check: func(t *testing.T, err error) {
				var le *clip.LocationError
				if !errors.As(err, &le) {
					t.Errorf("error = %v, want *clip.LocationError", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()
			_, _, err := testClient(server.URL).ResolveVideo(context.Background(), "slug")
			if err == nil {
				t.Fatal("ResolveVideo() error = nil, want error")
			}
			tt.check(t, err)
		})
	}
}
