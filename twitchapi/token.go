// Package twitchapi resolves Twitch clips to directly fetchable media URLs:
// app token acquisition (client credentials), Helix clip lookup, the GQL
// VideoQualities query, and signed playback URL construction.
package twitchapi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/onnwee/clip-courier/clip"
)

const tokenURL = "https://id.twitch.tv/oauth2/token"

// TokenSource fetches and caches a Twitch app access (client credentials) token.
// NOTE: this token cannot be used for IRC chat; chat requires a user (bot)
// OAuth token with chat:read/chat:edit scopes.
type TokenSource struct {
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client

	mu        sync.RWMutex
	token     string
	issuedAt  time.Time
	expiresAt time.Time
}

// Get returns a valid (fresh or cached) app access token.
func (ts *TokenSource) Get(ctx context.Context) (string, error) {
	ts.mu.RLock()
	if ts.token != "" && time.Until(ts.expiresAt) > 60*time.Second { // 1 min buffer
		tok := ts.token
		ts.mu.RUnlock()
		return tok, nil
	}
	ts.mu.RUnlock()
	return ts.refresh(ctx)
}

// Invalidate drops the cached token so the next Get performs a fresh
// exchange. Callers use this for the single reissue-and-retry after an
// authentication failure on an API call.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	ts.token = ""
	ts.mu.Unlock()
}

func (ts *TokenSource) refresh(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.token != "" && time.Until(ts.expiresAt) > 60*time.Second {
		return ts.token, nil
	}
	if ts.ClientID == "" || ts.ClientSecret == "" {
		return "", errors.New("missing client id/secret for twitch app token")
	}
	cc := &clientcredentials.Config{
		ClientID:     ts.ClientID,
		ClientSecret: ts.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	if ts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, ts.HTTPClient)
	}
	tok, err := cc.Token(ctx)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			status := ""
			if re.Response != nil {
				status = re.Response.Status
			}
			return "", &clip.AuthError{Status: status, Body: string(re.Body)}
		}
		// transport failure (timeout, refused connection): still the auth stage
		return "", &clip.AuthError{Err: err}
	}
	if tok.AccessToken == "" {
		return "", &clip.AuthError{Err: errors.New("empty access_token in twitch response")}
	}
	ts.token = tok.AccessToken
	ts.issuedAt = time.Now()
	ts.expiresAt = tok.Expiry
	if tok.Expiry.IsZero() {
		ts.expiresAt = ts.issuedAt.Add(time.Hour)
	}
	return ts.token, nil
}
