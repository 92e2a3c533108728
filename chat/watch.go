// Package chat connects to Twitch IRC and feeds channel messages to the
// link dispatcher. It also carries short status notices back to the channel.
package chat

import (
	"context"
	"log/slog"
	"strings"

	twitch "github.com/gempir/go-twitch-irc/v4"
)

// Handler receives every channel message the bot did not send itself.
type Handler func(ctx context.Context, text string)

// Watcher is a single-channel IRC client. Zero value is not usable; build
// with New.
type Watcher struct {
	client   *twitch.Client
	channel  string
	username string
}

// New builds a watcher for one channel. oauth is the IRC token including the
// "oauth:" prefix.
func New(username, oauth, channel string) *Watcher {
	return &Watcher{
		client:   twitch.NewClient(username, oauth),
		channel:  channel,
		username: strings.ToLower(username),
	}
}

// Run connects and blocks until the context is canceled or the connection
// fails. Messages from the bot's own account are dropped so re-posted links
// cannot trigger further runs.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	w.client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		if w.ownMessage(msg.User.Name) {
			return
		}
		handle(ctx, msg.Message)
	})

	go func() {
		<-ctx.Done()
		w.client.Disconnect()
	}()

	w.client.Join(w.channel)
	err := w.client.Connect()
	if ctx.Err() != nil {
		// Disconnect makes Connect return an error we do not care about
		return nil
	}
	if err != nil {
		slog.Error("twitch chat connect error", slog.Any("err", err))
	}
	return err
}

func (w *Watcher) ownMessage(user string) bool {
	return strings.ToLower(user) == w.username
}

// Notify posts a short status line to the channel.
func (w *Watcher) Notify(_ context.Context, text string) {
	w.client.Say(w.channel, text)
}
