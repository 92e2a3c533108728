package pipeline

import (
	"context"

	"github.com/onnwee/clip-courier/linkscan"
	"github.com/onnwee/clip-courier/streamable"
	"github.com/onnwee/clip-courier/twitchapi"
)

// Resolved is everything a source must produce before media can be fetched.
type Resolved struct {
	Caption  string
	MediaURL string
	Filename string
	// Normalize asks for a container remux even when the file fits the
	// size budget (e.g. mkv attachments the destination cannot inline).
	Normalize bool
}

// Source resolves one detected link into a fetchable media location.
type Source interface {
	Kind() string
	Identifier() string
	Resolve(ctx context.Context) (Resolved, error)
}

// TwitchClipSource resolves a clip slug through Helix metadata plus the
// GQL quality listing, then builds the signed playback URL.
type TwitchClipSource struct {
	Client *twitchapi.Client
	Slug   string
}

func (s *TwitchClipSource) Kind() string       { return "twitch_clip" }
func (s *TwitchClipSource) Identifier() string { return s.Slug }

func (s *TwitchClipSource) Resolve(ctx context.Context) (Resolved, error) {
	md, pair, err := s.Client.ResolveClip(ctx, s.Slug)
	if err != nil {
		return Resolved{}, err
	}
	mediaURL, err := twitchapi.BuildMediaURL(md, pair)
	if err != nil {
		return Resolved{}, err
	}
	caption := md.Title
	if md.Broadcaster != "" {
		caption = md.Broadcaster + " - " + md.Title
	}
	return Resolved{
		Caption:  linkscan.WrapURLs(caption),
		MediaURL: mediaURL,
		Filename: s.Slug + ".mp4",
	}, nil
}

// StreamableSource resolves a streamable.com shortcode to its mp4 file.
type StreamableSource struct {
	Client *streamable.Client
	Slug   string
}

func (s *StreamableSource) Kind() string       { return "streamable" }
func (s *StreamableSource) Identifier() string { return s.Slug }

func (s *StreamableSource) Resolve(ctx context.Context) (Resolved, error) {
	title, mediaURL, err := s.Client.ResolveVideo(ctx, s.Slug)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{
		Caption:  linkscan.WrapURLs(title),
		MediaURL: mediaURL,
		Filename: s.Slug + ".mp4",
	}, nil
}

// AttachmentSource mirrors a direct .mkv file link. The container is
// remuxed to mp4 so the destination renders it inline.
type AttachmentSource struct {
	URL  string
	Name string // filename component of the URL
}

func (s *AttachmentSource) Kind() string       { return "attachment" }
func (s *AttachmentSource) Identifier() string { return s.Name }

func (s *AttachmentSource) Resolve(context.Context) (Resolved, error) {
	return Resolved{
		Caption:   s.Name,
		MediaURL:  s.URL,
		Filename:  s.Name,
		Normalize: true,
	}, nil
}
