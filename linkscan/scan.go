// Package linkscan finds recognized media links in chat message text and
// classifies them into source kinds for the mirror pipeline.
package linkscan

import (
	"regexp"
	"strings"
)

// Kind tags a detected link with its source.
type Kind int

const (
	// KindTwitchClip is a Twitch clip in either URL shape.
	KindTwitchClip Kind = iota
	// KindStreamable is a streamable.com video.
	KindStreamable
	// KindAttachment is a direct video file URL needing remux or shrink.
	KindAttachment
	// KindRewrite is a social link re-posted with a richer front-end host.
	KindRewrite
)

func (k Kind) String() string {
	switch k {
	case KindTwitchClip:
		return "twitch"
	case KindStreamable:
		return "streamable"
	case KindAttachment:
		return "attachment"
	case KindRewrite:
		return "rewrite"
	default:
		return "unknown"
	}
}

// Link is one classified match. Slug identifies the media for pipeline
// deduplication; URL is the full original link (rewritten for KindRewrite).
type Link struct {
	Kind Kind
	Slug string
	URL  string
}

var (
	urlToken      = regexp.MustCompile(`https?://[^\s<>]+`)
	clipShortRe   = regexp.MustCompile(`^https://clips\.twitch\.tv/([A-Za-z0-9_-]+)$`)
	clipChannelRe = regexp.MustCompile(`^https://(?:www\.)?twitch\.tv/[A-Za-z0-9_-]+/clip/([A-Za-z0-9_-]+)$`)
	streamableRe  = regexp.MustCompile(`^https://streamable\.com/([A-Za-z0-9_-]+)$`)
	statusRe      = regexp.MustCompile(`^https://(?:www\.)?(twitter|x)\.com/[A-Za-z0-9_]+/status/\d+$`)
	bareURLRe     = regexp.MustCompile(`https?://[^\s]+`)
)

// Scan walks the text once, classifies every URL token, and returns the
// recognized links with duplicate identifiers removed (first occurrence
// wins). Unrecognized URLs are ignored.
func Scan(text string) []Link {
	var out []Link
	seen := map[string]bool{}
	for _, tok := range urlToken.FindAllString(text, -1) {
		tok = strings.TrimRight(tok, ".,;:!?)")
		link, ok := Classify(tok)
		if !ok {
			continue
		}
		key := link.Kind.String() + ":" + link.Slug
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, link)
	}
	return out
}

// Classify maps one URL to a Link, reporting whether it is recognized.
func Classify(rawURL string) (Link, bool) {
	if m := clipShortRe.FindStringSubmatch(rawURL); m != nil {
		return Link{Kind: KindTwitchClip, Slug: m[1], URL: rawURL}, true
	}
	if m := clipChannelRe.FindStringSubmatch(rawURL); m != nil {
		return Link{Kind: KindTwitchClip, Slug: m[1], URL: rawURL}, true
	}
	if m := streamableRe.FindStringSubmatch(rawURL); m != nil {
		return Link{Kind: KindStreamable, Slug: m[1], URL: rawURL}, true
	}
	if statusRe.MatchString(rawURL) {
		return Link{Kind: KindRewrite, Slug: rawURL, URL: Rewrite(rawURL)}, true
	}
	if strings.HasSuffix(rawURL, ".mkv") {
		slug := rawURL[strings.LastIndex(rawURL, "/")+1:]
		return Link{Kind: KindAttachment, Slug: slug, URL: rawURL}, true
	}
	return Link{}, false
}

// Rewrite swaps twitter.com / x.com status hosts for the front-end that
// renders full video previews.
func Rewrite(rawURL string) string {
	s := strings.Replace(rawURL, "//www.", "//", 1)
	s = strings.Replace(s, "//twitter.com/", "//fxtwitter.com/", 1)
	s = strings.Replace(s, "//x.com/", "//fxtwitter.com/", 1)
	return s
}

// WrapURLs wraps every bare URL in the text in angle brackets so the
// destination platform does not unfurl a duplicate preview for it.
func WrapURLs(text string) string {
	return bareURLRe.ReplaceAllString(text, "<$0>")
}
