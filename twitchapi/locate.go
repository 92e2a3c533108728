package twitchapi

import (
	"net/url"

	"github.com/onnwee/clip-courier/clip"
)

// BuildMediaURL selects the highest-quality rendition and appends the signed
// access pair as query parameters. A strict greater-than comparison keeps the
// first rendition encountered on ties, mirroring upstream listing order.
// Incomplete inputs (no renditions, missing source URL, missing signature or
// token) fail rather than degrade to a guessed URL.
func BuildMediaURL(md clip.Metadata, pair clip.AccessPair) (string, error) {
	if len(md.Renditions) == 0 {
		return "", &clip.LocationError{Reason: "no video qualities"}
	}
	best := md.Renditions[0]
	for _, r := range md.Renditions[1:] {
		if r.Quality > best.Quality {
			best = r
		}
	}
	if best.SourceURL == "" {
		return "", &clip.LocationError{Reason: "rendition missing source url"}
	}
	if pair.Signature == "" || pair.Value == "" {
		return "", &clip.LocationError{Reason: "missing playback access token"}
	}
	return best.SourceURL + "?sig=" + pair.Signature + "&token=" + url.QueryEscape(pair.Value), nil
}
