// Package clip defines the domain types and error kinds shared by the
// resolution, fetch, and transcode stages of the mirror pipeline.
package clip

// Rendition is one available encoded version of a clip. Quality compares as
// an integer (e.g. 1080 > 480); FrameRate is informational.
type Rendition struct {
	Quality   int
	FrameRate float64
	SourceURL string
}

// Metadata describes a resolved clip. Immutable once constructed from the
// upstream responses. Renditions keep upstream listing order.
type Metadata struct {
	Slug        string
	Title       string
	Broadcaster string
	Duration    float64 // seconds
	Renditions  []Rendition
}

// AccessPair is the short-lived signature + opaque token authorizing direct
// playback fetches. It is consumed by URL construction and never persisted.
type AccessPair struct {
	Signature string
	Value     string
}

// Artifact is a fetched or transcoded media file on local disk.
type Artifact struct {
	Path     string
	Size     int64
	Duration float64 // seconds; zero when not yet probed
}
