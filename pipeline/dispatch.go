package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/onnwee/clip-courier/linkscan"
	"github.com/onnwee/clip-courier/streamable"
	"github.com/onnwee/clip-courier/twitchapi"
)

// TextDeliverer posts a plain text message to the destination.
type TextDeliverer interface {
	DeliverText(ctx context.Context, text string) error
}

// Dispatcher scans chat messages for links and starts a pipeline run per
// recognized media link. Rewrite links skip the pipeline entirely and are
// re-posted as text.
type Dispatcher struct {
	Pipeline   *Pipeline
	Twitch     *twitchapi.Client
	Streamable *streamable.Client
	Text       TextDeliverer

	wg sync.WaitGroup
}

// HandleMessage processes one chat line. Runs are started in the background;
// call Wait to drain them.
func (d *Dispatcher) HandleMessage(ctx context.Context, text string) {
	for _, link := range linkscan.Scan(text) {
		if link.Kind == linkscan.KindRewrite {
			if d.Text == nil {
				continue
			}
			if err := d.Text.DeliverText(ctx, link.URL); err != nil {
				slog.Error("rewrite delivery failed", slog.String("url", link.URL), slog.String("error", err.Error()))
			}
			continue
		}
		src := d.newSource(link)
		if src == nil {
			continue
		}
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			_ = d.Pipeline.Run(ctx, src)
		}()
	}
}

func (d *Dispatcher) newSource(link linkscan.Link) Source {
	switch link.Kind {
	case linkscan.KindTwitchClip:
		if d.Twitch == nil {
			return nil
		}
		return &TwitchClipSource{Client: d.Twitch, Slug: link.Slug}
	case linkscan.KindStreamable:
		if d.Streamable == nil {
			return nil
		}
		return &StreamableSource{Client: d.Streamable, Slug: link.Slug}
	case linkscan.KindAttachment:
		return &AttachmentSource{URL: link.URL, Name: link.Slug}
	default:
		return nil
	}
}

// Wait blocks until all in-flight runs finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
