// Package delivery posts finished artifacts and text messages to a
// webhook-style destination.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/onnwee/clip-courier/clip"
)

// Webhook delivers via a single incoming-webhook URL. The file is streamed
// as a multipart upload so artifacts never need to fit in memory.
type Webhook struct {
	URL        string
	HTTPClient *http.Client
}

func (w *Webhook) http() *http.Client {
	if w.HTTPClient != nil {
		return w.HTTPClient
	}
	return http.DefaultClient
}

// DeliverFile posts path as a file attachment with caption as the message
// body.
func (w *Webhook) DeliverFile(ctx context.Context, caption, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &clip.DeliverError{Err: err}
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := writeParts(mw, caption, filepath.Base(path), f)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, pr)
	if err != nil {
		return &clip.DeliverError{Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.http().Do(req)
	if err != nil {
		return &clip.DeliverError{Err: err}
	}
	defer func() {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &clip.DeliverError{Err: fmt.Errorf("webhook returned %s", resp.Status)}
	}
	return nil
}

func writeParts(mw *multipart.Writer, caption, filename string, f io.Reader) error {
	if caption != "" {
		if err := mw.WriteField("content", caption); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("file1", filename)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

// DeliverText posts a plain message with no attachment.
func (w *Webhook) DeliverText(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return &clip.DeliverError{Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return &clip.DeliverError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http().Do(req)
	if err != nil {
		return &clip.DeliverError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &clip.DeliverError{Err: fmt.Errorf("webhook returned %s", resp.Status)}
	}
	return nil
}
