// Package remote is the HTTP transport between a sketchpad Session and a
// snapshot store such as snapstore.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/webp" // register decoder

	"github.com/phanxgames/sketchpad"
)

// Endpoint paths served by a snapshot store.
const (
	PathSave    = "/api/canvas/save"
	PathLoad    = "/api/canvas/load"
	PathUpload  = "/api/upload"
	PathUploads = "/uploads/"
)

// maxErrorBody caps how much of a failed response is quoted in errors.
const maxErrorBody = 512

// Client talks to a snapshot store over HTTP. It implements
// sketchpad.Remote and sketchpad.BitmapLoader.
type Client struct {
	base *url.URL
	http *http.Client
}

var (
	_ sketchpad.Remote       = (*Client)(nil)
	_ sketchpad.BitmapLoader = (*Client)(nil)
)

// NewClient returns a client for the store at baseURL. hc may be nil to use
// http.DefaultClient. No request timeout is imposed here; callers bound
// requests through the context.
func NewClient(baseURL string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse base url: unsupported scheme %q", u.Scheme)
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: u, http: hc}, nil
}

// BaseURL returns the store address.
func (c *Client) BaseURL() string { return c.base.String() }

// resolve turns a path or absolute URL into an absolute URL on the store.
func (c *Client) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse ref %q: %w", ref, err)
	}
	return c.base.ResolveReference(u).String(), nil
}

// Save posts a delta payload.
func (c *Client) Save(ctx context.Context, p *sketchpad.SavePayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.String()+PathSave, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return statusError("save", resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Load fetches the full snapshot. A store with nothing saved answers 404,
// which is read as an empty scene.
func (c *Client) Load(ctx context.Context) (*sketchpad.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+PathLoad, nil)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return &sketchpad.Snapshot{}, nil
	}
	if resp.StatusCode/100 != 2 {
		return nil, statusError("load", resp)
	}
	var snap sketchpad.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// uploadResponse accepts both the legacy {"filename"} answer and a direct
// {"url"}.
type uploadResponse struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// UploadImage posts data as multipart field "image" and returns the
// absolute URL of the stored file.
func (c *Client) UploadImage(ctx context.Context, name string, data []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", name)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.String()+PathUpload, &buf)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", statusError("upload", resp)
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	switch {
	case out.URL != "":
		return c.resolve(out.URL)
	case out.Filename != "":
		return c.resolve(PathUploads + url.PathEscape(out.Filename))
	default:
		return "", fmt.Errorf("upload: response carries no reference")
	}
}

// LoadBitmap fetches ref (absolute, or relative to the store) and decodes
// it.
func (c *Client) LoadBitmap(ctx context.Context, ref string) (image.Image, error) {
	abs, err := c.resolve(ref)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, abs, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch bitmap: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bitmap: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, statusError("fetch bitmap", resp)
	}
	return DecodeBitmap(resp.Body)
}

// DecodeBitmap decodes PNG, JPEG, GIF, BMP or WebP data.
func DecodeBitmap(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode bitmap: %w", err)
	}
	sketchpad.Logger().Debug("bitmap decoded", "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return img, nil
}

// StatusError reports a non-2xx answer from the store.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Body)
}

func statusError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}
