package hrapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// UploadKind is the folder an uploaded file is served from.
type UploadKind string

const (
	UploadProfilePictures UploadKind = "profile-pictures"
	UploadDocuments       UploadKind = "documents"
)

// UploadsURL returns the root that serves uploaded files.
func (c *Client) UploadsURL() string {
	return c.uploadsURL
}

// FileURL resolves a stored file reference to a URL. References may be a
// bare file name, an "uploads/<kind>/<name>" path or already absolute.
func (c *Client) FileURL(kind UploadKind, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	ref = strings.ReplaceAll(ref, "\\", "/")
	ref = strings.TrimLeft(ref, "/")
	ref = strings.TrimPrefix(ref, "uploads/")
	ref = strings.TrimPrefix(ref, string(kind)+"/")
	return c.uploadsURL + "/" + string(kind) + "/" + url.PathEscape(path.Base(ref))
}

// Download streams the file at rawURL into w and returns the byte count.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("hrapi: download %s: %w", rawURL, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set(RequestIDHeader, c.requestID())
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("hrapi: download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &StatusError{Method: http.MethodGet, Path: req.URL.Path, StatusCode: resp.StatusCode}
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("hrapi: download %s: %w", rawURL, err)
	}
	c.logger.Info().Str("url", rawURL).Int64("bytes", n).Msg("download")
	return n, nil
}
