package document

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// FromURL fetches a remote image or PDF and decodes it. The content type
// decides the decoder; application/pdf goes through the rasterizer.
func FromURL(ctx context.Context, client *http.Client, url string) (Document, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Document{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Document{}, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", url, err)
	}

	ct := resp.Header.Get("Content-Type")
	if strings.Contains(ct, "application/pdf") || strings.HasSuffix(strings.ToLower(url), ".pdf") {
		return FromPDFBytes(data, url, 0)
	}
	return FromBytes(data, url)
}
