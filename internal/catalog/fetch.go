package catalog

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	userAgent       = "spigell/catalog-assets"
	contentEncoding = "gzip"
)

// Client fetches catalogs published over HTTP.
type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
}

func NewClient(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		UserAgent: userAgent,
	}
}

// Fetch downloads and parses the catalog at url. The response is never cached.
func (c *Client) Fetch(ctx context.Context, url string) (*Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set("Cache-Control", "no-store")

	c.logger.Debug("make request", zap.String("url", url))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == contentEncoding {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// IsRemote reports whether source points to an HTTP(S) location.
func IsRemote(source string) bool {
	lower := strings.ToLower(strings.TrimSpace(source))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Open loads the catalog from a URL or from a file on fs.
func Open(ctx context.Context, fs afero.Fs, client *Client, source string) (*Catalog, error) {
	if IsRemote(source) {
		if client == nil {
			client = NewClient(nil)
		}
		c, err := client.Fetch(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("fetching catalog %q: %w", source, err)
		}
		return c, nil
	}

	return NewStore(fs, source).Load()
}
