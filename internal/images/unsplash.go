// Package images sources illustration photos from the Unsplash API and
// downloads them alongside generated documents.
package images

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/sizzlebop/CLIche/internal/document"
	"github.com/sizzlebop/CLIche/internal/logging"
)

const unsplashEndpoint = "https://api.unsplash.com/search/photos"

// Image is a photo ready for placement.
type Image struct {
	ID          string
	Description string
	URL         string // display-size image URL
	PageURL     string // photo page for attribution
	Author      string
	AuthorURL   string
	LocalPath   string // set after Download
}

// Client talks to the Unsplash search API.
type Client struct {
	accessKey  string
	endpoint   string
	httpClient *http.Client
}

// ClientConfig holds configuration for the Unsplash client.
type ClientConfig struct {
	AccessKey string
	Endpoint  string
	Timeout   time.Duration
}

// NewClient builds an Unsplash client. Returns nil when no key is set so
// callers can treat image sourcing as unavailable.
func NewClient(accessKey string) *Client {
	return NewClientWithConfig(ClientConfig{AccessKey: accessKey})
}

// NewClientWithConfig builds an Unsplash client with custom config.
func NewClientWithConfig(cfg ClientConfig) *Client {
	if cfg.AccessKey == "" {
		return nil
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = unsplashEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		accessKey:  cfg.AccessKey,
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type unsplashResponse struct {
	Results []struct {
		ID             string `json:"id"`
		Description    string `json:"description"`
		AltDescription string `json:"alt_description"`
		URLs           struct {
			Regular string `json:"regular"`
		} `json:"urls"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
		User struct {
			Name  string `json:"name"`
			Links struct {
				HTML string `json:"html"`
			} `json:"links"`
		} `json:"user"`
	} `json:"results"`
}

// Search returns up to count photos matching the query.
func (c *Client) Search(ctx context.Context, query string, count int) ([]Image, error) {
	if count <= 0 {
		count = 1
	}
	reqURL := fmt.Sprintf("%s?query=%s&per_page=%d", c.endpoint, url.QueryEscape(query), count)

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unsplash request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unsplash HTTP %d: %s", resp.StatusCode, string(body))
	}

	var ur unsplashResponse
	if err := json.Unmarshal(body, &ur); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	images := make([]Image, 0, len(ur.Results))
	for _, r := range ur.Results {
		desc := r.Description
		if desc == "" {
			desc = r.AltDescription
		}
		images = append(images, Image{
			ID:          r.ID,
			Description: desc,
			URL:         r.URLs.Regular,
			PageURL:     r.Links.HTML,
			Author:      r.User.Name,
			AuthorURL:   r.User.Links.HTML,
		})
	}
	logging.Images("unsplash returned %d photos for %q", len(images), query)
	return images, nil
}

// Download saves the image under dir and records the local path on the
// returned copy.
func (c *Client) Download(ctx context.Context, img Image, dir string) (Image, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return img, fmt.Errorf("create image dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", img.URL, nil)
	if err != nil {
		return img, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return img, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return img, fmt.Errorf("download image: HTTP %d", resp.StatusCode)
	}

	path := document.UniquePath(dir, document.Slugify(img.ID), ".jpg")
	f, err := os.Create(path)
	if err != nil {
		return img, fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return img, fmt.Errorf("save image: %w", err)
	}

	img.LocalPath = path
	logging.Images("downloaded %s to %s", img.ID, filepath.Base(path))
	return img, nil
}
